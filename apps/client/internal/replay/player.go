package replay

import (
	"bufio"
	"errors"
	"io"

	"google.golang.org/protobuf/encoding/protodelim"
	"google.golang.org/protobuf/types/known/structpb"

	"holdem-sync/apps/client/internal/transport"
)

// ReadTape decodes every entry of a tape. A truncated final entry is an error.
func ReadTape(r io.Reader) ([]Entry, error) {
	br := bufio.NewReader(r)
	var entries []Entry
	for {
		msg := &structpb.Struct{}
		err := protodelim.UnmarshalFrom(br, msg)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, &TapeError{Index: len(entries), Reason: "decode_failed", Message: err.Error()}
		}
		e, err := entryFromStruct(len(entries), msg)
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
}

// Play delivers the entries to l in order, synchronously.
func Play(entries []Entry, l transport.Listener) {
	for _, e := range entries {
		switch e.Kind {
		case KindOpen:
			l.OnOpen()
		case KindClose:
			l.OnClose()
		case KindError:
			l.OnError(e.Message)
		case KindMessage:
			l.OnMessage(e.Frame)
		case KindReconnect:
			l.OnReconnectAttempt(e.Attempt, e.Delay)
		}
	}
}

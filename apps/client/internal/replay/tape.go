// Package replay records the inbound side of a connection to a tape and
// plays it back into any transport.Listener.
package replay

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// TapeVersion is written into every entry so readers can reject tapes
// from an incompatible recorder.
const TapeVersion = 1

type Kind string

const (
	KindOpen      Kind = "open"
	KindClose     Kind = "close"
	KindError     Kind = "error"
	KindMessage   Kind = "message"
	KindReconnect Kind = "reconnect"
)

// Entry is one recorded listener callback.
type Entry struct {
	Seq     uint64
	Kind    Kind
	At      time.Time
	Frame   []byte
	Message string
	Attempt int
	Delay   time.Duration
}

func (e Entry) toStruct() (*structpb.Struct, error) {
	fields := map[string]any{
		"v":    TapeVersion,
		"seq":  e.Seq,
		"kind": string(e.Kind),
		"atMs": e.At.UnixMilli(),
	}
	switch e.Kind {
	case KindMessage:
		fields["frame"] = string(e.Frame)
	case KindError:
		fields["message"] = e.Message
	case KindReconnect:
		fields["attempt"] = e.Attempt
		fields["delayMs"] = e.Delay.Milliseconds()
	}
	return structpb.NewStruct(fields)
}

func entryFromStruct(index int, s *structpb.Struct) (Entry, error) {
	f := s.GetFields()
	if v := int(f["v"].GetNumberValue()); v != TapeVersion {
		return Entry{}, &TapeError{Index: index, Reason: "unsupported_version", Message: fmt.Sprintf("tape version %d", v)}
	}
	e := Entry{
		Seq:  uint64(f["seq"].GetNumberValue()),
		Kind: Kind(f["kind"].GetStringValue()),
		At:   time.UnixMilli(int64(f["atMs"].GetNumberValue())),
	}
	switch e.Kind {
	case KindOpen, KindClose:
	case KindMessage:
		e.Frame = []byte(f["frame"].GetStringValue())
	case KindError:
		e.Message = f["message"].GetStringValue()
	case KindReconnect:
		e.Attempt = int(f["attempt"].GetNumberValue())
		e.Delay = time.Duration(f["delayMs"].GetNumberValue()) * time.Millisecond
	default:
		return Entry{}, &TapeError{Index: index, Reason: "unknown_kind", Message: fmt.Sprintf("kind %q", e.Kind)}
	}
	return e, nil
}

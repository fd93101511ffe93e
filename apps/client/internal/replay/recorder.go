package replay

import (
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/protobuf/encoding/protodelim"

	"holdem-sync/apps/client/internal/transport"
)

// Recorder is a transport.Listener that appends every callback to a tape
// before forwarding it. Recording failures are logged and remembered but
// never block delivery.
type Recorder struct {
	next transport.Listener
	log  *zap.Logger
	now  func() time.Time

	mu  sync.Mutex
	w   io.Writer
	seq uint64
	err error
}

func NewRecorder(w io.Writer, next transport.Listener, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{
		next: next,
		log:  logger.Named("replay"),
		now:  time.Now,
		w:    w,
	}
}

func (r *Recorder) OnOpen() {
	r.record(Entry{Kind: KindOpen})
	r.next.OnOpen()
}

func (r *Recorder) OnClose() {
	r.record(Entry{Kind: KindClose})
	r.next.OnClose()
}

func (r *Recorder) OnError(message string) {
	r.record(Entry{Kind: KindError, Message: message})
	r.next.OnError(message)
}

func (r *Recorder) OnMessage(frame []byte) {
	r.record(Entry{Kind: KindMessage, Frame: frame})
	r.next.OnMessage(frame)
}

func (r *Recorder) OnReconnectAttempt(attempt int, delay time.Duration) {
	r.record(Entry{Kind: KindReconnect, Attempt: attempt, Delay: delay})
	r.next.OnReconnectAttempt(attempt, delay)
}

// Err returns the first write failure, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Count is the number of entries written so far.
func (r *Recorder) Count() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

func (r *Recorder) record(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	r.seq++
	e.Seq = r.seq
	e.At = r.now()

	msg, err := e.toStruct()
	if err == nil {
		_, err = protodelim.MarshalTo(r.w, msg)
	}
	if err != nil {
		r.err = err
		r.log.Warn("tape write failed, recording stopped", zap.Uint64("seq", e.Seq), zap.Error(err))
	}
}

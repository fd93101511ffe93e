package replay

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdem-sync/apps/client/internal/store"
)

const (
	joinFrame  = `{"type":"joinSuccess","userId":"u1"}`
	stateFrame = `{"type":"gameState","data":{"hostId":"u1","isGameInProgress":true,
		"game":{"stage":"Flop","currentBet":0,"minRaise":20,"currentActor":0,
		"seats":[{"id":"u1","name":"alice","chips":500,"status":"Active"}]}}}`
)

func drive(l interface {
	OnOpen()
	OnClose()
	OnError(string)
	OnMessage([]byte)
	OnReconnectAttempt(int, time.Duration)
}) {
	l.OnOpen()
	l.OnMessage([]byte(joinFrame))
	l.OnMessage([]byte(`{"type":"gameState","data":"broken"}`))
	l.OnClose()
	l.OnReconnectAttempt(2, 2*time.Second)
	l.OnError("WebSocket error.")
	l.OnOpen()
	l.OnMessage([]byte(stateFrame))
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(store.Options{NotificationTTL: -1, PendingTimeout: -1, RevealDelay: -1})
	t.Cleanup(st.Close)
	return st
}

func messages(st store.State) []string {
	var out []string
	for _, n := range st.UI.Notifications {
		out = append(out, n.Message)
	}
	return out
}

func TestRecordedTapeReplaysToSameState(t *testing.T) {
	live := newStore(t)
	var tape bytes.Buffer
	rec := NewRecorder(&tape, live, nil)
	drive(rec)
	require.NoError(t, rec.Err())
	assert.Equal(t, uint64(8), rec.Count())

	entries, err := ReadTape(bytes.NewReader(tape.Bytes()))
	require.NoError(t, err)
	require.Len(t, entries, 8)
	assert.Equal(t, KindOpen, entries[0].Kind)
	assert.Equal(t, uint64(1), entries[0].Seq)
	assert.Equal(t, joinFrame, string(entries[1].Frame))
	assert.Equal(t, 2, entries[4].Attempt)
	assert.Equal(t, 2*time.Second, entries[4].Delay)
	assert.Equal(t, "WebSocket error.", entries[5].Message)

	replayed := newStore(t)
	Play(entries, replayed)

	want, got := live.State(), replayed.State()
	assert.Equal(t, want.Connection, got.Connection)
	assert.Equal(t, want.Snapshot, got.Snapshot)
	assert.Equal(t, messages(want), messages(got))
	assert.Equal(t, store.StatusConnected, got.Connection.Status)
	assert.Equal(t, "u1", got.Connection.UserID)
}

func TestPlayIsDeterministic(t *testing.T) {
	var tape bytes.Buffer
	drive(NewRecorder(&tape, newStore(t), nil))
	entries, err := ReadTape(&tape)
	require.NoError(t, err)

	a, b := newStore(t), newStore(t)
	Play(entries, a)
	Play(entries, b)
	assert.Equal(t, a.State().Snapshot, b.State().Snapshot)
	assert.Equal(t, a.State().Connection, b.State().Connection)
}

func TestReadTapeRejectsTruncatedTape(t *testing.T) {
	var tape bytes.Buffer
	drive(NewRecorder(&tape, newStore(t), nil))
	cut := tape.Bytes()[:tape.Len()-3]

	entries, err := ReadTape(bytes.NewReader(cut))
	var tapeErr *TapeError
	require.ErrorAs(t, err, &tapeErr)
	assert.Equal(t, "decode_failed", tapeErr.Reason)
	assert.Equal(t, 7, tapeErr.Index)
	assert.Len(t, entries, 7)
}

func TestReadEmptyTape(t *testing.T) {
	entries, err := ReadTape(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, assert.AnError }

func TestRecorderForwardsDespiteWriteFailure(t *testing.T) {
	live := newStore(t)
	rec := NewRecorder(failingWriter{}, live, nil)
	rec.OnOpen()
	rec.OnMessage([]byte(joinFrame))

	assert.ErrorIs(t, rec.Err(), assert.AnError)
	assert.Equal(t, "u1", live.State().Connection.UserID)
}

package store

import (
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdem-sync/apps/client/internal/session"
	"holdem-sync/holdem"
)

type fakeTransport struct {
	mu          sync.Mutex
	sendOK      bool
	connects    int
	disconnects []bool
	sent        [][]byte
	joinFrame   []byte
}

func (f *fakeTransport) Connect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects++
}

func (f *fakeTransport) Disconnect(manual bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects = append(f.disconnects, manual)
}

func (f *fakeTransport) Send(frame []byte) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.sendOK {
		return false
	}
	f.sent = append(f.sent, append([]byte(nil), frame...))
	return true
}

func (f *fakeTransport) SetJoinFrame(frame []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joinFrame = frame
}

func (f *fakeTransport) setSendOK(ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendOK = ok
}

func (f *fakeTransport) snapshot() (connects int, disconnects []bool, sent []map[string]any, join map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, frame := range f.sent {
		var m map[string]any
		_ = json.Unmarshal(frame, &m)
		sent = append(sent, m)
	}
	if f.joinFrame != nil {
		_ = json.Unmarshal(f.joinFrame, &join)
	}
	return f.connects, append([]bool(nil), f.disconnects...), sent, join
}

type harness struct {
	store *Store
	tr    *fakeTransport
	sess  *session.Session
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{tr: &fakeTransport{}, sess: opts.Session}
	if h.sess == nil {
		h.sess = session.NewMemory()
	}
	opts.Transport = h.tr
	opts.Session = h.sess
	if opts.NotificationTTL == 0 {
		opts.NotificationTTL = time.Hour
	}
	if opts.PendingTimeout == 0 {
		opts.PendingTimeout = time.Hour
	}
	h.store = New(opts)
	t.Cleanup(h.store.Close)
	return h
}

// joined drives the store to a connected, joined state as user u1.
func (h *harness) joined(t *testing.T) {
	t.Helper()
	h.tr.setSendOK(true)
	require.True(t, h.store.JoinRoom("alice"))
	h.store.OnOpen()
	h.store.OnMessage([]byte(`{"type":"joinSuccess","userId":"u1"}`))
	require.True(t, h.store.State().Connection.HasJoined)
}

const preFlopState = `{"type":"gameState","data":{
	"users":[{"id":"u1","name":"alice"},{"id":"u2","name":"bob"}],
	"hostId":"u1","isGameInProgress":true,
	"game":{"stage":"PreFlop","currentBet":20,"minRaise":20,"currentActor":0,
		"seats":[
			{"id":"u1","name":"alice","chips":1000,"currentBet":0,"status":"Active"},
			{"id":"u2","name":"bob","chips":980,"currentBet":20,"status":"Active"}
		]}}}`

func TestJoinRoomRejectsWhitespaceName(t *testing.T) {
	h := newHarness(t, Options{})
	assert.False(t, h.store.JoinRoom("   \t"))

	st := h.store.State()
	require.Len(t, st.UI.Notifications, 1)
	assert.Equal(t, "Name is required.", st.UI.Notifications[0].Message)
	assert.Equal(t, SeverityError, st.UI.Notifications[0].Severity)
	assert.Equal(t, StatusDisconnected, st.Connection.Status)

	connects, _, sent, join := h.tr.snapshot()
	assert.Zero(t, connects)
	assert.Empty(t, sent)
	assert.Nil(t, join)
}

func TestJoinRoomRegistersIntentAndConnects(t *testing.T) {
	h := newHarness(t, Options{})
	require.True(t, h.store.JoinRoom("  alice  "))

	st := h.store.State()
	assert.Equal(t, StatusConnecting, st.Connection.Status)
	assert.Equal(t, "alice", st.Connection.PlayerName)

	connects, _, _, join := h.tr.snapshot()
	assert.Equal(t, 1, connects)
	assert.Equal(t, map[string]any{"action": "join", "name": "alice", "id": ""}, join)
}

func TestJoinSuccessPersistsIdentityAndRebindsIntent(t *testing.T) {
	h := newHarness(t, Options{})
	h.joined(t)

	st := h.store.State()
	assert.Equal(t, "u1", st.Connection.UserID)
	assert.Equal(t, StatusConnected, st.Connection.Status)
	assert.Equal(t, session.Record{UserID: "u1", Name: "alice"}, h.sess.Load())

	_, _, _, join := h.tr.snapshot()
	assert.Equal(t, "u1", join["id"])
}

func TestResumeUsesStoredSession(t *testing.T) {
	sess := session.NewMemory()
	sess.Save("u9", "zed")
	h := newHarness(t, Options{Session: sess})

	st := h.store.State()
	assert.Equal(t, "u9", st.Connection.UserID)
	assert.Equal(t, "zed", st.Connection.PlayerName)

	require.True(t, h.store.Resume())
	connects, _, _, join := h.tr.snapshot()
	assert.Equal(t, 1, connects)
	assert.Equal(t, map[string]any{"action": "join", "name": "zed", "id": "u9"}, join)
	assert.Equal(t, StatusConnecting, h.store.State().Connection.Status)
}

func TestResumeWithoutSessionDoesNothing(t *testing.T) {
	h := newHarness(t, Options{})
	assert.False(t, h.store.Resume())
	connects, _, _, _ := h.tr.snapshot()
	assert.Zero(t, connects)
}

func TestSendFailureNeverMarksPending(t *testing.T) {
	h := newHarness(t, Options{})
	assert.False(t, h.store.Act(holdem.CommandCall, 0))

	st := h.store.State()
	assert.Nil(t, st.UI.Pending)
	assert.Equal(t, "Not connected.", st.Connection.LastError)
	require.Len(t, st.UI.Notifications, 1)
	assert.Equal(t, "Action failed: socket not connected.", st.UI.Notifications[0].Message)
}

func TestSendSuccessMarksSinglePending(t *testing.T) {
	h := newHarness(t, Options{})
	h.joined(t)

	require.True(t, h.store.Act(holdem.CommandRaise, 60))
	require.True(t, h.store.SendAction("stand", nil))

	st := h.store.State()
	require.NotNil(t, st.UI.Pending)
	assert.Equal(t, "stand", st.UI.Pending.Action)

	_, _, sent, _ := h.tr.snapshot()
	require.Len(t, sent, 2)
	assert.Equal(t, map[string]any{"action": "game_action", "command": "raise", "amount": float64(60)}, sent[0])
}

func TestGameStateReplacesSnapshotAndClearsPending(t *testing.T) {
	h := newHarness(t, Options{})
	h.joined(t)
	require.True(t, h.store.Act(holdem.CommandCall, 0))
	h.store.SetRaiseAmount(5)

	h.store.OnMessage([]byte(preFlopState))
	st := h.store.State()
	require.NotNil(t, st.Snapshot)
	assert.Nil(t, st.UI.Pending)
	assert.Equal(t, StatusConnected, st.Connection.Status)
	assert.False(t, st.Connection.ShowReconnectBanner)
	assert.Equal(t, int64(40), st.UI.RaiseAmount, "raise re-clamped to the new minimum")

	a := st.Affordances()
	assert.True(t, a.MyTurn)
	assert.Equal(t, int64(20), a.CallAmount)
	assert.True(t, st.CanAct())
}

func TestInvalidGameStateLeavesSnapshotUntouched(t *testing.T) {
	h := newHarness(t, Options{})
	h.joined(t)
	h.store.OnMessage([]byte(preFlopState))
	before := h.store.State()
	require.True(t, h.store.Act(holdem.CommandFold, 0))

	for _, frame := range []string{
		`{"type":"gameState"}`,
		`{"type":"gameState","data":null}`,
		`{"type":"gameState","data":"oops"}`,
		`{"type":"gameState","data":{"game":{"seats":"nope"}}}`,
	} {
		h.store.OnMessage([]byte(frame))
	}

	st := h.store.State()
	assert.Same(t, before.Snapshot, st.Snapshot)
	assert.Nil(t, st.UI.Pending)
	assert.Equal(t, "Received invalid game state payload.", st.Connection.LastError)
	require.Len(t, st.UI.Notifications, 4)
	for _, n := range st.UI.Notifications {
		assert.Equal(t, "Received invalid game state payload.", n.Message)
	}
}

func TestSingleInvalidGameStateEmitsOneNotification(t *testing.T) {
	h := newHarness(t, Options{})
	h.store.OnMessage([]byte(`{"type":"gameState","data":[]}`))
	st := h.store.State()
	assert.Nil(t, st.Snapshot)
	assert.Len(t, st.UI.Notifications, 1)
}

func TestServerErrorClearsPending(t *testing.T) {
	h := newHarness(t, Options{})
	h.joined(t)
	require.True(t, h.store.Act(holdem.CommandCheck, 0))

	h.store.OnMessage([]byte(`{"type":"error","message":"Not your turn."}`))
	h.store.OnMessage([]byte(`{"type":"error"}`))

	st := h.store.State()
	assert.Nil(t, st.UI.Pending)
	require.Len(t, st.UI.Notifications, 2)
	assert.Equal(t, "Not your turn.", st.UI.Notifications[0].Message)
	assert.Equal(t, "Server error.", st.UI.Notifications[1].Message)
	assert.Equal(t, "Server error.", st.Connection.LastError)
}

func TestKickedClearsEverything(t *testing.T) {
	h := newHarness(t, Options{})
	h.joined(t)
	h.store.OnMessage([]byte(preFlopState))
	require.True(t, h.store.Act(holdem.CommandCall, 0))

	h.store.OnMessage([]byte(`{"type":"kicked","message":"Removed by host"}`))

	st := h.store.State()
	assert.Equal(t, StatusDisconnected, st.Connection.Status)
	assert.Empty(t, st.Connection.UserID)
	assert.False(t, st.Connection.HasJoined)
	assert.Nil(t, st.Snapshot)
	assert.Nil(t, st.UI.Pending)
	assert.Equal(t, "Removed by host", st.Connection.LastError)
	errs := errorNotifications(st)
	require.Len(t, errs, 1)
	assert.Equal(t, "Removed by host", errs[0].Message)
	assert.True(t, h.sess.Load().Empty())

	_, disconnects, _, join := h.tr.snapshot()
	assert.Equal(t, []bool{true}, disconnects)
	assert.Nil(t, join)
}

func TestKickedWithoutReasonUsesDefaultMessage(t *testing.T) {
	h := newHarness(t, Options{})
	h.joined(t)

	h.store.OnMessage([]byte(`{"type":"kicked"}`))

	st := h.store.State()
	errs := errorNotifications(st)
	require.Len(t, errs, 1)
	assert.Equal(t, "You were kicked from the room.", errs[0].Message)
	assert.Equal(t, "You were kicked from the room.", st.Connection.LastError)
}

func errorNotifications(st State) []Notification {
	var out []Notification
	for _, n := range st.UI.Notifications {
		if n.Severity == SeverityError {
			out = append(out, n)
		}
	}
	return out
}

func TestLeaveRoomClearsSessionIntentAndPending(t *testing.T) {
	h := newHarness(t, Options{})
	h.joined(t)
	require.True(t, h.store.Act(holdem.CommandCall, 0))

	h.store.LeaveRoom()

	st := h.store.State()
	assert.Equal(t, StatusDisconnected, st.Connection.Status)
	assert.Nil(t, st.UI.Pending)
	assert.Nil(t, st.Snapshot)
	assert.Empty(t, st.Connection.UserID)
	assert.Equal(t, "alice", st.Connection.PlayerName)
	assert.True(t, h.sess.Load().Empty())

	connectsBefore, disconnects, sent, join := h.tr.snapshot()
	assert.Equal(t, []bool{true}, disconnects)
	assert.Nil(t, join, "a later connect must not rejoin")
	assert.Equal(t, "leave", sent[len(sent)-1]["action"])

	// Events already in flight from the old socket are ignored.
	h.store.OnOpen()
	h.store.OnMessage([]byte(preFlopState))
	st = h.store.State()
	assert.Equal(t, StatusDisconnected, st.Connection.Status)
	assert.Nil(t, st.Snapshot)

	connectsAfter, _, _, _ := h.tr.snapshot()
	assert.Equal(t, connectsBefore, connectsAfter)
}

func TestLifecycleDrivesConnectionStatus(t *testing.T) {
	h := newHarness(t, Options{})
	h.joined(t)

	h.store.OnClose()
	st := h.store.State()
	assert.Equal(t, StatusReconnecting, st.Connection.Status)
	assert.True(t, st.Connection.ShowReconnectBanner)

	h.store.OnReconnectAttempt(3, 4*time.Second)
	st = h.store.State()
	assert.Equal(t, 3, st.Connection.ReconnectAttempt)
	assert.Equal(t, 4*time.Second, st.Connection.ReconnectDelay)

	h.store.OnError("WebSocket error.")
	h.store.OnOpen()
	st = h.store.State()
	assert.Equal(t, StatusConnected, st.Connection.Status)
	assert.False(t, st.Connection.ShowReconnectBanner)
	assert.Empty(t, st.Connection.LastError)
	assert.Equal(t, "WebSocket error.", st.UI.Notifications[len(st.UI.Notifications)-1].Message)
}

func TestCloseWithoutIntentIsDisconnected(t *testing.T) {
	h := newHarness(t, Options{})
	h.store.OnClose()
	st := h.store.State()
	assert.Equal(t, StatusDisconnected, st.Connection.Status)
	assert.False(t, st.Connection.ShowReconnectBanner)
}

func TestChatNeverMarksPending(t *testing.T) {
	h := newHarness(t, Options{})
	assert.False(t, h.store.SendChat("   "))
	assert.False(t, h.store.SendChat("hi"))

	st := h.store.State()
	require.Len(t, st.UI.Notifications, 1)
	assert.Equal(t, "Chat failed: socket not connected.", st.UI.Notifications[0].Message)

	h.joined(t)
	require.True(t, h.store.SendChat("  hello table "))
	st = h.store.State()
	assert.Nil(t, st.UI.Pending)
	_, _, sent, _ := h.tr.snapshot()
	assert.Equal(t, map[string]any{"action": "chat", "message": "hello table"}, sent[len(sent)-1])
}

func TestNotificationsKeepLastFive(t *testing.T) {
	h := newHarness(t, Options{})
	for i := 0; i < 7; i++ {
		h.store.OnMessage([]byte(`{"type":"error","message":"e` + string(rune('0'+i)) + `"}`))
	}
	st := h.store.State()
	require.Len(t, st.UI.Notifications, 5)
	assert.Equal(t, "e2", st.UI.Notifications[0].Message)
	assert.Equal(t, "e6", st.UI.Notifications[4].Message)

	h.store.DismissNotification(st.UI.Notifications[0].ID)
	h.store.DismissNotification("unknown")
	assert.Len(t, h.store.State().UI.Notifications, 4)
}

func TestNotificationsExpire(t *testing.T) {
	h := newHarness(t, Options{NotificationTTL: 30 * time.Millisecond})
	h.store.OnError("boom")
	require.Len(t, h.store.State().UI.Notifications, 1)
	require.Eventually(t, func() bool {
		return len(h.store.State().UI.Notifications) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPendingActionTimesOut(t *testing.T) {
	h := newHarness(t, Options{PendingTimeout: 30 * time.Millisecond})
	h.joined(t)
	require.True(t, h.store.Act(holdem.CommandCall, 0))

	require.Eventually(t, func() bool {
		st := h.store.State()
		return st.UI.Pending == nil && st.Connection.LastError == "Request timed out."
	}, 2*time.Second, 10*time.Millisecond)
	st := h.store.State()
	assert.Equal(t, "Request timed out.", st.UI.Notifications[len(st.UI.Notifications)-1].Message)
}

func TestResolvedPendingDoesNotTimeOut(t *testing.T) {
	h := newHarness(t, Options{PendingTimeout: 30 * time.Millisecond})
	h.joined(t)
	require.True(t, h.store.Act(holdem.CommandCall, 0))
	h.store.OnMessage([]byte(preFlopState))

	time.Sleep(100 * time.Millisecond)
	st := h.store.State()
	assert.Empty(t, st.Connection.LastError)
	assert.Empty(t, st.UI.Notifications)
}

func TestJoinWhileConnectedSendsFrameDirectly(t *testing.T) {
	h := newHarness(t, Options{})
	h.joined(t)
	require.True(t, h.store.JoinRoom("alice2"))

	_, _, sent, _ := h.tr.snapshot()
	assert.Equal(t, map[string]any{"action": "join", "name": "alice2", "id": "u1"}, sent[len(sent)-1])
}

func TestSubscribeDeliversLatestState(t *testing.T) {
	h := newHarness(t, Options{})
	ch, cancel := h.store.Subscribe()
	defer cancel()

	first := <-ch
	assert.Equal(t, StatusDisconnected, first.Connection.Status)

	require.True(t, h.store.JoinRoom("alice"))
	h.store.OnOpen()
	h.store.State() // barrier

	var last State
	require.Eventually(t, func() bool {
		select {
		case last = <-ch:
		default:
		}
		return last.Connection.Status == StatusConnected
	}, time.Second, 5*time.Millisecond)
}

func TestRaiseSelectionClampsWhenSeated(t *testing.T) {
	h := newHarness(t, Options{})
	h.store.SetRaiseAmount(7)
	assert.Equal(t, int64(7), h.store.State().UI.RaiseAmount)

	h.joined(t)
	h.store.OnMessage([]byte(preFlopState))
	h.store.SetRaiseAmount(5000)
	assert.Equal(t, int64(1000), h.store.State().UI.RaiseAmount)

	h.store.SelectSeat(2)
	h.store.SetBuyInAmount(500)
	h.store.SetBuyInAmount(-1)
	st := h.store.State()
	assert.Equal(t, 2, st.UI.SelectedSeat)
	assert.Equal(t, int64(500), st.UI.BuyInAmount)
}

func TestClosedStoreRefusesCommands(t *testing.T) {
	h := newHarness(t, Options{})
	h.store.Close()
	assert.False(t, h.store.JoinRoom("alice"))
	assert.Equal(t, StatusDisconnected, h.store.State().Connection.Status)
}

func stageState(stage string) []byte {
	return []byte(`{"type":"gameState","data":{
	"users":[{"id":"u1","name":"alice"}],
	"hostId":"u1","isGameInProgress":true,
	"game":{"stage":"` + stage + `","seats":[{"id":"u1","name":"alice","chips":1000,"status":"Active"}]}}}`)
}

func TestShowdownToIdleLocksNextHand(t *testing.T) {
	h := newHarness(t, Options{RevealDelay: time.Hour})
	h.joined(t)

	h.store.OnMessage(stageState("Showdown"))
	h.store.OnMessage(stageState("Idle"))

	st := h.store.State()
	aff := st.Affordances()
	assert.True(t, aff.ShowStartNextHand)
	assert.False(t, aff.CanStartNextHand)
	assert.False(t, st.UI.NextHandUnlockAt.IsZero())

	h.store.OnMessage(stageState("PreFlop"))
	assert.True(t, h.store.State().UI.NextHandUnlockAt.IsZero())
}

func TestRevealWindowUnlocksNextHand(t *testing.T) {
	h := newHarness(t, Options{RevealDelay: 20 * time.Millisecond})
	h.joined(t)

	h.store.OnMessage(stageState("Showdown"))
	h.store.OnMessage(stageState("Idle"))

	require.Eventually(t, func() bool {
		st := h.store.State()
		return st.UI.NextHandUnlockAt.IsZero() && st.Affordances().CanStartNextHand
	}, time.Second, 5*time.Millisecond)
}

func TestIdleWithoutShowdownIsUnlocked(t *testing.T) {
	h := newHarness(t, Options{RevealDelay: time.Hour})
	h.joined(t)

	h.store.OnMessage(stageState("Idle"))

	st := h.store.State()
	assert.True(t, st.UI.NextHandUnlockAt.IsZero())
	assert.True(t, st.Affordances().CanStartNextHand)
}

func TestLeaveClearsRevealWindow(t *testing.T) {
	h := newHarness(t, Options{RevealDelay: time.Hour})
	h.joined(t)
	h.store.OnMessage(stageState("Showdown"))
	h.store.OnMessage(stageState("Idle"))

	h.store.LeaveRoom()

	assert.True(t, h.store.State().UI.NextHandUnlockAt.IsZero())
}

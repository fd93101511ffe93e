package main

import (
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"holdem-sync/apps/client/internal/store"
)

type sentFrames struct {
	mu     sync.Mutex
	frames []map[string]any
}

func (s *sentFrames) Connect()            {}
func (s *sentFrames) Disconnect(bool)     {}
func (s *sentFrames) SetJoinFrame([]byte) {}

func (s *sentFrames) Send(frame []byte) bool {
	var m map[string]any
	if err := json.Unmarshal(frame, &m); err != nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, m)
	return true
}

func (s *sentFrames) last() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

func (s *sentFrames) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// seatedStore joins as host u1 in seat 0 and applies the given game object.
func seatedStore(t *testing.T, revealDelay time.Duration, game string) (*store.Store, *sentFrames) {
	t.Helper()
	tr := &sentFrames{}
	st := store.New(store.Options{
		Transport:       tr,
		NotificationTTL: -1,
		PendingTimeout:  -1,
		RevealDelay:     revealDelay,
	})
	t.Cleanup(st.Close)

	require.True(t, st.JoinRoom("alice"))
	st.OnOpen()
	st.OnMessage([]byte(`{"type":"joinSuccess","userId":"u1"}`))
	pushGame(st, game)
	require.NotNil(t, st.State().Snapshot)
	return st, tr
}

func pushGame(st *store.Store, game string) {
	st.OnMessage([]byte(`{"type":"gameState","data":{
		"users":[{"id":"u1","name":"alice","isHost":true}],
		"hostId":"u1","isGameInProgress":true,"game":` + game + `}}`))
}

const showdownGame = `{"stage":"Showdown",
	"seats":[{"id":"u1","name":"alice","chips":900,"status":"Active"}],
	"showdownResults":[{"seatIndex":0,"mustShow":false,"hasDecided":false}]}`

const idleGame = `{"stage":"Idle","seats":[{"id":"u1","name":"alice","chips":900,"status":"Active"}]}`

func TestDispatchShowMuckIgnoresCase(t *testing.T) {
	cases := []struct {
		line string
		show bool
	}{
		{"show", true},
		{"Show", true},
		{"SHOW", true},
		{"muck", false},
		{"Muck", false},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			st, tr := seatedStore(t, -1, showdownGame)
			require.True(t, st.State().Affordances().ShowdownDecision)

			assert.False(t, dispatch(st, tc.line))

			frame := tr.last()
			require.NotNil(t, frame)
			assert.Equal(t, "muck_show", frame["action"])
			assert.Equal(t, tc.show, frame["show"])
		})
	}
}

func TestDispatchNextWaitsForReveal(t *testing.T) {
	st, tr := seatedStore(t, time.Hour, showdownGame)
	pushGame(st, idleGame)
	require.True(t, st.State().Affordances().ShowStartNextHand)

	before := tr.count()
	dispatch(st, "next")
	assert.Equal(t, before, tr.count(), "next hand must stay locked during the reveal")
}

func TestDispatchNextAfterRevealSends(t *testing.T) {
	st, tr := seatedStore(t, 10*time.Millisecond, showdownGame)
	pushGame(st, idleGame)

	require.Eventually(t, func() bool {
		return st.State().Affordances().CanStartNextHand
	}, time.Second, 5*time.Millisecond)

	dispatch(st, "next")
	assert.Equal(t, "start_next_hand", tr.last()["action"])
}

package store

import (
	"slices"
	"time"

	"holdem-sync/apps/client/internal/protocol"
	"holdem-sync/apps/client/internal/view"
)

// Status is the socket status as the user sees it.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
)

type Connection struct {
	Status              Status
	ReconnectAttempt    int
	ReconnectDelay      time.Duration
	LastError           string
	ShowReconnectBanner bool
	UserID              string
	PlayerName          string
	HasJoined           bool
}

// PendingAction marks a sent request still waiting for the server to answer.
type PendingAction struct {
	Action    string
	StartedAt time.Time
}

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
)

type Notification struct {
	ID        string
	Severity  Severity
	Message   string
	CreatedAt time.Time
}

type UI struct {
	RaiseAmount   int64
	BuyInAmount   int64
	SelectedSeat  int
	Pending       *PendingAction
	Notifications []Notification

	// NextHandUnlockAt is when the showdown reveal window closes. Zero when
	// no window is running.
	NextHandUnlockAt time.Time
}

// State is a point-in-time copy of everything the store knows. Snapshot is
// shared between copies and must not be modified.
type State struct {
	Connection Connection
	Snapshot   *protocol.Snapshot
	UI         UI
}

const defaultBuyIn = 1000

func initialState() State {
	return State{
		Connection: Connection{Status: StatusDisconnected},
		UI: UI{
			BuyInAmount:  defaultBuyIn,
			SelectedSeat: view.Unseated,
		},
	}
}

func (s State) clone() State {
	out := s
	if s.UI.Pending != nil {
		p := *s.UI.Pending
		out.UI.Pending = &p
	}
	out.UI.Notifications = slices.Clone(s.UI.Notifications)
	return out
}

// Affordances derives the local player's options from this state.
func (s State) Affordances() view.Affordances {
	return view.Compute(s.Snapshot, s.Connection.UserID).
		WithRevealLock(s.Snapshot, s.UI.NextHandUnlockAt, time.Now())
}

// CanAct reports whether betting controls should be live right now.
func (s State) CanAct() bool {
	return s.Affordances().CanAct(s.UI.Pending != nil)
}

// Package store keeps the client's single source of truth: connection
// status, the latest authoritative snapshot and local UI state. All changes
// go through one actor goroutine, so commands, transport events and timer
// expiries apply in arrival order.
package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"holdem-sync/apps/client/internal/protocol"
	"holdem-sync/apps/client/internal/session"
	"holdem-sync/holdem"
)

// Transport is the slice of the socket client the store drives.
type Transport interface {
	Connect()
	Disconnect(manual bool)
	Send(frame []byte) bool
	SetJoinFrame(frame []byte)
}

var (
	ErrStoreClosed  = errors.New("store closed")
	ErrNameRequired = errors.New("name is required")
	ErrNotConnected = errors.New("not connected")
	ErrEmptyMessage = errors.New("empty chat message")
)

const (
	DefaultNotificationTTL = 3200 * time.Millisecond
	DefaultPendingTimeout  = 15 * time.Second
	DefaultRevealDelay     = 5 * time.Second
)

const (
	msgNameRequired     = "Name is required."
	msgNotConnected     = "Not connected."
	msgActionFailed     = "Action failed: socket not connected."
	msgActionEncode     = "Action failed: request could not be encoded."
	msgChatFailed       = "Chat failed: socket not connected."
	msgInvalidGameState = "Received invalid game state payload."
	msgKicked           = "You were kicked from the room."
	msgServerError      = "Server error."
	msgTimedOut         = "Request timed out."
)

type Options struct {
	Transport Transport
	Session   *session.Session
	Logger    *zap.Logger

	// NotificationTTL is how long each notification lives. Negative disables expiry.
	NotificationTTL time.Duration

	// PendingTimeout clears an unanswered pending action. Negative disables it.
	PendingTimeout time.Duration

	// RevealDelay holds back start-next-hand after a showdown so the cards stay
	// visible. Negative disables it.
	RevealDelay time.Duration

	// Now overrides the clock for tests.
	Now func() time.Time
}

type Store struct {
	opts Options
	log  *zap.Logger
	tr   Transport
	sess *session.Session

	events chan Event
	done   chan struct{}
	once   sync.Once

	// Owned by the actor goroutine.
	state       State
	joinIntent  *protocol.JoinIntent
	detached    bool
	pendingSeq  uint64
	pendingT    *time.Timer
	revealSeq   uint64
	revealT     *time.Timer
	noteTimers  map[string]*time.Timer
	subscribers map[int]chan State
	nextSubID   int
}

func New(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Transport == nil {
		opts.Transport = nopTransport{}
	}
	if opts.Session == nil {
		opts.Session = session.NewMemory()
	}
	if opts.NotificationTTL == 0 {
		opts.NotificationTTL = DefaultNotificationTTL
	}
	if opts.PendingTimeout == 0 {
		opts.PendingTimeout = DefaultPendingTimeout
	}
	if opts.RevealDelay == 0 {
		opts.RevealDelay = DefaultRevealDelay
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Store{
		opts:        opts,
		log:         opts.Logger.Named("store"),
		tr:          opts.Transport,
		sess:        opts.Session,
		events:      make(chan Event, 256),
		done:        make(chan struct{}),
		state:       initialState(),
		noteTimers:  make(map[string]*time.Timer),
		subscribers: make(map[int]chan State),
	}

	rec := s.sess.Load()
	s.state.Connection.UserID = rec.UserID
	s.state.Connection.PlayerName = rec.Name

	go s.run()
	return s
}

func (s *Store) run() {
	for {
		select {
		case <-s.done:
			s.stopTimers()
			return
		default:
		}
		select {
		case e := <-s.events:
			err := s.handleEvent(e)
			if e.Response != nil {
				e.Response <- err
			}
		case <-s.done:
			s.stopTimers()
			return
		}
	}
}

// post enqueues an event without waiting for it to be handled.
func (s *Store) post(e Event) {
	select {
	case s.events <- e:
	case <-s.done:
	}
}

// submit enqueues an event and waits for its outcome.
func (s *Store) submit(e Event) error {
	select {
	case <-s.done:
		return ErrStoreClosed
	default:
	}
	e.Response = make(chan error, 1)
	select {
	case s.events <- e:
	case <-s.done:
		return ErrStoreClosed
	}
	select {
	case err := <-e.Response:
		return err
	case <-s.done:
		return ErrStoreClosed
	}
}

// Close stops the actor. It does not touch the transport.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

// State returns a copy of the current state, ordered after every event
// submitted before the call.
func (s *Store) State() State {
	reply := make(chan State, 1)
	if err := s.submit(Event{Type: eventGetState, stateReply: reply}); err != nil {
		return initialState()
	}
	return <-reply
}

// Subscribe returns a channel that always holds the latest state. Slow
// readers skip intermediate states. The cancel func releases the channel.
func (s *Store) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	reply := make(chan int, 1)
	if err := s.submit(Event{Type: eventSubscribe, subChan: ch, subReply: reply}); err != nil {
		close(ch)
		return ch, func() {}
	}
	id := <-reply
	return ch, func() {
		_ = s.submit(Event{Type: eventUnsubscribe, subID: id})
	}
}

// Resume reconnects with the identity loaded at startup. It reports false
// when no name was remembered.
func (s *Store) Resume() bool {
	return s.submit(Event{Type: eventResume}) == nil
}

// JoinRoom registers the join intent and opens the connection.
func (s *Store) JoinRoom(name string) bool {
	return s.submit(Event{Type: eventJoinRoom, Name: name}) == nil
}

// Send transmits a request and marks it pending on success.
func (s *Store) Send(req protocol.Request) bool {
	return s.submit(Event{Type: eventSend, Request: req}) == nil
}

// SendAction is Send for a raw action name and payload.
func (s *Store) SendAction(action string, payload map[string]any) bool {
	return s.Send(protocol.Request{Action: action, Payload: payload})
}

// Act sends a betting command.
func (s *Store) Act(cmd holdem.Command, amount int64) bool {
	return s.Send(protocol.GameAction(cmd, amount))
}

// SendChat sends a chat line. Chat never marks an action pending.
func (s *Store) SendChat(message string) bool {
	return s.submit(Event{Type: eventSendChat, Message: message}) == nil
}

func (s *Store) LeaveRoom() {
	_ = s.submit(Event{Type: eventLeaveRoom})
}

func (s *Store) SetRaiseAmount(amount int64) {
	_ = s.submit(Event{Type: eventSetRaise, Amount: amount})
}

func (s *Store) SetBuyInAmount(amount int64) {
	_ = s.submit(Event{Type: eventSetBuyIn, Amount: amount})
}

// SelectSeat remembers the seat picked for the next sit request; view.Unseated clears it.
func (s *Store) SelectSeat(index int) {
	_ = s.submit(Event{Type: eventSelectSeat, Seat: index})
}

func (s *Store) DismissNotification(id string) {
	_ = s.submit(Event{Type: eventDismiss, ID: id})
}

// Transport listener. Events are queued and handled on the actor.

func (s *Store) OnOpen()  { s.post(Event{Type: eventSocketOpen}) }
func (s *Store) OnClose() { s.post(Event{Type: eventSocketClose}) }

func (s *Store) OnError(message string) {
	s.post(Event{Type: eventSocketError, Message: message})
}

func (s *Store) OnMessage(frame []byte) {
	s.post(Event{Type: eventMessage, Frame: frame})
}

func (s *Store) OnReconnectAttempt(attempt int, delay time.Duration) {
	s.post(Event{Type: eventReconnectAttempt, Attempt: attempt, Delay: delay})
}

func (s *Store) now() time.Time { return s.opts.Now() }

// publish pushes the current state to every subscriber, replacing any
// value the subscriber has not read yet.
func (s *Store) publish() {
	for _, ch := range s.subscribers {
		st := s.state.clone()
		select {
		case ch <- st:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

func (s *Store) stopTimers() {
	s.clearPending()
	s.clearReveal()
	for id := range s.noteTimers {
		s.stopNotificationTimer(id)
	}
}

func trimName(name string) string {
	return strings.TrimSpace(name)
}

type nopTransport struct{}

func (nopTransport) Connect()            {}
func (nopTransport) Disconnect(bool)     {}
func (nopTransport) Send([]byte) bool    { return false }
func (nopTransport) SetJoinFrame([]byte) {}

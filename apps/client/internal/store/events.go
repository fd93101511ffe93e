package store

import (
	"time"

	"holdem-sync/apps/client/internal/protocol"
)

// EventType identifies a message to the store actor.
type EventType int

const (
	eventGetState EventType = iota
	eventSubscribe
	eventUnsubscribe
	eventResume
	eventJoinRoom
	eventSend
	eventSendChat
	eventLeaveRoom
	eventSetRaise
	eventSetBuyIn
	eventSelectSeat
	eventDismiss
	eventSocketOpen
	eventSocketClose
	eventSocketError
	eventReconnectAttempt
	eventMessage
	eventNotificationExpired
	eventPendingExpired
	eventRevealElapsed
)

// Event is one unit of work for the actor.
type Event struct {
	Type     EventType
	Name     string
	Message  string
	ID       string
	Amount   int64
	Seat     int
	Attempt  int
	Delay    time.Duration
	Seq      uint64
	Frame    []byte
	Request  protocol.Request
	Response chan error

	stateReply chan State
	subChan    chan State
	subReply   chan int
	subID      int
}

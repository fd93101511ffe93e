package store

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"holdem-sync/apps/client/internal/protocol"
	"holdem-sync/apps/client/internal/view"
	"holdem-sync/holdem"
)

func (s *Store) handleEvent(e Event) error {
	switch e.Type {
	case eventGetState:
		e.stateReply <- s.state.clone()
		return nil
	case eventSubscribe:
		id := s.nextSubID
		s.nextSubID++
		s.subscribers[id] = e.subChan
		e.subChan <- s.state.clone()
		e.subReply <- id
		return nil
	case eventUnsubscribe:
		delete(s.subscribers, e.subID)
		return nil
	}

	err := s.apply(e)
	s.publish()
	return err
}

func (s *Store) apply(e Event) error {
	switch e.Type {
	case eventResume:
		return s.handleResume()
	case eventJoinRoom:
		return s.handleJoinRoom(e.Name)
	case eventSend:
		return s.handleSend(e.Request)
	case eventSendChat:
		return s.handleSendChat(e.Message)
	case eventLeaveRoom:
		s.handleLeaveRoom()
		return nil
	case eventSetRaise:
		s.setRaiseAmount(e.Amount)
		return nil
	case eventSetBuyIn:
		if e.Amount > 0 {
			s.state.UI.BuyInAmount = e.Amount
		}
		return nil
	case eventSelectSeat:
		s.state.UI.SelectedSeat = e.Seat
		return nil
	case eventDismiss:
		s.dismiss(e.ID)
		return nil
	case eventSocketOpen:
		s.handleSocketOpen()
		return nil
	case eventSocketClose:
		s.handleSocketClose()
		return nil
	case eventSocketError:
		s.handleSocketError(e.Message)
		return nil
	case eventReconnectAttempt:
		s.handleReconnectAttempt(e.Attempt, e.Delay)
		return nil
	case eventMessage:
		s.handleMessage(e.Frame)
		return nil
	case eventNotificationExpired:
		s.dismiss(e.ID)
		return nil
	case eventPendingExpired:
		s.handlePendingExpired(e.Seq)
		return nil
	case eventRevealElapsed:
		if e.Seq == s.revealSeq {
			s.clearReveal()
		}
		return nil
	default:
		return fmt.Errorf("unknown event type: %d", e.Type)
	}
}

func (s *Store) handleResume() error {
	conn := &s.state.Connection
	if conn.PlayerName == "" {
		return ErrNameRequired
	}
	s.detached = false
	s.registerJoin(protocol.JoinIntent{Name: conn.PlayerName, ID: conn.UserID})
	conn.Status = StatusConnecting
	s.tr.Connect()
	s.log.Info("resuming session", zap.String("name", conn.PlayerName), zap.String("userId", conn.UserID))
	return nil
}

func (s *Store) handleJoinRoom(name string) error {
	trimmed := trimName(name)
	if trimmed == "" {
		s.notify(SeverityError, msgNameRequired)
		return ErrNameRequired
	}

	conn := &s.state.Connection
	s.detached = false
	frame := s.registerJoin(protocol.JoinIntent{Name: trimmed, ID: conn.UserID})
	wasConnected := conn.Status == StatusConnected
	conn.PlayerName = trimmed
	conn.LastError = ""

	if wasConnected && frame != nil {
		// The transport only sends the join frame on open.
		if !s.tr.Send(frame) {
			conn.Status = StatusConnecting
		}
	} else {
		conn.Status = StatusConnecting
	}
	s.tr.Connect()
	return nil
}

// registerJoin records the join intent and hands its frame to the transport.
func (s *Store) registerJoin(intent protocol.JoinIntent) []byte {
	frame, err := protocol.Encode(protocol.Join(intent))
	if err != nil {
		s.log.Error("encode join frame", zap.Error(err))
		return nil
	}
	s.joinIntent = &intent
	s.tr.SetJoinFrame(frame)
	return frame
}

func (s *Store) clearJoin() {
	s.joinIntent = nil
	s.tr.SetJoinFrame(nil)
}

func (s *Store) handleSend(req protocol.Request) error {
	frame, err := protocol.Encode(req)
	if err != nil {
		s.log.Warn("encode request", zap.String("action", req.Action), zap.Error(err))
		s.notify(SeverityError, msgActionEncode)
		return err
	}
	if !s.tr.Send(frame) {
		s.state.Connection.LastError = msgNotConnected
		s.notify(SeverityError, msgActionFailed)
		return ErrNotConnected
	}
	s.markPending(req.Action)
	return nil
}

func (s *Store) handleSendChat(message string) error {
	if protocol.TrimChat(message) == "" {
		return ErrEmptyMessage
	}
	frame, err := protocol.Encode(protocol.Chat(message))
	if err != nil {
		return err
	}
	if !s.tr.Send(frame) {
		s.state.Connection.LastError = msgNotConnected
		s.notify(SeverityError, msgChatFailed)
		return ErrNotConnected
	}
	return nil
}

func (s *Store) handleLeaveRoom() {
	if frame, err := protocol.Encode(protocol.Leave()); err == nil {
		s.tr.Send(frame)
	}
	s.clearJoin()
	s.tr.Disconnect(true)
	s.sess.Clear()
	s.resetRoom()
	s.log.Info("left room")
}

// resetRoom returns to the logged-out state. The player name survives so a
// front end can offer it again.
func (s *Store) resetRoom() {
	s.detached = true
	conn := &s.state.Connection
	conn.Status = StatusDisconnected
	conn.ReconnectAttempt = 0
	conn.ReconnectDelay = 0
	conn.ShowReconnectBanner = false
	conn.UserID = ""
	conn.HasJoined = false
	s.state.Snapshot = nil
	s.state.UI.SelectedSeat = view.Unseated
	s.clearPending()
	s.clearReveal()
}

func (s *Store) setRaiseAmount(amount int64) {
	snap, me := s.state.Snapshot, s.state.Connection.UserID
	if _, seated := view.MySeat(snap, me); seated {
		amount = view.ClampRaise(amount, view.RaiseBounds(snap, me))
	}
	s.state.UI.RaiseAmount = amount
}

func (s *Store) handleSocketOpen() {
	if s.detached {
		return
	}
	conn := &s.state.Connection
	conn.Status = StatusConnected
	conn.LastError = ""
	conn.ShowReconnectBanner = false
}

func (s *Store) handleSocketClose() {
	conn := &s.state.Connection
	if s.joinIntent != nil {
		conn.Status = StatusReconnecting
		conn.ShowReconnectBanner = true
		return
	}
	conn.Status = StatusDisconnected
	conn.ShowReconnectBanner = false
}

func (s *Store) handleReconnectAttempt(attempt int, delay time.Duration) {
	if s.detached {
		return
	}
	conn := &s.state.Connection
	conn.Status = StatusReconnecting
	conn.ReconnectAttempt = attempt
	conn.ReconnectDelay = delay
	conn.ShowReconnectBanner = true
}

func (s *Store) handleSocketError(message string) {
	if s.detached {
		return
	}
	s.state.Connection.LastError = message
	s.notify(SeverityError, message)
}

func (s *Store) handleMessage(frame []byte) {
	if s.detached {
		s.log.Debug("dropping frame after leave")
		return
	}

	ev, err := protocol.Decode(frame)
	switch {
	case errors.Is(err, protocol.ErrInvalidSnapshot):
		s.log.Warn("rejecting game state", zap.Error(err))
		s.state.Connection.LastError = msgInvalidGameState
		s.clearPending()
		s.notify(SeverityError, msgInvalidGameState)
		return
	case err != nil:
		s.log.Debug("ignoring frame", zap.Error(err))
		return
	}

	switch ev.Type {
	case protocol.EventJoinSuccess:
		s.handleJoinSuccess(ev.UserID)
	case protocol.EventGameState:
		s.handleGameState(ev.Snapshot)
	case protocol.EventKicked:
		s.handleKicked(ev.Message)
	case protocol.EventError:
		message := ev.Message
		if message == "" {
			message = msgServerError
		}
		s.state.Connection.LastError = message
		s.clearPending()
		s.notify(SeverityError, message)
	default:
		s.log.Debug("ignoring event", zap.String("type", ev.RawType))
	}
}

func (s *Store) handleJoinSuccess(userID string) {
	conn := &s.state.Connection
	if userID != "" {
		s.sess.Save(userID, conn.PlayerName)
		// Later reconnects must rebind the same identity.
		s.registerJoin(protocol.JoinIntent{Name: conn.PlayerName, ID: userID})
	}
	conn.UserID = userID
	conn.HasJoined = true
	conn.LastError = ""
	s.log.Info("joined", zap.String("userId", userID), zap.String("name", conn.PlayerName))
}

func (s *Store) handleGameState(snap *protocol.Snapshot) {
	prev := s.state.Snapshot.Stage()
	s.state.Snapshot = snap
	switch next := snap.Stage(); {
	case prev == holdem.StageShowdown && next == holdem.StageIdle:
		s.startReveal()
	case next != holdem.StageIdle:
		s.clearReveal()
	}
	s.clearPending()
	conn := &s.state.Connection
	conn.Status = StatusConnected
	conn.ShowReconnectBanner = false

	me := conn.UserID
	if _, seated := view.MySeat(snap, me); seated {
		s.state.UI.RaiseAmount = view.ClampRaise(s.state.UI.RaiseAmount, view.RaiseBounds(snap, me))
	}
}

func (s *Store) handleKicked(message string) {
	if message == "" {
		message = msgKicked
	}
	s.sess.Clear()
	s.clearJoin()
	s.tr.Disconnect(true)
	s.resetRoom()
	s.state.Connection.LastError = message
	s.notify(SeverityError, message)
	s.log.Info("kicked", zap.String("reason", message))
}

// markPending replaces any pending action and restarts its timeout.
func (s *Store) markPending(action string) {
	s.clearPending()
	s.pendingSeq++
	s.state.UI.Pending = &PendingAction{Action: action, StartedAt: s.now()}
	if s.opts.PendingTimeout > 0 {
		seq := s.pendingSeq
		s.pendingT = time.AfterFunc(s.opts.PendingTimeout, func() {
			s.post(Event{Type: eventPendingExpired, Seq: seq})
		})
	}
}

func (s *Store) clearPending() {
	s.state.UI.Pending = nil
	if s.pendingT != nil {
		s.pendingT.Stop()
		s.pendingT = nil
	}
}

func (s *Store) handlePendingExpired(seq uint64) {
	if s.state.UI.Pending == nil || seq != s.pendingSeq {
		return
	}
	action := s.state.UI.Pending.Action
	s.clearPending()
	s.state.Connection.LastError = msgTimedOut
	s.notify(SeverityError, msgTimedOut)
	s.log.Warn("pending action timed out", zap.String("action", action))
}

// startReveal locks start-next-hand until the showdown reveal window closes.
func (s *Store) startReveal() {
	s.clearReveal()
	if s.opts.RevealDelay <= 0 {
		return
	}
	s.revealSeq++
	seq := s.revealSeq
	s.state.UI.NextHandUnlockAt = s.now().Add(s.opts.RevealDelay)
	s.revealT = time.AfterFunc(s.opts.RevealDelay, func() {
		s.post(Event{Type: eventRevealElapsed, Seq: seq})
	})
}

func (s *Store) clearReveal() {
	s.state.UI.NextHandUnlockAt = time.Time{}
	if s.revealT != nil {
		s.revealT.Stop()
		s.revealT = nil
	}
}

package store

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

const maxNotifications = 5

// notify appends a notification, keeps the most recent five and arms its
// expiry. Runs on the actor goroutine.
func (s *Store) notify(sev Severity, message string) {
	now := s.now()
	id := ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()

	list := append(s.state.UI.Notifications, Notification{
		ID:        id,
		Severity:  sev,
		Message:   message,
		CreatedAt: now,
	})
	if drop := len(list) - maxNotifications; drop > 0 {
		for _, n := range list[:drop] {
			s.stopNotificationTimer(n.ID)
		}
		list = append([]Notification(nil), list[drop:]...)
	}
	s.state.UI.Notifications = list

	if s.opts.NotificationTTL > 0 {
		s.noteTimers[id] = time.AfterFunc(s.opts.NotificationTTL, func() {
			s.post(Event{Type: eventNotificationExpired, ID: id})
		})
	}
}

// dismiss removes a notification by id. Unknown ids are ignored.
func (s *Store) dismiss(id string) bool {
	s.stopNotificationTimer(id)
	list := s.state.UI.Notifications
	for i, n := range list {
		if n.ID == id {
			out := make([]Notification, 0, len(list)-1)
			out = append(out, list[:i]...)
			s.state.UI.Notifications = append(out, list[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Store) stopNotificationTimer(id string) {
	if t, ok := s.noteTimers[id]; ok {
		t.Stop()
		delete(s.noteTimers, id)
	}
}

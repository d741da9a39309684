// Package hub implements the session multiplexer: the Hub type that
// owns a document's History and fans committed operations out to every
// attached Session, and the Registry that lazily creates one Hub per
// document id.
package hub

import (
	"github.com/google/uuid"

	"github.com/textsync/textsync/internal/protocol"
)

// SessionID identifies one attached connection.
type SessionID string

// NewSessionID mints a fresh, unique session id.
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// Session is one connected client's mailbox. The Hub enqueues frames
// onto Outbound; the session does no transformation of its own —
// per spec.md §4.2 all transformation happens centrally in History.
// A Session does not record which revision its client has
// acknowledged.
type Session struct {
	ID       SessionID
	Outbound chan protocol.Frame
}

// NewSession creates a Session with a buffered outbound mailbox of the
// given capacity. A full mailbox means a slow or wedged client; the
// Hub drops that session rather than block the rest (spec.md §5).
func NewSession(bufSize int) *Session {
	return &Session{
		ID:       NewSessionID(),
		Outbound: make(chan protocol.Frame, bufSize),
	}
}

// enqueue attempts a non-blocking send of frame to the session's
// mailbox. It reports whether the frame was delivered; the caller is
// responsible for detaching sessions whose mailbox is full.
func (s *Session) enqueue(frame protocol.Frame) bool {
	select {
	case s.Outbound <- frame:
		return true
	default:
		return false
	}
}

package hub

import (
	"sync"
	"time"

	"github.com/textsync/textsync/internal/ot"
	"github.com/textsync/textsync/internal/protocol"
)

// DefaultMailboxSize is the outbound buffer depth given to sessions
// that don't request a specific size.
const DefaultMailboxSize = 64

// Hub owns one document's History and the set of sessions currently
// attached to it. It is the single mutual-exclusion owner spec.md §5
// requires: every Submit call takes the lock, asks History to
// transform and apply, and enqueues the resulting ack/edit frames into
// every session's mailbox before releasing it. Those enqueues are
// non-blocking buffered sends (session.go's enqueue), so holding the
// lock across them never stalls on a slow reader — it only buys the
// total-order delivery guarantee described on Submit below.
type Hub struct {
	mu           sync.RWMutex
	history      *ot.History
	sessions     map[SessionID]*Session
	lastActivity time.Time

	// OnMailboxFull, if set, is called (outside the lock) whenever a
	// session is detached because its outbound mailbox was full. It
	// exists purely so the code that builds the Hub (cmd/server) can
	// report the event to internal/metrics without internal/hub taking
	// on an ambient dependency of its own.
	OnMailboxFull func(SessionID)
}

// New creates a Hub seeded with initial text, labeled as revision 0,
// with no cap on document size.
func New(initial string) *Hub {
	return &Hub{
		history:      ot.New(initial),
		sessions:     make(map[SessionID]*Session),
		lastActivity: time.Now(),
	}
}

// NewWithLimit creates a Hub like New, additionally rejecting any
// submission that would grow the document past maxSize bytes as
// TooLarge — the transport-level guard SPEC_FULL.md's
// MaxDocumentSize config field describes. maxSize <= 0 means no limit.
func NewWithLimit(initial string, maxSize int) *Hub {
	return &Hub{
		history:      ot.NewWithLimit(initial, maxSize),
		sessions:     make(map[SessionID]*Session),
		lastActivity: time.Now(),
	}
}

// Attach registers a session and returns the snapshot frame it must
// send first, per spec.md §4.3 attach contract.
func (h *Hub) Attach(s *Session) protocol.InitialMsg {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[s.ID] = s
	rev, text := h.history.Current()
	return protocol.NewInitialMsg(rev, text)
}

// Detach removes a session. Safe to call more than once.
func (h *Hub) Detach(id SessionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, id)
}

// SessionCount reports how many sessions are currently attached.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Text returns a snapshot of the current document text, for
// persistence or the plain-text read endpoint.
func (h *Hub) Text() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, text := h.history.Current()
	return text
}

// Revision returns the current revision number.
func (h *Hub) Revision() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rev, _ := h.history.Current()
	return rev
}

// IdleSince reports how long it has been since the last successful
// Submit, for the idle-expiry sweep in internal/transport.
func (h *Hub) IdleSince() time.Duration {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return time.Since(h.lastActivity)
}

// Submit is the synchronous form of the data flow spec.md §2
// describes: transform and apply, enqueue the ack and every broadcast
// edit into their sessions' mailboxes, all under one lock, then
// release it. The enqueue is a non-blocking buffered send (it never
// suspends), so doing it inside the critical section costs nothing and
// is what makes the central convergence guarantee hold: since the Hub
// only ever processes one Submit at a time, and every session's
// mailbox receives its frames for this commit before the next Submit's
// lock acquisition can begin, every session observes ack/edit frames
// across successive commits in exactly the order those commits landed
// in the log (spec.md §4.3, §5, invariant 4). Moving either enqueue
// outside the lock reopens the race: two originators committing back
// to back could interleave their post-unlock enqueues and deliver a
// later revision to a session before an earlier one.
//
// On failure only the originator is notified; the session is expected
// to close afterward (spec.md §4.3). The returned error is nil on
// success, or the *ot.Error that doomed the submission — callers use
// it purely for observability (metrics, logging), not control flow:
// the desync frame has already been sent.
func (h *Hub) Submit(originator SessionID, baseRev int, op ot.Op) error {
	h.mu.Lock()

	rev, applied, err := h.history.Submit(baseRev, op)
	if err != nil {
		if origin, ok := h.sessions[originator]; ok {
			origin.enqueue(protocol.NewDesyncMsg(err))
		}
		h.mu.Unlock()
		return err
	}
	h.lastActivity = time.Now()

	var dropped []SessionID

	if origin, ok := h.sessions[originator]; ok && !origin.enqueue(protocol.NewAckMsg(rev)) {
		dropped = append(dropped, origin.ID)
	}

	edit := protocol.NewEditMsg(rev, applied)
	for id, s := range h.sessions {
		if id == originator {
			continue
		}
		if !s.enqueue(edit) {
			// Mailbox full: this session missed a commit and is now
			// desynchronized from the log. Drop it rather than let it
			// keep believing it holds current text.
			dropped = append(dropped, id)
		}
	}

	for _, id := range dropped {
		// Closing the mailbox ends the connection's writer, which
		// closes the client's connection.
		close(h.sessions[id].Outbound)
		delete(h.sessions, id)
	}

	h.mu.Unlock()

	for _, id := range dropped {
		if h.OnMailboxFull != nil {
			h.OnMailboxFull(id)
		}
	}

	return nil
}

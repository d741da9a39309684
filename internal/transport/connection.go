// Package transport wires internal/hub onto the network: the websocket
// connection lifecycle per session, and the HTTP server that exposes
// it alongside the read-only text/stats routes.
package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/textsync/textsync/internal/hub"
	"github.com/textsync/textsync/internal/logging"
	"github.com/textsync/textsync/internal/metrics"
	"github.com/textsync/textsync/internal/ot"
	"github.com/textsync/textsync/internal/protocol"
)

func otKindOf(err error) (string, bool) {
	kind, ok := ot.KindOf(err)
	if !ok {
		return "", false
	}
	return kind.String(), true
}

// connection drives one attached session's websocket: a reader
// goroutine that turns inbound frames into Hub.Submit calls, and a
// writer goroutine that drains the session's outbound mailbox and
// writes frames back. Grounded on the teacher's Connection type
// (pkg/server/connection.go), split along the same reader/writer-half
// lines but re-targeted at internal/hub.Session instead of a
// kolabpad.Updates() channel.
type connection struct {
	docID        string
	h            *hub.Hub
	session      *hub.Session
	conn         *websocket.Conn
	readTimeout  time.Duration
	writeTimeout time.Duration
	log          *logging.Logger
}

func newConnection(docID string, h *hub.Hub, conn *websocket.Conn, readTimeout, writeTimeout time.Duration, mailboxSize int, log *logging.Logger) *connection {
	if mailboxSize <= 0 {
		mailboxSize = hub.DefaultMailboxSize
	}
	return &connection{
		docID:        docID,
		h:            h,
		session:      hub.NewSession(mailboxSize),
		conn:         conn,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		log:          log,
	}
}

// handle runs the connection until the client disconnects, the
// context is canceled, or a protocol error forces a close. The reader
// and writer halves run concurrently; whichever finishes first (e.g.
// the writer closing after a desync frame) cancels the other so a
// wedged reader doesn't linger until its next read timeout.
func (c *connection) handle(ctx context.Context) error {
	initial := c.h.Attach(c.session)
	defer c.h.Detach(c.session.ID)
	metrics.SessionAttached()
	defer metrics.SessionDetached()

	if err := c.write(ctx, initial); err != nil {
		return fmt.Errorf("send initial: %w", err)
	}

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	writerDone := make(chan error, 1)
	go func() {
		writerDone <- c.writeLoop(connCtx)
	}()

	readerDone := make(chan error, 1)
	go func() {
		readerDone <- c.readLoop(connCtx)
	}()

	var readErr, werr error
	select {
	case readErr = <-readerDone:
		cancel()
		werr = <-writerDone
	case werr = <-writerDone:
		cancel()
		readErr = <-readerDone
	}

	if readErr != nil {
		return readErr
	}
	return werr
}

// readLoop parses inbound submit frames and hands them to the Hub.
func (c *connection) readLoop(ctx context.Context) error {
	for {
		readCtx, cancel := context.WithTimeout(ctx, c.readTimeout)
		var msg protocol.SubmitMsg
		err := wsjson.Read(readCtx, c.conn, &msg)
		cancel()
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		op, err := msg.ToOp()
		if err != nil {
			c.log.Error("malformed action from session %s in %s: %v", c.session.ID, c.docID, err)
			return err
		}

		metrics.SubmissionReceived()
		if err := c.h.Submit(c.session.ID, int(msg.Rev), op); err != nil {
			if kind, ok := otKindOf(err); ok {
				metrics.SubmissionRejected(kind)
			}
		}
	}
}

// writeLoop drains the session mailbox and writes each frame in order.
func (c *connection) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-c.session.Outbound:
			if !ok {
				return nil
			}
			if err := c.write(ctx, frame); err != nil {
				return fmt.Errorf("write: %w", err)
			}
			if _, isDesync := frame.(protocol.DesyncMsg); isDesync {
				return errors.New("session desynchronized")
			}
		}
	}
}

func (c *connection) write(ctx context.Context, frame protocol.Frame) error {
	writeCtx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, c.conn, frame)
}

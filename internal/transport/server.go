package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"nhooyr.io/websocket"

	"github.com/textsync/textsync/internal/hub"
	"github.com/textsync/textsync/internal/logging"
	"github.com/textsync/textsync/internal/metrics"
	"github.com/textsync/textsync/internal/persistence"
)

// Stats is the JSON body served at /api/stats. Grounded on the
// teacher's pkg/server/server.go Stats struct.
type Stats struct {
	StartTime    int64 `json:"start_time"`
	NumDocuments int   `json:"num_documents"`
	DatabaseSize int   `json:"database_size"`
}

// Server is the textsync HTTP server: websocket upgrade at /ws/{doc},
// plain-text snapshot at /api/text/{doc}, JSON stats at /api/stats,
// and Prometheus metrics at /metrics. Grounded on the teacher's
// pkg/server/server.go route layout, with sync.Map document lookup
// generalized to internal/hub.Registry.
type Server struct {
	registry     *hub.Registry
	store        *persistence.Store // nil disables persistence
	log          *logging.Logger
	mux          *http.ServeMux
	startTime    time.Time
	readTimeout  time.Duration
	writeTimeout time.Duration
	mailboxSize  int
}

// Options configures a new Server.
type Options struct {
	Store              *persistence.Store
	Log                *logging.Logger
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	SessionMailboxSize int
}

// New builds a Server backed by registry.
func New(registry *hub.Registry, opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}
	mailboxSize := opts.SessionMailboxSize
	if mailboxSize == 0 {
		mailboxSize = hub.DefaultMailboxSize
	}

	s := &Server{
		registry:     registry,
		store:        opts.Store,
		log:          log,
		mux:          http.NewServeMux(),
		startTime:    time.Now(),
		readTimeout:  orDefaultDuration(opts.ReadTimeout, 5*time.Minute),
		writeTimeout: orDefaultDuration(opts.WriteTimeout, 10*time.Second),
		mailboxSize:  mailboxSize,
	}

	s.mux.HandleFunc("/ws/", s.handleSocket)
	s.mux.HandleFunc("/api/text/", s.handleText)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.Handle("/metrics", promhttp.Handler())

	return s
}

func orDefaultDuration(d, def time.Duration) time.Duration {
	if d == 0 {
		return def
	}
	return d
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func docIDFromPath(prefix, path string) string {
	return strings.TrimPrefix(path, prefix)
}

// handleSocket upgrades to a websocket and runs the connection until
// it closes. Route: /ws/{doc}.
func (s *Server) handleSocket(w http.ResponseWriter, r *http.Request) {
	docID := docIDFromPath("/ws/", r.URL.Path)
	if docID == "" {
		http.Error(w, "document id required", http.StatusBadRequest)
		return
	}

	h := s.registry.GetOrCreate(docID)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		s.log.Error("websocket upgrade failed for %s: %v", docID, err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "")

	c := newConnection(docID, h, conn, s.readTimeout, s.writeTimeout, s.mailboxSize, s.log)
	if err := c.handle(r.Context()); err != nil {
		s.log.Debug("connection closed for %s: %v", docID, err)
	}

	conn.Close(websocket.StatusNormalClosure, "")
}

// handleText returns the document's current plain-text body. Route:
// /api/text/{doc}.
func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	docID := docIDFromPath("/api/text/", r.URL.Path)
	if docID == "" {
		http.Error(w, "document id required", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	if h, ok := s.registry.Lookup(docID); ok {
		w.Write([]byte(h.Text()))
		return
	}

	if s.store != nil {
		if snap, err := s.store.Load(docID); err == nil && snap != nil {
			w.Write([]byte(snap.Text))
			return
		}
	}

	w.Write(nil)
}

// handleStats returns a JSON summary of server activity. Route:
// /api/stats.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	dbSize := 0
	if s.store != nil {
		if n, err := s.store.Count(); err == nil {
			dbSize = n
		}
	}

	stats := Stats{
		StartTime:    s.startTime.Unix(),
		NumDocuments: s.registry.Count(),
		DatabaseSize: dbSize,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// RunIdleSweep evicts documents with no attached sessions that have
// been idle past ttl, persisting their final snapshot first if a
// store is configured. Runs until ctx is canceled; call it in its own
// goroutine. Grounded on the teacher's cleanupExpiredDocuments /
// StartCleaner pair (SPEC_FULL.md §11), generalized from a time-since-
// last-access check to session-count-plus-idle-time.
func (s *Server) RunIdleSweep(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepIdleDocuments(ttl)
		}
	}
}

func (s *Server) sweepIdleDocuments(ttl time.Duration) {
	var expired []string
	s.registry.ForEach(func(docID string, h *hub.Hub) {
		if h.SessionCount() == 0 && h.IdleSince() >= ttl {
			expired = append(expired, docID)
		}
	})

	for _, docID := range expired {
		h, ok := s.registry.Lookup(docID)
		if !ok {
			continue
		}
		if s.store != nil {
			s.persistNow(docID, h)
		}
		s.registry.Remove(docID)
		metrics.DocumentClosed()
		s.log.Debug("evicted idle document %s", docID)
	}
}

// RunPersister periodically snapshots every in-memory document to the
// store every interval. Grounded on the teacher's
// per-document persister goroutine, generalized to a single sweep over
// the whole registry rather than one goroutine per document.
func (s *Server) RunPersister(ctx context.Context, interval time.Duration) {
	if s.store == nil {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.registry.ForEach(func(docID string, h *hub.Hub) {
				s.persistNow(docID, h)
			})
		}
	}
}

func (s *Server) persistNow(docID string, h *hub.Hub) {
	start := time.Now()
	text := h.Text()
	err := s.store.Store(persistence.Snapshot{ID: docID, Revision: h.Revision(), Text: text})
	metrics.PersistTook(time.Since(start).Seconds())
	if err != nil {
		s.log.Error("persist %s: %v", docID, err)
		return
	}
	metrics.DocumentPersisted(len(text))
}

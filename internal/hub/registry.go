package hub

import "sync"

// Registry maps a document id to its Hub, creating one lazily on first
// access. Grounded on the teacher's sync.Map-of-documents pattern
// (pkg/server/server.go's ServerState.documents), reworked to a
// mutex-guarded map since Registry also needs to iterate for the idle
// sweep and stats endpoint.
type Registry struct {
	mu   sync.Mutex
	hubs map[string]*Hub
	boot func(docID string) *Hub
}

// NewRegistry creates an empty Registry. newHub is called, with the
// document's id, to seed a brand-new document's Hub; pass a
// constructor that loads that id's persisted text when a persistence
// layer is configured, so reopening a document after a restart
// resumes from its last snapshot instead of an empty buffer.
func NewRegistry(newHub func(docID string) *Hub) *Registry {
	return &Registry{
		hubs: make(map[string]*Hub),
		boot: newHub,
	}
}

// GetOrCreate returns the Hub for docID, creating and registering one
// if this is the first reference to it.
func (r *Registry) GetOrCreate(docID string) *Hub {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.hubs[docID]; ok {
		return h
	}
	h := r.boot(docID)
	r.hubs[docID] = h
	return h
}

// Lookup returns the Hub for docID without creating one.
func (r *Registry) Lookup(docID string) (*Hub, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.hubs[docID]
	return h, ok
}

// Remove discards a document's Hub, e.g. once it has gone idle and
// been persisted.
func (r *Registry) Remove(docID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.hubs, docID)
}

// Count returns the number of documents currently held in memory, for
// the stats endpoint.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.hubs)
}

// ForEach calls fn for every (docID, Hub) pair currently registered.
// Used by the idle-expiry sweep; fn must not call back into the
// Registry.
func (r *Registry) ForEach(fn func(docID string, h *Hub)) {
	r.mu.Lock()
	snapshot := make(map[string]*Hub, len(r.hubs))
	for k, v := range r.hubs {
		snapshot[k] = v
	}
	r.mu.Unlock()

	for k, v := range snapshot {
		fn(k, v)
	}
}

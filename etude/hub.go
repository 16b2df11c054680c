package etude

import (
	"sync"
	"time"
)

// Hub is the in-memory source collection for the running process. Documents
// are keyed by identifier (URL or file name) and listed in insertion order.
// All state is lost on restart; there is no persistence layer behind it.
type Hub struct {
	mu    sync.Mutex
	byID  map[string]*SourceDocument
	order []string
}

func NewHub() *Hub {
	return &Hub{byID: make(map[string]*SourceDocument)}
}

// Add inserts doc into the hub. The identifier must be unique; a second
// document with the same ID returns ErrDuplicateSource and leaves the hub
// unchanged.
func (h *Hub) Add(doc *SourceDocument) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.byID[doc.ID]; ok {
		return ErrDuplicateSource
	}
	if doc.AddedAt.IsZero() {
		doc.AddedAt = time.Now()
	}
	h.byID[doc.ID] = doc
	h.order = append(h.order, doc.ID)
	return nil
}

// Has reports whether a document with the given identifier is present.
func (h *Hub) Has(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.byID[id]
	return ok
}

// List returns all documents in insertion order.
func (h *Hub) List() []*SourceDocument {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*SourceDocument, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.byID[id])
	}
	return out
}

// URLs returns the identifiers of all documents that entered the hub with a
// URL, in insertion order. Used to exclude already-collected sources from
// discovery runs.
func (h *Hub) URLs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, id := range h.order {
		if h.byID[id].URL != "" {
			out = append(out, h.byID[id].URL)
		}
	}
	return out
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.order)
}

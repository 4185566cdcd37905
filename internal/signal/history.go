package signal

import (
	"sync"

	"PolyRadar/internal/domain/models"
)

// History is a fixed-capacity ring of price observations shared
// between the polling loop and the signal engine.
type History struct {
	mu      sync.RWMutex
	entries []models.HistoryEntry
	cap     int
}

const DefaultHistorySize = 60

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{
		entries: make([]models.HistoryEntry, 0, capacity),
		cap:     capacity,
	}
}

// Append records an observation, evicting the oldest entry when full.
func (h *History) Append(e models.HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == h.cap {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:h.cap-1]
	}
	h.entries = append(h.entries, e)
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// Snapshot returns a copy of the entries, oldest first.
func (h *History) Snapshot() []models.HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]models.HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Reset clears the ring. Called on market window transitions so stale
// prices from the previous market never feed the next one.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = h.entries[:0]
}

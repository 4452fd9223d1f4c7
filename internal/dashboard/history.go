package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Entry is one prediction shown in the history table.
type Entry struct {
	ID         string     `json:"id"`
	Time       time.Time  `json:"time"`
	Prediction float64    `json:"prediction"`
	Category   string     `json:"category,omitempty"`
	Source     string     `json:"source"`
	Sample     bool       `json:"sample,omitempty"`
	ObservedAt *time.Time `json:"observed_at,omitempty"`
}

// History keeps the most recent entries up to a fixed size.
type History struct {
	mu      sync.Mutex
	size    int
	entries []Entry
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = 1
	}
	return &History{size: size, entries: make([]Entry, 0, size)}
}

func (h *History) Add(e Entry) Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.add(e)
}

// AddIfChanged adds e unless the newest entry from the same source carries
// the same observation and prediction.
func (h *History) AddIfChanged(e Entry) (Entry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := len(h.entries) - 1; i >= 0; i-- {
		prev := h.entries[i]
		if prev.Source != e.Source || prev.Sample != e.Sample {
			continue
		}
		if prev.Prediction == e.Prediction && sameTime(prev.ObservedAt, e.ObservedAt) {
			return prev, false
		}
		break
	}
	return h.add(e), true
}

func (h *History) add(e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if len(h.entries) == h.size {
		copy(h.entries, h.entries[1:])
		h.entries = h.entries[:h.size-1]
	}
	h.entries = append(h.entries, e)
	return e
}

// Recent returns entries newest first.
func (h *History) Recent() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Entry, len(h.entries))
	for i, e := range h.entries {
		out[len(h.entries)-1-i] = e
	}
	return out
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

package headless

import "sync"

// History keeps the most recent entered lines.
type History struct {
	mu    sync.RWMutex
	size  int
	lines []string
}

// NewHistory creates a history holding up to size lines. Zero disables it.
func NewHistory(size int) *History {
	return &History{size: size}
}

// Add records a line, evicting the oldest when full.
func (h *History) Add(line string) {
	if h.size <= 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.lines) == h.size {
		copy(h.lines, h.lines[1:])
		h.lines = h.lines[:h.size-1]
	}
	h.lines = append(h.lines, line)
}

// Lines returns a copy of the recorded lines, oldest first.
func (h *History) Lines() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]string(nil), h.lines...)
}

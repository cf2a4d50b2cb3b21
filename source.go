package headless

import (
	"sync"

	"github.com/aretw0/headless/pkg/domain"
)

// DefaultInputBufferSize is the default number of lines a source buffers between drains.
const DefaultInputBufferSize = 64

// LineSource produces complete lines. The channel is closed when the source ends.
type LineSource interface {
	Lines() <-chan string
}

// SequencedSource is a LineSource that wants to know the sequence number given to each of its
// lines. Output caused by a line carries that number as its Origin.
type SequencedSource interface {
	LineSource
	Accepted(seq uint64)
}

// Plugin attaches sources and systems to an App.
type Plugin interface {
	Build(app *App) error
}

// ChannelSource is a LineSource fed by Push. It is safe for concurrent use.
type ChannelSource struct {
	mu     sync.RWMutex
	lines  chan string
	closed bool
}

// NewChannelSource creates a source that buffers up to size lines.
func NewChannelSource(size int) *ChannelSource {
	if size <= 0 {
		size = DefaultInputBufferSize
	}
	return &ChannelSource{lines: make(chan string, size)}
}

// Lines implements LineSource.
func (s *ChannelSource) Lines() <-chan string {
	return s.lines
}

// Push queues a line without blocking.
func (s *ChannelSource) Push(line string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.ErrSourceClosed
	}
	select {
	case s.lines <- line:
		return nil
	default:
		return domain.ErrSourceFull
	}
}

// Close ends the source. Lines already queued are still delivered.
func (s *ChannelSource) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.lines)
	}
}

// Build attaches the source to app.
func (s *ChannelSource) Build(app *App) error {
	app.AddLineSource(s)
	return nil
}

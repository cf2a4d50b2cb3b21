package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/headless/pkg/domain"
)

// DefaultHistorySize is the number of entered lines a console remembers.
const DefaultHistorySize = 20

// Descriptor describes a registered console command.
type Descriptor struct {
	Name    string   `json:"name"`
	Summary string   `json:"summary"`
	Long    string   `json:"long,omitempty"`
	Usage   string   `json:"usage"`
	Args    []string `json:"args,omitempty"`
	Flags   []string `json:"flags,omitempty"`
}

// Registry manages the available commands.
type Registry struct {
	mu          sync.RWMutex
	commands    map[string]Descriptor
	historySize int
}

// Option configures a Registry.
type Option func(*Registry)

// WithHistorySize sets how many entered lines the console keeps. Zero disables history.
func WithHistorySize(n int) Option {
	return func(r *Registry) {
		if n >= 0 {
			r.historySize = n
		}
	}
}

// NewRegistry creates a new empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		commands:    make(map[string]Descriptor),
		historySize: DefaultHistorySize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a command to the registry.
// If a command with the same name exists, it is overwritten and Register reports true.
func (r *Registry) Register(d Descriptor) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.commands[d.Name]
	r.commands[d.Name] = d
	return exists
}

// Lookup returns the descriptor of a command.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.commands[name]
	return d, ok
}

// Contains reports whether a command is registered.
func (r *Registry) Contains(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Usage returns the help text of a command.
func (r *Registry) Usage(name string) (string, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrCommandNotFound, name)
	}
	return d.Usage, nil
}

// List returns every registered command sorted by name.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	out := make([]Descriptor, 0, len(r.commands))
	for _, d := range r.commands {
		out = append(out, d)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// HistorySize returns the configured history capacity.
func (r *Registry) HistorySize() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.historySize
}

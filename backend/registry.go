package backend

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Caps describes what a backend can do.
type Caps struct {
	Family      string
	Parallel    bool
	Distributed bool
	// Device is where the kernel runs, e.g. "cpu".
	Device string
	// Features lists detected hardware features relevant to the kernel.
	Features []string
}

// Entry is a registered backend. NewEqu and NewGrid may be nil if the
// backend does not support that layout.
type Entry struct {
	// Priority orders Available and picks Default; higher wins.
	Priority int
	Caps     Caps
	// Probe reports whether the native implementation is usable in this
	// process. A nil Probe always succeeds. Probes run once per registry.
	Probe   func() error
	NewEqu  func(Params) (EquCore, error)
	NewGrid func(Params) (GridCore, error)
}

// Registry maps backend names to factories. Entries are registered up front;
// the first lookup runs every probe and freezes the registry.
type Registry struct {
	mu         sync.RWMutex
	entries    map[string]Entry
	discovered map[string]Entry
	missing    map[string]error
	once       sync.Once
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry that backend packages
// register into from init().
func DefaultRegistry() *Registry { return defaultRegistry }

// Register adds a backend. It panics if called after discovery.
func (r *Registry) Register(name string, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.discovered != nil {
		panic(fmt.Sprintf("backend: register %q after discovery", name))
	}
	if e.Caps.Family == "" {
		e.Caps.Family = Family(name)
	}
	r.entries[name] = e
}

func (r *Registry) discover() {
	r.once.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		log := Logger()
		discovered := make(map[string]Entry, len(r.entries))
		missing := make(map[string]error)
		for name, e := range r.entries {
			if e.Probe != nil {
				if err := e.Probe(); err != nil {
					missing[name] = err
					log.Warn("backend probe failed", slog.String("backend", name), slog.Any("error", err))
					continue
				}
			}
			discovered[name] = e
		}
		r.discovered = discovered
		r.missing = missing
		log.Info("backends discovered", slog.Any("available", r.sortedLocked()))
	})
}

func (r *Registry) sortedLocked() []string {
	names := make([]string, 0, len(r.discovered))
	for name := range r.discovered {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(r.discovered[b].Priority, r.discovered[a].Priority); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return names
}

// Available returns the discovered backends, best first.
func (r *Registry) Available() []string {
	r.discover()
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocked()
}

// IsAvailable reports whether name was discovered.
func (r *Registry) IsAvailable(name string) bool {
	r.discover()
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.discovered[name]
	return ok
}

// Default returns the highest priority discovered backend, or "" if none.
func (r *Registry) Default() string {
	names := r.Available()
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// Capabilities returns the capability metadata of a discovered backend.
func (r *Registry) Capabilities(name string) (Caps, bool) {
	e, err := r.lookup(name)
	if err != nil {
		return Caps{}, false
	}
	return e.Caps, true
}

func (r *Registry) lookup(name string) (Entry, error) {
	r.discover()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.discovered[name]; ok {
		return e, nil
	}
	return Entry{}, newUnavailable(name, r.missing[name])
}

// NewEquCore builds an index-graph solver core for the named backend.
func (r *Registry) NewEquCore(name string, p Params) (EquCore, error) {
	e, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if e.NewEqu == nil {
		return nil, newUnavailable(name, fmt.Errorf("no equation solver"))
	}
	c, err := e.NewEqu(p.WithDefaults())
	if err != nil {
		return nil, newUnavailable(name, err)
	}
	return c, nil
}

// NewGridCore builds a grid solver core for the named backend.
func (r *Registry) NewGridCore(name string, p Params) (GridCore, error) {
	e, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if e.NewGrid == nil {
		return nil, newUnavailable(name, fmt.Errorf("no grid solver"))
	}
	c, err := e.NewGrid(p.WithDefaults())
	if err != nil {
		return nil, newUnavailable(name, err)
	}
	return c, nil
}

// Register registers a backend with the process-wide registry.
// This is typically called from init() functions in backend packages.
func Register(name string, e Entry) { defaultRegistry.Register(name, e) }

// Available returns the backends discovered in this process, best first.
func Available() []string { return defaultRegistry.Available() }

// Default returns the best backend discovered in this process.
func Default() string { return defaultRegistry.Default() }

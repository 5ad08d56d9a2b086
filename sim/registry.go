package sim

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Registry tracks coexisting simulation instances and bounds their number.
// It is safe for concurrent use; the instances it hands out are not.
type Registry struct {
	mu        sync.Mutex
	max       int
	instances map[string]*Simulation
}

// NewRegistry creates a registry holding at most limit instances (0 = unbounded).
func NewRegistry(limit int) *Registry {
	if limit < 0 {
		panic(fmt.Sprintf("NewRegistry: limit must be >= 0, got %d", limit))
	}
	return &Registry{max: limit, instances: make(map[string]*Simulation)}
}

// Create builds a new Simulation from cfg and registers it. An empty
// cfg.Name is replaced with a random uuid.
func (r *Registry) Create(cfg Config) (*Simulation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.max > 0 && len(r.instances) >= r.max {
		return nil, fmt.Errorf("creating %q: %w (limit %d)", cfg.Name, ErrTooManySimulations, r.max)
	}
	if cfg.Name == "" {
		cfg.Name = uuid.NewString()
	}
	if _, exists := r.instances[cfg.Name]; exists {
		return nil, fmt.Errorf("simulation %q already exists", cfg.Name)
	}
	s := NewSimulation(cfg)
	r.instances[cfg.Name] = s
	logrus.Debugf("registered simulation %q (%d/%d)", cfg.Name, len(r.instances), r.max)
	return s, nil
}

// Get returns the named instance.
func (r *Registry) Get(name string) (*Simulation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.instances[name]
	return s, ok
}

// Destroy tears down the named instance and frees its slot. It reports
// whether the instance existed.
func (r *Registry) Destroy(name string) bool {
	r.mu.Lock()
	s, ok := r.instances[name]
	delete(r.instances, name)
	r.mu.Unlock()
	if ok {
		s.Teardown()
	}
	return ok
}

// Len returns the number of registered instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

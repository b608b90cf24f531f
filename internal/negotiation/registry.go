package negotiation

import (
	"context"
	"sync"
)

// Canonical analysis module names.
const (
	ModuleSocialIntelligence     = "social_intelligence"
	ModuleCulturalAwareness      = "cultural_awareness"
	ModuleTemporalDynamics       = "temporal_dynamics"
	ModuleUncertaintyManagement  = "uncertainty_management"
	ModuleCollectiveIntelligence = "collective_intelligence"
)

// AnalysisModule is the single capability all analysis modules share: produce
// observation text for one participant from a round context, optionally
// updating private state. Implementations own their state exclusively.
type AnalysisModule interface {
	Name() string
	ObservationContext(ctx context.Context, participant string, rc *RoundContext) (string, error)
}

// ModuleFactory builds a fresh module instance.
type ModuleFactory func() AnalysisModule

// Registry maps module names to factories. It is build-once, read-many: there
// is no removal operation. Re-registering a name overwrites the factory,
// last write wins.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ModuleFactory
	order     []string // registration order, first registration wins the slot
}

// NewRegistry creates an empty module registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]ModuleFactory),
	}
}

// Register stores a factory under name. Never fails; a duplicate name
// replaces the previous factory.
func (r *Registry) Register(name string, factory ModuleFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; !exists {
		r.order = append(r.order, name)
	}
	r.factories[name] = factory
}

// Create builds a new instance of the named module. Unknown names are a soft
// miss: the second return value is false and no error is raised.
func (r *Registry) Create(name string) (AnalysisModule, bool) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return factory(), true
}

// ListModules returns the registered module names in registration order.
func (r *Registry) ListModules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Has reports whether a factory is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

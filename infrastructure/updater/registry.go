// Package updater manages the dependency update capabilities the
// orchestrator can dispatch to, keyed by package ecosystem.
package updater

import (
	"errors"
	"fmt"

	"github.com/upkeeper/upkeeper/domain"
)

var ErrNoUpdater = errors.New("no update capability registered for ecosystem")

// Registry holds the registered update capabilities.
type Registry struct {
	updaters map[domain.PackageManager]domain.Updater
}

// NewRegistry creates an empty capability registry.
func NewRegistry() *Registry {
	return &Registry{
		updaters: make(map[domain.PackageManager]domain.Updater),
	}
}

// Register adds a capability under its ecosystem. A later registration for
// the same ecosystem replaces the earlier one.
func (r *Registry) Register(u domain.Updater) {
	r.updaters[u.Ecosystem()] = u
}

// Get returns the capability serving the given ecosystem.
func (r *Registry) Get(pm domain.PackageManager) (domain.Updater, error) {
	u, ok := r.updaters[pm]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoUpdater, pm)
	}
	return u, nil
}

// Ecosystems returns the ecosystems with a registered capability.
func (r *Registry) Ecosystems() []domain.PackageManager {
	ecosystems := make([]domain.PackageManager, 0, len(r.updaters))
	for pm := range r.updaters {
		ecosystems = append(ecosystems, pm)
	}
	return ecosystems
}

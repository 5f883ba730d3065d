// Package routes assembles the API surface from independently authored
// endpoint modules, the way database/sql assembles drivers: a module is
// anything that can register routes, added from the wiring point in cmd.
// Nothing central enumerates endpoints; a new endpoint group only has to
// implement Module and be handed to a Registry.
package routes

import (
	"sort"

	"github.com/go-chi/chi/v5"
)

// Module is the capability a package must expose to contribute endpoints.
// The name participates in deterministic ordering and must be unique.
type Module interface {
	Name() string
	Register(r chi.Router)
}

// Orderer is optionally implemented by modules that care about registration
// order. Lower values register first. Modules without an explicit order get
// DefaultOrder, so explicitly low-ordered modules precede them and
// explicitly high-ordered ones follow.
type Orderer interface {
	RouteOrder() int
}

// DefaultOrder is the hint used for modules that do not declare one.
const DefaultOrder = 100

// Registry collects endpoint modules and composes them into one router.
type Registry struct {
	modules []Module
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a module. Values that do not satisfy Module never reach this
// method, which is the registry's skip semantics: helper packages in the
// same namespace simply have nothing to add.
func (reg *Registry) Add(modules ...Module) {
	reg.modules = append(reg.modules, modules...)
}

// Build mounts every module onto a fresh router in deterministic order:
// ascending order hint, then ascending module name. Registration order is
// observable because chi resolves path conflicts first-registered-wins, so
// it must not depend on the order modules were added.
func (reg *Registry) Build() chi.Router {
	r := chi.NewRouter()
	for _, m := range reg.sorted() {
		m.Register(r)
	}
	return r
}

// Modules returns the composition order without building a router.
func (reg *Registry) Modules() []string {
	ordered := reg.sorted()
	names := make([]string, len(ordered))
	for i, m := range ordered {
		names[i] = m.Name()
	}
	return names
}

func (reg *Registry) sorted() []Module {
	ordered := make([]Module, len(reg.modules))
	copy(ordered, reg.modules)
	sort.SliceStable(ordered, func(i, j int) bool {
		oi, oj := orderOf(ordered[i]), orderOf(ordered[j])
		if oi != oj {
			return oi < oj
		}
		return ordered[i].Name() < ordered[j].Name()
	})
	return ordered
}

func orderOf(m Module) int {
	if o, ok := m.(Orderer); ok {
		return o.RouteOrder()
	}
	return DefaultOrder
}

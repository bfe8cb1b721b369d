// Package catalog is the static registry of product modules. It is compiled
// into the binary: adding a module or marking one implemented is a deploy,
// never a runtime mutation. Both the server's flag store and the client's
// navigation guard consult this package, so the two can never disagree on
// which module ids exist.
package catalog

import "errors"

// Guardrail violations. Both the server's flag store and the client's
// optimistic toggle reject with these before any state changes.
var (
	ErrUnknownModule  = errors.New("module is not in the catalog")
	ErrNotImplemented = errors.New("module is not implemented")
	ErrMandatory      = errors.New("mandatory module cannot be disabled")
)

// ModuleID identifies one product module. The set of values is closed; code
// that switches over module ids handles every constant below.
type ModuleID string

const (
	ModuleCore     ModuleID = "core"
	ModuleDocs     ModuleID = "docs"
	ModulePeople   ModuleID = "people"
	ModuleFinance  ModuleID = "finance"
	ModuleProjects ModuleID = "projects"
	ModuleReports  ModuleID = "reports"
)

// Descriptor describes one catalog entry. Mandatory implies DefaultEnabled
// and Implemented.
type Descriptor struct {
	ID             ModuleID `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Implemented    bool     `json:"implemented"`
	Mandatory      bool     `json:"mandatory"`
	DefaultEnabled bool     `json:"default_enabled"`
}

// descriptors is ordered by module id so seeded rows and listings line up.
var descriptors = []Descriptor{
	{ID: ModuleCore, Title: "Core", Description: "Tenant administration, users, and audit", Implemented: true, Mandatory: true, DefaultEnabled: true},
	{ID: ModuleDocs, Title: "Documents", Description: "Document registry and upload references", Implemented: true, DefaultEnabled: true},
	{ID: ModuleFinance, Title: "Finance", Description: "Billing and financial records", Implemented: true},
	{ID: ModulePeople, Title: "People", Description: "Employee and contact management", Implemented: true},
	{ID: ModuleProjects, Title: "Projects", Description: "Project tracking", Implemented: false},
	{ID: ModuleReports, Title: "Reports", Description: "Cross-module reporting", Implemented: false},
}

var byID = func() map[ModuleID]Descriptor {
	m := make(map[ModuleID]Descriptor, len(descriptors))
	for _, d := range descriptors {
		m[d.ID] = d
	}
	return m
}()

// Descriptors returns all catalog entries ordered by module id. The returned
// slice is a copy; callers may not mutate the catalog.
func Descriptors() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Lookup returns the descriptor for id. The second return value is false for
// ids outside the catalog, which is distinct from a known-but-unimplemented
// module.
func Lookup(id ModuleID) (Descriptor, bool) {
	d, ok := byID[id]
	return d, ok
}

// IsImplemented reports whether id names a module with working functionality.
// Unknown ids report false.
func IsImplemented(id ModuleID) bool {
	d, ok := byID[id]
	return ok && d.Implemented
}

// MandatoryModuleID returns the id of the single module every tenant must
// keep enabled.
func MandatoryModuleID() ModuleID {
	return ModuleCore
}

// ValidateToggle applies the guardrails for setting id to enabled. A nil
// return means the transition is permitted by the catalog; whether the caller
// is allowed to perform it is a separate question.
func ValidateToggle(id ModuleID, enabled bool) error {
	d, ok := byID[id]
	if !ok {
		return ErrUnknownModule
	}
	if d.Mandatory && !enabled {
		return ErrMandatory
	}
	if enabled && !d.Implemented {
		return ErrNotImplemented
	}
	return nil
}

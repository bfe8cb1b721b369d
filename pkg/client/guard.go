package client

import (
	"sort"
	"strings"
	"sync"

	"github.com/empresahub/console/pkg/catalog"
)

// Denial reasons reported by the guard.
const (
	DenyUnmappedRoute    = "route does not belong to any module"
	DenyUnknownModule    = "module is not in the catalog"
	DenyNotImplemented   = "module is not implemented"
	DenyModuleDisabled   = "module is disabled for this tenant"
	DenyNoSnapshotLoaded = "no tenant state loaded"
)

// Decision is the guard's verdict on one navigation attempt.
type Decision struct {
	Allowed  bool
	Module   catalog.ModuleID
	Redirect string
	Reason   string
}

// Guard decides, per navigation event, whether a route may render. It asks
// the cache on every call rather than holding its own copy of the enabled
// set: between two navigations another session may have toggled a module,
// and yesterday's answer is exactly the bug this exists to prevent.
type Guard struct {
	cache     *ModuleCache
	safeRoute string

	mu       sync.RWMutex
	prefixes []string
	routes   map[string]catalog.ModuleID
}

// NewGuard creates a Guard that redirects denied navigations to safeRoute.
// safeRoute must belong to the mandatory module so the redirect itself can
// never be denied.
func NewGuard(cache *ModuleCache, safeRoute string) *Guard {
	return &Guard{
		cache:     cache,
		safeRoute: safeRoute,
		routes:    make(map[string]catalog.ModuleID),
	}
}

// RegisterRoute maps a route prefix to the module that owns it. Longest
// prefix wins when prefixes nest.
func (g *Guard) RegisterRoute(prefix string, moduleID catalog.ModuleID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, exists := g.routes[prefix]; !exists {
		g.prefixes = append(g.prefixes, prefix)
		sort.Slice(g.prefixes, func(i, j int) bool {
			return len(g.prefixes[i]) > len(g.prefixes[j])
		})
	}
	g.routes[prefix] = moduleID
}

// Resolve returns the module owning the route, by longest registered prefix.
func (g *Guard) Resolve(route string) (catalog.ModuleID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, prefix := range g.prefixes {
		if strings.HasPrefix(route, prefix) {
			return g.routes[prefix], true
		}
	}
	return "", false
}

// Check evaluates one navigation attempt against the catalog and the cached
// enabled set. Must be called on every navigation, never just once at mount.
func (g *Guard) Check(route string) Decision {
	moduleID, ok := g.Resolve(route)
	if !ok {
		return g.deny("", DenyUnmappedRoute)
	}

	desc, ok := catalog.Lookup(moduleID)
	if !ok {
		return g.deny(moduleID, DenyUnknownModule)
	}
	if desc.Mandatory {
		return Decision{Allowed: true, Module: moduleID}
	}
	if !desc.Implemented {
		return g.deny(moduleID, DenyNotImplemented)
	}

	if _, loaded := g.cache.ActiveSnapshot(); !loaded {
		return g.deny(moduleID, DenyNoSnapshotLoaded)
	}
	if !g.cache.Enabled(moduleID) {
		return g.deny(moduleID, DenyModuleDisabled)
	}
	return Decision{Allowed: true, Module: moduleID}
}

func (g *Guard) deny(moduleID catalog.ModuleID, reason string) Decision {
	return Decision{
		Allowed:  false,
		Module:   moduleID,
		Redirect: g.safeRoute,
		Reason:   reason,
	}
}

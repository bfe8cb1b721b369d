package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/empresahub/console/pkg/catalog"
	"github.com/empresahub/console/pkg/models"
	"github.com/google/uuid"
)

var ErrNoActiveTenant = errors.New("no active tenant selected")

// Snapshot is one tenant's enabled set as of FetchedAt. Snapshots are values;
// mutating one never affects the cache it came from.
type Snapshot struct {
	TenantID  uuid.UUID
	Enabled   map[catalog.ModuleID]bool
	FetchedAt time.Time
}

// Stale reports whether the snapshot is older than maxAge.
func (s Snapshot) Stale(maxAge time.Duration) bool {
	return time.Since(s.FetchedAt) > maxAge
}

// equal compares enabled sets, ignoring FetchedAt.
func (s Snapshot) equal(other Snapshot) bool {
	if len(s.Enabled) != len(other.Enabled) {
		return false
	}
	for id, enabled := range s.Enabled {
		if other.Enabled[id] != enabled {
			return false
		}
	}
	return true
}

// ModuleCache holds per-tenant flag snapshots for one authenticated session.
// It is never authoritative: every tenant switch refetches from the server,
// and the cached copy exists only to avoid a blank render in the gap.
// Safe for concurrent use.
type ModuleCache struct {
	client Client

	mu        sync.Mutex
	active    uuid.UUID
	snapshots map[uuid.UUID]Snapshot
}

// NewModuleCache creates an empty cache backed by the given client.
func NewModuleCache(c Client) *ModuleCache {
	return &ModuleCache{
		client:    c,
		snapshots: make(map[uuid.UUID]Snapshot),
	}
}

// Provisional returns the cached snapshot for tenantID if one exists. Callers
// may render from it immediately while SwitchTenant fetches the fresh state,
// but must replace the render once SwitchTenant returns.
func (m *ModuleCache) Provisional(tenantID uuid.UUID) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snapshots[tenantID]
	if !ok {
		return Snapshot{}, false
	}
	return copySnapshot(snap), true
}

// SwitchTenant makes tenantID the active tenant and fetches its fresh flag
// state. The returned bool reports whether the fresh state differs from the
// provisional snapshot, i.e. whether a provisional render must be replaced.
// On fetch failure the active tenant does not change.
func (m *ModuleCache) SwitchTenant(ctx context.Context, tenantID uuid.UUID) (Snapshot, bool, error) {
	flags, err := m.client.ListModules(ctx, tenantID)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("switch tenant %s: %w", tenantID, err)
	}
	fresh := snapshotFromFlags(tenantID, flags)

	m.mu.Lock()
	defer m.mu.Unlock()

	prior, hadPrior := m.snapshots[tenantID]
	changed := !hadPrior || !fresh.equal(prior)

	m.active = tenantID
	m.snapshots[tenantID] = fresh
	return copySnapshot(fresh), changed, nil
}

// Refresh refetches the active tenant's flags, replacing the cached snapshot.
func (m *ModuleCache) Refresh(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	tenantID := m.active
	m.mu.Unlock()
	if tenantID == uuid.Nil {
		return Snapshot{}, ErrNoActiveTenant
	}

	snap, _, err := m.SwitchTenant(ctx, tenantID)
	return snap, err
}

// Toggle performs an optimistic toggle on the active tenant. The guardrails
// run locally first, so an invalid state is never rendered even for an
// instant. The optimistic update is applied before the network call; a server
// rejection rolls the cache back to the pre-toggle state and the rejection is
// returned as-is for the caller to surface.
func (m *ModuleCache) Toggle(ctx context.Context, moduleID catalog.ModuleID, enabled bool) error {
	if err := catalog.ValidateToggle(moduleID, enabled); err != nil {
		return err
	}

	m.mu.Lock()
	tenantID := m.active
	if tenantID == uuid.Nil {
		m.mu.Unlock()
		return ErrNoActiveTenant
	}
	snap, ok := m.snapshots[tenantID]
	if !ok {
		m.mu.Unlock()
		return ErrNoActiveTenant
	}
	previous, hadFlag := snap.Enabled[moduleID]
	snap.Enabled[moduleID] = enabled
	m.mu.Unlock()

	outcome, err := m.client.ToggleModule(ctx, tenantID, moduleID, enabled)
	if err != nil {
		m.mu.Lock()
		if current, ok := m.snapshots[tenantID]; ok {
			if hadFlag {
				current.Enabled[moduleID] = previous
			} else {
				delete(current.Enabled, moduleID)
			}
		}
		m.mu.Unlock()
		return err
	}

	// The server's committed state wins over the optimistic guess.
	m.mu.Lock()
	if current, ok := m.snapshots[tenantID]; ok {
		current.Enabled[moduleID] = outcome.Flag.Enabled
	}
	m.mu.Unlock()
	return nil
}

// Enabled reports whether moduleID is enabled in the active tenant's cached
// snapshot. The mandatory module always reports true. False for unknown
// modules and when no snapshot is loaded.
func (m *ModuleCache) Enabled(moduleID catalog.ModuleID) bool {
	if moduleID == catalog.MandatoryModuleID() {
		return true
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snapshots[m.active]
	if !ok {
		return false
	}
	return snap.Enabled[moduleID]
}

// ActiveSnapshot returns a copy of the active tenant's snapshot.
func (m *ModuleCache) ActiveSnapshot() (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.snapshots[m.active]
	if !ok {
		return Snapshot{}, false
	}
	return copySnapshot(snap), true
}

func snapshotFromFlags(tenantID uuid.UUID, flags []*models.ModuleFlag) Snapshot {
	enabled := make(map[catalog.ModuleID]bool, len(flags))
	for _, f := range flags {
		enabled[catalog.ModuleID(f.ModuleID)] = f.Enabled
	}
	return Snapshot{TenantID: tenantID, Enabled: enabled, FetchedAt: time.Now().UTC()}
}

func copySnapshot(s Snapshot) Snapshot {
	enabled := make(map[catalog.ModuleID]bool, len(s.Enabled))
	for id, v := range s.Enabled {
		enabled[id] = v
	}
	return Snapshot{TenantID: s.TenantID, Enabled: enabled, FetchedAt: s.FetchedAt}
}

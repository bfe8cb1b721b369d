// Package modules maintains each tenant's module enablement state. Two hard
// invariants live here: the mandatory module can never be disabled, and a
// module without working functionality can never be enabled. Guardrail
// violations are deterministic rejections; only storage failures are
// retryable.
package modules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/empresahub/console/internal/audit"
	"github.com/empresahub/console/internal/cache"
	"github.com/empresahub/console/internal/store"
	"github.com/empresahub/console/pkg/catalog"
	"github.com/empresahub/console/pkg/models"
	"github.com/google/uuid"
)

// The guardrail sentinels live in the catalog so the client's optimistic
// toggle rejects with the same errors the server does.
var (
	ErrModuleUnknown        = catalog.ErrUnknownModule
	ErrModuleNotImplemented = catalog.ErrNotImplemented
	ErrMandatoryModule      = catalog.ErrMandatory
)

// Actor identifies who performs a toggle, for the audit trail.
type Actor struct {
	PrincipalID  string
	MembershipID *uuid.UUID
}

// ToggleResult carries the updated flag plus whether the audit event for the
// change was durably written. AuditRecorded=false means the toggle itself
// succeeded but left a gap in the trail.
type ToggleResult struct {
	Flag          *models.ModuleFlag
	AuditRecorded bool
}

// Service implements seed, list, and toggle over the flag store.
type Service struct {
	store    store.Store
	cache    cache.Cache
	trail    *audit.Trail
	cacheTTL time.Duration
}

// NewService creates a module Service. cacheTTL bounds snapshot staleness.
func NewService(s store.Store, c cache.Cache, trail *audit.Trail, cacheTTL time.Duration) *Service {
	return &Service{store: s, cache: c, trail: trail, cacheTTL: cacheTTL}
}

// seedDefaults maps the catalog to the rows a fresh tenant starts with.
func seedDefaults() []store.ModuleDefault {
	descs := catalog.Descriptors()
	defaults := make([]store.ModuleDefault, len(descs))
	for i, d := range descs {
		defaults[i] = store.ModuleDefault{ModuleID: string(d.ID), Enabled: d.DefaultEnabled}
	}
	return defaults
}

// Seed inserts any missing flag rows for the tenant. Idempotent and safe
// under concurrent callers: the unique constraint absorbs the race.
func (s *Service) Seed(ctx context.Context, tenantID uuid.UUID) error {
	if err := s.store.SeedModuleFlags(ctx, tenantID, seedDefaults()); err != nil {
		return fmt.Errorf("seed tenant %s: %w", tenantID, err)
	}
	return nil
}

// List returns the tenant's flags ordered by module id, seeding first so a
// tenant's very first read self-heals. Reads are served from the snapshot
// cache when present; cache failures degrade to the store, never to an error.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID) ([]*models.ModuleFlag, error) {
	if flags, found, err := s.cache.GetModuleFlags(ctx, tenantID); err != nil {
		slog.Warn("module flag cache read failed", "tenant_id", tenantID, "error", err)
	} else if found {
		return flags, nil
	}

	if err := s.Seed(ctx, tenantID); err != nil {
		return nil, err
	}

	flags, err := s.store.ListModuleFlags(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list flags for tenant %s: %w", tenantID, err)
	}

	if err := s.cache.SetModuleFlags(ctx, tenantID, flags, s.cacheTTL); err != nil {
		slog.Warn("module flag cache write failed", "tenant_id", tenantID, "error", err)
	}
	return flags, nil
}

// Toggle applies a guarded state transition to one flag and audits it. The
// guardrails are evaluated against the catalog and the write is a single
// atomic statement, so concurrent toggles settle last-write-wins without torn
// state. The returned error is nil whenever the flag write committed, even if
// the audit write did not.
func (s *Service) Toggle(ctx context.Context, tenantID uuid.UUID, moduleID catalog.ModuleID, enabled bool, actor Actor) (*ToggleResult, error) {
	if err := catalog.ValidateToggle(moduleID, enabled); err != nil {
		return nil, err
	}

	flag, err := s.store.SetModuleFlag(ctx, tenantID, string(moduleID), enabled)
	if errors.Is(err, store.ErrNotFound) {
		// Tenant was never seeded; heal and retry once.
		if err := s.Seed(ctx, tenantID); err != nil {
			return nil, err
		}
		flag, err = s.store.SetModuleFlag(ctx, tenantID, string(moduleID), enabled)
	}
	if err != nil {
		return nil, fmt.Errorf("toggle %s for tenant %s: %w", moduleID, tenantID, err)
	}

	if err := s.cache.InvalidateModuleFlags(ctx, tenantID); err != nil {
		slog.Warn("module flag cache invalidation failed", "tenant_id", tenantID, "error", err)
	}

	action := models.ActionModuleDisabled
	if enabled {
		action = models.ActionModuleEnabled
	}
	_, auditErr := s.trail.Record(ctx, audit.RecordParams{
		TenantID:          tenantID,
		ActorPrincipalID:  actor.PrincipalID,
		ActorMembershipID: actor.MembershipID,
		Action:            action,
		TargetKind:        "module",
		TargetID:          string(moduleID),
		Payload:           map[string]any{"enabled": enabled},
	})

	return &ToggleResult{Flag: flag, AuditRecorded: auditErr == nil}, nil
}

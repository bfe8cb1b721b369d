package store

import (
	"context"
	"errors"
	"time"

	"github.com/empresahub/console/pkg/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	CreateTenant(ctx context.Context, tenant *models.Tenant) error

	GetMembership(ctx context.Context, tenantID uuid.UUID, principalID string) (*models.Membership, error)
	ListMembershipsByPrincipal(ctx context.Context, principalID string) ([]*models.Membership, error)
	CreateMembership(ctx context.Context, m *models.Membership) error
	DeactivateMembership(ctx context.Context, tenantID, membershipID uuid.UUID) error

	SeedModuleFlags(ctx context.Context, tenantID uuid.UUID, defaults []ModuleDefault) error
	ListModuleFlags(ctx context.Context, tenantID uuid.UUID) ([]*models.ModuleFlag, error)
	SetModuleFlag(ctx context.Context, tenantID uuid.UUID, moduleID string, enabled bool) (*models.ModuleFlag, error)

	InsertAuditEvent(ctx context.Context, event *models.AuditEvent) error
	ListAuditEvents(ctx context.Context, filter AuditFilter) ([]*models.AuditEvent, error)

	GetAccessTokensByPrefix(ctx context.Context, prefix string) ([]*models.AccessToken, error)
	UpdateAccessTokenLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAccessToken(ctx context.Context, token *models.AccessToken) error
	RevokeAccessToken(ctx context.Context, id uuid.UUID, principalID string) error

	GetTenantSettings(ctx context.Context, tenantID uuid.UUID) (*models.TenantSettings, error)
	UpsertTenantSettings(ctx context.Context, tenantID uuid.UUID, values map[string]any) (*models.TenantSettings, error)
}

// ModuleDefault is one catalog entry's seed state. The store stays ignorant of
// the catalog itself; callers pass the defaults in.
type ModuleDefault struct {
	ModuleID string
	Enabled  bool
}

// AuditFilter selects a page of audit events. Before/BeforeID form the keyset
// cursor: both zero means "from the newest event".
type AuditFilter struct {
	TenantID uuid.UUID
	Limit    int
	Before   time.Time
	BeforeID uuid.UUID
}

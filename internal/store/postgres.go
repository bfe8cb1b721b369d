package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/empresahub/console/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Tenants ---

func (s *PostgresStore) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var t models.Tenant
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, active, created_at, updated_at FROM tenants WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return &t, nil
}

func (s *PostgresStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenants (id, name, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		tenant.ID, tenant.Name, tenant.Active, tenant.CreatedAt, tenant.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create tenant: %w", err)
	}
	return nil
}

// --- Memberships ---

func (s *PostgresStore) GetMembership(ctx context.Context, tenantID uuid.UUID, principalID string) (*models.Membership, error) {
	var m models.Membership
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, principal_id, role, active, display_name, created_at, updated_at
		 FROM memberships WHERE tenant_id = $1 AND principal_id = $2`, tenantID, principalID,
	).Scan(&m.ID, &m.TenantID, &m.PrincipalID, &m.Role, &m.Active, &m.DisplayName,
		&m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get membership: %w", err)
	}
	return &m, nil
}

// ListMembershipsByPrincipal returns the principal's active memberships in
// active tenants, oldest first. The ordering is the resolver's tie-break for
// the default tenant, so it must be stable.
func (s *PostgresStore) ListMembershipsByPrincipal(ctx context.Context, principalID string) ([]*models.Membership, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT m.id, m.tenant_id, m.principal_id, m.role, m.active, m.display_name,
		        m.created_at, m.updated_at, t.name
		 FROM memberships m
		 JOIN tenants t ON t.id = m.tenant_id
		 WHERE m.principal_id = $1 AND m.active AND t.active
		 ORDER BY m.created_at ASC, m.id ASC`, principalID)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var memberships []*models.Membership
	for rows.Next() {
		var m models.Membership
		if err := rows.Scan(&m.ID, &m.TenantID, &m.PrincipalID, &m.Role, &m.Active,
			&m.DisplayName, &m.CreatedAt, &m.UpdatedAt, &m.TenantName); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, &m)
	}
	return memberships, rows.Err()
}

func (s *PostgresStore) CreateMembership(ctx context.Context, m *models.Membership) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO memberships (id, tenant_id, principal_id, role, active, display_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.ID, m.TenantID, m.PrincipalID, m.Role, m.Active, m.DisplayName, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create membership: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeactivateMembership(ctx context.Context, tenantID, membershipID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE memberships SET active = false, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2 AND active`, membershipID, tenantID)
	if err != nil {
		return fmt.Errorf("deactivate membership: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Module flags ---

// SeedModuleFlags inserts one row per default that does not already exist for
// the tenant. The unique constraint on (tenant_id, module_id) is the source of
// truth: concurrent seeders race on the insert and every conflict is a no-op.
func (s *PostgresStore) SeedModuleFlags(ctx context.Context, tenantID uuid.UUID, defaults []ModuleDefault) error {
	if len(defaults) == 0 {
		return nil
	}

	// Build a multi-row VALUES list: ($1, $2, $3), ($1, $4, $5), ...
	placeholders := make([]string, 0, len(defaults))
	args := []any{tenantID}
	argIdx := 2
	for _, d := range defaults {
		placeholders = append(placeholders,
			fmt.Sprintf("($1, $%d, $%d, CASE WHEN $%d THEN now() END)", argIdx, argIdx+1, argIdx+1))
		args = append(args, d.ModuleID, d.Enabled)
		argIdx += 2
	}

	query := `INSERT INTO module_flags (tenant_id, module_id, enabled, enabled_at) VALUES ` +
		strings.Join(placeholders, ", ") +
		` ON CONFLICT (tenant_id, module_id) DO NOTHING`

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("seed module flags: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListModuleFlags(ctx context.Context, tenantID uuid.UUID) ([]*models.ModuleFlag, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, tenant_id, module_id, enabled, enabled_at, updated_at
		 FROM module_flags WHERE tenant_id = $1 ORDER BY module_id ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list module flags: %w", err)
	}
	defer rows.Close()

	var flags []*models.ModuleFlag
	for rows.Next() {
		var f models.ModuleFlag
		if err := rows.Scan(&f.ID, &f.TenantID, &f.ModuleID, &f.Enabled, &f.EnabledAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan module flag: %w", err)
		}
		flags = append(flags, &f)
	}
	return flags, rows.Err()
}

// SetModuleFlag writes the desired enabled state in a single atomic statement
// evaluated against the row's current state. enabled_at is set on the first
// transition to enabled and never touched again; re-enabling preserves the
// original first-activation timestamp.
func (s *PostgresStore) SetModuleFlag(ctx context.Context, tenantID uuid.UUID, moduleID string, enabled bool) (*models.ModuleFlag, error) {
	var f models.ModuleFlag
	err := s.pool.QueryRow(ctx,
		`UPDATE module_flags
		 SET enabled = $3,
		     enabled_at = CASE WHEN $3 AND enabled_at IS NULL THEN now() ELSE enabled_at END,
		     updated_at = now()
		 WHERE tenant_id = $1 AND module_id = $2
		 RETURNING id, tenant_id, module_id, enabled, enabled_at, updated_at`,
		tenantID, moduleID, enabled,
	).Scan(&f.ID, &f.TenantID, &f.ModuleID, &f.Enabled, &f.EnabledAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set module flag: %w", err)
	}
	return &f, nil
}

// --- Audit events ---

func (s *PostgresStore) InsertAuditEvent(ctx context.Context, event *models.AuditEvent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_events (id, tenant_id, actor_principal_id, actor_membership_id,
		                           action, target_kind, target_id, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.TenantID, event.ActorPrincipalID, event.ActorMembershipID,
		event.Action, event.TargetKind, event.TargetID, event.Payload, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAuditEvents(ctx context.Context, filter AuditFilter) ([]*models.AuditEvent, error) {
	conditions := []string{"tenant_id = $1"}
	args := []any{filter.TenantID}
	argIdx := 2

	if !filter.Before.IsZero() {
		// Keyset cursor on (created_at, id) so equal timestamps cannot skip
		// or repeat rows between pages.
		conditions = append(conditions, fmt.Sprintf("(created_at, id) < ($%d, $%d)", argIdx, argIdx+1))
		args = append(args, filter.Before, filter.BeforeID)
		argIdx += 2
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	query := fmt.Sprintf(
		`SELECT id, tenant_id, actor_principal_id, actor_membership_id,
		        action, target_kind, target_id, payload, created_at
		 FROM audit_events WHERE %s
		 ORDER BY created_at DESC, id DESC LIMIT $%d`,
		strings.Join(conditions, " AND "), argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []*models.AuditEvent
	for rows.Next() {
		var e models.AuditEvent
		if err := rows.Scan(&e.ID, &e.TenantID, &e.ActorPrincipalID, &e.ActorMembershipID,
			&e.Action, &e.TargetKind, &e.TargetID, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// --- Access tokens ---

func (s *PostgresStore) GetAccessTokensByPrefix(ctx context.Context, prefix string) ([]*models.AccessToken, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, principal_id, email, name, token_hash, token_prefix, last_used_at, revoked_at, created_at, updated_at
		 FROM access_tokens WHERE token_prefix = $1 AND revoked_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get access tokens by prefix: %w", err)
	}
	defer rows.Close()

	var tokens []*models.AccessToken
	for rows.Next() {
		var t models.AccessToken
		if err := rows.Scan(&t.ID, &t.PrincipalID, &t.Email, &t.Name, &t.TokenHash, &t.TokenPrefix,
			&t.LastUsedAt, &t.RevokedAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan access token: %w", err)
		}
		tokens = append(tokens, &t)
	}
	return tokens, rows.Err()
}

func (s *PostgresStore) UpdateAccessTokenLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE access_tokens SET last_used_at = now(), updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update access token last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAccessToken(ctx context.Context, token *models.AccessToken) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO access_tokens (id, principal_id, email, name, token_hash, token_prefix, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		token.ID, token.PrincipalID, token.Email, token.Name, token.TokenHash, token.TokenPrefix,
		token.CreatedAt, token.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, id uuid.UUID, principalID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE access_tokens SET revoked_at = now(), updated_at = now()
		 WHERE id = $1 AND principal_id = $2 AND revoked_at IS NULL`, id, principalID)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Tenant settings ---

// GetTenantSettings returns the settings document, or an empty one if the
// tenant has never written settings.
func (s *PostgresStore) GetTenantSettings(ctx context.Context, tenantID uuid.UUID) (*models.TenantSettings, error) {
	var settings models.TenantSettings
	err := s.pool.QueryRow(ctx,
		`SELECT tenant_id, data, updated_at FROM tenant_settings WHERE tenant_id = $1`, tenantID,
	).Scan(&settings.TenantID, &settings.Values, &settings.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.TenantSettings{TenantID: tenantID, Values: map[string]any{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tenant settings: %w", err)
	}
	return &settings, nil
}

func (s *PostgresStore) UpsertTenantSettings(ctx context.Context, tenantID uuid.UUID, values map[string]any) (*models.TenantSettings, error) {
	var settings models.TenantSettings
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tenant_settings (tenant_id, data, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (tenant_id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
		 RETURNING tenant_id, data, updated_at`,
		tenantID, values,
	).Scan(&settings.TenantID, &settings.Values, &settings.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert tenant settings: %w", err)
	}
	return &settings, nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// Package client implements the console's sync contract for UI-side callers:
// a typed HTTP client, a per-tenant flag cache with provisional reads and
// reconciliation, and a navigation guard. The server's List is always the
// source of truth; everything cached here is an optimization with a declared
// staleness bound, never an authority.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/empresahub/console/pkg/catalog"
	"github.com/empresahub/console/pkg/models"
	"github.com/google/uuid"
)

// Sentinel errors for transport and authorization failures. Guardrail
// rejections are reported with the catalog's own sentinels so callers branch
// the same way whether the rejection came from the local check or the server.
var (
	ErrUnreachable  = errors.New("console unreachable")
	ErrTimeout      = errors.New("console request timeout")
	ErrUnauthorized = errors.New("authentication missing or invalid")
	ErrNoMembership = errors.New("no active membership in tenant")
	ErrNotAdmin     = errors.New("admin role required")
	ErrServer       = errors.New("console request failed")
)

// Client is the interface for talking to the console API.
type Client interface {
	ResolveContext(ctx context.Context) (*SessionContext, error)
	ListModules(ctx context.Context, tenantID uuid.UUID) ([]*models.ModuleFlag, error)
	ToggleModule(ctx context.Context, tenantID uuid.UUID, moduleID catalog.ModuleID, enabled bool) (*ToggleOutcome, error)
	ListAudit(ctx context.Context, tenantID uuid.UUID, limit int, cursor string) ([]*models.AuditEvent, string, error)
}

// SessionContext is the resolved identity for the authenticated principal.
type SessionContext struct {
	Principal       models.Principal     `json:"principal"`
	Memberships     []*models.Membership `json:"memberships"`
	DefaultTenantID *uuid.UUID           `json:"default_tenant_id"`
}

// ToggleOutcome is the server's answer to a toggle: the committed flag plus
// whether the change made it into the audit trail.
type ToggleOutcome struct {
	Flag          *models.ModuleFlag `json:"flag"`
	AuditRecorded bool               `json:"audit_recorded"`
}

// HTTPClient implements Client against the console's REST API.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a console client authenticated with the given bearer
// token.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) ResolveContext(ctx context.Context) (*SessionContext, error) {
	var out SessionContext
	if err := c.do(ctx, http.MethodGet, "/api/v1/context", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListModules(ctx context.Context, tenantID uuid.UUID) ([]*models.ModuleFlag, error) {
	var out []*models.ModuleFlag
	path := fmt.Sprintf("/api/v1/tenants/%s/modules", tenantID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) ToggleModule(ctx context.Context, tenantID uuid.UUID, moduleID catalog.ModuleID, enabled bool) (*ToggleOutcome, error) {
	var out ToggleOutcome
	path := fmt.Sprintf("/api/v1/tenants/%s/modules/%s", tenantID, moduleID)
	body := map[string]bool{"enabled": enabled}
	if err := c.do(ctx, http.MethodPut, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListAudit(ctx context.Context, tenantID uuid.UUID, limit int, cursor string) ([]*models.AuditEvent, string, error) {
	path := fmt.Sprintf("/api/v1/tenants/%s/audit?limit=%d", tenantID, limit)
	if cursor != "" {
		path += "&cursor=" + cursor
	}

	httpReq, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, "", classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", decodeAPIError(resp)
	}

	var page struct {
		Data []*models.AuditEvent `json:"data"`
		Meta struct {
			NextCursor string `json:"next_cursor"`
		} `json:"meta"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, "", fmt.Errorf("decoding audit response: %w", err)
	}
	return page.Data, page.Meta.NextCursor, nil
}

// do issues a request and decodes the data envelope into out.
func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	httpReq, err := c.newRequest(ctx, method, path, payload)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}
	return nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	var r *http.Request
	var err error
	if body != nil {
		r, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		r, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	r.Header.Set("Authorization", "Bearer "+c.token)
	r.Header.Set("Content-Type", "application/json")
	return r, nil
}

// decodeAPIError maps the server's error envelope to sentinel errors so the
// cache and guard can branch on the specific rejection.
func decodeAPIError(resp *http.Response) error {
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	}

	var sentinel error
	switch envelope.Error.Code {
	case "AUTHENTICATION_MISSING":
		sentinel = ErrUnauthorized
	case "NO_MEMBERSHIP":
		sentinel = ErrNoMembership
	case "NOT_ADMIN":
		sentinel = ErrNotAdmin
	case "MODULE_UNKNOWN":
		sentinel = catalog.ErrUnknownModule
	case "MODULE_NOT_IMPLEMENTED":
		sentinel = catalog.ErrNotImplemented
	case "MANDATORY_MODULE":
		sentinel = catalog.ErrMandatory
	default:
		sentinel = ErrServer
	}
	return fmt.Errorf("%w: %s", sentinel, envelope.Error.Message)
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)

// Package audit is the append-only trail of privileged actions. Record is
// best-effort by contract: a failed audit write is surfaced to the caller as
// an error to report alongside its own success, never as a reason to fail or
// roll back the operation it describes.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/empresahub/console/internal/store"
	"github.com/empresahub/console/pkg/models"
	"github.com/google/uuid"
)

var ErrBadCursor = errors.New("malformed audit cursor")

const cursorSep = "~"

// RecordParams describes one privileged action to append to the trail.
type RecordParams struct {
	TenantID          uuid.UUID
	ActorPrincipalID  string
	ActorMembershipID *uuid.UUID
	Action            string
	TargetKind        string
	TargetID          string
	Payload           map[string]any
}

// Trail writes and reads audit events.
type Trail struct {
	store store.Store
}

// NewTrail creates a Trail backed by the given store.
func NewTrail(s store.Store) *Trail {
	return &Trail{store: s}
}

// Record appends one event. On failure it logs at WARN and returns the error;
// callers continue their own operation and expose the failure in their
// response so monitoring can catch audit gaps.
func (t *Trail) Record(ctx context.Context, params RecordParams) (*models.AuditEvent, error) {
	event := &models.AuditEvent{
		ID:                uuid.New(),
		TenantID:          params.TenantID,
		ActorPrincipalID:  params.ActorPrincipalID,
		ActorMembershipID: params.ActorMembershipID,
		Action:            params.Action,
		TargetKind:        params.TargetKind,
		TargetID:          params.TargetID,
		Payload:           params.Payload,
		CreatedAt:         time.Now().UTC(),
	}

	if err := t.store.InsertAuditEvent(ctx, event); err != nil {
		slog.Warn("audit write failed",
			"tenant_id", params.TenantID,
			"action", params.Action,
			"actor", params.ActorPrincipalID,
			"error", err,
		)
		return nil, fmt.Errorf("record audit event: %w", err)
	}
	return event, nil
}

// List returns a page of events, newest first, and the cursor for the next
// page. An empty next cursor means the trail is exhausted. Cursors are opaque
// to callers; a cursor that fails to parse returns ErrBadCursor.
func (t *Trail) List(ctx context.Context, tenantID uuid.UUID, limit int, cursor string) ([]*models.AuditEvent, string, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	filter := store.AuditFilter{TenantID: tenantID, Limit: limit}
	if cursor != "" {
		before, beforeID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		filter.Before = before
		filter.BeforeID = beforeID
	}

	events, err := t.store.ListAuditEvents(ctx, filter)
	if err != nil {
		return nil, "", fmt.Errorf("list audit events: %w", err)
	}

	next := ""
	if len(events) == limit {
		last := events[len(events)-1]
		next = encodeCursor(last.CreatedAt, last.ID)
	}
	return events, next, nil
}

func encodeCursor(createdAt time.Time, id uuid.UUID) string {
	return createdAt.UTC().Format(time.RFC3339Nano) + cursorSep + id.String()
}

func decodeCursor(cursor string) (time.Time, uuid.UUID, error) {
	ts, idStr, found := strings.Cut(cursor, cursorSep)
	if !found {
		return time.Time{}, uuid.Nil, ErrBadCursor
	}
	createdAt, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, uuid.Nil, ErrBadCursor
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return time.Time{}, uuid.Nil, ErrBadCursor
	}
	return createdAt, id, nil
}

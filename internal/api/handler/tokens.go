package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/empresahub/console/internal/api/response"
	"github.com/empresahub/console/internal/store"
	"github.com/empresahub/console/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenPrefix = "ch_"

// TokenStore is the access-token persistence the token handlers depend on.
type TokenStore interface {
	CreateAccessToken(ctx context.Context, token *models.AccessToken) error
	RevokeAccessToken(ctx context.Context, id uuid.UUID, principalID string) error
}

type createTokenResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Token     string    `json:"token"` // shown once, never retrievable again
	CreatedAt time.Time `json:"created_at"`
}

// NewCreateTokenHandler returns an http.HandlerFunc for POST /api/v1/tokens.
// The token is bound to the calling principal; the raw value appears only in
// this response.
func NewCreateTokenHandler(tokens TokenStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalFrom(w, r)
		if !ok {
			return
		}

		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Name == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
			return
		}

		raw, err := generateToken()
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to generate token", nil)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to hash token", nil)
			return
		}

		now := time.Now().UTC()
		token := &models.AccessToken{
			ID:          uuid.New(),
			PrincipalID: principal.ID,
			Email:       principal.Email,
			Name:        req.Name,
			TokenHash:   string(hash),
			TokenPrefix: raw[:8],
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tokens.CreateAccessToken(r.Context(), token); err != nil {
			response.Error(w, http.StatusServiceUnavailable,
				"STORAGE_UNAVAILABLE", "Failed to store token", nil)
			return
		}

		response.Created(w, createTokenResponse{
			ID:        token.ID,
			Name:      token.Name,
			Token:     raw,
			CreatedAt: token.CreatedAt,
		})
	}
}

// NewRevokeTokenHandler returns an http.HandlerFunc for
// DELETE /api/v1/tokens/{tokenID}. Principals may only revoke their own tokens.
func NewRevokeTokenHandler(tokens TokenStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := principalFrom(w, r)
		if !ok {
			return
		}
		tokenID, err := uuid.Parse(chi.URLParam(r, "tokenID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"tokenID must be a valid UUID", nil)
			return
		}

		if err := tokens.RevokeAccessToken(r.Context(), tokenID, principal.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND",
					"No active token with that id", nil)
				return
			}
			response.Error(w, http.StatusServiceUnavailable,
				"STORAGE_UNAVAILABLE", "Failed to revoke token", nil)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func generateToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return tokenPrefix + hex.EncodeToString(buf), nil
}

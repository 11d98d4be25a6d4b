package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// CreateAPIKeyRequest is the body of POST /v1/apikeys.
type CreateAPIKeyRequest struct {
	PrincipalName string `json:"principal_name"`
}

// CreateAPIKeyResponse returns the raw key exactly once.
type CreateAPIKeyResponse struct {
	ID            string    `json:"id"`
	PrincipalName string    `json:"principal_name"`
	Key           string    `json:"key"`
	CreatedAt     time.Time `json:"created_at"`
}

// APIKeyInfo is a stored key record without the key material.
type APIKeyInfo struct {
	ID            string    `json:"id"`
	PrincipalName string    `json:"principal_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateAPIKey handles POST /v1/apikeys.
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req CreateAPIKeyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rawKey, key, err := h.apiKeys.Create(r.Context(), req.PrincipalName)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateAPIKeyResponse{
		ID:            key.ID,
		PrincipalName: key.PrincipalName,
		Key:           rawKey,
		CreatedAt:     key.CreatedAt,
	})
}

// ListAPIKeys handles GET /v1/apikeys.
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.apiKeys.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]APIKeyInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, APIKeyInfo{ID: k.ID, PrincipalName: k.PrincipalName, CreatedAt: k.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"keys": out})
}

// DeleteAPIKey handles DELETE /v1/apikeys/{id}.
func (h *Handler) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	if err := h.apiKeys.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

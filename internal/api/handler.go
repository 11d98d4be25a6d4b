// Package api provides HTTP handlers for the SQL gateway REST API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"sqlagent/internal/db"
	"sqlagent/internal/domain"
	"sqlagent/internal/service"
)

// SchemaCatalog is the slice of the catalog the handlers need.
type SchemaCatalog interface {
	Tables(ctx context.Context) ([]domain.TableInfo, error)
	Refresh(ctx context.Context) error
	LoadedAt() time.Time
}

// PoolProbe exposes the pool state the health endpoint reports.
type PoolProbe interface {
	Stats() db.PoolStats
	Ping(ctx context.Context) error
}

// Handler serves the gateway API.
type Handler struct {
	queries *service.QueryService
	ask     *service.AskService // nil when no API key is configured
	schema  SchemaCatalog
	history *service.HistoryService
	apiKeys *service.APIKeyService
	pool    PoolProbe
	started time.Time
	logger  *slog.Logger
}

// NewHandler creates a Handler. ask may be nil when the NL assist path is
// disabled; pool may be nil when pool state is unavailable.
func NewHandler(
	queries *service.QueryService,
	ask *service.AskService,
	schema SchemaCatalog,
	history *service.HistoryService,
	apiKeys *service.APIKeyService,
	pool PoolProbe,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		queries: queries,
		ask:     ask,
		schema:  schema,
		history: history,
		apiKeys: apiKeys,
		pool:    pool,
		started: time.Now(),
		logger:  logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	SQL     string `json:"sql,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := httpStatusFromDomainError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorBody{Code: status, Message: err.Error()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{
			Code:    http.StatusBadRequest,
			Message: "invalid request body: " + err.Error(),
		})
		return false
	}
	return true
}

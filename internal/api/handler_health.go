package api

import (
	"context"
	"net/http"
	"time"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status        string     `json:"status"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	Pool          *PoolStats `json:"pool,omitempty"`
}

// PoolStats reports connection pool occupancy.
type PoolStats struct {
	Active int `json:"active"`
	Idle   int `json:"idle"`
}

// Healthz handles GET /healthz. It is served without authentication and
// reports "degraded" when the SQL Server backend is unreachable.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}
	if h.pool != nil {
		s := h.pool.Stats()
		resp.Pool = &PoolStats{Active: s.Active, Idle: s.Idle}

		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pool.Ping(pingCtx); err != nil {
			resp.Status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

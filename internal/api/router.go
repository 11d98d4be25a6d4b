package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sqlagent/internal/domain"
	"sqlagent/internal/middleware"
)

// RouterConfig holds the router-level settings.
type RouterConfig struct {
	JWTSecret      []byte
	Keys           domain.APIKeyLookup
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter assembles the chi router: request IDs, logging, CORS, and rate
// limiting on everything; authentication on the /v1 API routes. /healthz
// stays public for load balancer probes.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	if cfg.RateLimitRPS > 0 {
		r.Use(middleware.RateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimitRPS,
			Burst:             cfg.RateLimitBurst,
		}))
	}

	r.Get("/healthz", h.Healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret, cfg.Keys))

		r.Post("/query", h.ExecuteQuery)
		r.Post("/ask", h.Ask)
		r.Get("/schema", h.GetSchema)
		r.Post("/schema/refresh", h.RefreshSchema)
		r.Get("/history", h.ListHistory)
		r.Post("/apikeys", h.CreateAPIKey)
		r.Get("/apikeys", h.ListAPIKeys)
		r.Delete("/apikeys/{id}", h.DeleteAPIKey)
	})

	return r
}

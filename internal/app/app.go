// Package app provides application-level wiring for the SQL gateway.
package app

import (
	"database/sql"
	"log/slog"

	"sqlagent/internal/agent"
	"sqlagent/internal/catalog"
	"sqlagent/internal/config"
	"sqlagent/internal/db"
	"sqlagent/internal/db/repository"
	"sqlagent/internal/engine"
	"sqlagent/internal/service"
)

// Deps holds the external dependencies that main() must provide: config,
// the SQL Server handle, the history store pools, and the logger.
type Deps struct {
	Cfg     *config.Config
	SQLDB   *sql.DB
	WriteDB *sql.DB
	ReadDB  *sql.DB
	Logger  *slog.Logger
}

// Services groups the service pointers the API handler needs. Ask is nil
// when no Anthropic API key is configured.
type Services struct {
	Query   *service.QueryService
	Ask     *service.AskService
	History *service.HistoryService
	APIKey  *service.APIKeyService
}

// App holds the fully wired application.
type App struct {
	Services   Services
	Pool       *db.Pool
	Catalog    *catalog.Catalog
	APIKeyRepo *repository.APIKeyRepo // read pool, for the auth middleware
}

// New wires the pool, engine, catalog, repositories, and services.
func New(deps Deps) *App {
	cfg := deps.Cfg
	logger := deps.Logger

	pool := db.NewPool(deps.SQLDB, db.PoolConfig{
		MaxActive: cfg.SQL.MaxOpen,
		IdleTTL:   cfg.SQL.IdleTTL,
	}, logger.With("component", "pool"))

	fetcher := catalog.NewSQLServerFetcher(pool, cfg.SQL.QueryTimeout)
	cat := catalog.New(fetcher, logger.With("component", "catalog"))

	eng := engine.New(pool, cfg.SQL.QueryTimeout, cfg.MaxResultRows, logger.With("component", "engine"))

	historyRepo := repository.NewHistoryRepo(deps.WriteDB)
	querySvc := service.NewQueryService(eng, historyRepo, logger.With("component", "query"))

	var askSvc *service.AskService
	if cfg.AssistEnabled() {
		gen := agent.NewAnthropicGenerator(cfg.AnthropicAPIKey)
		ag := agent.New(gen, cat, cfg.AnthropicModel, logger.With("component", "agent"))
		askSvc = service.NewAskService(ag, querySvc, logger.With("component", "ask"))
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set, natural language assist disabled")
	}

	return &App{
		Services: Services{
			Query:   querySvc,
			Ask:     askSvc,
			History: service.NewHistoryService(repository.NewHistoryRepo(deps.ReadDB)),
			APIKey:  service.NewAPIKeyService(repository.NewAPIKeyRepo(deps.WriteDB)),
		},
		Pool:       pool,
		Catalog:    cat,
		APIKeyRepo: repository.NewAPIKeyRepo(deps.ReadDB),
	}
}

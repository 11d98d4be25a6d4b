package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/microsoft/go-mssqldb"

	"sqlagent/internal/api"
	"sqlagent/internal/app"
	"sqlagent/internal/config"
	internaldb "sqlagent/internal/db"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = config.LoadDotEnv(".env")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// SQL Server backend
	sqlDB, err := internaldb.OpenSQLServer(ctx, cfg.SQL)
	if err != nil {
		return err
	}
	defer sqlDB.Close() //nolint:errcheck
	logger.Info("connected to SQL Server", "server", cfg.SQL.Server, "database", cfg.SQL.Database)

	// History store
	writeDB, readDB, err := internaldb.OpenHistoryPair(cfg.HistoryDBPath, 4)
	if err != nil {
		return err
	}
	defer writeDB.Close() //nolint:errcheck
	defer readDB.Close()  //nolint:errcheck
	if err := internaldb.RunMigrations(writeDB); err != nil {
		return err
	}

	a := app.New(app.Deps{
		Cfg:     cfg,
		SQLDB:   sqlDB,
		WriteDB: writeDB,
		ReadDB:  readDB,
		Logger:  logger,
	})
	a.Pool.StartSweeper(time.Minute)
	defer a.Pool.Close()

	// Warm the schema cache and keep it fresh in the background. A failed
	// initial load is not fatal: the first request retries it.
	if err := a.Catalog.Refresh(ctx); err != nil {
		logger.Warn("initial schema load failed", "error", err)
	}
	if err := a.Catalog.StartScheduler(cfg.SchemaRefreshCron); err != nil {
		logger.Warn("schema refresh scheduler disabled", "error", err, "spec", cfg.SchemaRefreshCron)
	}
	defer a.Catalog.Stop()

	handler := api.NewHandler(
		a.Services.Query,
		a.Services.Ask,
		a.Catalog,
		a.Services.History,
		a.Services.APIKey,
		a.Pool,
		logger.With("component", "api"),
	)
	router := api.NewRouter(handler, api.RouterConfig{
		JWTSecret:      []byte(cfg.JWTSecret),
		Keys:           a.APIKeyRepo,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

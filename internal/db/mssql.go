// Package db provides database connectivity helpers for the SQL Server
// backend and the local SQLite history store.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"

	"sqlagent/internal/config"
)

// BuildDSN constructs a sqlserver:// DSN from the connection config.
// cfg.Server may be "host" or "host:port"; the driver defaults to 1433.
func BuildDSN(cfg config.SQLConfig) string {
	q := url.Values{}
	q.Set("database", cfg.Database)
	q.Set("dial timeout", strconv.Itoa(int(cfg.LoginTimeout.Seconds())))
	q.Set("app name", "sqlagent")

	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Server,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// OpenSQLServer opens a *sql.DB for the configured SQL Server and verifies
// connectivity with a ping bounded by the login timeout.
func OpenSQLServer(ctx context.Context, cfg config.SQLConfig) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlserver", BuildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open sqlserver: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.LoginTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlserver %s: %w", cfg.Server, err)
	}

	return sqlDB, nil
}

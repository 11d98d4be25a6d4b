// Package engine executes guarded queries against SQL Server through the
// connection pool.
package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"sqlagent/internal/db"
	"sqlagent/internal/domain"
	"sqlagent/internal/sqlcheck"
)

// Engine enforces the read-only statement guard and executes queries with
// a bounded timeout and row cap.
type Engine struct {
	pool         *db.Pool
	queryTimeout time.Duration
	maxRows      int
	logger       *slog.Logger
}

// New creates an Engine. queryTimeout bounds each query (SQL_TIMEOUT);
// maxRows caps the result set.
func New(pool *db.Pool, queryTimeout time.Duration, maxRows int, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{pool: pool, queryTimeout: queryTimeout, maxRows: maxRows, logger: logger}
}

// Query runs a single SELECT statement and returns structured results.
//
// The flow:
//  1. Classify and guard the statement (single SELECT, no mutating keyword)
//  2. Acquire a pooled connection (health-checked, bounded)
//  3. Execute with the query timeout
//  4. Scan rows up to the row cap
//
// A guard violation is an AccessDeniedError; execution failures discard the
// connection rather than returning it to the pool.
func (e *Engine) Query(ctx context.Context, sqlText string) (*domain.QueryResult, error) {
	if err := sqlcheck.EnsureReadOnly(sqlText); err != nil {
		return nil, domain.ErrAccessDenied("%s", err.Error())
	}

	handle, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, domain.ErrUnavailable("no connection available: %s", err.Error())
	}

	queryCtx, cancel := context.WithTimeout(ctx, e.queryTimeout)
	defer cancel()

	rows, err := handle.QueryContext(queryCtx, sqlText)
	if err != nil {
		e.pool.Discard(handle)
		return nil, fmt.Errorf("execute query: %w", err)
	}

	result, err := e.scanRows(rows)
	_ = rows.Close()
	if err != nil {
		e.pool.Discard(handle)
		return nil, fmt.Errorf("scan results: %w", err)
	}

	e.pool.Release(handle)
	return result, nil
}

// scanRows reads up to maxRows rows into a QueryResult, converting byte
// slices to strings for JSON serialization.
func (e *Engine) scanRows(rows *sql.Rows) (*domain.QueryResult, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	resultRows := [][]interface{}{}
	truncated := false
	for rows.Next() {
		if e.maxRows > 0 && len(resultRows) >= e.maxRows {
			truncated = true
			e.logger.Warn("result set truncated", "max_rows", e.maxRows)
			break
		}
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]interface{}, len(vals))
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			} else {
				row[i] = v
			}
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.QueryResult{
		Columns:   cols,
		Rows:      resultRows,
		RowCount:  len(resultRows),
		Truncated: truncated,
	}, nil
}

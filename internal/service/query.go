// Package service implements the application services over the engine,
// agent, and history store.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sqlagent/internal/domain"
	"sqlagent/internal/sqlcheck"
)

// QueryExecutor runs a guarded SQL statement and returns its results.
type QueryExecutor interface {
	Query(ctx context.Context, sqlText string) (*domain.QueryResult, error)
}

// QueryService executes SQL statements and records every attempt in the
// query history, including denied and failed ones.
type QueryService struct {
	exec    QueryExecutor
	history domain.HistoryRepository
	logger  *slog.Logger
}

// NewQueryService creates a new QueryService.
func NewQueryService(exec QueryExecutor, history domain.HistoryRepository, logger *slog.Logger) *QueryService {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryService{exec: exec, history: history, logger: logger}
}

// Execute runs a SQL statement on behalf of a principal.
func (s *QueryService) Execute(ctx context.Context, principal, sqlText string) (*domain.QueryResult, error) {
	return s.run(ctx, principal, nil, sqlText)
}

// run executes sqlText and records the outcome. question is non-nil when the
// statement was produced by the NL assist path.
func (s *QueryService) run(ctx context.Context, principal string, question *string, sqlText string) (*domain.QueryResult, error) {
	if sqlText == "" {
		return nil, domain.ErrValidation("sql statement is required")
	}

	start := time.Now()
	result, err := s.exec.Query(ctx, sqlText)
	durationMs := time.Since(start).Milliseconds()

	entry := &domain.HistoryEntry{
		PrincipalName: principal,
		Question:      question,
		SQL:           sqlText,
		DurationMs:    &durationMs,
	}
	if stmtType, cerr := sqlcheck.Classify(sqlText); cerr == nil {
		t := stmtType.String()
		entry.StatementType = &t
	}

	switch {
	case err == nil:
		entry.Status = domain.StatusAllowed
		n := int64(result.RowCount)
		entry.RowsReturned = &n
	case isAccessDenied(err):
		entry.Status = domain.StatusDenied
		msg := err.Error()
		entry.ErrorMessage = &msg
	default:
		entry.Status = domain.StatusError
		msg := err.Error()
		entry.ErrorMessage = &msg
	}

	// History is best effort: a failed insert must not fail the query.
	if herr := s.history.Insert(ctx, entry); herr != nil {
		s.logger.Warn("record query history", "error", herr)
	}

	if err != nil {
		return nil, err
	}
	return result, nil
}

func isAccessDenied(err error) bool {
	var denied *domain.AccessDeniedError
	return errors.As(err, &denied)
}

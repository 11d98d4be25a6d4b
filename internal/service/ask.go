package service

import (
	"context"
	"log/slog"
	"strings"

	"sqlagent/internal/domain"
)

// SQLGenerator turns a natural language question into a SQL statement.
type SQLGenerator interface {
	GenerateSQL(ctx context.Context, question string) (string, error)
}

// AskService answers natural language questions by generating SQL and
// executing it through the query service. Generated statements pass the same
// read-only guard as hand-written ones.
type AskService struct {
	gen     SQLGenerator
	queries *QueryService
	logger  *slog.Logger
}

// NewAskService creates a new AskService.
func NewAskService(gen SQLGenerator, queries *QueryService, logger *slog.Logger) *AskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AskService{gen: gen, queries: queries, logger: logger}
}

// AskResult is the outcome of a natural language query.
type AskResult struct {
	SQL    string
	Result *domain.QueryResult
}

// Ask generates SQL for the question and executes it. The generated
// statement is returned alongside the results so callers can inspect it even
// when execution fails.
func (s *AskService) Ask(ctx context.Context, principal, question string) (*AskResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrValidation("question is required")
	}

	sqlText, err := s.gen.GenerateSQL(ctx, question)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("generated sql", "question", question, "sql", sqlText)

	result, err := s.queries.run(ctx, principal, &question, sqlText)
	if err != nil {
		return &AskResult{SQL: sqlText}, err
	}
	return &AskResult{SQL: sqlText, Result: result}, nil
}

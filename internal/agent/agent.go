// Package agent turns natural-language questions into T-SQL using the
// Anthropic Messages API and the cached table schema.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sqlagent/internal/domain"
)

// Generator produces a text completion for a prompt. The Anthropic client
// satisfies this; tests substitute a stub.
type Generator interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
}

// Agent generates SQL from natural-language questions.
type Agent struct {
	gen    Generator
	schema domain.SchemaProvider
	model  string
	logger *slog.Logger
}

// New creates an Agent using the given generator, schema provider, and model.
func New(gen Generator, schema domain.SchemaProvider, model string, logger *slog.Logger) *Agent {
	if logger == nil {
		logger = slog.Default()
	}
	return &Agent{gen: gen, schema: schema, model: model, logger: logger}
}

const promptTemplate = `You are a SQL query generator. Given the following database schema and a natural language question, generate the appropriate SQL query to answer the question.

DATABASE SCHEMA:
%s

QUESTION:
%s

Generate only the SQL query without any explanations or markdown formatting. The query should be valid for SQL Server. Only generate SELECT queries; never generate INSERT, UPDATE, DELETE, DROP, TRUNCATE, CREATE, or ALTER statements.
Do not include ` + "```sql or ```" + ` markers. Return only the raw SQL query.`

// GenerateSQL builds the prompt from the cached schema and the question and
// returns the model's SQL, stripped of markdown fences. The result is model
// output: callers must run it through the read-only guard before executing.
func (a *Agent) GenerateSQL(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", domain.ErrValidation("question is required")
	}

	schema, err := a.schema.PromptSchema(ctx)
	if err != nil {
		return "", fmt.Errorf("load schema for prompt: %w", err)
	}
	if schema == "" {
		return "", domain.ErrUnavailable("schema cache is empty, cannot generate SQL")
	}

	prompt := fmt.Sprintf(promptTemplate, schema, question)

	raw, err := a.gen.GenerateText(ctx, a.model, prompt)
	if err != nil {
		return "", fmt.Errorf("generate query: %w", err)
	}

	sqlText := CleanSQL(raw)
	if sqlText == "" {
		return "", domain.ErrValidation("model returned an empty query")
	}

	a.logger.Debug("generated SQL", "question", question, "sql", sqlText)
	return sqlText, nil
}

// CleanSQL strips markdown code fences and surrounding whitespace from
// model output.
func CleanSQL(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```sql", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

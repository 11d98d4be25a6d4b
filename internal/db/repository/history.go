// Package repository implements persistence over the SQLite history store.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"sqlagent/internal/domain"
)

const sqliteTimeFormat = "2006-01-02 15:04:05"

// HistoryRepo persists query execution records.
type HistoryRepo struct {
	db *sql.DB
}

func NewHistoryRepo(db *sql.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// Insert stores a single history entry. A missing ID is generated.
func (r *HistoryRepo) Insert(ctx context.Context, e *domain.HistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO query_history
			(id, principal_name, question, sql_text, statement_type, status, error_message, duration_ms, rows_returned)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.PrincipalName, e.Question, e.SQL, e.StatementType,
		e.Status, e.ErrorMessage, e.DurationMs, e.RowsReturned,
	)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// List returns history entries matching the filter, newest first, with the
// total count before pagination.
func (r *HistoryRepo) List(ctx context.Context, filter domain.HistoryFilter) ([]domain.HistoryEntry, int64, error) {
	var conds []string
	var args []interface{}

	if filter.PrincipalName != nil {
		conds = append(conds, "principal_name = ?")
		args = append(args, *filter.PrincipalName)
	}
	if filter.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.From != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, filter.From.UTC().Format(sqliteTimeFormat))
	}
	if filter.To != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, filter.To.UTC().Format(sqliteTimeFormat))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM query_history"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	query := `
		SELECT id, principal_name, question, sql_text, statement_type, status,
		       error_message, duration_ms, rows_returned, created_at
		FROM query_history` + where + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	args = append(args, filter.Page.Limit(), filter.Page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		var createdAt string
		if err := rows.Scan(
			&e.ID, &e.PrincipalName, &e.Question, &e.SQL, &e.StatementType,
			&e.Status, &e.ErrorMessage, &e.DurationMs, &e.RowsReturned, &createdAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan history entry: %w", err)
		}
		e.CreatedAt, err = time.Parse(sqliteTimeFormat, createdAt)
		if err != nil {
			return nil, 0, fmt.Errorf("parse history created_at %q: %w", createdAt, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

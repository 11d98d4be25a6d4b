package catalog

import (
	"context"
	"fmt"
	"time"

	"sqlagent/internal/db"
	"sqlagent/internal/domain"
)

// introspectColumnsSQL lists every column of every base table,
// schema-qualified, in declaration order.
const introspectColumnsSQL = `
	SELECT c.TABLE_SCHEMA, c.TABLE_NAME, c.COLUMN_NAME, c.DATA_TYPE
	FROM INFORMATION_SCHEMA.COLUMNS c
	JOIN INFORMATION_SCHEMA.TABLES t
	  ON t.TABLE_SCHEMA = c.TABLE_SCHEMA AND t.TABLE_NAME = c.TABLE_NAME
	WHERE t.TABLE_TYPE = 'BASE TABLE'
	ORDER BY c.TABLE_SCHEMA, c.TABLE_NAME, c.ORDINAL_POSITION`

// SQLServerFetcher introspects INFORMATION_SCHEMA through the connection pool.
type SQLServerFetcher struct {
	pool    *db.Pool
	timeout time.Duration
}

// NewSQLServerFetcher creates a fetcher that introspects via pool. timeout
// bounds the introspection query.
func NewSQLServerFetcher(pool *db.Pool, timeout time.Duration) *SQLServerFetcher {
	return &SQLServerFetcher{pool: pool, timeout: timeout}
}

// FetchTables loads all base tables with their columns.
func (f *SQLServerFetcher) FetchTables(ctx context.Context) ([]domain.TableInfo, error) {
	handle, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer f.pool.Release(handle)

	queryCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	rows, err := handle.QueryContext(queryCtx, introspectColumnsSQL)
	if err != nil {
		return nil, fmt.Errorf("introspect columns: %w", err)
	}
	defer rows.Close()

	var tables []domain.TableInfo
	var current *domain.TableInfo
	for rows.Next() {
		var schema, table, column, dataType string
		if err := rows.Scan(&schema, &table, &column, &dataType); err != nil {
			return nil, fmt.Errorf("scan column row: %w", err)
		}
		name := schema + "." + table
		if current == nil || current.Name != name {
			tables = append(tables, domain.TableInfo{Name: name})
			current = &tables[len(tables)-1]
		}
		current.Columns = append(current.Columns, domain.ColumnInfo{Name: column, Type: dataType})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tables, nil
}

// Compile-time check.
var _ Fetcher = (*SQLServerFetcher)(nil)

// Package catalog maintains a cached view of the SQL Server table schema
// used for prompt construction and the /v1/schema endpoint.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"sqlagent/internal/domain"
)

// Fetcher loads the current table schema from the backend.
type Fetcher interface {
	FetchTables(ctx context.Context) ([]domain.TableInfo, error)
}

// Catalog caches the table schema and refreshes it on a cron schedule
// or on demand.
type Catalog struct {
	fetcher Fetcher
	logger  *slog.Logger
	cron    *cron.Cron

	mu       sync.RWMutex
	tables   []domain.TableInfo
	loadedAt time.Time
}

// New creates a Catalog over the given fetcher. The cache starts empty and
// is populated on first use or by Refresh.
func New(fetcher Fetcher, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{fetcher: fetcher, logger: logger}
}

// Refresh reloads the schema cache from the backend.
func (c *Catalog) Refresh(ctx context.Context) error {
	tables, err := c.fetcher.FetchTables(ctx)
	if err != nil {
		return fmt.Errorf("fetch schema: %w", err)
	}

	c.mu.Lock()
	c.tables = tables
	c.loadedAt = time.Now()
	c.mu.Unlock()

	c.logger.Info("schema cache refreshed", "tables", len(tables))
	return nil
}

// Tables returns the cached table list, loading it on first use.
func (c *Catalog) Tables(ctx context.Context) ([]domain.TableInfo, error) {
	c.mu.RLock()
	loaded := !c.loadedAt.IsZero()
	tables := c.tables
	c.mu.RUnlock()

	if loaded {
		return tables, nil
	}

	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tables, nil
}

// LoadedAt returns when the cache was last refreshed (zero if never).
func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// PromptSchema renders the cached schema in the one-line-per-table form
// consumed by the NL-to-SQL prompt: "schema.table: col (type), ...".
func (c *Catalog) PromptSchema(ctx context.Context) (string, error) {
	tables, err := c.Tables(ctx)
	if err != nil {
		return "", err
	}
	return FormatPromptSchema(tables), nil
}

// StartScheduler begins periodic refreshes using the given cron spec
// (e.g. "@every 15m"). The refresh is best-effort: failures are logged
// and the stale cache stays in place.
func (c *Catalog) StartScheduler(spec string) error {
	c.cron = cron.New()
	_, err := c.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := c.Refresh(ctx); err != nil {
			c.logger.Warn("scheduled schema refresh failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schema refresh schedule %q: %w", spec, err)
	}
	c.cron.Start()
	c.logger.Info("schema refresh scheduler started", "schedule", spec)
	return nil
}

// Stop halts the refresh scheduler.
func (c *Catalog) Stop() {
	if c.cron != nil {
		c.cron.Stop()
	}
}

// FormatPromptSchema renders tables one per line as
// "schema.table: col (type), col (type)".
func FormatPromptSchema(tables []domain.TableInfo) string {
	var lines []string
	for _, table := range tables {
		cols := make([]string, len(table.Columns))
		for i, col := range table.Columns {
			cols[i] = fmt.Sprintf("%s (%s)", col.Name, col.Type)
		}
		lines = append(lines, fmt.Sprintf("%s: %s", table.Name, strings.Join(cols, ", ")))
	}
	return strings.Join(lines, "\n")
}

// Compile-time check that Catalog satisfies the domain port.
var _ domain.SchemaProvider = (*Catalog)(nil)

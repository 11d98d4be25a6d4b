package domain

import "context"

// HistoryRepository persists and lists query execution records.
type HistoryRepository interface {
	Insert(ctx context.Context, e *HistoryEntry) error
	List(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, int64, error)
}

// APIKeyLookup resolves an API key hash to a principal name.
type APIKeyLookup interface {
	LookupPrincipalByAPIKeyHash(ctx context.Context, keyHash string) (string, error)
}

// SchemaProvider exposes the cached table catalog.
type SchemaProvider interface {
	Tables(ctx context.Context) ([]TableInfo, error)
	PromptSchema(ctx context.Context) (string, error)
}

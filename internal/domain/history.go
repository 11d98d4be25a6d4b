package domain

import "time"

// History entry statuses.
const (
	StatusAllowed = "ALLOWED"
	StatusDenied  = "DENIED"
	StatusError   = "ERROR"
)

// HistoryEntry represents a single query execution record.
type HistoryEntry struct {
	ID            string
	PrincipalName string
	Question      *string // set when the query came through the NL assist path
	SQL           string
	StatementType *string
	Status        string // "ALLOWED", "DENIED", "ERROR"
	ErrorMessage  *string
	DurationMs    *int64
	RowsReturned  *int64
	CreatedAt     time.Time
}

// HistoryFilter holds filter parameters for listing query history.
type HistoryFilter struct {
	PrincipalName *string
	Status        *string
	From          *time.Time
	To            *time.Time
	Page          PageRequest
}

// APIKey represents a stored API key. The key material itself is never
// persisted, only its SHA-256 hash.
type APIKey struct {
	ID            string
	PrincipalName string
	KeyHash       string
	CreatedAt     time.Time
}

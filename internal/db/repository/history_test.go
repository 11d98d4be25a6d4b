package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internaldb "sqlagent/internal/db"
	"sqlagent/internal/domain"
)

func setupHistoryRepo(t *testing.T) *HistoryRepo {
	t.Helper()
	writeDB, _ := internaldb.OpenTestStore(t)
	return NewHistoryRepo(writeDB)
}

func ptrStr(s string) *string { return &s }
func ptrInt64(i int64) *int64 { return &i }

func TestHistoryRepo_InsertAndList(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &domain.HistoryEntry{
		ID:            uuid.NewString(),
		PrincipalName: "alice",
		SQL:           "SELECT * FROM Sales.Orders",
		StatementType: ptrStr("SELECT"),
		Status:        domain.StatusAllowed,
		DurationMs:    ptrInt64(42),
		RowsReturned:  ptrInt64(5),
	}))

	entries, total, err := repo.List(ctx, domain.HistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].PrincipalName)
	assert.Equal(t, "SELECT * FROM Sales.Orders", entries[0].SQL)
	require.NotNil(t, entries[0].RowsReturned)
	assert.Equal(t, int64(5), *entries[0].RowsReturned)
}

func TestHistoryRepo_GeneratesID(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	e := &domain.HistoryEntry{
		PrincipalName: "alice",
		SQL:           "SELECT 1",
		Status:        domain.StatusAllowed,
	}
	require.NoError(t, repo.Insert(ctx, e))
	assert.NotEmpty(t, e.ID)
}

func TestHistoryRepo_RecordsQuestion(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &domain.HistoryEntry{
		PrincipalName: "alice",
		Question:      ptrStr("show me the top 5 most recent orders"),
		SQL:           "SELECT TOP 5 * FROM Sales.Orders ORDER BY OrderDate DESC",
		Status:        domain.StatusAllowed,
	}))

	entries, _, err := repo.List(ctx, domain.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Question)
	assert.Equal(t, "show me the top 5 most recent orders", *entries[0].Question)
}

func TestHistoryRepo_FilterByPrincipal(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &domain.HistoryEntry{
		PrincipalName: "alice", SQL: "SELECT 1", Status: domain.StatusAllowed,
	}))
	require.NoError(t, repo.Insert(ctx, &domain.HistoryEntry{
		PrincipalName: "bob", SQL: "SELECT 2", Status: domain.StatusAllowed,
	}))

	entries, total, err := repo.List(ctx, domain.HistoryFilter{
		PrincipalName: ptrStr("alice"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].PrincipalName)
}

func TestHistoryRepo_FilterByStatus(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &domain.HistoryEntry{
		PrincipalName: "alice", SQL: "SELECT 1", Status: domain.StatusAllowed,
	}))
	require.NoError(t, repo.Insert(ctx, &domain.HistoryEntry{
		PrincipalName: "bob", SQL: "DROP TABLE t", Status: domain.StatusDenied,
		ErrorMessage: ptrStr("only SELECT statements are allowed"),
	}))

	entries, total, err := repo.List(ctx, domain.HistoryFilter{
		Status: ptrStr(domain.StatusDenied),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.StatusDenied, entries[0].Status)
}

func TestHistoryRepo_FilterByTimeRange(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &domain.HistoryEntry{
		PrincipalName: "alice", SQL: "SELECT 1", Status: domain.StatusAllowed,
	}))

	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	_, total, err := repo.List(ctx, domain.HistoryFilter{From: &past, To: &future})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	_, total, err = repo.List(ctx, domain.HistoryFilter{To: &past})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
}

func TestHistoryRepo_Pagination(t *testing.T) {
	repo := setupHistoryRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Insert(ctx, &domain.HistoryEntry{
			PrincipalName: "alice", SQL: "SELECT 1", Status: domain.StatusAllowed,
		}))
	}

	entries, total, err := repo.List(ctx, domain.HistoryFilter{
		Page: domain.PageRequest{MaxResults: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, entries, 2)

	token := domain.EncodePageToken(4)
	entries, total, err = repo.List(ctx, domain.HistoryFilter{
		Page: domain.PageRequest{MaxResults: 2, PageToken: token},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, entries, 1)
}

func TestHistoryRepo_EmptyList(t *testing.T) {
	repo := setupHistoryRepo(t)

	entries, total, err := repo.List(context.Background(), domain.HistoryFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, entries)
}

func TestHistoryRepo_MalformedTimestamp(t *testing.T) {
	writeDB, _ := internaldb.OpenTestStore(t)
	repo := NewHistoryRepo(writeDB)
	ctx := context.Background()

	_, err := writeDB.ExecContext(ctx, `
		INSERT INTO query_history (id, principal_name, sql_text, status, created_at)
		VALUES (?, 'alice', 'SELECT 1', 'ALLOWED', 'not-a-timestamp')`,
		uuid.NewString())
	require.NoError(t, err)

	_, _, err = repo.List(ctx, domain.HistoryFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "created_at")
}

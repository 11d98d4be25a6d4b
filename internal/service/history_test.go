package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlagent/internal/domain"
)

type pagedHistory struct {
	total int64
}

func (p *pagedHistory) Insert(ctx context.Context, e *domain.HistoryEntry) error { return nil }

func (p *pagedHistory) List(ctx context.Context, filter domain.HistoryFilter) ([]domain.HistoryEntry, int64, error) {
	n := filter.Page.Limit()
	if int64(filter.Page.Offset()+n) > p.total {
		n = int(p.total) - filter.Page.Offset()
	}
	entries := make([]domain.HistoryEntry, n)
	return entries, p.total, nil
}

func TestHistoryService_ListWithNextPage(t *testing.T) {
	svc := NewHistoryService(&pagedHistory{total: 5})

	entries, total, next, err := svc.List(context.Background(), domain.HistoryFilter{
		Page: domain.PageRequest{MaxResults: 2},
	})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.EqualValues(t, 5, total)
	require.NotEmpty(t, next)

	entries, _, next, err = svc.List(context.Background(), domain.HistoryFilter{
		Page: domain.PageRequest{MaxResults: 2, PageToken: domain.EncodePageToken(4)},
	})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Empty(t, next, "last page has no next token")
}

func TestHistoryService_ListSinglePage(t *testing.T) {
	svc := NewHistoryService(&pagedHistory{total: 3})

	entries, total, next, err := svc.List(context.Background(), domain.HistoryFilter{
		Page: domain.PageRequest{MaxResults: 10},
	})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.EqualValues(t, 3, total)
	assert.Empty(t, next)
}

package service

import (
	"context"

	"sqlagent/internal/domain"
)

// HistoryService lists recorded query executions.
type HistoryService struct {
	repo domain.HistoryRepository
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(repo domain.HistoryRepository) *HistoryService {
	return &HistoryService{repo: repo}
}

// List returns a page of history entries matching the filter, newest first,
// with the token for the next page when more entries remain.
func (s *HistoryService) List(ctx context.Context, filter domain.HistoryFilter) ([]domain.HistoryEntry, int64, string, error) {
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, "", err
	}
	next := domain.NextPageToken(filter.Page.Offset(), filter.Page.Limit(), total)
	return entries, total, next, nil
}

package service

import (
	"context"

	"github.com/leadbook/leadbook/internal/domain"
	"github.com/leadbook/leadbook/internal/models"
)

// Compile-time check: *HistoryService must satisfy domain.HistoryService.
var _ domain.HistoryService = (*HistoryService)(nil)

// HistoryService exposes lead history to the API.
type HistoryService struct {
	store HistoryReader
}

// NewHistoryService creates a HistoryService.
func NewHistoryService(store HistoryReader) *HistoryService {
	return &HistoryService{store: store}
}

// ListHistory returns a page of history for a lead (pass-through). History
// stays readable after the lead is deleted.
func (s *HistoryService) ListHistory(
	ctx context.Context, q models.HistoryQuery,
) ([]models.HistoryEntry, bool, error) {
	return s.store.ListHistory(ctx, q)
}

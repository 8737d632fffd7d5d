package store

import (
	"context"
	"fmt"

	"github.com/leadbook/leadbook/internal/models"
)

// HistoryStore handles lead history queries. History rows are written by
// LeadStore inside the mutating transaction.
type HistoryStore struct {
	Base
}

// NewHistoryStore creates a new HistoryStore.
func NewHistoryStore(base Base) *HistoryStore {
	return &HistoryStore{Base: base}
}

// ListHistory returns a lead's history entries, newest first, with has_more
// pagination. Entries outlive the lead they describe.
func (s *HistoryStore) ListHistory(ctx context.Context, q models.HistoryQuery) ([]models.HistoryEntry, bool, error) {
	limit := clampLimit(q.Limit, 50)

	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("getting lead history: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	rows, err := tx.Query(ctx,
		`SELECT `+historyColumns+` FROM lead_history
		WHERE lead_id = $1
		ORDER BY changed_at DESC, id
		LIMIT $2 OFFSET $3`,
		q.LeadID, limit+1, offset,
	)
	if err != nil {
		return nil, false, fmt.Errorf("querying lead history: %w", err)
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0, limit+1)

	for rows.Next() {
		h, err := scanHistory(rows.Scan)
		if err != nil {
			return nil, false, fmt.Errorf("scanning lead history row: %w", err)
		}

		entries = append(entries, *h)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating lead history rows: %w", err)
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("committing lead history query: %w", err)
	}

	return entries, hasMore, nil
}

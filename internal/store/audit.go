package store

import (
	"context"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/leadbook/leadbook/internal/models"
)

// AuditStore provides data access for the audit_log table.
type AuditStore struct {
	Base
}

// NewAuditStore creates an AuditStore.
func NewAuditStore(base Base) *AuditStore {
	return &AuditStore{Base: base}
}

// RecordAudit inserts an audit log entry.
func (s *AuditStore) RecordAudit(
	ctx context.Context,
	userID, action, entityType, entityID string,
	detail map[string]any,
) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var detailJSON []byte
	if detail != nil {
		var err error

		detailJSON, err = json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("marshaling audit detail: %w", err)
		}
	}

	_, err := s.DB.Exec(ctx, `
		INSERT INTO audit_log (user_id, action, entity_type, entity_id, detail)
		VALUES ($1, $2, $3, $4, $5)`,
		userID, action, entityType, entityID, detailJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	return nil
}

// auditFilter builds the WHERE condition for a user's audit entries.
func auditFilter(userID string, opts models.AuditQueryOpts) sq.And {
	cond := sq.And{sq.Eq{"user_id": userID}}

	if opts.EntityID != "" {
		cond = append(cond, sq.Eq{"entity_id": opts.EntityID})
	}

	if opts.Action != "" {
		cond = append(cond, sq.Eq{"action": opts.Action})
	}

	if opts.Since != nil {
		cond = append(cond, sq.GtOrEq{"created_at": *opts.Since})
	}

	return cond
}

// QueryAudit returns the user's audit entries matching the given filters.
// Returns entries, hasMore flag, and any error.
func (s *AuditStore) QueryAudit(
	ctx context.Context, userID string, opts models.AuditQueryOpts,
) ([]models.AuditEntry, bool, error) {
	limit := clampLimit(opts.Limit, 50)

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query, args, err := psql.
		Select("id", "user_id", "action", "entity_type", "entity_id", "detail", "created_at").
		From("audit_log").
		Where(auditFilter(userID, opts)).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit + 1)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, false, fmt.Errorf("building audit query: %w", err)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	entries, err := scanAuditRows(ctx, tx, query, args, s.Log)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	return entries, hasMore, nil
}

// scanAuditRows executes a query and scans audit entries from the result.
func scanAuditRows(ctx context.Context, tx pgx.Tx, query string, args []any, log *logrus.Logger) ([]models.AuditEntry, error) {
	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]models.AuditEntry, 0, 16)

	for rows.Next() {
		var e models.AuditEntry
		var detailJSON []byte
		var entityID *string

		if err := rows.Scan(&e.ID, &e.UserID, &e.Action, &e.EntityType, &entityID, &detailJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}

		if entityID != nil {
			e.EntityID = *entityID
		}

		if detailJSON != nil {
			if err := json.Unmarshal(detailJSON, &e.Detail); err != nil {
				log.WithError(err).Warn("failed to unmarshal audit detail")
			}
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit rows: %w", err)
	}

	return entries, nil
}

// purgeBatchSize limits the number of rows deleted per transaction to avoid
// holding long locks on audit_log.
const purgeBatchSize = 5000

// PurgeOldEntries deletes the user's audit entries older than retentionDays
// in batches. Returns the number of deleted entries.
func (s *AuditStore) PurgeOldEntries(
	ctx context.Context, userID string, retentionDays int,
) (int, error) {
	var totalDeleted int

	for {
		batchCtx, cancel := withTimeout(ctx)

		deleted, err := s.purgeOldEntriesBatch(batchCtx, userID, retentionDays)
		cancel()

		if err != nil {
			return totalDeleted, err
		}

		totalDeleted += deleted
		if deleted < purgeBatchSize {
			break
		}
	}

	return totalDeleted, nil
}

// purgeOldEntriesBatch deletes a single batch of expired audit entries.
func (s *AuditStore) purgeOldEntriesBatch(
	ctx context.Context, userID string, retentionDays int,
) (int, error) {
	tag, err := s.DB.Exec(ctx,
		`DELETE FROM audit_log WHERE id IN (
			SELECT id FROM audit_log
			WHERE user_id = $1 AND created_at < NOW() - make_interval(days => $2)
			LIMIT $3
		)`,
		userID, retentionDays, purgeBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("purging audit entries: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

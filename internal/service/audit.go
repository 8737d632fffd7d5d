package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/leadbook/leadbook/internal/domain"
	"github.com/leadbook/leadbook/internal/models"
)

// Auditor is an alias for the canonical domain.Auditor interface.
type Auditor = domain.Auditor

// AuditQueryStore is the data-access interface AuditService depends on.
// It reuses domain.AuditService since the method sets are identical, avoiding duplication.
type AuditQueryStore = domain.AuditService

// Compile-time check: *AuditService must satisfy domain.AuditService.
var _ domain.AuditService = (*AuditService)(nil)

// AuditService wraps AuditQueryStore with logging for destructive operations.
type AuditService struct {
	store AuditQueryStore
	log   *logrus.Logger
}

// NewAuditService creates an AuditService.
func NewAuditService(store AuditQueryStore, log *logrus.Logger) *AuditService {
	return &AuditService{store: store, log: log}
}

// RecordAudit inserts an audit log entry (pass-through to store).
func (s *AuditService) RecordAudit(
	ctx context.Context, userID, action, entityType, entityID string, detail map[string]any,
) error {
	return s.store.RecordAudit(ctx, userID, action, entityType, entityID, detail)
}

// QueryAudit returns the user's audit entries matching the given filters (pass-through).
func (s *AuditService) QueryAudit(
	ctx context.Context, userID string, opts models.AuditQueryOpts,
) ([]models.AuditEntry, bool, error) {
	if userID == "" {
		return nil, false, models.ErrUnauthenticated
	}

	return s.store.QueryAudit(ctx, userID, opts)
}

// PurgeOldEntries deletes the user's audit entries older than retentionDays and logs the result.
func (s *AuditService) PurgeOldEntries(ctx context.Context, userID string, retentionDays int) (int, error) {
	if userID == "" {
		return 0, models.ErrUnauthenticated
	}

	deleted, err := s.store.PurgeOldEntries(ctx, userID, retentionDays)
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":        userID,
		"retention_days": retentionDays,
		"deleted":        deleted,
	}).Info("audit.purge")

	return deleted, nil
}

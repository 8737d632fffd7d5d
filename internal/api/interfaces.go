package api

import (
	"context"

	"github.com/leadbook/leadbook/internal/domain"
	"github.com/leadbook/leadbook/internal/models"
)

// LeadService is the lead pipeline used by LeadHandler and ImportExportHandler.
type LeadService = domain.LeadService

// HistoryService pages lead history for HistoryHandler.
type HistoryService = domain.HistoryService

// AuditRepository defines audit log operations used by AuditHandler.
type AuditRepository interface {
	QueryAudit(ctx context.Context, userID string, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	PurgeOldEntries(ctx context.Context, userID string, retentionDays int) (int, error)
}

// Package domain defines the canonical service interfaces shared across API
// layers and stores. Consumers should depend on these interfaces rather than
// re-declaring equivalent ones.
package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/leadbook/leadbook/internal/models"
)

// LeadService defines every lead operation exposed to callers.
type LeadService interface {
	GetLead(ctx context.Context, userID string, id uuid.UUID) (*models.LeadDetail, error)
	ListLeads(ctx context.Context, userID string, filter models.LeadFilter, page int) (*models.LeadPage, error)
	CreateLead(ctx context.Context, userID string, in models.LeadInput) (*models.Lead, error)
	UpdateLead(ctx context.Context, userID string, id uuid.UUID, req models.UpdateLeadRequest) (*models.Lead, error)
	DeleteLead(ctx context.Context, userID string, id uuid.UUID) error
	ImportLeads(ctx context.Context, userID string, rows []map[string]string) (*models.ImportResult, error)
	ExportLeads(ctx context.Context, userID string, filter models.LeadFilter) (leads []models.Lead, truncated bool, err error)
}

// LeadStore is the data-access interface the lead pipeline depends on.
// Writes that change a lead also record history and emit a change
// notification in the same transaction.
type LeadStore interface {
	GetLead(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	EmailInUse(ctx context.Context, email string, exclude *uuid.UUID) (bool, error)
	InsertLead(ctx context.Context, lead *models.Lead) (*models.Lead, error)
	UpdateLead(ctx context.Context, id uuid.UUID, diff models.Diff, expected *time.Time, changedBy string) (*models.Lead, error)
	DeleteLead(ctx context.Context, id uuid.UUID, deletedBy string) (*models.Lead, error)
	InsertLeads(ctx context.Context, ownerID string, leads []models.Lead) (int, error)
	ListLeads(ctx context.Context, ownerID string, filter models.LeadFilter, page, pageSize int) (*models.LeadPage, error)
	ExportLeads(ctx context.Context, ownerID string, filter models.LeadFilter, limit int) ([]models.Lead, error)
}

// HistoryService defines lead history queries.
type HistoryService interface {
	ListHistory(ctx context.Context, q models.HistoryQuery) ([]models.HistoryEntry, bool, error)
}

// AuditService defines audit log query and maintenance operations.
type AuditService interface {
	Auditor
	QueryAudit(ctx context.Context, userID string, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	PurgeOldEntries(ctx context.Context, userID string, retentionDays int) (int, error)
}

// Auditor is the minimal interface for recording audit entries.
// Used by services for fire-and-forget audit logging.
type Auditor interface {
	RecordAudit(ctx context.Context, userID, action, entityType, entityID string, detail map[string]any) error
}

// UserService defines user provisioning and API key lookups.
type UserService interface {
	CreateUser(ctx context.Context, name string) (*models.User, string, error)
	GetUserByAPIKey(ctx context.Context, apiKey string) (string, error)
}

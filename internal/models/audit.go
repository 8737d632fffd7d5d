package models

import "time"

// Audit actions recorded for lead operations.
const (
	AuditLeadCreate = "lead.create"
	AuditLeadUpdate = "lead.update"
	AuditLeadDelete = "lead.delete"
	AuditLeadImport = "lead.import"
	AuditLeadExport = "lead.export"
)

// AuditEntry represents a single operational audit log entry.
type AuditEntry struct {
	ID         int64          `json:"id"`
	UserID     string         `json:"-"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditQueryOpts holds filters for querying the audit log.
type AuditQueryOpts struct {
	EntityID string
	Action   string
	Since    *time.Time
	Limit    int
	Offset   int
}

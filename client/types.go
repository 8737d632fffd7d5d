package client

import (
	"encoding/json"
	"time"
)

// Lead is a buyer intake record.
type Lead struct {
	ID           string    `json:"id"`
	FullName     string    `json:"full_name"`
	Email        *string   `json:"email,omitempty"`
	Phone        string    `json:"phone"`
	City         string    `json:"city"`
	PropertyType string    `json:"property_type"`
	BHK          *string   `json:"bhk,omitempty"`
	Purpose      string    `json:"purpose"`
	BudgetMin    *int      `json:"budget_min,omitempty"`
	BudgetMax    *int      `json:"budget_max,omitempty"`
	Timeline     string    `json:"timeline"`
	Source       string    `json:"source"`
	Notes        string    `json:"notes"`
	Tags         []string  `json:"tags"`
	Status       string    `json:"status"`
	OwnerID      string    `json:"owner_id"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// LeadDetail is a lead with its most recent history entries.
type LeadDetail struct {
	Lead
	History []HistoryEntry `json:"history"`
}

// LeadInput is the payload for creating a lead. Nil fields are omitted.
type LeadInput struct {
	FullName     *string   `json:"full_name,omitempty"`
	Email        *string   `json:"email,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	City         *string   `json:"city,omitempty"`
	PropertyType *string   `json:"property_type,omitempty"`
	BHK          *string   `json:"bhk,omitempty"`
	Purpose      *string   `json:"purpose,omitempty"`
	BudgetMin    *int      `json:"budget_min,omitempty"`
	BudgetMax    *int      `json:"budget_max,omitempty"`
	Timeline     *string   `json:"timeline,omitempty"`
	Source       *string   `json:"source,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	Tags         *[]string `json:"tags,omitempty"`
	Status       *string   `json:"status,omitempty"`
}

// UpdateLeadRequest is a partial update. UpdatedAt, when set, makes the
// update fail with a conflict if the lead changed since that time.
type UpdateLeadRequest struct {
	LeadInput
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// LeadListOptions filters lead listings and exports.
type LeadListOptions struct {
	Search       string
	City         string
	PropertyType string
	Status       string
	Timeline     string
	Page         int
}

// LeadPage is one page of a lead listing.
type LeadPage struct {
	Leads      []Lead `json:"leads"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	TotalPages int    `json:"total_pages"`
}

// HistoryEntry is one recorded change to a lead.
type HistoryEntry struct {
	ID        string          `json:"id"`
	LeadID    string          `json:"lead_id"`
	ChangedBy string          `json:"changed_by"`
	ChangedAt time.Time       `json:"changed_at"`
	Diff      json.RawMessage `json:"diff"`
}

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RowError reports the validation failures of one import row (1-based).
type RowError struct {
	Row    int          `json:"row"`
	Errors []FieldError `json:"errors"`
}

// ImportResult summarises a bulk import.
type ImportResult struct {
	Inserted int        `json:"inserted"`
	Errors   []RowError `json:"errors"`
}

// AuditEntry is one operational audit log record.
type AuditEntry struct {
	ID         int64          `json:"id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// AuditQueryOptions filters audit log queries.
type AuditQueryOptions struct {
	EntityID string
	Action   string
	Since    *time.Time
	Limit    int
	Offset   int
}

// HealthResponse is the liveness check payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	WSClients     int     `json:"ws_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

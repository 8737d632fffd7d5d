package models

// Change event types delivered to a lead owner's live connections.
const (
	EventLeadCreated  = "lead.created"
	EventLeadUpdated  = "lead.updated"
	EventLeadDeleted  = "lead.deleted"
	EventLeadImported = "lead.imported"
)

// ChangeEvent is the payload of a lead change notification.
type ChangeEvent struct {
	UserID string `json:"user_id"`
	Type   string `json:"type"`
	LeadID string `json:"lead_id,omitempty"`
	Count  int    `json:"count"`
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RecentHistoryLimit is the number of history entries returned with a lead.
const RecentHistoryLimit = 5

// HistoryEntry is an immutable record of one change to a lead. Diff holds
// either a field diff ({field: {old, new}}) or a deletion snapshot.
type HistoryEntry struct {
	ID        uuid.UUID       `json:"id"`
	LeadID    uuid.UUID       `json:"lead_id"`
	ChangedBy string          `json:"changed_by"`
	ChangedAt time.Time       `json:"changed_at"`
	Diff      json.RawMessage `json:"diff"`
}

// HistoryQuery holds paging parameters for a lead's history.
type HistoryQuery struct {
	LeadID uuid.UUID
	Limit  int
	Offset int
}

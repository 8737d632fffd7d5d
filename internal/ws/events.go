package ws

import (
	"encoding/json"
	"sync"
	"time"
)

// Event is the structured message sent to WebSocket clients. ID increases
// by one per event for each user, so clients can detect gaps and refetch.
type Event struct {
	Type string          `json:"type"`
	ID   uint64          `json:"id"`
	Data json.RawMessage `json:"data"`
	Time time.Time       `json:"time"`
}

// EventSequence hands out per-user event IDs.
type EventSequence struct {
	mu   sync.Mutex
	next map[string]uint64
}

// NewEventSequence creates a new EventSequence.
func NewEventSequence() *EventSequence {
	return &EventSequence{next: make(map[string]uint64)}
}

// Next returns the next event ID for userID, starting at 1.
func (es *EventSequence) Next(userID string) uint64 {
	es.mu.Lock()
	defer es.mu.Unlock()

	es.next[userID]++

	return es.next[userID]
}

package service

import (
	"time"

	"github.com/leadbook/leadbook/internal/models"
)

// Authorize checks that userID may modify a lead owned by ownerID.
func Authorize(userID, ownerID string) error {
	if userID == "" {
		return models.ErrUnauthenticated
	}

	if userID != ownerID {
		return models.ErrForbidden
	}

	return nil
}

// CheckConcurrency compares the caller's last-seen timestamp with the stored
// one. A nil client timestamp skips the check (last write wins).
func CheckConcurrency(client *time.Time, stored time.Time) error {
	if client == nil {
		return nil
	}

	if !client.Equal(stored) {
		return models.ErrStaleVersion
	}

	return nil
}

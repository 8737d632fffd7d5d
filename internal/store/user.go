package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/leadbook/leadbook/internal/models"
)

// apiKeyPrefix marks leadbook API keys so they are recognisable in configs.
const apiKeyPrefix = "lb_"

// UserStore handles users and API key lookups.
type UserStore struct {
	Base
}

// NewUserStore creates a new UserStore.
func NewUserStore(base Base) *UserStore {
	return &UserStore{Base: base}
}

// HashAPIKey returns the hex-encoded SHA-256 digest stored for an API key.
func HashAPIKey(apiKey string) string {
	h := sha256.Sum256([]byte(apiKey))

	return hex.EncodeToString(h[:])
}

// newAPIKey returns a random API key.
func newAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}

	return apiKeyPrefix + hex.EncodeToString(buf), nil
}

// CreateUser inserts a user and returns it with its API key. The key is not
// stored and cannot be recovered later.
func (s *UserStore) CreateUser(ctx context.Context, name string) (*models.User, string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	key, err := newAPIKey()
	if err != nil {
		return nil, "", err
	}

	u := models.User{Name: name}

	err = s.DB.QueryRow(ctx,
		`INSERT INTO users (id, name, api_key_hash) VALUES ($1, $2, $3) RETURNING id, created_at`,
		uuid.New(), name, HashAPIKey(key),
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return nil, "", fmt.Errorf("creating user: %w", err)
	}

	return &u, key, nil
}

// GetUserByAPIKey looks up a user ID by API key hash.
func (s *UserStore) GetUserByAPIKey(ctx context.Context, apiKey string) (string, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var userID string

	err := s.DB.QueryRow(ctx, "SELECT id FROM users WHERE api_key_hash = $1", HashAPIKey(apiKey)).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrUserNotFound
		}

		return "", fmt.Errorf("looking up user by API key: %w", err)
	}

	return userID, nil
}

package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadbook/leadbook/internal/models"
)

func TestHashAPIKey(t *testing.T) {
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", HashAPIKey("abc"))
}

func TestUserStore_CreateUser(t *testing.T) {
	base, mock := newMockBase(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`INSERT INTO users \(id, name, api_key_hash\)`).
		WithArgs(pgxmock.AnyArg(), "alice", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("u1", now))

	u, key, err := NewUserStore(base).CreateUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, "alice", u.Name)
	assert.True(t, strings.HasPrefix(key, apiKeyPrefix))
	assert.Len(t, key, len(apiKeyPrefix)+64)
}

func TestUserStore_GetUserByAPIKey(t *testing.T) {
	t.Run("known key", func(t *testing.T) {
		base, mock := newMockBase(t)

		mock.ExpectQuery(`SELECT id FROM users WHERE api_key_hash = \$1`).
			WithArgs(HashAPIKey("lb_secret")).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("u1"))

		id, err := NewUserStore(base).GetUserByAPIKey(context.Background(), "lb_secret")
		require.NoError(t, err)
		assert.Equal(t, "u1", id)
	})

	t.Run("unknown key", func(t *testing.T) {
		base, mock := newMockBase(t)

		mock.ExpectQuery(`SELECT id FROM users`).
			WithArgs(HashAPIKey("nope")).
			WillReturnError(pgx.ErrNoRows)

		_, err := NewUserStore(base).GetUserByAPIKey(context.Background(), "nope")
		require.ErrorIs(t, err, models.ErrUserNotFound)
	})
}

// Package store provides focused, single-concern data access stores
// for leads, their history, the audit log and users.
//
// Each store embeds shared helpers (DB handle, logger) via the Base struct.
// Stores never import each other; shared logic lives in this file
// or in dedicated helper files (scan.go, filter.go).
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/leadbook/leadbook/internal/models"
)

const defaultQueryTimeout = 30 * time.Second

// maxListLimit is a defense-in-depth cap on limit values for list queries.
const maxListLimit = 1000

// ChangeChannel is the LISTEN/NOTIFY channel carrying lead change events.
const ChangeChannel = "lead_changes"

// psql builds statements with PostgreSQL placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// DB is the subset of a connection pool the stores use.
// *dbpool.Pool satisfies it, as do pgxmock pools in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	DB  DB
	Log *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// beginTx starts a read-write transaction.
func (b *Base) beginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}

	return tx, nil
}

// beginReadTx starts a read-only transaction.
func (b *Base) beginReadTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := b.DB.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}

	return tx, nil
}

// notify queues a change event on ChangeChannel inside tx. Postgres only
// delivers it if tx commits.
func notify(ctx context.Context, tx pgx.Tx, ev models.ChangeEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshalling change event: %w", err)
	}

	if _, err := tx.Exec(ctx, "SELECT pg_notify($1, $2)", ChangeChannel, string(payload)); err != nil {
		return fmt.Errorf("sending %s notification: %w", ev.Type, err)
	}

	return nil
}

// clampLimit normalises a list limit to (0, maxListLimit].
func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}

	if limit > maxListLimit {
		return maxListLimit
	}

	return limit
}

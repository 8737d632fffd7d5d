package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/leadbook/leadbook/internal/models"
)

// validChannel matches safe PostgreSQL LISTEN channel names.
var validChannel = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const (
	initialBackoff    = 1 * time.Second
	maxBackoff        = 30 * time.Second
	backoffMultiplier = 2
)

// Broadcaster sends lead change events to a user's connected clients.
type Broadcaster interface {
	BroadcastEvent(eventType, userID string, data json.RawMessage)
}

// ListenPool is the pool capability the bridge needs: a dedicated
// connection for LISTEN and a reachability check.
type ListenPool interface {
	Acquire(ctx context.Context) (*pgxpool.Conn, error)
	Ping(ctx context.Context) error
}

// NotifyBridge subscribes to PostgreSQL LISTEN/NOTIFY on the lead change
// channel and forwards each event to the owner's WebSocket clients.
type NotifyBridge struct {
	log     *logrus.Logger
	pool    ListenPool
	hub     Broadcaster
	channel string
}

// NewNotifyBridge creates a NotifyBridge listening on channel.
func NewNotifyBridge(log *logrus.Logger, pool ListenPool, hub Broadcaster, channel string) *NotifyBridge {
	return &NotifyBridge{
		log:     log,
		pool:    pool,
		hub:     hub,
		channel: channel,
	}
}

// Start launches the LISTEN/NOTIFY loop in a background goroutine.
// It verifies the database is reachable before returning. The background
// goroutine handles reconnection for subsequent failures.
func (b *NotifyBridge) Start(ctx context.Context) error {
	if !validChannel.MatchString(b.channel) {
		return fmt.Errorf("notify bridge: invalid channel name %q", b.channel)
	}

	if err := b.pool.Ping(ctx); err != nil {
		return fmt.Errorf("notify bridge: database not reachable: %w", err)
	}

	go b.listen(ctx)

	return nil
}

// listen acquires a connection, subscribes and forwards notifications until
// the context is cancelled, reconnecting with backoff on failure.
func (b *NotifyBridge) listen(ctx context.Context) {
	backoff := initialBackoff

	for {
		if ctx.Err() != nil {
			return
		}

		err := b.subscribeAndForward(ctx)
		if err == nil || ctx.Err() != nil {
			return
		}

		b.log.WithError(err).WithField("retry_in", backoff).
			Warn("notify bridge connection lost, reconnecting")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff = nextBackoff(backoff)
	}
}

// subscribeAndForward issues LISTEN on a pooled connection and blocks on
// notifications until the connection fails or the context is cancelled.
func (b *NotifyBridge) subscribeAndForward(ctx context.Context) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	// LISTEN takes the channel inline, not as a parameter.
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{b.channel}.Sanitize()); err != nil {
		return fmt.Errorf("executing LISTEN: %w", err)
	}

	b.log.WithField("channel", b.channel).Info("notify bridge listening")

	for {
		// Periodic deadline so ctx cancellation is noticed on an idle connection.
		if err := conn.Conn().PgConn().Conn().SetReadDeadline(time.Now().Add(2 * time.Minute)); err != nil {
			return fmt.Errorf("setting read deadline: %w", err)
		}

		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}

			return fmt.Errorf("waiting for notification: %w", err)
		}

		b.handleNotification(notification)
	}
}

// handleNotification forwards a single change event to the owner's clients.
func (b *NotifyBridge) handleNotification(n *pgconn.Notification) {
	var ev models.ChangeEvent
	if err := json.Unmarshal([]byte(n.Payload), &ev); err != nil || ev.UserID == "" || ev.Type == "" {
		b.log.WithField("channel", n.Channel).Warn("dropping malformed change notification")
		return
	}

	b.log.WithFields(logrus.Fields{
		"type":    ev.Type,
		"user_id": ev.UserID,
		"count":   ev.Count,
	}).Debug("change notification received")

	b.hub.BroadcastEvent(ev.Type, ev.UserID, json.RawMessage(n.Payload))
}

// nextBackoff doubles the current backoff duration with random jitter (±25%),
// capped at maxBackoff.
func nextBackoff(current time.Duration) time.Duration {
	next := current * backoffMultiplier
	if next > maxBackoff {
		next = maxBackoff
	}

	jitter := float64(next) * (0.75 + rand.Float64()*0.5) //nolint:gosec // jitter doesn't need crypto rand.

	return time.Duration(jitter)
}

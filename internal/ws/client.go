package ws

import (
	"context"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeTimeout         = 10 * time.Second
	wsReadLimit          = 4096
	clientSendBuffer     = 64
	maxConnLifetime      = 4 * time.Hour
	tokenRefreshInterval = 15 * time.Minute
	tokenRefreshTimeout  = 10 * time.Second
	pingInterval         = 30 * time.Second
	pingTimeout          = 10 * time.Second
	maxMissedPongs       = 2
)

// KeyValidator re-checks that an API key still belongs to a user.
type KeyValidator interface {
	GetUserByAPIKey(ctx context.Context, apiKey string) (string, error)
}

// Client wraps a single WebSocket connection managed by the Hub.
type Client struct {
	UserID string

	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	log         *logrus.Logger
	apiKey      string
	validator   KeyValidator
	closed      chan struct{}
	connectedAt time.Time
}

// NewClient creates a Client for userID on conn. validator and apiKey are
// used to re-authenticate long-lived connections; validator may be nil.
func NewClient(hub *Hub, conn *websocket.Conn, userID string, validator KeyValidator, apiKey string) *Client {
	return &Client{
		UserID:      userID,
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, clientSendBuffer),
		log:         hub.log,
		apiKey:      apiKey,
		validator:   validator,
		closed:      make(chan struct{}),
		connectedAt: time.Now(),
	}
}

// closeSend closes the send channel exactly once. Only the hub goroutine
// (or Register before the client is known) calls it.
func (c *Client) closeSend() {
	select {
	case <-c.closed:
	default:
		close(c.closed)
		close(c.send)
	}
}

// ReadPump consumes client frames until the connection closes. The stream is
// server-to-client only, so payloads are discarded; reading keeps control
// frames (pong, close) flowing.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.CloseNow() //nolint:errcheck // best-effort close on teardown
	}()

	c.conn.SetReadLimit(wsReadLimit)

	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				c.log.WithField("status", status).Debug("client disconnected")
			}

			return
		}
	}
}

// WritePump writes queued events to the connection. It pings periodically,
// re-validates the API key and enforces a maximum connection lifetime.
func (c *Client) WritePump(ctx context.Context) {
	defer c.conn.CloseNow() //nolint:errcheck // best-effort close on teardown

	lifetime := time.NewTimer(time.Until(c.connectedAt.Add(maxConnLifetime)))
	defer lifetime.Stop()

	refresh := time.NewTicker(tokenRefreshInterval)
	defer refresh.Stop()

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	missed := 0

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusGoingAway, "closing") //nolint:errcheck // best-effort
				return
			}

			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()

			if err != nil {
				c.log.WithError(err).Debug("write failed")
				return
			}
		case <-ping.C:
			pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()

			if err == nil {
				missed = 0
				continue
			}

			if missed++; missed >= maxMissedPongs {
				c.log.Debug("closing WebSocket: missed pongs")
				return
			}
		case <-refresh.C:
			if !c.stillAuthorized(ctx) {
				c.conn.Close(websocket.StatusPolicyViolation, "authentication expired") //nolint:errcheck // best-effort
				return
			}
		case <-lifetime.C:
			c.conn.Close(websocket.StatusNormalClosure, "max connection lifetime exceeded") //nolint:errcheck // best-effort
			return
		}
	}
}

// stillAuthorized re-validates the API key against the same user.
func (c *Client) stillAuthorized(ctx context.Context) bool {
	if c.validator == nil {
		return true
	}

	refreshCtx, cancel := context.WithTimeout(ctx, tokenRefreshTimeout)
	defer cancel()

	userID, err := c.validator.GetUserByAPIKey(refreshCtx, c.apiKey)
	if err != nil || userID != c.UserID {
		c.log.WithField("user_id", c.UserID).Info("closing WebSocket: api key no longer valid")
		return false
	}

	return true
}

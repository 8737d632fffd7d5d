// Package ws fans lead change events out to the owning user's WebSocket clients.
package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/leadbook/leadbook/internal/metrics"
)

// Hub channel buffer sizes.
const (
	broadcastBuffer = 256
	registerBuffer  = 64
)

// Connection limits.
const (
	defaultMaxClients = 1000
	defaultMaxPerUser = 20
)

// drainTimeout is how long the hub waits for clients to flush after shutdown.
const drainTimeout = 3 * time.Second

// maxBroadcastPayload is the largest event accepted for fan-out (4 KB).
const maxBroadcastPayload = 4096

// userBroadcast is sent through the broadcast channel to the Run goroutine.
type userBroadcast struct {
	userID string
	msg    []byte
}

// Hub manages active WebSocket clients and routes each event to the clients
// of one user. All client map mutations happen in the Run goroutine.
type Hub struct {
	clients    map[*Client]struct{}
	perUser    map[string]int
	register   chan *Client
	unregister chan *Client
	broadcast  chan userBroadcast
	shutdown   chan struct{}
	done       chan struct{}
	count      atomic.Int64
	seq        *EventSequence
	log        *logrus.Logger

	maxClients int
	maxPerUser int
}

// NewHub creates a new Hub instance.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		perUser:    make(map[string]int),
		register:   make(chan *Client, registerBuffer),
		unregister: make(chan *Client, registerBuffer),
		broadcast:  make(chan userBroadcast, broadcastBuffer),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		seq:        NewEventSequence(),
		log:        log,
		maxClients: defaultMaxClients,
		maxPerUser: defaultMaxPerUser,
	}
}

// Run starts the hub event loop. It exits, closing every client, when
// Shutdown is called or ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.drainClients()
			return
		case <-h.shutdown:
			h.drainClients()
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.remove(c)
				h.log.WithFields(logrus.Fields{"user_id": c.UserID, "total": len(h.clients)}).Debug("client unregistered")
			}
		case b := <-h.broadcast:
			h.fanOut(b)
		}

		h.count.Store(int64(len(h.clients)))
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

func (h *Hub) add(c *Client) {
	if len(h.clients) >= h.maxClients {
		h.log.Warn("global connection limit reached, dropping client")
		c.closeSend()
		return
	}

	if h.perUser[c.UserID] >= h.maxPerUser {
		h.log.WithField("user_id", c.UserID).Warn("per-user connection limit reached, dropping client")
		c.closeSend()
		return
	}

	h.clients[c] = struct{}{}
	h.perUser[c.UserID]++
	h.log.WithFields(logrus.Fields{"user_id": c.UserID, "total": len(h.clients)}).Debug("client registered")
}

// remove forgets c and closes its send channel. Caller is the Run goroutine.
func (h *Hub) remove(c *Client) {
	delete(h.clients, c)
	c.closeSend()

	h.perUser[c.UserID]--
	if h.perUser[c.UserID] <= 0 {
		delete(h.perUser, c.UserID)
	}
}

// fanOut delivers b to its user's clients. Clients whose buffer is full are
// dropped rather than allowed to stall the hub.
func (h *Hub) fanOut(b userBroadcast) {
	for c := range h.clients {
		if c.UserID != b.userID {
			continue
		}

		select {
		case c.send <- b.msg:
		default:
			h.log.WithField("user_id", c.UserID).Warn("client send buffer full, dropping client")
			h.remove(c)
		}
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	default:
		h.log.Warn("register channel full, dropping client")
		c.closeSend()
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// BroadcastEvent wraps data in a sequenced Event and queues it for the
// clients of userID. Oversized payloads and events arriving while the
// broadcast queue is full are dropped with a warning.
func (h *Hub) BroadcastEvent(eventType, userID string, data json.RawMessage) {
	msg, err := json.Marshal(Event{
		Type: eventType,
		ID:   h.seq.Next(userID),
		Data: data,
		Time: time.Now().UTC(),
	})
	if err != nil {
		h.log.WithError(err).Error("failed to marshal event")
		return
	}

	if len(msg) > maxBroadcastPayload {
		h.log.WithFields(logrus.Fields{
			"user_id":      userID,
			"payload_size": len(msg),
		}).Warn("dropping oversized event")
		return
	}

	select {
	case h.broadcast <- userBroadcast{userID: userID, msg: msg}:
	default:
		h.log.WithField("user_id", userID).Warn("broadcast channel full, dropping event")
	}
}

// Shutdown sends a shutdown frame to every client, waits for their write
// pumps to flush and closes them. It blocks until Run has returned.
func (h *Hub) Shutdown() {
	select {
	case <-h.shutdown:
	default:
		close(h.shutdown)
	}

	<-h.done
}

// drainClients notifies every client of the shutdown, waits up to
// drainTimeout for send buffers to empty and then closes them all.
func (h *Hub) drainClients() {
	if len(h.clients) == 0 {
		return
	}

	h.log.WithField("clients", len(h.clients)).Info("draining WebSocket clients")

	shutdownMsg := []byte(`{"type":"shutdown","message":"server shutting down"}`)
	for c := range h.clients {
		select {
		case c.send <- shutdownMsg:
		default:
		}
	}

	deadline := time.After(drainTimeout)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

wait:
	for h.pending() {
		select {
		case <-deadline:
			h.log.Warn("WebSocket drain timeout, closing remaining clients")
			break wait
		case <-ticker.C:
		}
	}

	for c := range h.clients {
		h.remove(c)
	}

	h.count.Store(0)
	metrics.WSConnections.Set(0)
}

// pending reports whether any client still has queued messages.
func (h *Hub) pending() bool {
	for c := range h.clients {
		if len(c.send) > 0 {
			return true
		}
	}

	return false
}

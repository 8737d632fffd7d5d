package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/leadbook/leadbook/internal/middleware"
	"github.com/leadbook/leadbook/internal/models"
	"github.com/leadbook/leadbook/internal/ws"
)

// getUserID extracts the authenticated user ID from the Gin context
// and validates it is a proper UUID.
func getUserID(c *gin.Context) string {
	uid := c.GetString(middleware.UserIDKey)

	if _, err := uuid.Parse(uid); err != nil {
		respondError(c, http.StatusUnauthorized, ErrCodeUnauthenticated, models.ErrUnauthenticated.Error())

		return ""
	}

	return uid
}

// parseLeadID parses the :id path parameter, responding 400 when it is not a UUID.
func parseLeadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid lead id")

		return uuid.Nil, false
	}

	return id, true
}

// leadFilterFromQuery reads the list/export filters. Unknown enum values
// are ignored rather than rejected.
func leadFilterFromQuery(c *gin.Context) models.LeadFilter {
	search := c.Query("search")
	if search == "" {
		search = c.Query("q")
	}

	return models.ParseLeadFilter(
		search,
		c.Query("city"),
		c.Query("propertyType"),
		c.Query("status"),
		c.Query("timeline"),
	)
}

func wsHandler(appCtx context.Context, log *logrus.Logger, hub *ws.Hub, corsOrigins []string, lookup ws.KeyValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := getUserID(c)
		if userID == "" {
			return
		}

		// Extract the raw API key for periodic re-validation.
		apiKey := middleware.ExtractBearerToken(c)

		conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
			OriginPatterns:       corsOrigins,
			CompressionMode:      websocket.CompressionContextTakeover,
			CompressionThreshold: 128,
		})
		if err != nil {
			log.WithError(err).Error("websocket accept failed")

			return
		}

		client := ws.NewClient(hub, conn, userID, lookup, apiKey)
		hub.Register(client)

		// Derive a context that cancels when either the server shuts down or the request ends.
		wsCtx, wsCancel := context.WithCancel(appCtx)
		go func() {
			select {
			case <-c.Request.Context().Done():
				wsCancel()
			case <-wsCtx.Done():
			}
		}()

		go client.WritePump(wsCtx)
		client.ReadPump(wsCtx)
		wsCancel()
	}
}

// maxPaginationLimit caps the maximum number of items per page.
const maxPaginationLimit = 1000

// maxPaginationOffset caps the maximum offset for paginated queries.
const maxPaginationOffset = 100000

func parseInt(s string, fallback int) int {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return fallback
	}

	if v > maxPaginationLimit {
		return maxPaginationLimit
	}

	return v
}

func parseOffset(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0
	}

	if v > maxPaginationOffset {
		return maxPaginationOffset
	}

	return v
}

// parsePage reads a 1-based page number; anything invalid is page 1.
func parsePage(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return 1
	}

	if maxPage := maxPaginationOffset / models.LeadPageSize; v > maxPage {
		return maxPage
	}

	return v
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/leadbook/leadbook/internal/httputil"
	"github.com/leadbook/leadbook/internal/models"
)

// HistoryHandler serves lead history endpoints.
type HistoryHandler struct {
	svc HistoryService
	log *logrus.Logger
}

// NewHistoryHandler creates a HistoryHandler with the given service and logger.
func NewHistoryHandler(svc HistoryService, log *logrus.Logger) *HistoryHandler {
	return &HistoryHandler{svc: svc, log: log}
}

// GetHistory handles GET /api/v1/leads/:id/history.
func (h *HistoryHandler) GetHistory(c *gin.Context) {
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	userID := getUserID(c)
	if userID == "" {
		return
	}

	q := models.HistoryQuery{
		LeadID: id,
		Limit:  parseInt(c.DefaultQuery("limit", "50"), 50),
		Offset: parseOffset(c.DefaultQuery("offset", "0")),
	}

	entries, hasMore, err := h.svc.ListHistory(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, h.log, err, "listing lead history")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":  "history.get",
		"user_id": userID,
		"lead_id": id,
		"count":   len(entries),
	}).Debug("audit")

	httputil.RespondOK(c, http.StatusOK, "", gin.H{"entries": entries, "has_more": hasMore})
}

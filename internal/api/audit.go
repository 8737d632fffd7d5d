package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/leadbook/leadbook/internal/httputil"
	"github.com/leadbook/leadbook/internal/models"
)

// defaultRetentionDays applies when DELETE /audit has no retention_days.
const defaultRetentionDays = 90

// AuditHandler serves audit log endpoints.
type AuditHandler struct {
	repo AuditRepository
	log  *logrus.Logger
}

// NewAuditHandler creates an AuditHandler.
func NewAuditHandler(repo AuditRepository, log *logrus.Logger) *AuditHandler {
	return &AuditHandler{repo: repo, log: log}
}

// Query handles GET /api/v1/audit.
func (h *AuditHandler) Query(c *gin.Context) {
	userID := getUserID(c)
	if userID == "" {
		return
	}

	opts := models.AuditQueryOpts{
		EntityID: c.Query("entity_id"),
		Action:   c.Query("action"),
		Limit:    parseInt(c.Query("limit"), 50),
		Offset:   parseOffset(c.Query("offset")),
	}

	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid since format, use RFC3339")
			return
		}
		opts.Since = &t
	}

	entries, hasMore, err := h.repo.QueryAudit(c.Request.Context(), userID, opts)
	if err != nil {
		respondServiceError(c, h.log, err, "querying audit log")
		return
	}

	httputil.RespondOK(c, http.StatusOK, "", gin.H{
		"entries":  entries,
		"has_more": hasMore,
	})
}

// Purge handles DELETE /api/v1/audit.
func (h *AuditHandler) Purge(c *gin.Context) {
	userID := getUserID(c)
	if userID == "" {
		return
	}

	retentionDays := defaultRetentionDays
	if rd := c.Query("retention_days"); rd != "" {
		v, err := strconv.Atoi(rd)
		if err != nil || v < 1 {
			respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "retention_days must be a positive integer")
			return
		}
		retentionDays = v
	}

	deleted, err := h.repo.PurgeOldEntries(c.Request.Context(), userID, retentionDays)
	if err != nil {
		respondServiceError(c, h.log, err, "purging audit entries")
		return
	}

	httputil.RespondOK(c, http.StatusOK, "audit entries purged", gin.H{
		"deleted":        deleted,
		"retention_days": retentionDays,
	})
}

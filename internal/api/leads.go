package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/leadbook/leadbook/internal/httputil"
	"github.com/leadbook/leadbook/internal/models"
)

// LeadHandler serves lead CRUD endpoints.
type LeadHandler struct {
	svc LeadService
	log *logrus.Logger
}

// NewLeadHandler creates a LeadHandler with the given service and logger.
func NewLeadHandler(svc LeadService, log *logrus.Logger) *LeadHandler {
	return &LeadHandler{svc: svc, log: log}
}

// List handles GET /api/v1/leads.
func (h *LeadHandler) List(c *gin.Context) {
	userID := getUserID(c)
	if userID == "" {
		return
	}

	filter := leadFilterFromQuery(c)
	page := parsePage(c.Query("page"))

	result, err := h.svc.ListLeads(c.Request.Context(), userID, filter, page)
	if err != nil {
		respondServiceError(c, h.log, err, "listing leads")

		return
	}

	httputil.RespondOK(c, http.StatusOK, "", result)
}

// Get handles GET /api/v1/leads/:id.
func (h *LeadHandler) Get(c *gin.Context) {
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	userID := getUserID(c)
	if userID == "" {
		return
	}

	detail, err := h.svc.GetLead(c.Request.Context(), userID, id)
	if err != nil {
		respondServiceError(c, h.log, err, "getting lead")

		return
	}

	httputil.RespondOK(c, http.StatusOK, "", detail)
}

// Create handles POST /api/v1/leads.
func (h *LeadHandler) Create(c *gin.Context) {
	userID := getUserID(c)
	if userID == "" {
		return
	}

	var in models.LeadInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	lead, err := h.svc.CreateLead(c.Request.Context(), userID, in)
	if err != nil {
		respondServiceError(c, h.log, err, "creating lead")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "lead.create", "user_id": userID, "lead_id": lead.ID}).Info("audit")

	httputil.RespondOK(c, http.StatusCreated, "lead created", lead)
}

// Update handles PUT and PATCH /api/v1/leads/:id. Absent fields keep their
// stored values; updated_at, when sent, must match the stored timestamp.
func (h *LeadHandler) Update(c *gin.Context) {
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	userID := getUserID(c)
	if userID == "" {
		return
	}

	var req models.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")

		return
	}

	lead, err := h.svc.UpdateLead(c.Request.Context(), userID, id, req)
	if err != nil {
		respondServiceError(c, h.log, err, "updating lead")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "lead.update", "user_id": userID, "lead_id": id}).Info("audit")

	httputil.RespondOK(c, http.StatusOK, "lead updated", lead)
}

// Delete handles DELETE /api/v1/leads/:id.
func (h *LeadHandler) Delete(c *gin.Context) {
	id, ok := parseLeadID(c)
	if !ok {
		return
	}

	userID := getUserID(c)
	if userID == "" {
		return
	}

	if err := h.svc.DeleteLead(c.Request.Context(), userID, id); err != nil {
		respondServiceError(c, h.log, err, "deleting lead")

		return
	}

	h.log.WithFields(logrus.Fields{"action": "lead.delete", "user_id": userID, "lead_id": id}).Info("audit")

	httputil.RespondOK(c, http.StatusOK, "lead deleted", gin.H{"id": id})
}

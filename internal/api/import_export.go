package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/leadbook/leadbook/internal/csvcodec"
	"github.com/leadbook/leadbook/internal/httputil"
	"github.com/leadbook/leadbook/internal/models"
)

// importFormField is the multipart field carrying the CSV upload.
const importFormField = "file"

var errMissingFile = errors.New("a CSV file is required")

// ImportExportHandler serves CSV import and export endpoints.
type ImportExportHandler struct {
	svc LeadService
	log *logrus.Logger
}

// NewImportExportHandler creates an ImportExportHandler.
func NewImportExportHandler(svc LeadService, log *logrus.Logger) *ImportExportHandler {
	return &ImportExportHandler{svc: svc, log: log}
}

// Export handles GET /api/v1/leads/export.
// Returns the user's leads matching the list filters as a CSV attachment.
func (h *ImportExportHandler) Export(c *gin.Context) {
	userID := getUserID(c)
	if userID == "" {
		return
	}

	leads, truncated, err := h.svc.ExportLeads(c.Request.Context(), userID, leadFilterFromQuery(c))
	if err != nil {
		respondServiceError(c, h.log, err, "exporting leads")

		return
	}

	var buf bytes.Buffer
	if err := csvcodec.Encode(&buf, leads); err != nil {
		h.log.WithError(err).Error("encoding export")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "export failed")

		return
	}

	ts := time.Now().UTC().Format("20060102T150405Z")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=leads-export-%s.csv", ts))

	if truncated {
		c.Header(ExportTruncatedHeader, "true")
	}

	h.log.WithFields(logrus.Fields{
		"action":    "lead.export",
		"user_id":   userID,
		"rows":      len(leads),
		"truncated": truncated,
	}).Info("audit")

	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportTruncatedHeader is set on an export that stopped at
// models.MaxExportRows while more leads matched.
const ExportTruncatedHeader = "X-Export-Truncated"

// Import handles POST /api/v1/leads/import.
// Accepts a multipart upload in the "file" field or a raw text/csv body.
// Row-level failures are reported in a successful response.
func (h *ImportExportHandler) Import(c *gin.Context) {
	userID := getUserID(c)
	if userID == "" {
		return
	}

	src, err := importSource(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())

		return
	}
	defer src.Close()

	// One row past the cap is read so oversized batches are detected.
	rows, err := csvcodec.Decode(src, models.MaxImportRows+1)
	if err != nil {
		msg := "invalid CSV document"
		if errors.Is(err, csvcodec.ErrNoHeader) {
			msg = "CSV document is empty"
		}

		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, msg)

		return
	}

	result, err := h.svc.ImportLeads(c.Request.Context(), userID, rows)
	if err != nil {
		respondServiceError(c, h.log, err, "importing leads")

		return
	}

	h.log.WithFields(logrus.Fields{
		"action":   "lead.import",
		"user_id":  userID,
		"inserted": result.Inserted,
		"rejected": len(result.Errors),
	}).Info("audit")

	httputil.RespondOK(c, http.StatusOK, fmt.Sprintf("imported %d leads", result.Inserted), result)
}

// importSource opens the uploaded CSV document.
func importSource(c *gin.Context) (io.ReadCloser, error) {
	switch c.ContentType() {
	case "multipart/form-data":
		fh, err := c.FormFile(importFormField)
		if err != nil {
			return nil, errMissingFile
		}

		f, err := fh.Open()
		if err != nil {
			return nil, errMissingFile
		}

		return f, nil
	case "text/csv", "application/csv":
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			return nil, errMissingFile
		}

		return c.Request.Body, nil
	default:
		return nil, errMissingFile
	}
}

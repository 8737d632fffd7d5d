// Package service provides business logic between API handlers and data stores.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/leadbook/leadbook/internal/domain"
	"github.com/leadbook/leadbook/internal/metrics"
	"github.com/leadbook/leadbook/internal/models"
)

// LeadStore is the data-access interface LeadService depends on.
type LeadStore = domain.LeadStore

// HistoryReader reads lead history.
type HistoryReader = domain.HistoryService

// WriteLimiter decides whether a user may perform another write.
type WriteLimiter interface {
	Allow(key string) bool
}

// Compile-time check: *LeadService must satisfy domain.LeadService.
var _ domain.LeadService = (*LeadService)(nil)

// LeadService runs every lead mutation through the same pipeline:
// rate limit, load, authorize, validate, concurrency check, diff, write.
type LeadService struct {
	store       LeadStore
	history     HistoryReader
	limiter     WriteLimiter
	auditWorker AuditEnqueuer
	log         *logrus.Logger
}

// NewLeadService creates a LeadService. limiter and auditWorker may be nil.
func NewLeadService(
	store LeadStore, history HistoryReader, limiter WriteLimiter, auditWorker AuditEnqueuer, log *logrus.Logger,
) *LeadService {
	return &LeadService{store: store, history: history, limiter: limiter, auditWorker: auditWorker, log: log}
}

// beginWrite checks identity and the write rate for userID.
func (s *LeadService) beginWrite(userID string) error {
	if userID == "" {
		return models.ErrUnauthenticated
	}

	if s.limiter != nil && !s.limiter.Allow(userID) {
		metrics.WriteRateLimitedTotal.Inc()

		return models.ErrRateLimited
	}

	return nil
}

// GetLead returns any lead with its most recent history. Reads are not
// restricted to the owner.
func (s *LeadService) GetLead(ctx context.Context, userID string, id uuid.UUID) (*models.LeadDetail, error) {
	if userID == "" {
		return nil, models.ErrUnauthenticated
	}

	lead, err := s.store.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}

	history, _, err := s.history.ListHistory(ctx, models.HistoryQuery{LeadID: id, Limit: models.RecentHistoryLimit})
	if err != nil {
		return nil, err
	}

	return &models.LeadDetail{Lead: *lead, History: history}, nil
}

// ListLeads returns one page of the user's own leads.
func (s *LeadService) ListLeads(
	ctx context.Context, userID string, filter models.LeadFilter, page int,
) (*models.LeadPage, error) {
	if userID == "" {
		return nil, models.ErrUnauthenticated
	}

	return s.store.ListLeads(ctx, userID, filter, page, models.LeadPageSize)
}

// CreateLead validates in and stores it as a new lead owned by userID.
func (s *LeadService) CreateLead(ctx context.Context, userID string, in models.LeadInput) (*models.Lead, error) {
	if err := s.beginWrite(userID); err != nil {
		return nil, err
	}

	lead, err := models.ValidateLead(&in, nil)
	if err != nil {
		return nil, err
	}

	if err := s.checkEmail(ctx, lead.Email, nil); err != nil {
		return nil, err
	}

	lead.OwnerID = userID

	created, err := s.store.InsertLead(ctx, &lead)
	if err != nil {
		return nil, err
	}

	metrics.LeadMutationsTotal.WithLabelValues("create").Inc()
	auditAsync(s.auditWorker, userID, models.AuditLeadCreate, created.ID.String(), map[string]any{
		"full_name": created.FullName,
		"status":    string(created.Status),
	})

	return created, nil
}

// UpdateLead applies the fields present in req to a lead owned by userID.
// A payload that changes nothing returns the stored lead without writing.
func (s *LeadService) UpdateLead(
	ctx context.Context, userID string, id uuid.UUID, req models.UpdateLeadRequest,
) (*models.Lead, error) {
	if err := s.beginWrite(userID); err != nil {
		return nil, err
	}

	current, err := s.store.GetLead(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := Authorize(userID, current.OwnerID); err != nil {
		return nil, err
	}

	next, err := models.ValidateLead(&req.LeadInput, current)
	if err != nil {
		return nil, err
	}

	if err := CheckConcurrency(req.UpdatedAt, current.UpdatedAt); err != nil {
		return nil, err
	}

	diff := models.DiffLead(&req.LeadInput, current, &next)
	if len(diff) == 0 {
		return current, nil
	}

	if _, changed := diff[models.FieldEmail]; changed {
		if err := s.checkEmail(ctx, next.Email, &id); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.UpdateLead(ctx, id, diff, req.UpdatedAt, userID)
	if err != nil {
		return nil, err
	}

	metrics.LeadMutationsTotal.WithLabelValues("update").Inc()
	auditAsync(s.auditWorker, userID, models.AuditLeadUpdate, id.String(), map[string]any{
		"fields": changedFields(diff),
	})

	return updated, nil
}

// DeleteLead removes a lead owned by userID, keeping its final state in history.
func (s *LeadService) DeleteLead(ctx context.Context, userID string, id uuid.UUID) error {
	if err := s.beginWrite(userID); err != nil {
		return err
	}

	current, err := s.store.GetLead(ctx, id)
	if err != nil {
		return err
	}

	if err := Authorize(userID, current.OwnerID); err != nil {
		return err
	}

	deleted, err := s.store.DeleteLead(ctx, id, userID)
	if err != nil {
		return err
	}

	metrics.LeadMutationsTotal.WithLabelValues("delete").Inc()
	auditAsync(s.auditWorker, userID, models.AuditLeadDelete, id.String(), map[string]any{
		"full_name": deleted.FullName,
	})

	return nil
}

// ImportLeads validates each row independently and inserts the valid ones
// as one batch owned by userID. Invalid rows are reported, not inserted.
// Batches over MaxImportRows are rejected before any row is looked at.
func (s *LeadService) ImportLeads(
	ctx context.Context, userID string, rows []map[string]string,
) (*models.ImportResult, error) {
	if err := s.beginWrite(userID); err != nil {
		return nil, err
	}

	if len(rows) > models.MaxImportRows {
		return nil, models.ErrBatchTooLarge
	}

	result := &models.ImportResult{Errors: []models.RowError{}}
	valid := make([]models.Lead, 0, len(rows))

	for i, row := range rows {
		in, errs := models.LeadInputFromRow(row)

		lead, err := models.ValidateLead(&in, nil)
		if err != nil {
			var ve *models.ValidationError
			if !errors.As(err, &ve) {
				return nil, err
			}

			errs = append(errs, ve.Errors...)
		}

		if len(errs) > 0 {
			result.Errors = append(result.Errors, models.RowError{Row: i + 1, Errors: errs})
			continue
		}

		lead.OwnerID = userID
		valid = append(valid, lead)
	}

	inserted, err := s.store.InsertLeads(ctx, userID, valid)
	if err != nil {
		return nil, err
	}

	result.Inserted = inserted

	metrics.ImportedRowsTotal.WithLabelValues("inserted").Add(float64(inserted))
	metrics.ImportedRowsTotal.WithLabelValues("rejected").Add(float64(len(result.Errors)))
	auditAsync(s.auditWorker, userID, models.AuditLeadImport, "", map[string]any{
		"rows":     len(rows),
		"inserted": inserted,
		"rejected": len(result.Errors),
	})

	return result, nil
}

// ExportLeads returns up to MaxExportRows of the user's leads matching
// filter. truncated reports that more matching leads exist.
func (s *LeadService) ExportLeads(
	ctx context.Context, userID string, filter models.LeadFilter,
) ([]models.Lead, bool, error) {
	if userID == "" {
		return nil, false, models.ErrUnauthenticated
	}

	leads, err := s.store.ExportLeads(ctx, userID, filter, models.MaxExportRows+1)
	if err != nil {
		return nil, false, err
	}

	truncated := len(leads) > models.MaxExportRows
	if truncated {
		leads = leads[:models.MaxExportRows]
	}

	auditAsync(s.auditWorker, userID, models.AuditLeadExport, "", map[string]any{
		"rows":      len(leads),
		"truncated": truncated,
	})

	return leads, truncated, nil
}

// checkEmail rejects an email already used by another lead.
func (s *LeadService) checkEmail(ctx context.Context, email *string, exclude *uuid.UUID) error {
	if email == nil {
		return nil
	}

	inUse, err := s.store.EmailInUse(ctx, *email, exclude)
	if err != nil {
		return err
	}

	if inUse {
		return models.ErrDuplicateEmail
	}

	return nil
}

// changedFields lists the field names in diff in schema order.
func changedFields(diff models.Diff) []string {
	fields := make([]string, 0, len(diff))

	for _, name := range models.LeadFieldNames() {
		if _, ok := diff[name]; ok {
			fields = append(fields, name)
		}
	}

	return fields
}

package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leadbook/leadbook/internal/models"
)

// mockLeadStore records calls and returns configured responses.
type mockLeadStore struct {
	mu    sync.Mutex
	calls []string

	getLead     func(ctx context.Context, id uuid.UUID) (*models.Lead, error)
	emailInUse  func(ctx context.Context, email string, exclude *uuid.UUID) (bool, error)
	insertLead  func(ctx context.Context, lead *models.Lead) (*models.Lead, error)
	updateLead  func(ctx context.Context, id uuid.UUID, diff models.Diff, expected *time.Time, changedBy string) (*models.Lead, error)
	deleteLead  func(ctx context.Context, id uuid.UUID, deletedBy string) (*models.Lead, error)
	insertLeads func(ctx context.Context, ownerID string, leads []models.Lead) (int, error)
	listLeads   func(ctx context.Context, ownerID string, filter models.LeadFilter, page, pageSize int) (*models.LeadPage, error)
	exportLeads func(ctx context.Context, ownerID string, filter models.LeadFilter, limit int) ([]models.Lead, error)
}

func (m *mockLeadStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockLeadStore) getCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]string(nil), m.calls...)
}

func (m *mockLeadStore) GetLead(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	m.record("GetLead")
	return m.getLead(ctx, id)
}

func (m *mockLeadStore) EmailInUse(ctx context.Context, email string, exclude *uuid.UUID) (bool, error) {
	m.record("EmailInUse")
	if m.emailInUse == nil {
		return false, nil
	}
	return m.emailInUse(ctx, email, exclude)
}

func (m *mockLeadStore) InsertLead(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	m.record("InsertLead")
	return m.insertLead(ctx, lead)
}

func (m *mockLeadStore) UpdateLead(ctx context.Context, id uuid.UUID, diff models.Diff, expected *time.Time, changedBy string) (*models.Lead, error) {
	m.record("UpdateLead")
	return m.updateLead(ctx, id, diff, expected, changedBy)
}

func (m *mockLeadStore) DeleteLead(ctx context.Context, id uuid.UUID, deletedBy string) (*models.Lead, error) {
	m.record("DeleteLead")
	return m.deleteLead(ctx, id, deletedBy)
}

func (m *mockLeadStore) InsertLeads(ctx context.Context, ownerID string, leads []models.Lead) (int, error) {
	m.record("InsertLeads")
	return m.insertLeads(ctx, ownerID, leads)
}

func (m *mockLeadStore) ListLeads(ctx context.Context, ownerID string, filter models.LeadFilter, page, pageSize int) (*models.LeadPage, error) {
	m.record("ListLeads")
	return m.listLeads(ctx, ownerID, filter, page, pageSize)
}

func (m *mockLeadStore) ExportLeads(ctx context.Context, ownerID string, filter models.LeadFilter, limit int) ([]models.Lead, error) {
	m.record("ExportLeads")
	return m.exportLeads(ctx, ownerID, filter, limit)
}

// mockHistory returns a fixed history page.
type mockHistory struct {
	entries []models.HistoryEntry
	lastQ   models.HistoryQuery
}

func (m *mockHistory) ListHistory(_ context.Context, q models.HistoryQuery) ([]models.HistoryEntry, bool, error) {
	m.lastQ = q
	return m.entries, false, nil
}

// fakeLimiter allows a fixed number of writes.
type fakeLimiter struct {
	mu     sync.Mutex
	remain int
	keys   []string
}

func (f *fakeLimiter) Allow(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.keys = append(f.keys, key)
	if f.remain <= 0 {
		return false
	}

	f.remain--

	return true
}

// auditCall captures a single RecordAudit invocation.
type auditCall struct {
	UserID     string
	Action     string
	EntityType string
	EntityID   string
	Detail     map[string]any
}

// mockAuditor records audit calls.
type mockAuditor struct {
	mu    sync.Mutex
	calls []auditCall
}

func (m *mockAuditor) RecordAudit(_ context.Context, userID, action, entityType, entityID string, detail map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, auditCall{UserID: userID, Action: action, EntityType: entityType, EntityID: entityID, Detail: detail})
	return nil
}

func (m *mockAuditor) getCalls() []auditCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]auditCall(nil), m.calls...)
}

// mockEnqueuer captures audit jobs synchronously.
type mockEnqueuer struct {
	mu   sync.Mutex
	jobs []*AuditJob
}

func (m *mockEnqueuer) Enqueue(job *AuditJob) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
}

package api_test

import (
	"context"

	"github.com/google/uuid"

	"github.com/leadbook/leadbook/internal/models"
)

// mockLeadService implements api.LeadService for testing.
type mockLeadService struct {
	getFn    func(ctx context.Context, userID string, id uuid.UUID) (*models.LeadDetail, error)
	listFn   func(ctx context.Context, userID string, filter models.LeadFilter, page int) (*models.LeadPage, error)
	createFn func(ctx context.Context, userID string, in models.LeadInput) (*models.Lead, error)
	updateFn func(ctx context.Context, userID string, id uuid.UUID, req models.UpdateLeadRequest) (*models.Lead, error)
	deleteFn func(ctx context.Context, userID string, id uuid.UUID) error
	importFn func(ctx context.Context, userID string, rows []map[string]string) (*models.ImportResult, error)
	exportFn func(ctx context.Context, userID string, filter models.LeadFilter) ([]models.Lead, bool, error)
}

func (m *mockLeadService) GetLead(ctx context.Context, userID string, id uuid.UUID) (*models.LeadDetail, error) {
	return m.getFn(ctx, userID, id)
}

func (m *mockLeadService) ListLeads(ctx context.Context, userID string, filter models.LeadFilter, page int) (*models.LeadPage, error) {
	return m.listFn(ctx, userID, filter, page)
}

func (m *mockLeadService) CreateLead(ctx context.Context, userID string, in models.LeadInput) (*models.Lead, error) {
	return m.createFn(ctx, userID, in)
}

func (m *mockLeadService) UpdateLead(ctx context.Context, userID string, id uuid.UUID, req models.UpdateLeadRequest) (*models.Lead, error) {
	return m.updateFn(ctx, userID, id, req)
}

func (m *mockLeadService) DeleteLead(ctx context.Context, userID string, id uuid.UUID) error {
	return m.deleteFn(ctx, userID, id)
}

func (m *mockLeadService) ImportLeads(ctx context.Context, userID string, rows []map[string]string) (*models.ImportResult, error) {
	return m.importFn(ctx, userID, rows)
}

func (m *mockLeadService) ExportLeads(ctx context.Context, userID string, filter models.LeadFilter) ([]models.Lead, bool, error) {
	return m.exportFn(ctx, userID, filter)
}

// mockHistoryService implements api.HistoryService for testing.
type mockHistoryService struct {
	listFn func(ctx context.Context, q models.HistoryQuery) ([]models.HistoryEntry, bool, error)
}

func (m *mockHistoryService) ListHistory(ctx context.Context, q models.HistoryQuery) ([]models.HistoryEntry, bool, error) {
	return m.listFn(ctx, q)
}

// mockAuditRepo implements api.AuditRepository for testing.
type mockAuditRepo struct {
	queryFn func(ctx context.Context, userID string, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error)
	purgeFn func(ctx context.Context, userID string, retentionDays int) (int, error)
}

func (m *mockAuditRepo) QueryAudit(ctx context.Context, userID string, opts models.AuditQueryOpts) ([]models.AuditEntry, bool, error) {
	return m.queryFn(ctx, userID, opts)
}

func (m *mockAuditRepo) PurgeOldEntries(ctx context.Context, userID string, retentionDays int) (int, error) {
	return m.purgeFn(ctx, userID, retentionDays)
}

func sampleLead(owner string) *models.Lead {
	return &models.Lead{
		ID:           uuid.MustParse(testLeadID),
		FullName:     "Asha Rao",
		Phone:        "9876543210",
		City:         models.CityMohali,
		PropertyType: models.PropertyPlot,
		Purpose:      models.PurposeBuy,
		Timeline:     models.Timeline0To3m,
		Source:       models.SourceWebsite,
		Tags:         []string{},
		Status:       models.StatusNew,
		OwnerID:      owner,
	}
}

package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/leadbook/leadbook/internal/models"
)

// leadCols mirrors leadColumns for mock row sets.
var leadCols = []string{
	"id", "full_name", "email", "phone", "city", "property_type", "bhk", "purpose",
	"budget_min", "budget_max", "timeline", "source", "notes", "tags", "status", "owner_id", "updated_at",
}

func newMockBase(t *testing.T) (Base, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	return Base{DB: mock, Log: log}, mock
}

func testLead(owner string) models.Lead {
	email := "asha@example.com"
	bhk := models.BHK2
	budget := 5000000

	return models.Lead{
		ID:           uuid.New(),
		FullName:     "Asha Rao",
		Email:        &email,
		Phone:        "9876543210",
		City:         models.CityMohali,
		PropertyType: models.PropertyApartment,
		BHK:          &bhk,
		Purpose:      models.PurposeBuy,
		BudgetMin:    &budget,
		Timeline:     models.Timeline0To3m,
		Source:       models.SourceWebsite,
		Notes:        "",
		Tags:         []string{"hot"},
		Status:       models.StatusNew,
		OwnerID:      owner,
		UpdatedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func int64Ptr(v *int) *int64 {
	if v == nil {
		return nil
	}

	n := int64(*v)

	return &n
}

// addLeadRow appends l to rows in scanLead column order.
func addLeadRow(rows *pgxmock.Rows, l *models.Lead) *pgxmock.Rows {
	var bhk *string
	if l.BHK != nil {
		v := string(*l.BHK)
		bhk = &v
	}

	return rows.AddRow(
		l.ID, l.FullName, l.Email, l.Phone, string(l.City), string(l.PropertyType), bhk,
		string(l.Purpose), int64Ptr(l.BudgetMin), int64Ptr(l.BudgetMax), string(l.Timeline),
		string(l.Source), l.Notes, l.Tags, string(l.Status), l.OwnerID, l.UpdatedAt,
	)
}

func leadRows(leads ...models.Lead) *pgxmock.Rows {
	rows := pgxmock.NewRows(leadCols)
	for i := range leads {
		rows = addLeadRow(rows, &leads[i])
	}

	return rows
}

func expectNotify(mock pgxmock.PgxPoolIface) {
	mock.ExpectExec(`SELECT pg_notify\(\$1, \$2\)`).
		WithArgs(ChangeChannel, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
}

// insertArgs is insertValues as the mock sees it: driver.Valuer arguments
// such as uuid.UUID arrive converted to their driver value.
func insertArgs(l *models.Lead, ownerID string) []any {
	args := insertValues(l, ownerID)
	args[0] = l.ID.String()

	return args
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}

	return args
}

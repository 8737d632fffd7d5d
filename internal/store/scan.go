package store

import (
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/leadbook/leadbook/internal/models"
)

// leadColumns lists the columns selected for lead queries.
const leadColumns = `id, full_name, email, phone, city, property_type, bhk, purpose,
	budget_min, budget_max, timeline, source, notes, tags, status, owner_id, updated_at`

// historyColumns lists the columns selected for history queries.
const historyColumns = `id, lead_id, changed_by, changed_at, diff`

// scanLead scans a single row into a models.Lead.
func scanLead(scan func(dest ...any) error) (*models.Lead, error) {
	var l models.Lead
	var city, propertyType, purpose, timeline, source, status string
	var bhk *string
	var budgetMin, budgetMax *int64

	err := scan(
		&l.ID,
		&l.FullName,
		&l.Email,
		&l.Phone,
		&city,
		&propertyType,
		&bhk,
		&purpose,
		&budgetMin,
		&budgetMax,
		&timeline,
		&source,
		&l.Notes,
		&l.Tags,
		&status,
		&l.OwnerID,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.City = models.City(city)
	l.PropertyType = models.PropertyType(propertyType)
	l.Purpose = models.Purpose(purpose)
	l.Timeline = models.Timeline(timeline)
	l.Source = models.Source(source)
	l.Status = models.Status(status)

	if bhk != nil {
		v := models.BHK(*bhk)
		l.BHK = &v
	}

	l.BudgetMin = intPtr(budgetMin)
	l.BudgetMax = intPtr(budgetMax)

	if l.Tags == nil {
		l.Tags = []string{}
	}

	return &l, nil
}

func intPtr(v *int64) *int {
	if v == nil {
		return nil
	}

	n := int(*v)

	return &n
}

// collectLeads scans all rows into a lead slice.
func collectLeads(rows pgx.Rows) ([]models.Lead, error) {
	leads := make([]models.Lead, 0, 16)

	for rows.Next() {
		l, err := scanLead(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning lead row: %w", err)
		}

		leads = append(leads, *l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lead rows: %w", err)
	}

	return leads, nil
}

// scanHistory scans a single row into a models.HistoryEntry.
func scanHistory(scan func(dest ...any) error) (*models.HistoryEntry, error) {
	var h models.HistoryEntry
	var diff []byte

	if err := scan(&h.ID, &h.LeadID, &h.ChangedBy, &h.ChangedAt, &diff); err != nil {
		return nil, err
	}

	h.Diff = diff

	return &h, nil
}

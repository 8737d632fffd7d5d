package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/leadbook/leadbook/internal/models"
)

// GetLead returns a single lead by ID regardless of owner.
func (s *LeadStore) GetLead(ctx context.Context, id uuid.UUID) (*models.Lead, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	lead, err := scanLead(s.DB.QueryRow(ctx, "SELECT "+leadColumns+" FROM leads WHERE id = $1", id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrLeadNotFound
		}

		return nil, fmt.Errorf("getting lead: %w", err)
	}

	return lead, nil
}

// EmailInUse reports whether any lead other than exclude has email
// (compared case-insensitively).
func (s *LeadStore) EmailInUse(ctx context.Context, email string, exclude *uuid.UUID) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	q := psql.Select("1").From("leads").Where("lower(email) = lower(?)", email)
	if exclude != nil {
		q = q.Where("id <> ?", *exclude)
	}

	query, args, err := q.Prefix("SELECT EXISTS(").Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("building email check query: %w", err)
	}

	var exists bool
	if err := s.DB.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking email: %w", err)
	}

	return exists, nil
}

// ListLeads returns one page of ownerID's leads matching filter, newest
// change first, together with the total match count.
func (s *LeadStore) ListLeads(
	ctx context.Context,
	ownerID string,
	filter models.LeadFilter,
	page, pageSize int,
) (*models.LeadPage, error) {
	if page < 1 {
		page = 1
	}

	pageSize = clampLimit(pageSize, models.LeadPageSize)

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	where := leadFilter(ownerID, filter)

	countSQL, countArgs, err := psql.Select("count(*)").From("leads").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building lead count query: %w", err)
	}

	listSQL, listArgs, err := psql.Select(leadColumns).From("leads").Where(where).
		OrderBy("updated_at DESC", "id").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building lead list query: %w", err)
	}

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing leads: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	var total int
	if err := tx.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting leads: %w", err)
	}

	rows, err := tx.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, fmt.Errorf("querying leads: %w", err)
	}
	defer rows.Close()

	leads, err := collectLeads(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing lead list: %w", err)
	}

	return &models.LeadPage{
		Leads:      leads,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: models.TotalPagesFor(total, pageSize),
	}, nil
}

// ExportLeads returns up to limit of ownerID's leads matching filter,
// newest change first.
func (s *LeadStore) ExportLeads(
	ctx context.Context,
	ownerID string,
	filter models.LeadFilter,
	limit int,
) ([]models.Lead, error) {
	if limit <= 0 {
		limit = models.MaxExportRows
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	query, args, err := psql.Select(leadColumns).From("leads").
		Where(leadFilter(ownerID, filter)).
		OrderBy("updated_at DESC", "id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building lead export query: %w", err)
	}

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("exporting leads: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying leads for export: %w", err)
	}
	defer rows.Close()

	leads, err := collectLeads(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing lead export: %w", err)
	}

	return leads, nil
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/leadbook/leadbook/internal/models"
)

// insertColumns lists the columns written when a lead is created.
var insertColumns = []string{
	"id", "full_name", "email", "phone", "city", "property_type", "bhk", "purpose",
	"budget_min", "budget_max", "timeline", "source", "notes", "tags", "status", "owner_id",
}

// bumpUpdatedAt keeps updated_at strictly increasing even when two writes
// land in the same clock tick.
const bumpUpdatedAt = "GREATEST(now(), updated_at + interval '1 microsecond')"

// LeadStore handles lead persistence. Every write records its history and
// change notification in the same transaction.
type LeadStore struct {
	Base
}

// NewLeadStore creates a new LeadStore.
func NewLeadStore(base Base) *LeadStore {
	return &LeadStore{Base: base}
}

// insertValues returns the insert column values for l in insertColumns order.
func insertValues(l *models.Lead, ownerID string) []any {
	var bhk *string
	if l.BHK != nil {
		v := string(*l.BHK)
		bhk = &v
	}

	tags := l.Tags
	if tags == nil {
		tags = []string{}
	}

	return []any{
		l.ID, l.FullName, l.Email, l.Phone, string(l.City), string(l.PropertyType), bhk,
		string(l.Purpose), l.BudgetMin, l.BudgetMax, string(l.Timeline), string(l.Source),
		l.Notes, tags, string(l.Status), ownerID,
	}
}

// InsertLead stores a new lead owned by lead.OwnerID and returns the
// stored record, including its generated timestamp.
func (s *LeadStore) InsertLead(ctx context.Context, lead *models.Lead) (*models.Lead, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}

	query, args, err := psql.Insert("leads").
		Columns(insertColumns...).
		Values(insertValues(lead, lead.OwnerID)...).
		Suffix("RETURNING " + leadColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert lead query: %w", err)
	}

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating lead: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	created, err := scanLead(tx.QueryRow(ctx, query, args...).Scan)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, models.ErrDuplicateKey
		}

		return nil, fmt.Errorf("inserting lead: %w", err)
	}

	err = notify(ctx, tx, models.ChangeEvent{
		UserID: created.OwnerID, Type: models.EventLeadCreated, LeadID: created.ID.String(), Count: 1,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing create lead: %w", err)
	}

	return created, nil
}

// UpdateLead writes the new values in diff, bumps updated_at and appends one
// history entry, all in one transaction. When expected is set the row is only
// updated if its updated_at still equals it; otherwise ErrStaleVersion is
// returned. An empty diff writes nothing and returns the stored lead.
func (s *LeadStore) UpdateLead(
	ctx context.Context,
	id uuid.UUID,
	diff models.Diff,
	expected *time.Time,
	changedBy string,
) (*models.Lead, error) {
	if len(diff) == 0 {
		return s.GetLead(ctx, id)
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	where := sq.And{sq.Eq{"id": id}}
	if expected != nil {
		where = append(where, sq.Eq{"updated_at": *expected})
	}

	query, args, err := psql.Update("leads").
		SetMap(diff.Columns()).
		Set("updated_at", sq.Expr(bumpUpdatedAt)).
		Where(where).
		Suffix("RETURNING " + leadColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update lead query: %w", err)
	}

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("updating lead: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	updated, err := scanLead(tx.QueryRow(ctx, query, args...).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.missingOrStale(ctx, tx, id)
		}

		return nil, fmt.Errorf("updating lead: %w", err)
	}

	if err := insertHistory(ctx, tx, id, changedBy, diff); err != nil {
		return nil, err
	}

	err = notify(ctx, tx, models.ChangeEvent{
		UserID: updated.OwnerID, Type: models.EventLeadUpdated, LeadID: id.String(), Count: 1,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing update lead: %w", err)
	}

	return updated, nil
}

// missingOrStale explains why a conditional update matched no row.
func (s *LeadStore) missingOrStale(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	var exists bool

	if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM leads WHERE id = $1)", id).Scan(&exists); err != nil {
		return fmt.Errorf("checking lead existence: %w", err)
	}

	if !exists {
		return models.ErrLeadNotFound
	}

	return models.ErrStaleVersion
}

// DeleteLead removes a lead and records a deletion snapshot of its final
// state in history. It returns the deleted lead.
func (s *LeadStore) DeleteLead(ctx context.Context, id uuid.UUID, deletedBy string) (*models.Lead, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("deleting lead: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	deleted, err := scanLead(tx.QueryRow(ctx,
		"DELETE FROM leads WHERE id = $1 RETURNING "+leadColumns, id,
	).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrLeadNotFound
		}

		return nil, fmt.Errorf("deleting lead: %w", err)
	}

	if err := insertHistory(ctx, tx, id, deletedBy, models.DeletionSnapshot(deleted)); err != nil {
		return nil, err
	}

	err = notify(ctx, tx, models.ChangeEvent{
		UserID: deleted.OwnerID, Type: models.EventLeadDeleted, LeadID: id.String(), Count: 1,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing delete lead: %w", err)
	}

	return deleted, nil
}

// InsertLeads inserts leads for ownerID as a single batch and returns the
// number of rows written. No history is recorded for imported rows.
func (s *LeadStore) InsertLeads(ctx context.Context, ownerID string, leads []models.Lead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	ins := psql.Insert("leads").Columns(insertColumns...)
	for i := range leads {
		if leads[i].ID == uuid.Nil {
			leads[i].ID = uuid.New()
		}

		ins = ins.Values(insertValues(&leads[i], ownerID)...)
	}

	query, args, err := ins.ToSql()
	if err != nil {
		return 0, fmt.Errorf("building batch insert query: %w", err)
	}

	tx, err := s.beginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("importing leads: %w", err)
	}

	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting lead batch: %w", err)
	}

	inserted := int(tag.RowsAffected())

	err = notify(ctx, tx, models.ChangeEvent{UserID: ownerID, Type: models.EventLeadImported, Count: inserted})
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing lead batch: %w", err)
	}

	return inserted, nil
}

// insertHistory appends one immutable history entry for leadID.
func insertHistory(ctx context.Context, tx pgx.Tx, leadID uuid.UUID, changedBy string, payload any) error {
	diffJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling history diff: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO lead_history (id, lead_id, changed_by, diff) VALUES ($1, $2, $3, $4)`,
		uuid.New(), leadID, changedBy, diffJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting lead history: %w", err)
	}

	return nil
}

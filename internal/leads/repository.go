// Package leads provides data access to the lead pool. Leads are created by
// the external import pipeline and never deleted here; this core only reads
// them for call selection and flips their contacted/status fields.
package leads

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

// Lead is a sales contact record.
type Lead struct {
	ID                  uuid.UUID
	FirstName           string
	LastName            string
	Phone               string
	Email               *string
	Company             *string
	JobTitle            *string
	Industry            *string
	HasSurplusMachinery bool
	Status              string
	Contacted           bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// LegacyLead is a lead still carrying an embedded call-history blob.
type LegacyLead struct {
	ID       uuid.UUID
	CallData json.RawMessage
}

// Repository provides data access for leads.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, first_name, last_name, phone, email, company, job_title, industry,
		has_surplus_machinery, status, contacted, created_at, updated_at`

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(&l.ID, &l.FirstName, &l.LastName, &l.Phone, &l.Email, &l.Company,
		&l.JobTitle, &l.Industry, &l.HasSurplusMachinery, &l.Status, &l.Contacted,
		&l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return l, err
}

// GetByID retrieves a lead by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	return scanLead(row)
}

// ListUncontacted returns leads that have not been contacted yet, newest
// first with id as tiebreak. Priority ranking on top of this order is applied
// by the selection package.
func (r *Repository) ListUncontacted(ctx context.Context, limit int) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE contacted = false
		ORDER BY created_at DESC, id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// MarkContacted sets the contacted flag and the lead's status label.
func (r *Repository) MarkContacted(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET contacted = true, status = $2, updated_at = now()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus changes the lead status label without touching contacted.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLegacyPending returns leads whose embedded call data has not yet been
// migrated into the normalized call history tables.
func (r *Repository) ListLegacyPending(ctx context.Context, limit int) ([]LegacyLead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, legacy_call_data
		FROM leads
		WHERE legacy_call_data IS NOT NULL AND legacy_migrated = false
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LegacyLead
	for rows.Next() {
		var l LegacyLead
		if err := rows.Scan(&l.ID, &l.CallData); err != nil {
			return nil, err
		}
		result = append(result, l)
	}
	return result, rows.Err()
}

// MarkLegacyMigrated flags a lead as converted so re-running the migration
// is a no-op for it.
func (r *Repository) MarkLegacyMigrated(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads SET legacy_migrated = true, updated_at = now() WHERE id = $1
	`, id)
	return err
}

// Package jobsettings provides the per-job scheduling policy store.
// One row exists per named job (e.g. "ScheduledCalls"); the scheduler reads
// the row on every tick, operators update it through the admin API.
package jobsettings

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("job setting not found")

// Setting is a job's scheduling policy row. Start/end minutes are wall-clock
// minutes since midnight in the storage time domain.
type Setting struct {
	ID           uuid.UUID
	Name         string
	IsEnabled    bool
	StartMinutes int
	EndMinutes   *int
	Weekdays     []int16
	SelectedDays int
	CallLimit    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Repository provides data access for job settings.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new job settings repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const settingColumns = `id, name, is_enabled, start_minutes, end_minutes, weekdays, selected_days, call_limit, created_at, updated_at`

func scanSetting(row pgx.Row) (Setting, error) {
	var s Setting
	err := row.Scan(&s.ID, &s.Name, &s.IsEnabled, &s.StartMinutes, &s.EndMinutes,
		&s.Weekdays, &s.SelectedDays, &s.CallLimit, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Setting{}, ErrNotFound
	}
	return s, err
}

// GetByName retrieves a job setting by its unique name.
func (r *Repository) GetByName(ctx context.Context, name string) (Setting, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+settingColumns+`
		FROM job_settings
		WHERE name = $1
	`, name)
	return scanSetting(row)
}

// ListEnabled returns all enabled job settings, ordered by name for
// deterministic tick iteration.
func (r *Repository) ListEnabled(ctx context.Context) ([]Setting, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+settingColumns+`
		FROM job_settings
		WHERE is_enabled = true
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var settings []Setting
	for rows.Next() {
		s, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

// UpsertParams holds a fully resolved setting for persistence. Partial-update
// merging happens in the service; the repository always writes the whole row.
type UpsertParams struct {
	Name         string
	IsEnabled    bool
	StartMinutes int
	EndMinutes   *int
	Weekdays     []int16
	SelectedDays int
	CallLimit    int
}

// Upsert inserts or replaces the setting row for a job name.
// Concurrent updates are last-writer-wins; there are no merge semantics.
func (r *Repository) Upsert(ctx context.Context, params UpsertParams) (Setting, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO job_settings (name, is_enabled, start_minutes, end_minutes, weekdays, selected_days, call_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			is_enabled = EXCLUDED.is_enabled,
			start_minutes = EXCLUDED.start_minutes,
			end_minutes = EXCLUDED.end_minutes,
			weekdays = EXCLUDED.weekdays,
			selected_days = EXCLUDED.selected_days,
			call_limit = EXCLUDED.call_limit,
			updated_at = now()
		RETURNING `+settingColumns+`
	`, params.Name, params.IsEnabled, params.StartMinutes, params.EndMinutes,
		params.Weekdays, params.SelectedDays, params.CallLimit)
	return scanSetting(row)
}

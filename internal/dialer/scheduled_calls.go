package dialer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Scheduled call statuses.
const (
	ScheduledStatusPending = "pending"
	ScheduledStatusFired   = "fired"
	ScheduledStatusSkipped = "skipped"
)

// ScheduledCall is a call request deferred to a future start time.
type ScheduledCall struct {
	ID              uuid.UUID
	LeadID          *uuid.UUID
	ToNumber        string
	FromNumber      string
	StartTime       time.Time
	EndTime         *time.Time
	OverrideAgentID *string
	Status          string
	CreatedAt       time.Time
	FiredAt         *time.Time
}

// ScheduledCallRepository provides data access for deferred call requests.
type ScheduledCallRepository struct {
	pool *pgxpool.Pool
}

// NewScheduledCallRepository creates a scheduled calls repository.
func NewScheduledCallRepository(pool *pgxpool.Pool) *ScheduledCallRepository {
	return &ScheduledCallRepository{pool: pool}
}

// CreateScheduledParams describes a deferred call request.
type CreateScheduledParams struct {
	LeadID          *uuid.UUID
	ToNumber        string
	FromNumber      string
	StartTime       time.Time
	EndTime         *time.Time
	OverrideAgentID *string
}

// Create stores a deferred call request in pending state.
func (r *ScheduledCallRepository) Create(ctx context.Context, params CreateScheduledParams) (ScheduledCall, error) {
	var sc ScheduledCall
	err := r.pool.QueryRow(ctx, `
		INSERT INTO scheduled_calls (lead_id, to_number, from_number, start_time, end_time, override_agent_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, lead_id, to_number, from_number, start_time, end_time,
			override_agent_id, status, created_at, fired_at
	`, params.LeadID, params.ToNumber, params.FromNumber, params.StartTime,
		params.EndTime, params.OverrideAgentID).Scan(
		&sc.ID, &sc.LeadID, &sc.ToNumber, &sc.FromNumber, &sc.StartTime, &sc.EndTime,
		&sc.OverrideAgentID, &sc.Status, &sc.CreatedAt, &sc.FiredAt)
	return sc, err
}

// ClaimDue atomically claims pending requests whose start time has passed but
// whose end time (when set) has not. Claimed rows move to fired so concurrent
// pollers never dispatch the same request twice.
func (r *ScheduledCallRepository) ClaimDue(ctx context.Context, now time.Time, limit int) ([]ScheduledCall, error) {
	rows, err := r.pool.Query(ctx, `
		UPDATE scheduled_calls
		SET status = 'fired', fired_at = $1
		WHERE id IN (
			SELECT id FROM scheduled_calls
			WHERE status = 'pending'
				AND start_time <= $1
				AND (end_time IS NULL OR end_time > $1)
			ORDER BY start_time ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, lead_id, to_number, from_number, start_time, end_time,
			override_agent_id, status, created_at, fired_at
	`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claimed []ScheduledCall
	for rows.Next() {
		var sc ScheduledCall
		if err := rows.Scan(&sc.ID, &sc.LeadID, &sc.ToNumber, &sc.FromNumber, &sc.StartTime,
			&sc.EndTime, &sc.OverrideAgentID, &sc.Status, &sc.CreatedAt, &sc.FiredAt); err != nil {
			return nil, err
		}
		claimed = append(claimed, sc)
	}
	return claimed, rows.Err()
}

// ExpireOverdue skips pending requests whose window closed before they were
// dispatched. Returns the number of rows skipped.
func (r *ScheduledCallRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scheduled_calls
		SET status = 'skipped'
		WHERE status = 'pending' AND end_time IS NOT NULL AND end_time <= $1
	`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ListPending returns pending requests ordered by start time, for the admin
// trigger view.
func (r *ScheduledCallRepository) ListPending(ctx context.Context, limit int) ([]ScheduledCall, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, to_number, from_number, start_time, end_time,
			override_agent_id, status, created_at, fired_at
		FROM scheduled_calls
		WHERE status = 'pending'
		ORDER BY start_time ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pending []ScheduledCall
	for rows.Next() {
		var sc ScheduledCall
		if err := rows.Scan(&sc.ID, &sc.LeadID, &sc.ToNumber, &sc.FromNumber, &sc.StartTime,
			&sc.EndTime, &sc.OverrideAgentID, &sc.Status, &sc.CreatedAt, &sc.FiredAt); err != nil {
			return nil, err
		}
		pending = append(pending, sc)
	}
	return pending, rows.Err()
}

package callhistory

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrCallNotFound is returned when no call attempt matches a provider call id.
var ErrCallNotFound = errors.New("call record not found")

// Repository provides data access for call history and last-call pointers.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new call history repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const recordColumns = `id, lead_id, call_id, call_type, agent_id, status, from_number, to_number,
		direction, start_timestamp, end_timestamp, duration_ms, disconnection_reason,
		error_message, transcript, cost, analysis, sentiment, latency, created_at, updated_at`

func scanRecord(row pgx.Row) (CallRecord, error) {
	var rec CallRecord
	err := row.Scan(&rec.ID, &rec.LeadID, &rec.CallID, &rec.CallType, &rec.AgentID, &rec.Status,
		&rec.FromNumber, &rec.ToNumber, &rec.Direction, &rec.StartTimestamp, &rec.EndTimestamp,
		&rec.DurationMs, &rec.DisconnectionReason, &rec.ErrorMessage, &rec.Transcript,
		&rec.Cost, &rec.Analysis, &rec.Sentiment, &rec.Latency, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CallRecord{}, ErrCallNotFound
	}
	return rec, err
}

// DispatchParams describes a freshly originated call attempt.
type DispatchParams struct {
	LeadID         *uuid.UUID
	CallID         string
	CallType       string
	AgentID        *string
	Status         string // pending, or error when the provider rejected the dispatch
	FromNumber     string
	ToNumber       string
	StartTimestamp int64 // epoch milliseconds
	ErrorMessage   *string
}

// RecordDispatch inserts the call attempt and refreshes the lead's last-call
// pointer in one transaction. The row is written before the dispatcher
// reports success so no attempt can be lost between dispatch and persistence.
func (r *Repository) RecordDispatch(ctx context.Context, params DispatchParams) (CallRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return CallRecord{}, err
	}
	defer tx.Rollback(ctx)

	callType := params.CallType
	if callType == "" {
		callType = "outbound_phone_call"
	}

	rec, err := scanRecord(tx.QueryRow(ctx, `
		INSERT INTO call_history (lead_id, call_id, call_type, agent_id, status, from_number,
			to_number, direction, start_timestamp, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'outbound', $8, $9)
		RETURNING `+recordColumns+`
	`, params.LeadID, params.CallID, callType, params.AgentID, params.Status,
		params.FromNumber, params.ToNumber, params.StartTimestamp, params.ErrorMessage))
	if err != nil {
		return CallRecord{}, err
	}

	if err := refreshLastCall(ctx, tx, rec); err != nil {
		return CallRecord{}, err
	}

	return rec, tx.Commit(ctx)
}

// MarkStarted transitions a pending call to ongoing. Events for calls already
// in a terminal state are ignored so late or replayed webhooks cannot regress
// the row.
func (r *Repository) MarkStarted(ctx context.Context, callID string, startTimestamp int64) (CallRecord, error) {
	return r.updateByCallID(ctx, callID, func(current CallRecord) (string, []string, []interface{}) {
		if IsTerminal(current.Status) {
			return "", nil, nil
		}
		return StatusOngoing,
			[]string{"start_timestamp"},
			[]interface{}{startTimestamp}
	})
}

// EndedParams carries the payload of a call_ended provider event.
type EndedParams struct {
	Status              string // ended, or error when the provider reports failure
	EndTimestamp        int64
	DurationMs          int64
	DisconnectionReason *string
	Transcript          *string
	Cost                json.RawMessage
}

// MarkEnded transitions a call to its terminal state. Replaying the same
// event overwrites the row with identical values, making the operation
// idempotent.
func (r *Repository) MarkEnded(ctx context.Context, callID string, params EndedParams) (CallRecord, error) {
	status := params.Status
	if status == "" {
		status = StatusEnded
	}
	return r.updateByCallID(ctx, callID, func(current CallRecord) (string, []string, []interface{}) {
		return status,
			[]string{"end_timestamp", "duration_ms", "disconnection_reason", "transcript", "cost"},
			[]interface{}{params.EndTimestamp, params.DurationMs, params.DisconnectionReason,
				params.Transcript, params.Cost}
	})
}

// MarkError records a terminal failure against a call attempt. Calls that
// already reached a terminal state are left untouched.
func (r *Repository) MarkError(ctx context.Context, callID string, message string) (CallRecord, error) {
	return r.updateByCallID(ctx, callID, func(current CallRecord) (string, []string, []interface{}) {
		if IsTerminal(current.Status) {
			return "", nil, nil
		}
		return StatusError,
			[]string{"error_message"},
			[]interface{}{message}
	})
}

// AnalysisParams carries the payload of a call_analyzed provider event.
type AnalysisParams struct {
	Analysis  json.RawMessage
	Sentiment json.RawMessage
	Latency   json.RawMessage
}

// AttachAnalysis enriches a call row with post-call analysis without changing
// its status.
func (r *Repository) AttachAnalysis(ctx context.Context, callID string, params AnalysisParams) (CallRecord, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx, `
		UPDATE call_history
		SET analysis = $2, sentiment = $3, latency = $4, updated_at = now()
		WHERE call_id = $1
		RETURNING `+recordColumns+`
	`, callID, params.Analysis, params.Sentiment, params.Latency))
	return rec, err
}

// updateByCallID loads the row for update, applies the mutation decided by
// decide, and refreshes the last-call pointer, all in one transaction.
// decide returning an empty status means no-op; the current row is returned.
func (r *Repository) updateByCallID(ctx context.Context, callID string,
	decide func(current CallRecord) (string, []string, []interface{})) (CallRecord, error) {

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return CallRecord{}, err
	}
	defer tx.Rollback(ctx)

	current, err := scanRecord(tx.QueryRow(ctx, `
		SELECT `+recordColumns+` FROM call_history WHERE call_id = $1 FOR UPDATE
	`, callID))
	if err != nil {
		return CallRecord{}, err
	}

	status, cols, vals := decide(current)
	if status == "" {
		return current, tx.Commit(ctx)
	}

	query := `UPDATE call_history SET status = $2, updated_at = now()`
	args := []interface{}{callID, status}
	for i, col := range cols {
		query += `, ` + col + ` = $` + strconv.Itoa(i+3)
		args = append(args, vals[i])
	}
	query += ` WHERE call_id = $1 RETURNING ` + recordColumns

	rec, err := scanRecord(tx.QueryRow(ctx, query, args...))
	if err != nil {
		return CallRecord{}, err
	}

	if err := refreshLastCall(ctx, tx, rec); err != nil {
		return CallRecord{}, err
	}

	return rec, tx.Commit(ctx)
}

// refreshLastCall upserts the lead's last-call pointer. The guard keeps the
// pointer at the lead's chronologically latest attempt: older attempts never
// overwrite a newer one, while status updates for the pointed-at call always
// land.
func refreshLastCall(ctx context.Context, tx pgx.Tx, rec CallRecord) error {
	if rec.LeadID == nil {
		return nil
	}

	var ts int64
	if rec.StartTimestamp != nil {
		ts = *rec.StartTimestamp
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO last_calls (lead_id, call_id, status, call_timestamp)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (lead_id) DO UPDATE SET
			call_id = EXCLUDED.call_id,
			status = EXCLUDED.status,
			call_timestamp = EXCLUDED.call_timestamp,
			updated_at = now()
		WHERE last_calls.call_timestamp <= EXCLUDED.call_timestamp
			OR last_calls.call_id = EXCLUDED.call_id
	`, rec.LeadID, rec.CallID, rec.Status, ts)
	return err
}

// GetByCallID retrieves a call attempt by its provider call id.
func (r *Repository) GetByCallID(ctx context.Context, callID string) (CallRecord, error) {
	return scanRecord(r.pool.QueryRow(ctx, `
		SELECT `+recordColumns+` FROM call_history WHERE call_id = $1
	`, callID))
}

// ListByLead returns a lead's call attempts, most recent first.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]CallRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+recordColumns+`
		FROM call_history
		WHERE lead_id = $1
		ORDER BY start_timestamp DESC NULLS LAST, created_at DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []CallRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetLastCall returns the lead's last-call pointer.
func (r *Repository) GetLastCall(ctx context.Context, leadID uuid.UUID) (LastCall, error) {
	var lc LastCall
	err := r.pool.QueryRow(ctx, `
		SELECT lead_id, call_id, status, call_timestamp, updated_at
		FROM last_calls WHERE lead_id = $1
	`, leadID).Scan(&lc.LeadID, &lc.CallID, &lc.Status, &lc.Timestamp, &lc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return LastCall{}, ErrCallNotFound
	}
	return lc, err
}

// CountForNumberBetween counts call attempts originated from a number inside
// [from, to). The daily cap check reads this count so concurrent ticks see
// every committed dispatch.
func (r *Repository) CountForNumberBetween(ctx context.Context, fromNumber string, from, to time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM call_history
		WHERE from_number = $1 AND created_at >= $2 AND created_at < $3
	`, fromNumber, from, to).Scan(&count)
	return count, err
}

// LegacyRecordParams describes one entry converted from a lead's embedded
// call-history blob.
type LegacyRecordParams struct {
	LeadID              uuid.UUID
	CallID              string
	CallType            string
	AgentID             *string
	Status              string
	FromNumber          string
	ToNumber            string
	StartTimestamp      *int64
	EndTimestamp        *int64
	DurationMs          *int64
	DisconnectionReason *string
	Transcript          *string
}

// InsertLegacy inserts a migrated call row, skipping call ids that already
// exist, and refreshes the last-call pointer. Returns false when the row was
// already present.
func (r *Repository) InsertLegacy(ctx context.Context, params LegacyRecordParams) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	callType := params.CallType
	if callType == "" {
		callType = "outbound_phone_call"
	}

	rec, err := scanRecord(tx.QueryRow(ctx, `
		INSERT INTO call_history (lead_id, call_id, call_type, agent_id, status, from_number,
			to_number, direction, start_timestamp, end_timestamp, duration_ms,
			disconnection_reason, transcript)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'outbound', $8, $9, $10, $11, $12)
		ON CONFLICT (call_id) WHERE call_id IS NOT NULL DO NOTHING
		RETURNING `+recordColumns+`
	`, params.LeadID, params.CallID, callType, params.AgentID, params.Status,
		params.FromNumber, params.ToNumber, params.StartTimestamp, params.EndTimestamp,
		params.DurationMs, params.DisconnectionReason, params.Transcript))
	if errors.Is(err, ErrCallNotFound) {
		// Conflict: the record was migrated in a previous run.
		return false, tx.Commit(ctx)
	}
	if err != nil {
		return false, err
	}

	if err := refreshLastCall(ctx, tx, rec); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

package callhistory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"dialdesk_backend/platform/logger"

	"dialdesk_backend/internal/leads"
)

// legacyCall mirrors one entry of the call-history blob the old system stored
// inline on each lead.
type legacyCall struct {
	CallID              string  `json:"call_id"`
	CallType            string  `json:"call_type"`
	AgentID             *string `json:"agent_id"`
	CallStatus          string  `json:"call_status"`
	FromNumber          string  `json:"from_number"`
	ToNumber            string  `json:"to_number"`
	StartTimestamp      *int64  `json:"start_timestamp"`
	EndTimestamp        *int64  `json:"end_timestamp"`
	DurationMs          *int64  `json:"duration_ms"`
	DisconnectionReason *string `json:"disconnection_reason"`
	Transcript          *string `json:"transcript"`
}

// LegacySource is the slice of the lead store the migrator needs.
type LegacySource interface {
	ListLegacyPending(ctx context.Context, limit int) ([]leads.LegacyLead, error)
	MarkLegacyMigrated(ctx context.Context, id uuid.UUID) error
}

// LegacySink receives converted call rows.
type LegacySink interface {
	InsertLegacy(ctx context.Context, params LegacyRecordParams) (bool, error)
}

// Report summarizes one migration run.
type Report struct {
	LeadsProcessed int
	RecordsCreated int
	Failures       []string
}

// Migrator converts embedded per-lead call blobs into normalized call history
// rows. Runs are idempotent: migrated leads carry a marker and duplicate call
// ids are skipped on insert.
type Migrator struct {
	source LegacySource
	sink   LegacySink
	logger *logger.Logger
}

// NewMigrator creates a legacy call data migrator.
func NewMigrator(source LegacySource, sink LegacySink, log *logger.Logger) *Migrator {
	return &Migrator{source: source, sink: sink, logger: log}
}

const migrationBatchSize = 200

// Run migrates all pending leads. A failure on one lead is recorded in the
// report and does not stop the run; the failed lead keeps its blob and its
// pending marker so the next run retries it.
func (m *Migrator) Run(ctx context.Context) (Report, error) {
	var report Report
	for {
		batch, err := m.source.ListLegacyPending(ctx, migrationBatchSize)
		if err != nil {
			return report, err
		}
		if len(batch) == 0 {
			return report, nil
		}
		batchFailures := 0
		for _, lead := range batch {
			created, err := m.migrateLead(ctx, lead)
			report.LeadsProcessed++
			report.RecordsCreated += created
			if err != nil {
				batchFailures++
				m.logger.MigrationFailure(lead.ID.String(), err)
				report.Failures = append(report.Failures,
					fmt.Sprintf("lead %s: %v", lead.ID, err))
			}
		}
		if len(batch) < migrationBatchSize {
			return report, nil
		}
		// Failed leads keep their pending marker; stop rather than refetch
		// the same all-failing batch forever.
		if batchFailures == len(batch) {
			return report, nil
		}
	}
}

func (m *Migrator) migrateLead(ctx context.Context, lead leads.LegacyLead) (int, error) {
	var calls []legacyCall
	if err := json.Unmarshal(lead.CallData, &calls); err != nil {
		return 0, fmt.Errorf("decode call data: %w", err)
	}

	created := 0
	for i, call := range calls {
		callID := call.CallID
		if callID == "" {
			// The oldest blobs predate provider call ids. Synthesized ids
			// are deterministic so a retried lead still dedupes on insert.
			callID = fmt.Sprintf("legacy-%s-%d", lead.ID, i)
		}
		status := call.CallStatus
		if !IsTerminal(status) {
			// Legacy data predates live tracking; anything non-terminal
			// there is a dangling attempt.
			status = StatusError
		}
		inserted, err := m.sink.InsertLegacy(ctx, LegacyRecordParams{
			LeadID:              lead.ID,
			CallID:              callID,
			CallType:            call.CallType,
			AgentID:             call.AgentID,
			Status:              status,
			FromNumber:          call.FromNumber,
			ToNumber:            call.ToNumber,
			StartTimestamp:      call.StartTimestamp,
			EndTimestamp:        call.EndTimestamp,
			DurationMs:          call.DurationMs,
			DisconnectionReason: call.DisconnectionReason,
			Transcript:          call.Transcript,
		})
		if err != nil {
			return created, fmt.Errorf("entry %d (%s): %w", i, callID, err)
		}
		if inserted {
			created++
		}
	}

	if err := m.source.MarkLegacyMigrated(ctx, lead.ID); err != nil {
		return created, fmt.Errorf("mark migrated: %w", err)
	}
	return created, nil
}

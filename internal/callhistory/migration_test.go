package callhistory

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"dialdesk_backend/platform/logger"

	"dialdesk_backend/internal/leads"
)

type fakeLegacySource struct {
	pending  []leads.LegacyLead
	migrated map[uuid.UUID]bool
}

func (f *fakeLegacySource) ListLegacyPending(_ context.Context, limit int) ([]leads.LegacyLead, error) {
	var out []leads.LegacyLead
	for _, l := range f.pending {
		if !f.migrated[l.ID] {
			out = append(out, l)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeLegacySource) MarkLegacyMigrated(_ context.Context, id uuid.UUID) error {
	if f.migrated == nil {
		f.migrated = map[uuid.UUID]bool{}
	}
	f.migrated[id] = true
	return nil
}

type fakeLegacySink struct {
	seen map[string]LegacyRecordParams
}

func (f *fakeLegacySink) InsertLegacy(_ context.Context, params LegacyRecordParams) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]LegacyRecordParams{}
	}
	if _, dup := f.seen[params.CallID]; dup {
		return false, nil
	}
	f.seen[params.CallID] = params
	return true, nil
}

func legacyBlob(t *testing.T, calls []legacyCall) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(calls)
	if err != nil {
		t.Fatalf("marshal blob: %v", err)
	}
	return data
}

func TestMigratorConvertsPendingLeads(t *testing.T) {
	leadID := uuid.New()
	source := &fakeLegacySource{pending: []leads.LegacyLead{{
		ID: leadID,
		CallData: legacyBlob(t, []legacyCall{
			{CallID: "legacy-1", CallStatus: "ended", ToNumber: "+12025550123"},
			{CallID: "legacy-2", CallStatus: "error"},
		}),
	}}}
	sink := &fakeLegacySink{}

	report, err := NewMigrator(source, sink, logger.New("development")).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.LeadsProcessed != 1 || report.RecordsCreated != 2 {
		t.Fatalf("report = %+v, want 1 lead / 2 records", report)
	}
	if len(report.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", report.Failures)
	}
	if !source.migrated[leadID] {
		t.Error("lead should carry the migrated marker")
	}
	if sink.seen["legacy-1"].LeadID != leadID {
		t.Error("converted record should reference the source lead")
	}
}

func TestMigratorSecondRunIsNoOp(t *testing.T) {
	leadID := uuid.New()
	source := &fakeLegacySource{pending: []leads.LegacyLead{{
		ID:       leadID,
		CallData: legacyBlob(t, []legacyCall{{CallID: "legacy-1", CallStatus: "ended"}}),
	}}}
	sink := &fakeLegacySink{}
	migrator := NewMigrator(source, sink, logger.New("development"))

	if _, err := migrator.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	report, err := migrator.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if report.LeadsProcessed != 0 || report.RecordsCreated != 0 {
		t.Fatalf("second run should be a no-op, got %+v", report)
	}
}

func TestMigratorNonTerminalStatusBecomesError(t *testing.T) {
	source := &fakeLegacySource{pending: []leads.LegacyLead{{
		ID:       uuid.New(),
		CallData: legacyBlob(t, []legacyCall{{CallID: "legacy-1", CallStatus: "ongoing"}}),
	}}}
	sink := &fakeLegacySink{}

	if _, err := NewMigrator(source, sink, logger.New("development")).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sink.seen["legacy-1"].Status != StatusError {
		t.Errorf("status = %q, want error for dangling legacy attempts", sink.seen["legacy-1"].Status)
	}
}

func TestMigratorIsolatesPerLeadFailures(t *testing.T) {
	good := uuid.New()
	bad := uuid.New()
	source := &fakeLegacySource{pending: []leads.LegacyLead{
		{ID: bad, CallData: json.RawMessage(`not json`)},
		{ID: good, CallData: legacyBlob(t, []legacyCall{{CallID: "legacy-9", CallStatus: "ended"}})},
	}}
	sink := &fakeLegacySink{}

	report, err := NewMigrator(source, sink, logger.New("development")).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.LeadsProcessed != 2 || report.RecordsCreated != 1 {
		t.Fatalf("report = %+v, want 2 leads / 1 record", report)
	}
	if len(report.Failures) != 1 {
		t.Fatalf("failures = %v, want one entry", report.Failures)
	}
	if source.migrated[bad] {
		t.Error("failed lead must keep its pending marker for retry")
	}
	if !source.migrated[good] {
		t.Error("healthy lead should be migrated despite a sibling failure")
	}
}

func TestMigratorSynthesizesMissingCallID(t *testing.T) {
	leadID := uuid.New()
	source := &fakeLegacySource{pending: []leads.LegacyLead{{
		ID:       leadID,
		CallData: legacyBlob(t, []legacyCall{{CallStatus: "ended", ToNumber: "+12025550123"}}),
	}}}
	sink := &fakeLegacySink{}

	report, err := NewMigrator(source, sink, logger.New("development")).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.RecordsCreated != 1 || len(report.Failures) != 0 {
		t.Fatalf("report = %+v, want one record and no failures", report)
	}
	if !source.migrated[leadID] {
		t.Error("lead should carry the migrated marker")
	}
	want := fmt.Sprintf("legacy-%s-0", leadID)
	if _, ok := sink.seen[want]; !ok {
		t.Errorf("synthesized call id %q was not inserted", want)
	}

	// A retried lead replays the same synthesized id and dedupes.
	source.migrated = nil
	report, err = NewMigrator(source, sink, logger.New("development")).Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if report.RecordsCreated != 0 {
		t.Errorf("retried lead created %d records, want 0", report.RecordsCreated)
	}
}

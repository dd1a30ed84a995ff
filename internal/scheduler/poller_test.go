package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"dialdesk_backend/platform/logger"

	"dialdesk_backend/internal/dialer"
)

type fakeScheduledStore struct {
	due     []dialer.ScheduledCall
	expired int64
}

func (f *fakeScheduledStore) ClaimDue(_ context.Context, _ time.Time, limit int) ([]dialer.ScheduledCall, error) {
	claimed := f.due
	if len(claimed) > limit {
		claimed = claimed[:limit]
	}
	f.due = f.due[len(claimed):]
	return claimed, nil
}

func (f *fakeScheduledStore) ExpireOverdue(_ context.Context, _ time.Time) (int64, error) {
	return f.expired, nil
}

func TestPollerDispatchesDueCalls(t *testing.T) {
	leadID := uuid.New()
	agent := "agent-special"
	store := &fakeScheduledStore{due: []dialer.ScheduledCall{{
		ID:              uuid.New(),
		LeadID:          &leadID,
		ToNumber:        "+12025550123",
		FromNumber:      "+12025550100",
		OverrideAgentID: &agent,
	}}}
	disp := &fakeDispatcher{}

	p := NewDueCallPoller(store, disp, logger.New("development"), time.Second)
	p.poll(context.Background())

	if len(disp.placed) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(disp.placed))
	}
	placed := disp.placed[0]
	if placed.AgentID != agent {
		t.Errorf("agent = %q, want the override", placed.AgentID)
	}
	if placed.LeadID == nil || *placed.LeadID != leadID {
		t.Error("dispatch should carry the lead id")
	}

	// The queue is drained; another poll is a no-op.
	p.poll(context.Background())
	if len(disp.placed) != 1 {
		t.Error("second poll must not redispatch claimed calls")
	}
}

func TestPollerContinuesAfterDispatchFailure(t *testing.T) {
	bad := uuid.New()
	good := uuid.New()
	store := &fakeScheduledStore{due: []dialer.ScheduledCall{
		{ID: uuid.New(), LeadID: &bad, ToNumber: "+12025550123"},
		{ID: uuid.New(), LeadID: &good, ToNumber: "+12025550124"},
	}}
	disp := &fakeDispatcher{failFor: map[uuid.UUID]error{bad: context.DeadlineExceeded}}

	p := NewDueCallPoller(store, disp, logger.New("development"), time.Second)
	p.poll(context.Background())

	if len(disp.placed) != 1 {
		t.Fatalf("expected the healthy call to dispatch, got %d", len(disp.placed))
	}
	if *disp.placed[0].LeadID != good {
		t.Error("wrong call dispatched")
	}
}

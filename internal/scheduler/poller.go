package scheduler

import (
	"context"
	"time"

	"dialdesk_backend/platform/logger"

	"dialdesk_backend/internal/dialer"
)

// ScheduledCallStore is the slice of the deferred call store the poller needs.
type ScheduledCallStore interface {
	ClaimDue(ctx context.Context, now time.Time, limit int) ([]dialer.ScheduledCall, error)
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

// DueCallPoller drains the deferred call queue. Requests whose window closed
// before dispatch are expired, not called.
type DueCallPoller struct {
	store      ScheduledCallStore
	dispatcher CallDispatcher
	logger     *logger.Logger
	interval   time.Duration
}

// NewDueCallPoller creates a poller over the deferred call queue.
func NewDueCallPoller(store ScheduledCallStore, dispatcher CallDispatcher,
	log *logger.Logger, interval time.Duration) *DueCallPoller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &DueCallPoller{
		store:      store,
		dispatcher: dispatcher,
		logger:     log,
		interval:   interval,
	}
}

const dueClaimLimit = 50

// Run polls until the context is cancelled.
func (p *DueCallPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *DueCallPoller) poll(ctx context.Context) {
	now := time.Now()

	skipped, err := p.store.ExpireOverdue(ctx, now)
	if err != nil {
		p.logger.DatabaseError("expire overdue scheduled calls", err)
	} else if skipped > 0 {
		p.logger.Info("expired scheduled calls", "count", skipped)
	}

	due, err := p.store.ClaimDue(ctx, now, dueClaimLimit)
	if err != nil {
		p.logger.DatabaseError("claim due scheduled calls", err)
		return
	}

	for _, sc := range due {
		agentID := ""
		if sc.OverrideAgentID != nil {
			agentID = *sc.OverrideAgentID
		}
		_, err := p.dispatcher.PlaceCall(ctx, dialer.PlaceCallParams{
			LeadID:     sc.LeadID,
			ToNumber:   sc.ToNumber,
			FromNumber: sc.FromNumber,
			AgentID:    agentID,
		})
		if err != nil {
			p.logger.DispatchError("scheduled", sc.ToNumber, err)
		}
	}
}

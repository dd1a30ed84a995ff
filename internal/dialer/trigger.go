package dialer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"dialdesk_backend/platform/apperr"
	"dialdesk_backend/platform/logger"

	"dialdesk_backend/internal/leads"
)

// Dispatch modes for triggers that carry no explicit start time.
const (
	ModeImmediate = "immediate"
	ModeDeferred  = "deferred"
)

// TriggerLeadSource is the slice of the lead store triggers need.
type TriggerLeadSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (leads.Lead, error)
	ListUncontacted(ctx context.Context, limit int) ([]leads.Lead, error)
}

// ScheduledCallCreator parks a call request for later dispatch.
type ScheduledCallCreator interface {
	Create(ctx context.Context, params CreateScheduledParams) (ScheduledCall, error)
}

// Trigger handles manual call requests from the admin API. Depending on the
// requested start time the calls are either placed immediately or parked in
// the scheduled queue for the due-call poller.
type Trigger struct {
	svc       *Service
	leads     TriggerLeadSource
	scheduled ScheduledCallCreator
	logger    *logger.Logger

	defaultMode       string
	defaultFromNumber string
}

// NewTrigger creates a manual trigger processor.
func NewTrigger(svc *Service, leadSource TriggerLeadSource, scheduled ScheduledCallCreator,
	log *logger.Logger, defaultMode, defaultFromNumber string) *Trigger {
	return &Trigger{
		svc:               svc,
		leads:             leadSource,
		scheduled:         scheduled,
		logger:            log,
		defaultMode:       defaultMode,
		defaultFromNumber: defaultFromNumber,
	}
}

// TriggerParams describes a manual call request. Exactly one of LeadID,
// ToNumber, and All selects the targets; ToNumber places an ad-hoc call with
// no lead attached.
type TriggerParams struct {
	LeadID          *uuid.UUID
	ToNumber        string
	All             bool
	StartTime       *time.Time
	EndTime         *time.Time
	OverrideAgentID *string
}

// TriggerResult summarizes what a trigger did.
type TriggerResult struct {
	Dispatched int      `json:"dispatched"`
	Scheduled  int      `json:"scheduled"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors,omitempty"`
}

const triggerAllLimit = 500

// Run processes a manual trigger. A per-lead failure is counted and does not
// abort the remaining targets.
func (t *Trigger) Run(ctx context.Context, params TriggerParams) (TriggerResult, error) {
	if params.StartTime != nil && params.EndTime != nil && !params.EndTime.After(*params.StartTime) {
		return TriggerResult{}, apperr.Validation("end time must be later than start time")
	}

	targets, err := t.resolveTargets(ctx, params)
	if err != nil {
		return TriggerResult{}, err
	}

	now := time.Now()
	if params.EndTime != nil && params.EndTime.Before(now) {
		// The requested window already closed; missed calls are skipped,
		// never placed late.
		return TriggerResult{Skipped: len(targets)}, nil
	}

	deferred := params.StartTime != nil && params.StartTime.After(now)
	if params.StartTime == nil && t.defaultMode == ModeDeferred {
		// No explicit start time in deferred mode: queue for the next poll.
		start := now
		params.StartTime = &start
		deferred = true
	}

	var result TriggerResult
	for _, target := range targets {
		if deferred {
			if err := t.schedule(ctx, target, params); err != nil {
				result.Errors = append(result.Errors, err.Error())
				continue
			}
			result.Scheduled++
			continue
		}

		agentID := ""
		if params.OverrideAgentID != nil {
			agentID = *params.OverrideAgentID
		}
		_, err := t.svc.PlaceCall(ctx, PlaceCallParams{
			LeadID:   target.leadID,
			ToNumber: target.toNumber,
			AgentID:  agentID,
		})
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Dispatched++
	}

	return result, nil
}

// callTarget is one destination of a trigger; leadID is nil for ad-hoc
// numbers.
type callTarget struct {
	leadID   *uuid.UUID
	toNumber string
}

func leadTarget(l leads.Lead) callTarget {
	id := l.ID
	return callTarget{leadID: &id, toNumber: l.Phone}
}

func (t *Trigger) resolveTargets(ctx context.Context, params TriggerParams) ([]callTarget, error) {
	switch {
	case params.LeadID != nil:
		lead, err := t.leads.GetByID(ctx, *params.LeadID)
		if err == leads.ErrNotFound {
			return nil, apperr.NotFound("lead not found")
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
		}
		return []callTarget{leadTarget(lead)}, nil
	case params.ToNumber != "":
		return []callTarget{{toNumber: params.ToNumber}}, nil
	case params.All:
		pool, err := t.leads.ListUncontacted(ctx, triggerAllLimit)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
		}
		targets := make([]callTarget, 0, len(pool))
		for _, lead := range pool {
			targets = append(targets, leadTarget(lead))
		}
		return targets, nil
	default:
		return nil, apperr.Validation("one of leadId, toNumber, or all must be set")
	}
}

func (t *Trigger) schedule(ctx context.Context, target callTarget, params TriggerParams) error {
	_, err := t.scheduled.Create(ctx, CreateScheduledParams{
		LeadID:          target.leadID,
		ToNumber:        target.toNumber,
		FromNumber:      t.defaultFromNumber,
		StartTime:       *params.StartTime,
		EndTime:         params.EndTime,
		OverrideAgentID: params.OverrideAgentID,
	})
	return err
}

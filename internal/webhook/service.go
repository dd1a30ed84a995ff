// Package webhook ingests provider call lifecycle events and reconciles them
// into call history. Events arrive at-least-once and possibly out of order;
// the reconciler is idempotent and never lets a late event regress a call
// that already reached a terminal state.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"dialdesk_backend/platform/logger"

	"dialdesk_backend/internal/callhistory"
	"dialdesk_backend/internal/events"
	"dialdesk_backend/internal/voice"
)

// CallStore is the slice of the call history store the reconciler needs.
type CallStore interface {
	MarkStarted(ctx context.Context, callID string, startTimestamp int64) (callhistory.CallRecord, error)
	MarkEnded(ctx context.Context, callID string, params callhistory.EndedParams) (callhistory.CallRecord, error)
	MarkError(ctx context.Context, callID string, message string) (callhistory.CallRecord, error)
	AttachAnalysis(ctx context.Context, callID string, params callhistory.AnalysisParams) (callhistory.CallRecord, error)
}

// LeadStore updates lead state as the call lifecycle progresses.
type LeadStore interface {
	MarkContacted(ctx context.Context, id uuid.UUID, status string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// Reconciler applies provider events to the call history.
type Reconciler struct {
	calls  CallStore
	leads  LeadStore
	bus    events.Bus
	logger *logger.Logger
}

// NewReconciler creates a webhook reconciler.
func NewReconciler(calls CallStore, leads LeadStore, bus events.Bus, log *logger.Logger) *Reconciler {
	return &Reconciler{calls: calls, leads: leads, bus: bus, logger: log}
}

// Apply reconciles one provider event. Events for unknown call ids are logged
// and dropped without error: the provider retries on non-2xx responses, and a
// call this system never placed will not become known by retrying.
func (r *Reconciler) Apply(ctx context.Context, evt *voice.Event) error {
	var err error
	switch evt.Event {
	case voice.EventCallStarted:
		err = r.applyStarted(ctx, evt)
	case voice.EventCallEnded:
		err = r.applyEnded(ctx, evt)
	case voice.EventCallAnalyzed:
		err = r.applyAnalyzed(ctx, evt)
	default:
		r.logger.WebhookDropped(evt.Event, evt.Call.CallID, "unknown event type")
		return nil
	}

	if errors.Is(err, callhistory.ErrCallNotFound) {
		r.logger.WebhookDropped(evt.Event, evt.Call.CallID, "unknown call id")
		return nil
	}
	return err
}

func (r *Reconciler) applyStarted(ctx context.Context, evt *voice.Event) error {
	rec, err := r.calls.MarkStarted(ctx, evt.Call.CallID, evt.Call.StartTimestamp)
	if err != nil {
		return err
	}
	// A late start event for an already-concluded call must not regress the
	// lead's status.
	if rec.LeadID != nil && rec.Status == callhistory.StatusOngoing {
		if err := r.leads.UpdateStatus(ctx, *rec.LeadID, "in_progress"); err != nil {
			return fmt.Errorf("update lead status: %w", err)
		}
	}
	return nil
}

func (r *Reconciler) applyEnded(ctx context.Context, evt *voice.Event) error {
	status := callhistory.StatusEnded
	leadStatus := "called"
	if evt.Call.CallStatus == "error" {
		status = callhistory.StatusError
		leadStatus = "error"
	}

	var reason, transcript *string
	if evt.Call.DisconnectionReason != "" {
		reason = &evt.Call.DisconnectionReason
	}
	if evt.Call.Transcript != "" {
		transcript = &evt.Call.Transcript
	}

	rec, err := r.calls.MarkEnded(ctx, evt.Call.CallID, callhistory.EndedParams{
		Status:              status,
		EndTimestamp:        evt.Call.EndTimestamp,
		DurationMs:          evt.Call.DurationMs,
		DisconnectionReason: reason,
		Transcript:          transcript,
		Cost:                evt.Call.CallCost,
	})
	if err != nil {
		return err
	}

	if rec.LeadID != nil {
		if err := r.leads.MarkContacted(ctx, *rec.LeadID, leadStatus); err != nil {
			return fmt.Errorf("mark lead contacted: %w", err)
		}
		if r.bus != nil {
			r.bus.Publish(ctx, events.LeadContacted{
				BaseEvent: events.NewBaseEvent(),
				LeadID:    *rec.LeadID,
				Status:    leadStatus,
			})
		}
	}

	if r.bus != nil {
		r.bus.Publish(ctx, events.CallEnded{
			BaseEvent:           events.NewBaseEvent(),
			LeadID:              rec.LeadID,
			CallID:              evt.Call.CallID,
			Status:              rec.Status,
			DurationMs:          evt.Call.DurationMs,
			DisconnectionReason: evt.Call.DisconnectionReason,
		})
	}
	return nil
}

func (r *Reconciler) applyAnalyzed(ctx context.Context, evt *voice.Event) error {
	_, err := r.calls.AttachAnalysis(ctx, evt.Call.CallID, callhistory.AnalysisParams{
		Analysis:  evt.Call.CallAnalysis,
		Sentiment: extractSentiment(evt.Call.CallAnalysis),
		Latency:   evt.Call.LatencyStats,
	})
	return err
}

// extractSentiment pulls the user sentiment label out of the analysis blob
// so list views can filter on it without unpacking the full analysis.
func extractSentiment(analysis json.RawMessage) json.RawMessage {
	if len(analysis) == 0 {
		return nil
	}
	var partial struct {
		UserSentiment json.RawMessage `json:"user_sentiment"`
	}
	if err := json.Unmarshal(analysis, &partial); err != nil {
		return nil
	}
	return partial.UserSentiment
}

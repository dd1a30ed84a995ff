package webhook

import (
	"context"
	"errors"

	"dialdesk_backend/platform/apperr"

	"dialdesk_backend/internal/callhistory"
	"dialdesk_backend/internal/voice"
)

// CallFetcher is the slice of the voice client refresh needs.
type CallFetcher interface {
	GetCall(ctx context.Context, callID string) (*voice.Call, error)
}

// Refresh pulls the provider's current state for a call and reconciles it as
// if the matching events had been delivered. Used when a webhook delivery was
// missed and a call is stuck in a non-terminal state.
func (r *Reconciler) Refresh(ctx context.Context, provider CallFetcher, callID string) error {
	call, err := provider.GetCall(ctx, callID)
	if apperr.Is(err, apperr.KindNotFound) {
		// The provider no longer knows the call. Close out the local row so
		// it does not sit in a non-terminal state forever.
		_, markErr := r.calls.MarkError(ctx, callID, "call not found at provider")
		if errors.Is(markErr, callhistory.ErrCallNotFound) {
			return apperr.NotFound("unknown call id")
		}
		return markErr
	}
	if err != nil {
		return apperr.Wrap(apperr.KindUpstream, "failed to fetch call from provider", err)
	}

	var evts []*voice.Event
	switch call.CallStatus {
	case "ongoing":
		evts = append(evts, &voice.Event{Event: voice.EventCallStarted, Call: *call})
	case "ended", "error":
		evts = append(evts, &voice.Event{Event: voice.EventCallEnded, Call: *call})
		if len(call.CallAnalysis) > 0 {
			evts = append(evts, &voice.Event{Event: voice.EventCallAnalyzed, Call: *call})
		}
	default:
		// registered but not yet started; nothing to reconcile
		return nil
	}

	for _, evt := range evts {
		if err := r.Apply(ctx, evt); err != nil {
			return err
		}
	}
	return nil
}

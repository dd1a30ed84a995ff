package voice

import (
	"encoding/json"
	"fmt"
)

// Provider webhook event types.
const (
	EventCallStarted  = "call_started"
	EventCallEnded    = "call_ended"
	EventCallAnalyzed = "call_analyzed"
)

// Event is the provider's webhook envelope: an event type plus the call
// object as of that moment.
type Event struct {
	Event string `json:"event"`
	Call  Call   `json:"call"`
}

// ParseEvent decodes a webhook payload and checks the fields every event
// must carry. Event types outside the known set are accepted here; the
// reconciler decides what to do with them.
func ParseEvent(payload []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, fmt.Errorf("decode webhook payload: %w", err)
	}
	if evt.Event == "" {
		return nil, fmt.Errorf("webhook payload has no event type")
	}
	if evt.Call.CallID == "" {
		return nil, fmt.Errorf("webhook payload has no call id")
	}
	return &evt, nil
}

// LeadID extracts the lead id the dialer attached to the call at origination.
// Empty when the call was not placed by this system.
func (e *Event) LeadID() string {
	return e.Call.Metadata["lead_id"]
}

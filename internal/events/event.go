// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"dialdesk_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Dialer Domain Events
// =============================================================================

// CallDispatched is published when a call attempt has been recorded,
// whether the provider accepted it or not.
type CallDispatched struct {
	BaseEvent
	LeadID     *uuid.UUID `json:"leadId,omitempty"`
	CallID     string     `json:"callId"`
	JobName    string     `json:"jobName,omitempty"`
	FromNumber string     `json:"fromNumber"`
	ToNumber   string     `json:"toNumber"`
	Status     string     `json:"status"`
}

func (e CallDispatched) EventName() string { return "dialer.call.dispatched" }

// CallEnded is published when the provider reports a call has reached a
// terminal state. Downstream collaborators (CRM sync, SMS follow-up) subscribe.
type CallEnded struct {
	BaseEvent
	LeadID             *uuid.UUID `json:"leadId,omitempty"`
	CallID             string     `json:"callId"`
	Status             string     `json:"status"`
	DurationMs         int64      `json:"durationMs"`
	DisconnectionReason string    `json:"disconnectionReason,omitempty"`
}

func (e CallEnded) EventName() string { return "dialer.call.ended" }

// LeadContacted is published when a lead transitions to contacted.
type LeadContacted struct {
	BaseEvent
	LeadID uuid.UUID `json:"leadId"`
	Status string    `json:"status"`
}

func (e LeadContacted) EventName() string { return "leads.lead.contacted" }

// Package callhistory persists call attempts. It maintains two views from a
// single write path: the append-only call_history table and the denormalized
// last_calls pointer used by list views. Every write that could change a
// lead's most recent call refreshes the pointer in the same transaction.
package callhistory

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Call lifecycle statuses.
const (
	StatusPending = "pending"
	StatusOngoing = "ongoing"
	StatusEnded   = "ended"
	StatusError   = "error"
)

// IsTerminal reports whether a status permits no further transitions.
func IsTerminal(status string) bool {
	return status == StatusEnded || status == StatusError
}

// CallRecord is one call attempt. Rows are never deleted; non-terminal rows
// are updated in place as provider events arrive.
type CallRecord struct {
	ID                  uuid.UUID
	LeadID              *uuid.UUID
	CallID              *string
	CallType            string
	AgentID             *string
	Status              string
	FromNumber          string
	ToNumber            string
	Direction           string
	StartTimestamp      *int64
	EndTimestamp        *int64
	DurationMs          *int64
	DisconnectionReason *string
	ErrorMessage        *string
	Transcript          *string
	Cost                json.RawMessage
	Analysis            json.RawMessage
	Sentiment           json.RawMessage
	Latency             json.RawMessage
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// LastCall caches the most recent call attempt per lead.
type LastCall struct {
	LeadID    uuid.UUID
	CallID    *string
	Status    string
	Timestamp int64
	UpdatedAt time.Time
}

package callhistory

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dialdesk_backend/platform/apperr"
	"dialdesk_backend/platform/httpkit"
)

// Handler serves read access to a lead's call history.
type Handler struct {
	repo *Repository
}

// NewHandler creates a new call history handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// CallResponse is the API shape of one call attempt.
type CallResponse struct {
	ID                  uuid.UUID       `json:"id"`
	LeadID              *uuid.UUID      `json:"leadId,omitempty"`
	CallID              *string         `json:"callId,omitempty"`
	CallType            string          `json:"callType"`
	AgentID             *string         `json:"agentId,omitempty"`
	Status              string          `json:"status"`
	FromNumber          string          `json:"fromNumber"`
	ToNumber            string          `json:"toNumber"`
	Direction           string          `json:"direction"`
	StartTimestamp      *int64          `json:"startTimestamp,omitempty"`
	EndTimestamp        *int64          `json:"endTimestamp,omitempty"`
	DurationMs          *int64          `json:"durationMs,omitempty"`
	DisconnectionReason *string         `json:"disconnectionReason,omitempty"`
	ErrorMessage        *string         `json:"errorMessage,omitempty"`
	Transcript          *string         `json:"transcript,omitempty"`
	Cost                json.RawMessage `json:"cost,omitempty"`
	Analysis            json.RawMessage `json:"analysis,omitempty"`
	Sentiment           json.RawMessage `json:"sentiment,omitempty"`
	Latency             json.RawMessage `json:"latency,omitempty"`
}

func toCallResponse(rec CallRecord) CallResponse {
	return CallResponse{
		ID:                  rec.ID,
		LeadID:              rec.LeadID,
		CallID:              rec.CallID,
		CallType:            rec.CallType,
		AgentID:             rec.AgentID,
		Status:              rec.Status,
		FromNumber:          rec.FromNumber,
		ToNumber:            rec.ToNumber,
		Direction:           rec.Direction,
		StartTimestamp:      rec.StartTimestamp,
		EndTimestamp:        rec.EndTimestamp,
		DurationMs:          rec.DurationMs,
		DisconnectionReason: rec.DisconnectionReason,
		ErrorMessage:        rec.ErrorMessage,
		Transcript:          rec.Transcript,
		Cost:                rec.Cost,
		Analysis:            rec.Analysis,
		Sentiment:           rec.Sentiment,
		Latency:             rec.Latency,
	}
}

// LastCallResponse is the API shape of the last-call pointer.
type LastCallResponse struct {
	LeadID    uuid.UUID `json:"leadId"`
	CallID    *string   `json:"callId,omitempty"`
	Status    string    `json:"status"`
	Timestamp int64     `json:"timestamp"`
}

// HandleListByLead returns a lead's call attempts, most recent first.
// GET /api/v1/leads/:id/calls
func (h *Handler) HandleListByLead(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	records, err := h.repo.ListByLead(c.Request.Context(), leadID)
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "failed to list calls", err))
		return
	}

	resp := make([]CallResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toCallResponse(rec))
	}
	httpkit.OK(c, resp)
}

// HandleGetLastCall returns a lead's last-call pointer.
// GET /api/v1/leads/:id/last-call
func (h *Handler) HandleGetLastCall(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid lead id", nil)
		return
	}

	lc, err := h.repo.GetLastCall(c.Request.Context(), leadID)
	if err == ErrCallNotFound {
		httpkit.HandleError(c, apperr.NotFound("lead has no calls"))
		return
	}
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "failed to load last call", err))
		return
	}

	httpkit.OK(c, LastCallResponse{
		LeadID:    lc.LeadID,
		CallID:    lc.CallID,
		Status:    lc.Status,
		Timestamp: lc.Timestamp,
	})
}

package dialer

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dialdesk_backend/platform/httpkit"
	"dialdesk_backend/platform/validator"
)

// TriggerRequest is the manual call trigger payload. startTime and endTime
// are RFC 3339 timestamps; a future startTime defers the calls.
type TriggerRequest struct {
	LeadID          *uuid.UUID `json:"leadId"`
	ToNumber        string     `json:"toNumber" validate:"omitempty,e164"`
	All             bool       `json:"all"`
	StartTime       *time.Time `json:"startTime"`
	EndTime         *time.Time `json:"endTime"`
	OverrideAgentID *string    `json:"overrideAgentId" validate:"omitempty,min=1"`
}

// Handler handles HTTP requests for manual call triggers.
type Handler struct {
	trigger   *Trigger
	scheduled *ScheduledCallRepository
	val       *validator.Validator
}

// NewHandler creates a new dialer handler.
func NewHandler(trigger *Trigger, scheduled *ScheduledCallRepository, val *validator.Validator) *Handler {
	return &Handler{trigger: trigger, scheduled: scheduled, val: val}
}

// HandleTrigger places or schedules calls for the requested leads.
// POST /api/v1/calls/trigger
func (h *Handler) HandleTrigger(c *gin.Context) {
	var req TriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	result, err := h.trigger.Run(c.Request.Context(), TriggerParams{
		LeadID:          req.LeadID,
		ToNumber:        req.ToNumber,
		All:             req.All,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		OverrideAgentID: req.OverrideAgentID,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ScheduledCallResponse is the API shape of a pending deferred call.
type ScheduledCallResponse struct {
	ID              uuid.UUID  `json:"id"`
	LeadID          *uuid.UUID `json:"leadId,omitempty"`
	ToNumber        string     `json:"toNumber"`
	StartTime       time.Time  `json:"startTime"`
	EndTime         *time.Time `json:"endTime,omitempty"`
	OverrideAgentID *string    `json:"overrideAgentId,omitempty"`
	Status          string     `json:"status"`
}

// HandleListScheduled returns pending deferred calls.
// GET /api/v1/admin/calls/scheduled
func (h *Handler) HandleListScheduled(c *gin.Context) {
	pending, err := h.scheduled.ListPending(c.Request.Context(), 100)
	if httpkit.HandleError(c, err) {
		return
	}

	resp := make([]ScheduledCallResponse, 0, len(pending))
	for _, sc := range pending {
		resp = append(resp, ScheduledCallResponse{
			ID:              sc.ID,
			LeadID:          sc.LeadID,
			ToNumber:        sc.ToNumber,
			StartTime:       sc.StartTime,
			EndTime:         sc.EndTime,
			OverrideAgentID: sc.OverrideAgentID,
			Status:          sc.Status,
		})
	}
	httpkit.OK(c, resp)
}

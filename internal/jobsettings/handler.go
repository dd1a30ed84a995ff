package jobsettings

import (
	"net/http"

	"dialdesk_backend/internal/jobsettings/transport"
	"dialdesk_backend/platform/httpkit"
	"dialdesk_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request body"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for job settings.
type Handler struct {
	svc *Service
	val *validator.Validator
}

// NewHandler creates a new job settings handler.
func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// HandleGet returns one job setting by name.
// GET /api/v1/admin/jobs/:name
func (h *Handler) HandleGet(c *gin.Context) {
	resp, err := h.svc.Get(c.Request.Context(), c.Param("name"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

// HandleUpsert applies a partial update to a job setting, creating the row
// on first write.
// PUT /api/v1/admin/jobs/:name
func (h *Handler) HandleUpsert(c *gin.Context) {
	var req transport.UpdateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.Upsert(c.Request.Context(), c.Param("name"), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, resp)
}

package webhook

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"dialdesk_backend/platform/httpkit"

	"dialdesk_backend/internal/voice"
)

// maxPayloadBytes caps webhook bodies; transcripts can run long but a
// megabyte is far past anything the provider sends.
const maxPayloadBytes = 1 << 20

// Handler receives provider webhook deliveries.
type Handler struct {
	reconciler *Reconciler
}

// NewHandler creates a new webhook handler.
func NewHandler(reconciler *Reconciler) *Handler {
	return &Handler{reconciler: reconciler}
}

// HandleEvent ingests one provider event. Malformed payloads get a 400 so
// the provider surfaces them; reconciliation failures get a 500 so the
// provider retries.
// POST /api/v1/webhooks/voice
func (h *Handler) HandleEvent(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "failed to read request body", nil)
		return
	}

	evt, err := voice.ParseEvent(payload)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid event payload", err.Error())
		return
	}

	if err := h.reconciler.Apply(c.Request.Context(), evt); err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "failed to process event", nil)
		return
	}

	c.Status(http.StatusNoContent)
}

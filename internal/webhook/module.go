package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dialdesk_backend/platform/httpkit"
	"dialdesk_backend/platform/logger"

	"dialdesk_backend/internal/events"
	apphttp "dialdesk_backend/internal/http"
)

// Module is the webhook ingestion module implementing http.Module.
type Module struct {
	handler    *Handler
	reconciler *Reconciler
	provider   CallFetcher
	limiter    *httpkit.IPRateLimiter
}

// NewModule creates and initializes the webhook module.
func NewModule(calls CallStore, leads LeadStore, provider CallFetcher,
	bus events.Bus, log *logger.Logger) *Module {
	reconciler := NewReconciler(calls, leads, bus, log)
	return &Module{
		handler:    NewHandler(reconciler),
		reconciler: reconciler,
		provider:   provider,
		limiter:    httpkit.NewIPRateLimiter(50, 100, log),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "webhook"
}

// RegisterRoutes mounts webhook routes on the provided router context. The
// ingestion endpoint sits behind signature verification; the refresh endpoint
// is an admin operation.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	hooks := ctx.V1.Group("/webhooks")
	hooks.Use(m.limiter.RateLimit())
	hooks.Use(VerifySignature(ctx.Webhook.GetWebhookSigningSecret()))
	hooks.POST("/voice", m.handler.HandleEvent)

	ctx.Admin.POST("/calls/:callId/refresh", m.handleRefresh)
}

func (m *Module) handleRefresh(c *gin.Context) {
	callID := c.Param("callId")
	if callID == "" {
		httpkit.Error(c, http.StatusBadRequest, "missing call id", nil)
		return
	}
	if err := m.reconciler.Refresh(c.Request.Context(), m.provider, callID); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

var _ apphttp.Module = (*Module)(nil)

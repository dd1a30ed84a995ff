package scheduler

import (
	"time"

	"github.com/gin-gonic/gin"

	"dialdesk_backend/platform/httpkit"

	apphttp "dialdesk_backend/internal/http"
)

// Module exposes the manual run-now endpoint implementing http.Module.
type Module struct {
	campaign *Campaign
}

// NewModule creates the scheduler HTTP module around an assembled campaign
// engine.
func NewModule(campaign *Campaign) *Module {
	return &Module{campaign: campaign}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "scheduler"
}

// RegisterRoutes mounts scheduler routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Admin.POST("/jobs/:name/run", m.handleRunNow)
}

// handleRunNow runs one job's dispatch cycle immediately. The time window is
// bypassed; the enabled flag and the daily cap still apply.
// POST /api/v1/admin/jobs/:name/run
func (m *Module) handleRunNow(c *gin.Context) {
	result, err := m.campaign.RunTick(c.Request.Context(), c.Param("name"), time.Now(), true)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

var _ apphttp.Module = (*Module)(nil)

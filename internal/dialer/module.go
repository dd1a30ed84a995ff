package dialer

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"dialdesk_backend/platform/config"
	"dialdesk_backend/platform/logger"
	"dialdesk_backend/platform/validator"

	"dialdesk_backend/internal/events"
	apphttp "dialdesk_backend/internal/http"
)

// LeadAccess combines the lead store slices the dialer's service and trigger
// need. The concrete leads repository satisfies it.
type LeadAccess interface {
	LeadStore
	TriggerLeadSource
}

// Module is the dialer bounded context module implementing http.Module.
type Module struct {
	handler   *Handler
	svc       *Service
	trigger   *Trigger
	scheduled *ScheduledCallRepository
}

// NewModule creates and initializes the dialer module.
func NewModule(pool *pgxpool.Pool, provider CallProvider, calls CallStore,
	leadStore LeadAccess, bus events.Bus, log *logger.Logger,
	cfg config.DialerConfig, val *validator.Validator) *Module {

	svc := NewService(provider, calls, leadStore, bus, log,
		cfg.GetDefaultFromNumber(), cfg.GetDefaultAgentID())
	scheduled := NewScheduledCallRepository(pool)
	trigger := NewTrigger(svc, leadStore, scheduled, log,
		cfg.GetDispatchDefaultMode(), cfg.GetDefaultFromNumber())

	return &Module{
		handler:   NewHandler(trigger, scheduled, val),
		svc:       svc,
		trigger:   trigger,
		scheduled: scheduled,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "dialer"
}

// Service exposes the call placement service for the scheduler worker.
func (m *Module) Service() *Service {
	return m.svc
}

// ScheduledCalls exposes the deferred call store for the due-call poller.
func (m *Module) ScheduledCalls() *ScheduledCallRepository {
	return m.scheduled
}

// RegisterRoutes mounts dialer routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/calls/trigger", m.handler.HandleTrigger)
	ctx.Admin.GET("/calls/scheduled", m.handler.HandleListScheduled)
}

var _ apphttp.Module = (*Module)(nil)

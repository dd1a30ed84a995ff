package callhistory

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "dialdesk_backend/internal/http"
)

// Module is the call history bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	repo    *Repository
}

// NewModule creates and initializes the call history module.
func NewModule(pool *pgxpool.Pool) *Module {
	repo := New(pool)
	return &Module{
		handler: NewHandler(repo),
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "callhistory"
}

// Repository exposes the store for the dialer, webhook, and scheduler wiring.
func (m *Module) Repository() *Repository {
	return m.repo
}

// RegisterRoutes mounts call history routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	calls := ctx.V1.Group("/leads/:id")
	calls.GET("/calls", m.handler.HandleListByLead)
	calls.GET("/last-call", m.handler.HandleGetLastCall)
}

var _ apphttp.Module = (*Module)(nil)

package jobsettings

import (
	"time"

	apphttp "dialdesk_backend/internal/http"
	"dialdesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the job settings bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	repo    *Repository
	svc     *Service
}

// NewModule creates and initializes the job settings module.
func NewModule(pool *pgxpool.Pool, offset time.Duration, val *validator.Validator) *Module {
	repo := NewRepository(pool)
	svc := New(repo, offset)
	return &Module{
		handler: NewHandler(svc, val),
		repo:    repo,
		svc:     svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "jobsettings"
}

// Repository exposes the store for the scheduler worker.
func (m *Module) Repository() *Repository {
	return m.repo
}

// RegisterRoutes mounts job settings routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	jobs := ctx.Admin.Group("/jobs")
	jobs.GET("/:name", m.handler.HandleGet)
	jobs.PUT("/:name", m.handler.HandleUpsert)
}

var _ apphttp.Module = (*Module)(nil)

// Package roster provides the commercial team roster bounded context module.
package roster

import (
	apphttp "staffhub_backend/internal/http"
	"staffhub_backend/internal/roster/handler"
	"staffhub_backend/internal/roster/repository"
	"staffhub_backend/internal/roster/service"
	"staffhub_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the roster bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
}

// NewModule creates and initializes the roster module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)
	return &Module{
		handler: handler.New(svc, val),
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "roster" }

// Repository exposes the roster store for the distribution path.
func (m *Module) Repository() *repository.Repository { return m.repo }

// RegisterRoutes mounts roster routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/team")
	m.handler.RegisterRoutes(group)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

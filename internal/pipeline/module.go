// Package pipeline provides the lead pipeline bounded context module:
// intake, distribution, the stage state machine, and attempt recording.
package pipeline

import (
	"staffhub_backend/internal/events"
	apphttp "staffhub_backend/internal/http"
	"staffhub_backend/internal/pipeline/handler"
	"staffhub_backend/internal/pipeline/repository"
	"staffhub_backend/internal/pipeline/service"
	rosterrepo "staffhub_backend/internal/roster/repository"
	"staffhub_backend/platform/clock"
	"staffhub_backend/platform/config"
	"staffhub_backend/platform/logger"
	"staffhub_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the pipeline bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the pipeline module.
func NewModule(pool *pgxpool.Pool, roster *rosterrepo.Repository, bus events.Bus, clk clock.Clock, cfg config.WorkflowConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, roster, bus, clk, cfg.GetWorkflow(), log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "pipeline" }

// Service exposes the pipeline service for scheduler and tasks wiring.
func (m *Module) Service() *service.Service { return m.service }

// Repository exposes the pipeline store for the analytics module.
func (m *Module) Repository() *repository.Repository { return m.repo }

// RegisterRoutes mounts lead and card routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterLeadRoutes(ctx.Protected.Group("/leads"))
	m.handler.RegisterCardRoutes(ctx.Protected.Group("/pipeline/cards"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

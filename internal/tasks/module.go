// Package tasks provides the follow-up task module: per-stage task planning,
// the overdue sweep, and the task notification log.
package tasks

import (
	"staffhub_backend/internal/events"
	apphttp "staffhub_backend/internal/http"
	"staffhub_backend/internal/tasks/handler"
	"staffhub_backend/internal/tasks/repository"
	"staffhub_backend/internal/tasks/service"
	"staffhub_backend/platform/clock"
	"staffhub_backend/platform/config"
	"staffhub_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the follow-up task module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the tasks module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, clk clock.Clock, wf config.WorkflowConfig, nc config.NotificationConfig, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, clk, wf.GetWorkflow(), nc.GetEscalationRecipient(), log)
	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "tasks" }

// Service exposes the tasks service for pipeline and scheduler wiring.
func (m *Module) Service() *service.Service { return m.service }

// RegisterRoutes mounts task routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/tasks"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

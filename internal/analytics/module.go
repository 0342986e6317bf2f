// Package analytics provides the contact analytics module: per-card, per-agent
// and team-level views derived from attempt history.
package analytics

import (
	"staffhub_backend/internal/analytics/handler"
	"staffhub_backend/internal/analytics/service"
	apphttp "staffhub_backend/internal/http"
	pipelinerepo "staffhub_backend/internal/pipeline/repository"
	rosterrepo "staffhub_backend/internal/roster/repository"
	"staffhub_backend/platform/clock"
	"staffhub_backend/platform/config"
)

// Module is the analytics module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the analytics module. It reads through
// the pipeline and roster repositories and owns no tables of its own.
func NewModule(attempts *pipelinerepo.Repository, roster *rosterrepo.Repository, clk clock.Clock, cfg config.WorkflowConfig) *Module {
	svc := service.New(attempts, roster, clk, cfg.GetWorkflow())
	return &Module{handler: handler.New(svc)}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "analytics" }

// RegisterRoutes mounts analytics routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterCardRoutes(ctx.Protected.Group("/pipeline/cards"))
	m.handler.RegisterRoutes(ctx.Protected.Group("/analytics"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

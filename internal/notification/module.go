// Package notification delivers workflow notifications in response to domain
// events. Domain modules publish events and stay unaware of delivery
// channels; this module subscribes and fans out to in-app storage and email.
package notification

import (
	"context"
	"fmt"

	"staffhub_backend/internal/events"
	apphttp "staffhub_backend/internal/http"
	"staffhub_backend/internal/notification/email"
	notifhandler "staffhub_backend/internal/notification/handler"
	"staffhub_backend/internal/notification/inapp"
	"staffhub_backend/platform/config"
	"staffhub_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the notification module implementing http.Module.
type Module struct {
	handler  *notifhandler.Handler
	service  *Service
	escalate string
	log      *logger.Logger
}

// NewModule creates the notification module and subscribes it to the
// workflow events it reacts to.
func NewModule(pool *pgxpool.Pool, bus events.Bus, emailCfg config.EmailConfig, cfg config.NotificationConfig, log *logger.Logger) *Module {
	repo := inapp.NewRepository(pool)

	var sender EmailSender
	if emailCfg.GetEmailEnabled() {
		sender = email.NewSMTPSender(
			emailCfg.GetSMTPHost(),
			emailCfg.GetSMTPPort(),
			emailCfg.GetSMTPUsername(),
			emailCfg.GetSMTPPassword(),
			emailCfg.GetEmailFromAddress(),
			emailCfg.GetEmailFromName(),
		)
	}

	m := &Module{
		handler:  notifhandler.New(repo),
		service:  NewService(repo, sender, cfg.GetAppBaseURL(), log),
		escalate: cfg.GetEscalationRecipient(),
		log:      log,
	}
	m.subscribe(bus)
	return m
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// Service exposes the notification sender for the tasks module.
func (m *Module) Service() *Service { return m.service }

// RegisterRoutes mounts notification routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/notifications"))
}

func (m *Module) subscribe(bus events.Bus) {
	bus.Subscribe(events.LeadDistributed{}.EventName(), events.HandlerFunc(m.onLeadDistributed))
	bus.Subscribe(events.TaskEscalated{}.EventName(), events.HandlerFunc(m.onTaskEscalated))
	bus.Subscribe(events.RecontactDue{}.EventName(), events.HandlerFunc(m.onRecontactDue))
}

func (m *Module) onLeadDistributed(ctx context.Context, e events.Event) error {
	evt, ok := e.(events.LeadDistributed)
	if !ok {
		return fmt.Errorf("unexpected event type %T", e)
	}
	return m.service.Notify(ctx, evt.AgentID.String(), KindLeadAssigned, map[string]string{
		"card_id": evt.CardID.String(),
		"lead_id": evt.LeadID.String(),
		"reason":  evt.Reason,
	})
}

func (m *Module) onTaskEscalated(ctx context.Context, e events.Event) error {
	evt, ok := e.(events.TaskEscalated)
	if !ok {
		return fmt.Errorf("unexpected event type %T", e)
	}
	return m.service.Notify(ctx, m.escalate, KindTaskEscalated, map[string]string{
		"card_id":  evt.CardID.String(),
		"task_id":  evt.TaskID.String(),
		"agent_id": evt.AgentID.String(),
	})
}

func (m *Module) onRecontactDue(ctx context.Context, e events.Event) error {
	evt, ok := e.(events.RecontactDue)
	if !ok {
		return fmt.Errorf("unexpected event type %T", e)
	}
	return m.service.Notify(ctx, evt.AgentID.String(), KindRecontactDue, map[string]string{
		"card_id": evt.CardID.String(),
	})
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

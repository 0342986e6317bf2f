package notification

import (
	"context"
	"fmt"
	"strings"

	"staffhub_backend/internal/notification/inapp"
	"staffhub_backend/platform/logger"

	"github.com/google/uuid"
)

// Notification kinds understood by the composer.
const (
	KindLeadAssigned   = "lead_assigned"
	KindTaskAssigned   = "task_assigned"
	KindTaskReassigned = "task_reassigned"
	KindTaskEscalated  = "task_escalated"
	KindRecontactDue   = "recontact_due"
)

// EmailSender delivers one email message.
type EmailSender interface {
	Send(ctx context.Context, toEmail, subject, body, linkURL, linkLabel string) error
}

// Service composes and delivers workflow notifications. Delivery is
// best-effort: a failed email never blocks the caller, and every message is
// also stored in-app.
type Service struct {
	inapp   *inapp.Repository
	email   EmailSender // nil when email delivery is disabled
	baseURL string
	log     *logger.Logger
}

func NewService(repo *inapp.Repository, email EmailSender, baseURL string, log *logger.Logger) *Service {
	return &Service{
		inapp:   repo,
		email:   email,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     log,
	}
}

// Notify delivers a notification of the given kind to the recipient. The
// recipient is either a team member ID or an email address; email delivery
// only happens for the latter.
func (s *Service) Notify(ctx context.Context, recipient, kind string, payload map[string]string) error {
	if recipient == "" {
		return nil
	}

	title, body := compose(kind, payload)
	cardID := cardIDFromPayload(payload)

	if _, err := s.inapp.Create(ctx, inapp.CreateParams{
		Recipient: recipient,
		Title:     title,
		Content:   body,
		Category:  kind,
		CardID:    cardID,
	}); err != nil {
		return err
	}

	if s.email != nil && strings.Contains(recipient, "@") {
		linkURL, linkLabel := "", ""
		if cardID != nil && s.baseURL != "" {
			linkURL = fmt.Sprintf("%s/pipeline/cards/%s", s.baseURL, cardID)
			linkLabel = "Open the card"
		}
		if err := s.email.Send(ctx, recipient, title, body, linkURL, linkLabel); err != nil {
			s.log.NotificationError(kind, recipient, err)
		}
	}

	return nil
}

func compose(kind string, payload map[string]string) (title, body string) {
	switch kind {
	case KindLeadAssigned:
		return "New lead assigned", "A lead has been assigned to you. Make the first contact within the follow-up window."
	case KindTaskAssigned:
		return "Follow-up task created", fmt.Sprintf("A %s task is due at %s.", payload["stage"], payload["due_at"])
	case KindTaskReassigned:
		return "Lead reassigned to you", fmt.Sprintf("An overdue lead was moved to you. The new deadline is %s.", payload["due_at"])
	case KindTaskEscalated:
		return "Lead requires intervention", fmt.Sprintf("A lead exhausted its redistribution attempts with agent %s and needs a manual decision.", payload["agent_id"])
	case KindRecontactDue:
		return "Scheduled recontact due", "A parked lead has reached its recontact date. Resume the pipeline."
	default:
		return kind, ""
	}
}

func cardIDFromPayload(payload map[string]string) *uuid.UUID {
	raw, ok := payload["card_id"]
	if !ok {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}

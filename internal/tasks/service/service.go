// Package service plans follow-up tasks for pipeline cards and runs the
// overdue sweep: overdue work is redistributed a bounded number of times and
// then escalated to a human.
package service

import (
	"context"
	"errors"
	"time"

	"staffhub_backend/internal/events"
	"staffhub_backend/internal/pipeline/domain"
	"staffhub_backend/internal/tasks/repository"
	"staffhub_backend/internal/tasks/transport"
	"staffhub_backend/platform/apperr"
	"staffhub_backend/platform/clock"
	"staffhub_backend/platform/config"
	"staffhub_backend/platform/logger"

	"github.com/google/uuid"
)

// Task types keyed by the stage that produced them.
const (
	TypeFirstContact = "first_contact"
	TypeCallAttempt  = "call_attempt"
	TypeSendMessage  = "send_message"
	TypeRecontact    = "recontact"
)

// Notification kinds recorded on the task's log.
const (
	NotifyAssigned   = "task_assigned"
	NotifyReassigned = "task_reassigned"
	NotifyEscalated  = "task_escalated"
)

// TaskStore is the persistence boundary for tasks and their notification log.
type TaskStore interface {
	Create(ctx context.Context, task repository.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (repository.Task, error)
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]repository.Task, error)
	ListDuePending(ctx context.Context, now time.Time) ([]repository.Task, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string, completedAt *time.Time) error
	Reassign(ctx context.Context, id, agentID uuid.UUID, dueAt time.Time) error
	CancelOpenByCard(ctx context.Context, cardID uuid.UUID) error
	AppendNotification(ctx context.Context, n repository.Notification) error
	ListNotifications(ctx context.Context, taskID uuid.UUID) ([]repository.Notification, error)
}

// Redistributor moves an overdue card to a different agent. Implemented by
// the pipeline service.
type Redistributor interface {
	RedistributeForTimeout(ctx context.Context, cardID uuid.UUID) (uuid.UUID, error)
}

// Notifier delivers a best-effort notification to a recipient. Failures are
// logged and never block the sweep.
type Notifier interface {
	Notify(ctx context.Context, recipient, kind string, payload map[string]string) error
}

type Service struct {
	store    TaskStore
	bus      events.Bus
	clk      clock.Clock
	wf       config.Workflow
	log      *logger.Logger
	escalate string

	redistributor Redistributor
	notifier      Notifier
}

func New(store TaskStore, bus events.Bus, clk clock.Clock, wf config.Workflow, escalationRecipient string, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		bus:      bus,
		clk:      clk,
		wf:       wf,
		log:      log,
		escalate: escalationRecipient,
	}
}

// SetRedistributor wires the pipeline redistribution path. Injected via
// setter to avoid a package cycle with the planner port.
func (s *Service) SetRedistributor(r Redistributor) { s.redistributor = r }

// SetNotifier wires the notification sender. Optional.
func (s *Service) SetNotifier(n Notifier) { s.notifier = n }

// PlanForStage opens a follow-up task for the card's current stage. Terminal
// cards and unassigned cards get no task; unassigned cards receive one once
// distribution succeeds.
func (s *Service) PlanForStage(ctx context.Context, card domain.Card) error {
	if card.Stage.IsTerminal() || card.CurrentAgentID == uuid.Nil {
		return nil
	}

	now := s.clk.Now()
	task := repository.Task{
		ID:        uuid.New(),
		CardID:    card.ID,
		Stage:     string(card.Stage),
		Type:      taskTypeForStage(card.Stage),
		Status:    repository.StatusPending,
		Priority:  taskPriorityForStage(card.Stage),
		AgentID:   card.CurrentAgentID,
		DueAt:     now.Add(s.wf.TaskDueAfter),
		CreatedAt: now,
	}
	if err := s.store.Create(ctx, task); err != nil {
		return err
	}

	s.recordNotification(ctx, task.ID, NotifyAssigned, card.CurrentAgentID.String(), map[string]string{
		"card_id": card.ID.String(),
		"stage":   string(card.Stage),
		"due_at":  task.DueAt.Format(time.RFC3339),
	})
	return nil
}

// CancelOpen cancels every open task of the card. Called on stage changes so
// a card never carries tasks for a stage it already left.
func (s *Service) CancelOpen(ctx context.Context, cardID uuid.UUID) error {
	return s.store.CancelOpenByCard(ctx, cardID)
}

// Start marks a pending task as picked up by its agent.
func (s *Service) Start(ctx context.Context, taskID uuid.UUID) (transport.TaskResponse, error) {
	return s.moveStatus(ctx, taskID, repository.StatusPending, repository.StatusInProgress)
}

// Complete marks a task as done.
func (s *Service) Complete(ctx context.Context, taskID uuid.UUID) (transport.TaskResponse, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	if task.Status != repository.StatusPending && task.Status != repository.StatusInProgress {
		return transport.TaskResponse{}, apperr.Conflict("task is not open")
	}

	now := s.clk.Now()
	if err := s.store.SetStatus(ctx, taskID, repository.StatusDone, &now); err != nil {
		return transport.TaskResponse{}, apperr.Wrap(apperr.KindInternal, "complete task", err)
	}

	task.Status = repository.StatusDone
	task.CompletedAt = &now
	return toTaskResponse(task), nil
}

// ListByCard returns the card's tasks oldest first.
func (s *Service) ListByCard(ctx context.Context, cardID uuid.UUID) ([]transport.TaskResponse, error) {
	tasks, err := s.store.ListByCard(ctx, cardID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list tasks", err)
	}
	out := make([]transport.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	return out, nil
}

// ListNotifications returns a task's notification log.
func (s *Service) ListNotifications(ctx context.Context, taskID uuid.UUID) ([]transport.NotificationResponse, error) {
	if _, err := s.loadTask(ctx, taskID); err != nil {
		return nil, err
	}
	items, err := s.store.ListNotifications(ctx, taskID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list task notifications", err)
	}
	out := make([]transport.NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, toNotificationResponse(n))
	}
	return out, nil
}

// CheckOverdue sweeps pending tasks past their due date. Each overdue task is
// redistributed until its budget runs out, then escalated exactly once. A
// saturated team leaves the task pending for the next sweep without spending
// budget.
func (s *Service) CheckOverdue(ctx context.Context) (int, error) {
	now := s.clk.Now()
	tasks, err := s.store.ListDuePending(ctx, now)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, task := range tasks {
		if err := s.handleOverdue(ctx, task, now); err != nil {
			s.log.Error("overdue sweep failed for task", "task_id", task.ID, "card_id", task.CardID, "error", err)
			continue
		}
		processed++
	}
	return processed, nil
}

func (s *Service) handleOverdue(ctx context.Context, task repository.Task, now time.Time) error {
	if task.RedistributionAttempts >= s.wf.MaxRedistributionAttempts {
		return s.escalateTask(ctx, task)
	}

	if s.redistributor == nil {
		return errors.New("no redistributor wired")
	}

	newAgent, err := s.redistributor.RedistributeForTimeout(ctx, task.CardID)
	if err != nil {
		if apperr.GetKind(err) == apperr.KindUnprocessable {
			// whole team saturated; retry on the next sweep without
			// spending the task's budget
			s.log.Warn("overdue task held, no spare capacity", "task_id", task.ID, "card_id", task.CardID)
			return nil
		}
		return err
	}

	dueAt := now.Add(s.wf.TaskDueAfter)
	if err := s.store.Reassign(ctx, task.ID, newAgent, dueAt); err != nil {
		return err
	}

	attempt := task.RedistributionAttempts + 1
	s.log.Redistribution(task.CardID.String(), task.AgentID.String(), newAgent.String(), "overdue_task", attempt)
	s.bus.Publish(ctx, events.TaskRedistributed{
		BaseEvent: events.NewBaseEvent(),
		TaskID:    task.ID,
		CardID:    task.CardID,
		FromAgent: task.AgentID,
		ToAgent:   newAgent,
		Attempt:   attempt,
	})
	s.recordNotification(ctx, task.ID, NotifyReassigned, newAgent.String(), map[string]string{
		"card_id": task.CardID.String(),
		"due_at":  dueAt.Format(time.RFC3339),
	})
	return nil
}

func (s *Service) escalateTask(ctx context.Context, task repository.Task) error {
	if err := s.store.SetStatus(ctx, task.ID, repository.StatusOverdue, nil); err != nil {
		return err
	}

	s.log.Warn("task escalated after exhausting redistribution attempts",
		"task_id", task.ID, "card_id", task.CardID, "agent_id", task.AgentID)
	s.bus.Publish(ctx, events.TaskEscalated{
		BaseEvent: events.NewBaseEvent(),
		TaskID:    task.ID,
		CardID:    task.CardID,
		AgentID:   task.AgentID,
	})
	s.recordNotification(ctx, task.ID, NotifyEscalated, s.escalate, map[string]string{
		"card_id":  task.CardID.String(),
		"agent_id": task.AgentID.String(),
	})
	return nil
}

func (s *Service) moveStatus(ctx context.Context, taskID uuid.UUID, from, to string) (transport.TaskResponse, error) {
	task, err := s.loadTask(ctx, taskID)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	if task.Status != from {
		return transport.TaskResponse{}, apperr.Conflict("task is not " + from)
	}
	if err := s.store.SetStatus(ctx, taskID, to, nil); err != nil {
		return transport.TaskResponse{}, apperr.Wrap(apperr.KindInternal, "update task status", err)
	}
	task.Status = to
	return toTaskResponse(task), nil
}

func (s *Service) loadTask(ctx context.Context, taskID uuid.UUID) (repository.Task, error) {
	task, err := s.store.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Task{}, apperr.NotFound("task not found")
		}
		return repository.Task{}, apperr.Wrap(apperr.KindInternal, "load task", err)
	}
	return task, nil
}

// recordNotification appends to the task's notification log and hands the
// message to the sender. Both are best-effort.
func (s *Service) recordNotification(ctx context.Context, taskID uuid.UUID, kind, recipient string, payload map[string]string) {
	entry := repository.Notification{
		ID:        uuid.New(),
		TaskID:    taskID,
		Kind:      kind,
		Recipient: recipient,
		SentAt:    s.clk.Now(),
	}
	if err := s.store.AppendNotification(ctx, entry); err != nil {
		s.log.DatabaseError("append task notification", err)
	}
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, recipient, kind, payload); err != nil {
		s.log.NotificationError(kind, recipient, err)
	}
}

func taskTypeForStage(stage domain.Stage) string {
	switch stage {
	case domain.StageNewLead:
		return TypeFirstContact
	case domain.StageCall1, domain.StageCall2:
		return TypeCallAttempt
	case domain.StageMessage:
		return TypeSendMessage
	case domain.StageRecontact:
		return TypeRecontact
	default:
		return TypeCallAttempt
	}
}

func taskPriorityForStage(stage domain.Stage) string {
	switch stage {
	case domain.StageNewLead, domain.StageCall1:
		return "high"
	case domain.StageRecontact:
		return "low"
	default:
		return "normal"
	}
}

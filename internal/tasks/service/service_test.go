package service

import (
	"context"
	"testing"
	"time"

	"staffhub_backend/internal/events"
	"staffhub_backend/internal/pipeline/domain"
	"staffhub_backend/internal/tasks/repository"
	"staffhub_backend/platform/apperr"
	"staffhub_backend/platform/clock"
	"staffhub_backend/platform/config"
	"staffhub_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeTaskStore struct {
	tasks         map[uuid.UUID]repository.Task
	notifications []repository.Notification
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]repository.Task)}
}

func (f *fakeTaskStore) Create(_ context.Context, task repository.Task) error {
	f.tasks[task.ID] = task
	return nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (repository.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return repository.Task{}, repository.ErrNotFound
	}
	return t, nil
}

func (f *fakeTaskStore) ListByCard(_ context.Context, cardID uuid.UUID) ([]repository.Task, error) {
	var out []repository.Task
	for _, t := range f.tasks {
		if t.CardID == cardID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) ListDuePending(_ context.Context, now time.Time) ([]repository.Task, error) {
	var out []repository.Task
	for _, t := range f.tasks {
		if t.Status == repository.StatusPending && t.DueAt.Before(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTaskStore) SetStatus(_ context.Context, id uuid.UUID, status string, completedAt *time.Time) error {
	t, ok := f.tasks[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Status = status
	t.CompletedAt = completedAt
	f.tasks[id] = t
	return nil
}

func (f *fakeTaskStore) Reassign(_ context.Context, id, agentID uuid.UUID, dueAt time.Time) error {
	t, ok := f.tasks[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.AgentID = agentID
	t.DueAt = dueAt
	t.RedistributionAttempts++
	f.tasks[id] = t
	return nil
}

func (f *fakeTaskStore) CancelOpenByCard(_ context.Context, cardID uuid.UUID) error {
	for id, t := range f.tasks {
		if t.CardID == cardID && (t.Status == repository.StatusPending || t.Status == repository.StatusInProgress) {
			t.Status = repository.StatusCancelled
			f.tasks[id] = t
		}
	}
	return nil
}

func (f *fakeTaskStore) AppendNotification(_ context.Context, n repository.Notification) error {
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeTaskStore) ListNotifications(_ context.Context, taskID uuid.UUID) ([]repository.Notification, error) {
	var out []repository.Notification
	for _, n := range f.notifications {
		if n.TaskID == taskID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeBus struct {
	published []events.Event
}

func (f *fakeBus) Subscribe(string, events.Handler) {}

func (f *fakeBus) Publish(_ context.Context, e events.Event) {
	f.published = append(f.published, e)
}

func (f *fakeBus) PublishSync(_ context.Context, e events.Event) error {
	f.published = append(f.published, e)
	return nil
}

func (f *fakeBus) names() []string {
	out := make([]string, 0, len(f.published))
	for _, e := range f.published {
		out = append(out, e.EventName())
	}
	return out
}

type fakeRedistributor struct {
	agent  uuid.UUID
	err    error
	calls  int
	cardID uuid.UUID
}

func (f *fakeRedistributor) RedistributeForTimeout(_ context.Context, cardID uuid.UUID) (uuid.UUID, error) {
	f.calls++
	f.cardID = cardID
	if f.err != nil {
		return uuid.Nil, f.err
	}
	return f.agent, nil
}

func newTestService(t *testing.T) (*Service, *fakeTaskStore, *fakeBus, *fakeRedistributor, *clock.Fake) {
	t.Helper()
	store := newFakeTaskStore()
	bus := &fakeBus{}
	redist := &fakeRedistributor{agent: uuid.New()}
	clk := clock.NewFake(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := New(store, bus, clk, config.DefaultWorkflow(), "director@example.com", logger.New("test"))
	svc.SetRedistributor(redist)
	return svc, store, bus, redist, clk
}

func TestPlanForStage(t *testing.T) {
	svc, store, _, _, clk := newTestService(t)
	ctx := context.Background()
	agentID := uuid.New()

	card := domain.NewCard(uuid.New(), agentID, clk.Now())
	if err := svc.PlanForStage(ctx, card); err != nil {
		t.Fatalf("PlanForStage: %v", err)
	}

	tasks, _ := store.ListByCard(ctx, card.ID)
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	task := tasks[0]
	if task.Type != TypeFirstContact {
		t.Errorf("type = %q, want %q", task.Type, TypeFirstContact)
	}
	if task.Priority != "high" {
		t.Errorf("priority = %q, want high", task.Priority)
	}
	if task.Status != repository.StatusPending {
		t.Errorf("status = %q, want pending", task.Status)
	}
	wantDue := clk.Now().Add(config.DefaultWorkflow().TaskDueAfter)
	if !task.DueAt.Equal(wantDue) {
		t.Errorf("dueAt = %v, want %v", task.DueAt, wantDue)
	}
	if task.AgentID != agentID {
		t.Errorf("agentID = %v, want %v", task.AgentID, agentID)
	}
	if len(store.notifications) != 1 || store.notifications[0].Kind != NotifyAssigned {
		t.Errorf("expected one assigned notification, got %v", store.notifications)
	}
}

func TestPlanForStageSkipsUnassignedAndTerminal(t *testing.T) {
	svc, store, _, _, clk := newTestService(t)
	ctx := context.Background()

	unassigned := domain.NewCard(uuid.New(), uuid.Nil, clk.Now())
	if err := svc.PlanForStage(ctx, unassigned); err != nil {
		t.Fatalf("PlanForStage unassigned: %v", err)
	}
	if len(store.tasks) != 0 {
		t.Fatalf("expected no task for unassigned card, got %d", len(store.tasks))
	}

	agentID := uuid.New()
	card := domain.NewCard(uuid.New(), agentID, clk.Now())
	outcome := &domain.Outcome{Qualification: domain.QualificationQualified, Reason: "hired", AgentID: agentID}
	closed, err := card.WithStage(domain.StageOutcome, agentID, "", outcome, 3, clk.Now())
	if err != nil {
		t.Fatalf("WithStage: %v", err)
	}
	if err := svc.PlanForStage(ctx, closed); err != nil {
		t.Fatalf("PlanForStage terminal: %v", err)
	}
	if len(store.tasks) != 0 {
		t.Fatalf("expected no task for terminal card, got %d", len(store.tasks))
	}
}

func TestCheckOverdueRedistributes(t *testing.T) {
	svc, store, bus, redist, clk := newTestService(t)
	ctx := context.Background()
	agentID := uuid.New()

	card := domain.NewCard(uuid.New(), agentID, clk.Now())
	if err := svc.PlanForStage(ctx, card); err != nil {
		t.Fatalf("PlanForStage: %v", err)
	}
	clk.Advance(25 * time.Hour)

	processed, err := svc.CheckOverdue(ctx)
	if err != nil {
		t.Fatalf("CheckOverdue: %v", err)
	}
	if processed != 1 {
		t.Fatalf("processed = %d, want 1", processed)
	}
	if redist.calls != 1 || redist.cardID != card.ID {
		t.Fatalf("redistributor calls = %d cardID = %v", redist.calls, redist.cardID)
	}

	tasks, _ := store.ListByCard(ctx, card.ID)
	task := tasks[0]
	if task.AgentID != redist.agent {
		t.Errorf("agentID = %v, want new owner %v", task.AgentID, redist.agent)
	}
	if task.RedistributionAttempts != 1 {
		t.Errorf("redistributionAttempts = %d, want 1", task.RedistributionAttempts)
	}
	if task.Status != repository.StatusPending {
		t.Errorf("status = %q, want pending", task.Status)
	}
	wantDue := clk.Now().Add(config.DefaultWorkflow().TaskDueAfter)
	if !task.DueAt.Equal(wantDue) {
		t.Errorf("dueAt = %v, want reset to %v", task.DueAt, wantDue)
	}

	var sawRedistributed bool
	for _, name := range bus.names() {
		if name == (events.TaskRedistributed{}).EventName() {
			sawRedistributed = true
		}
	}
	if !sawRedistributed {
		t.Error("expected task.redistributed event")
	}
}

func TestCheckOverdueEscalatesAfterBudget(t *testing.T) {
	svc, store, bus, redist, clk := newTestService(t)
	ctx := context.Background()
	wf := config.DefaultWorkflow()

	task := repository.Task{
		ID:                     uuid.New(),
		CardID:                 uuid.New(),
		Stage:                  string(domain.StageCall1),
		Type:                   TypeCallAttempt,
		Status:                 repository.StatusPending,
		Priority:               "high",
		AgentID:                uuid.New(),
		DueAt:                  clk.Now().Add(-time.Hour),
		RedistributionAttempts: wf.MaxRedistributionAttempts,
		CreatedAt:              clk.Now().Add(-4 * 24 * time.Hour),
	}
	store.tasks[task.ID] = task

	if _, err := svc.CheckOverdue(ctx); err != nil {
		t.Fatalf("CheckOverdue: %v", err)
	}
	if redist.calls != 0 {
		t.Fatalf("expected no redistribution at budget, got %d calls", redist.calls)
	}

	got, _ := store.GetByID(ctx, task.ID)
	if got.Status != repository.StatusOverdue {
		t.Errorf("status = %q, want overdue", got.Status)
	}
	if got.RedistributionAttempts != wf.MaxRedistributionAttempts {
		t.Errorf("attempts changed: %d", got.RedistributionAttempts)
	}

	var sawEscalated bool
	for _, name := range bus.names() {
		if name == (events.TaskEscalated{}).EventName() {
			sawEscalated = true
		}
	}
	if !sawEscalated {
		t.Error("expected task.escalated event")
	}
	last := store.notifications[len(store.notifications)-1]
	if last.Kind != NotifyEscalated || last.Recipient != "director@example.com" {
		t.Errorf("escalation notification = %+v", last)
	}
}

func TestCheckOverdueHoldsWhenTeamSaturated(t *testing.T) {
	svc, store, bus, redist, clk := newTestService(t)
	ctx := context.Background()
	redist.err = apperr.Unprocessable("no agent with spare capacity")

	card := domain.NewCard(uuid.New(), uuid.New(), clk.Now())
	if err := svc.PlanForStage(ctx, card); err != nil {
		t.Fatalf("PlanForStage: %v", err)
	}
	busEventsBefore := len(bus.published)
	clk.Advance(25 * time.Hour)

	if _, err := svc.CheckOverdue(ctx); err != nil {
		t.Fatalf("CheckOverdue: %v", err)
	}

	tasks, _ := store.ListByCard(ctx, card.ID)
	task := tasks[0]
	if task.Status != repository.StatusPending {
		t.Errorf("status = %q, want pending for next sweep", task.Status)
	}
	if task.RedistributionAttempts != 0 {
		t.Errorf("attempts = %d, saturation must not spend budget", task.RedistributionAttempts)
	}
	if len(bus.published) != busEventsBefore {
		t.Errorf("expected no events while saturated, got %v", bus.names())
	}
}

func TestCancelOpen(t *testing.T) {
	svc, store, _, _, clk := newTestService(t)
	ctx := context.Background()

	card := domain.NewCard(uuid.New(), uuid.New(), clk.Now())
	if err := svc.PlanForStage(ctx, card); err != nil {
		t.Fatalf("PlanForStage: %v", err)
	}
	if err := svc.CancelOpen(ctx, card.ID); err != nil {
		t.Fatalf("CancelOpen: %v", err)
	}

	tasks, _ := store.ListByCard(ctx, card.ID)
	if tasks[0].Status != repository.StatusCancelled {
		t.Errorf("status = %q, want cancelled", tasks[0].Status)
	}
}

func TestStartAndComplete(t *testing.T) {
	svc, store, _, _, clk := newTestService(t)
	ctx := context.Background()

	card := domain.NewCard(uuid.New(), uuid.New(), clk.Now())
	if err := svc.PlanForStage(ctx, card); err != nil {
		t.Fatalf("PlanForStage: %v", err)
	}
	tasks, _ := store.ListByCard(ctx, card.ID)
	taskID := tasks[0].ID

	started, err := svc.Start(ctx, taskID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.Status != repository.StatusInProgress {
		t.Errorf("status = %q, want in_progress", started.Status)
	}

	// starting twice conflicts
	if _, err := svc.Start(ctx, taskID); apperr.GetKind(err) != apperr.KindConflict {
		t.Errorf("second start kind = %v, want conflict", apperr.GetKind(err))
	}

	done, err := svc.Complete(ctx, taskID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != repository.StatusDone || done.CompletedAt == nil {
		t.Errorf("complete = %+v", done)
	}

	if _, err := svc.Complete(ctx, taskID); apperr.GetKind(err) != apperr.KindConflict {
		t.Errorf("second complete kind = %v, want conflict", apperr.GetKind(err))
	}
}

func TestTaskTypeForStage(t *testing.T) {
	cases := []struct {
		stage domain.Stage
		want  string
	}{
		{domain.StageNewLead, TypeFirstContact},
		{domain.StageCall1, TypeCallAttempt},
		{domain.StageCall2, TypeCallAttempt},
		{domain.StageMessage, TypeSendMessage},
		{domain.StageRecontact, TypeRecontact},
	}
	for _, tc := range cases {
		if got := taskTypeForStage(tc.stage); got != tc.want {
			t.Errorf("taskTypeForStage(%s) = %q, want %q", tc.stage, got, tc.want)
		}
	}
}

// Package repository persists follow-up tasks and their notification log.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a task does not exist.
var ErrNotFound = errors.New("task not found")

// Task statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusOverdue    = "overdue"
	StatusCancelled  = "cancelled"
)

// Task is one unit of follow-up work tied to a card and stage.
type Task struct {
	ID                     uuid.UUID
	CardID                 uuid.UUID
	Stage                  string
	Type                   string
	Status                 string
	Priority               string
	AgentID                uuid.UUID
	DueAt                  time.Time
	RedistributionAttempts int
	CreatedAt              time.Time
	CompletedAt            *time.Time
}

// Notification is one entry of a task's notification log.
type Notification struct {
	ID        uuid.UUID
	TaskID    uuid.UUID
	Kind      string
	Recipient string
	SentAt    time.Time
	Read      bool
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const taskColumns = `id, card_id, stage, type, status, priority, agent_id, due_at, redistribution_attempts, created_at, completed_at`

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.CardID, &t.Stage, &t.Type, &t.Status, &t.Priority,
		&t.AgentID, &t.DueAt, &t.RedistributionAttempts, &t.CreatedAt, &t.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return t, err
}

func (r *Repository) Create(ctx context.Context, task Task) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_tasks (id, card_id, stage, type, status, priority, agent_id, due_at, redistribution_attempts, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, task.ID, task.CardID, task.Stage, task.Type, task.Status, task.Priority,
		task.AgentID, task.DueAt, task.RedistributionAttempts, task.CreatedAt)
	return err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Task, error) {
	return scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM lead_tasks WHERE id = $1`, id))
}

func (r *Repository) ListByCard(ctx context.Context, cardID uuid.UUID) ([]Task, error) {
	return r.queryTasks(ctx, `SELECT `+taskColumns+` FROM lead_tasks WHERE card_id = $1 ORDER BY created_at ASC`, cardID)
}

// ListDuePending returns pending tasks whose due date has passed.
func (r *Repository) ListDuePending(ctx context.Context, now time.Time) ([]Task, error) {
	return r.queryTasks(ctx, `
		SELECT `+taskColumns+`
		FROM lead_tasks
		WHERE status = $2 AND due_at < $1
		ORDER BY due_at ASC
	`, now, StatusPending)
}

// SetStatus moves a task to the given status, stamping completion time for
// terminal states.
func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status string, completedAt *time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lead_tasks SET status = $2, completed_at = $3 WHERE id = $1
	`, id, status, completedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Reassign moves the task to a new agent with a fresh due date and bumps the
// redistribution counter.
func (r *Repository) Reassign(ctx context.Context, id, agentID uuid.UUID, dueAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE lead_tasks
		SET agent_id = $2, due_at = $3, redistribution_attempts = redistribution_attempts + 1
		WHERE id = $1
	`, id, agentID, dueAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CancelOpenByCard cancels every pending or in-progress task of the card.
func (r *Repository) CancelOpenByCard(ctx context.Context, cardID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE lead_tasks SET status = $2
		WHERE card_id = $1 AND status IN ($3, $4)
	`, cardID, StatusCancelled, StatusPending, StatusInProgress)
	return err
}

func (r *Repository) AppendNotification(ctx context.Context, n Notification) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO task_notifications (id, task_id, kind, recipient, sent_at, read)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.ID, n.TaskID, n.Kind, n.Recipient, n.SentAt, n.Read)
	return err
}

func (r *Repository) ListNotifications(ctx context.Context, taskID uuid.UUID) ([]Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, task_id, kind, recipient, sent_at, read
		FROM task_notifications WHERE task_id = $1 ORDER BY sent_at ASC
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Notification, 0)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.TaskID, &n.Kind, &n.Recipient, &n.SentAt, &n.Read); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r *Repository) queryTasks(ctx context.Context, query string, args ...any) ([]Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

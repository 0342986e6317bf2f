// Package inapp stores in-app notifications for team members.
package inapp

import (
	"context"
	"fmt"
	"time"

	"staffhub_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	opCreate      = "notification.inapp.repository.create"
	opList        = "notification.inapp.repository.list"
	opCountUnread = "notification.inapp.repository.count_unread"
	opMarkRead    = "notification.inapp.repository.mark_read"
	opMarkAllRead = "notification.inapp.repository.mark_all_read"

	errRecipientRequired = "recipient is required"
)

type Notification struct {
	ID        uuid.UUID  `json:"id"`
	Recipient string     `json:"recipient"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Category  string     `json:"category"`
	CardID    *uuid.UUID `json:"cardId,omitempty"`
	IsRead    bool       `json:"isRead"`
	CreatedAt time.Time  `json:"createdAt"`
}

type CreateParams struct {
	Recipient string
	Title     string
	Content   string
	Category  string
	CardID    *uuid.UUID
}

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, p CreateParams) (Notification, error) {
	if p.Recipient == "" {
		return Notification{}, apperr.Validation(errRecipientRequired).WithOp(opCreate)
	}
	if p.Title == "" {
		return Notification{}, apperr.Validation("title is required").WithOp(opCreate)
	}

	category := p.Category
	if category == "" {
		category = "info"
	}

	var n Notification
	err := r.pool.QueryRow(ctx, `
		INSERT INTO inapp_notifications (recipient, title, content, category, card_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, recipient, title, content, category, card_id, is_read, created_at
	`, p.Recipient, p.Title, p.Content, category, p.CardID).Scan(
		&n.ID, &n.Recipient, &n.Title, &n.Content, &n.Category, &n.CardID, &n.IsRead, &n.CreatedAt,
	)
	if err != nil {
		return Notification{}, apperr.Internal(fmt.Sprintf("create in-app notification failed: %v", err)).WithOp(opCreate)
	}
	return n, nil
}

func (r *Repository) List(ctx context.Context, recipient string, limit, offset int) ([]Notification, int, error) {
	if recipient == "" {
		return nil, 0, apperr.Validation(errRecipientRequired).WithOp(opList)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM inapp_notifications WHERE recipient = $1`, recipient).Scan(&total); err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("count notifications failed: %v", err)).WithOp(opList)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, recipient, title, content, category, card_id, is_read, created_at
		FROM inapp_notifications
		WHERE recipient = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, recipient, limit, offset)
	if err != nil {
		return nil, 0, apperr.Internal(fmt.Sprintf("list notifications query failed: %v", err)).WithOp(opList)
	}
	defer rows.Close()

	items := make([]Notification, 0, limit)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.Recipient, &n.Title, &n.Content, &n.Category, &n.CardID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, apperr.Internal(fmt.Sprintf("scan notification failed: %v", err)).WithOp(opList)
		}
		items = append(items, n)
	}
	return items, total, rows.Err()
}

func (r *Repository) CountUnread(ctx context.Context, recipient string) (int, error) {
	if recipient == "" {
		return 0, apperr.Validation(errRecipientRequired).WithOp(opCountUnread)
	}

	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM inapp_notifications WHERE recipient = $1 AND NOT is_read
	`, recipient).Scan(&count)
	if err != nil {
		return 0, apperr.Internal(fmt.Sprintf("count unread failed: %v", err)).WithOp(opCountUnread)
	}
	return count, nil
}

func (r *Repository) MarkRead(ctx context.Context, id uuid.UUID, recipient string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE inapp_notifications SET is_read = TRUE WHERE id = $1 AND recipient = $2
	`, id, recipient)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark read failed: %v", err)).WithOp(opMarkRead)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("notification not found").WithOp(opMarkRead)
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, recipient string) error {
	if recipient == "" {
		return apperr.Validation(errRecipientRequired).WithOp(opMarkAllRead)
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE inapp_notifications SET is_read = TRUE WHERE recipient = $1 AND NOT is_read
	`, recipient)
	if err != nil {
		return apperr.Internal(fmt.Sprintf("mark all read failed: %v", err)).WithOp(opMarkAllRead)
	}
	return nil
}

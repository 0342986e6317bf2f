// Package transport defines the task API request and response shapes.
package transport

import (
	"time"

	"github.com/google/uuid"
)

type TaskResponse struct {
	ID                     uuid.UUID  `json:"id"`
	CardID                 uuid.UUID  `json:"cardId"`
	Stage                  string     `json:"stage"`
	Type                   string     `json:"type"`
	Status                 string     `json:"status"`
	Priority               string     `json:"priority"`
	AgentID                uuid.UUID  `json:"agentId"`
	DueAt                  time.Time  `json:"dueAt"`
	RedistributionAttempts int        `json:"redistributionAttempts"`
	CreatedAt              time.Time  `json:"createdAt"`
	CompletedAt            *time.Time `json:"completedAt,omitempty"`
}

type NotificationResponse struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"taskId"`
	Kind      string    `json:"kind"`
	Recipient string    `json:"recipient"`
	SentAt    time.Time `json:"sentAt"`
	Read      bool      `json:"read"`
}

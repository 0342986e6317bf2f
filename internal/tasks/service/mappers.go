package service

import (
	"staffhub_backend/internal/tasks/repository"
	"staffhub_backend/internal/tasks/transport"
)

func toTaskResponse(t repository.Task) transport.TaskResponse {
	return transport.TaskResponse{
		ID:                     t.ID,
		CardID:                 t.CardID,
		Stage:                  t.Stage,
		Type:                   t.Type,
		Status:                 t.Status,
		Priority:               t.Priority,
		AgentID:                t.AgentID,
		DueAt:                  t.DueAt,
		RedistributionAttempts: t.RedistributionAttempts,
		CreatedAt:              t.CreatedAt,
		CompletedAt:            t.CompletedAt,
	}
}

func toNotificationResponse(n repository.Notification) transport.NotificationResponse {
	return transport.NotificationResponse{
		ID:        n.ID,
		TaskID:    n.TaskID,
		Kind:      n.Kind,
		Recipient: n.Recipient,
		SentAt:    n.SentAt,
		Read:      n.Read,
	}
}

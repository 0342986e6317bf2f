// Package transport defines the request/response shapes for the roster API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateMemberRequest struct {
	Name               string   `json:"name" validate:"required"`
	Email              string   `json:"email" validate:"required,email"`
	MaxConcurrentLeads int      `json:"maxConcurrentLeads" validate:"required,min=1"`
	PriorityRank       int      `json:"priorityRank" validate:"min=0"`
	Specializations    []string `json:"specializations"`
}

type UpdateMemberRequest struct {
	Active             *bool    `json:"active"`
	MaxConcurrentLeads *int     `json:"maxConcurrentLeads" validate:"omitempty,min=1"`
	PriorityRank       *int     `json:"priorityRank" validate:"omitempty,min=0"`
	Specializations    []string `json:"specializations"`
}

type MemberResponse struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	Active             bool      `json:"active"`
	MaxConcurrentLeads int       `json:"maxConcurrentLeads"`
	ActiveLeadCount    int       `json:"activeLeadCount"`
	PriorityRank       int       `json:"priorityRank"`
	Specializations    []string  `json:"specializations"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

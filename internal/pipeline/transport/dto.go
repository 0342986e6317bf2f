// Package transport defines the request/response shapes for the pipeline API.
package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateLeadRequest struct {
	FirstName        string   `json:"firstName" validate:"required"`
	LastName         string   `json:"lastName" validate:"required"`
	Phone            string   `json:"phone" validate:"required"`
	Email            string   `json:"email" validate:"omitempty,email"`
	ProductInterests []string `json:"productInterests"`
	Source           string   `json:"source"`
	Notes            string   `json:"notes"`
}

type UpdateLeadRequest struct {
	Phone            *string  `json:"phone"`
	Email            *string  `json:"email" validate:"omitempty,email"`
	ProductInterests []string `json:"productInterests"`
	Notes            *string  `json:"notes"`
}

type RecordAttemptRequest struct {
	Channel             string     `json:"channel" validate:"required,oneof=call whatsapp email in_person"`
	Result              string     `json:"result" validate:"required,oneof=success no_answer busy invalid_number not_attending reschedule"`
	Timestamp           *time.Time `json:"timestamp"`
	CallDurationSeconds *int64     `json:"callDurationSeconds" validate:"omitempty,min=0"`
	NextAction          string     `json:"nextAction"`
}

type OutcomePayload struct {
	Qualification string `json:"qualification" validate:"required,oneof=qualified unqualified"`
	Reason        string `json:"reason" validate:"required"`
}

type TransitionRequest struct {
	NextStage   string          `json:"nextStage" validate:"required"`
	Notes       string          `json:"notes"`
	Outcome     *OutcomePayload `json:"outcome"`
	RecontactAt *time.Time      `json:"recontactAt"`
}

type RedistributeRequest struct {
	Notes string `json:"notes"`
}

type LeadResponse struct {
	ID               uuid.UUID `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email,omitempty"`
	ProductInterests []string  `json:"productInterests"`
	Source           string    `json:"source,omitempty"`
	Notes            string    `json:"notes,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

type StageHistoryEntryResponse struct {
	Stage        string     `json:"stage"`
	AgentID      uuid.UUID  `json:"agentId"`
	EnteredAt    time.Time  `json:"enteredAt"`
	ExitedAt     *time.Time `json:"exitedAt,omitempty"`
	DwellSeconds int64      `json:"dwellSeconds"`
	Notes        string     `json:"notes,omitempty"`
}

type AttemptResponse struct {
	ID                  uuid.UUID `json:"id"`
	CardID              uuid.UUID `json:"cardId"`
	AgentID             uuid.UUID `json:"agentId"`
	Channel             string    `json:"channel"`
	Result              string    `json:"result"`
	Timestamp           time.Time `json:"timestamp"`
	CallDurationSeconds *int64    `json:"callDurationSeconds,omitempty"`
	NextAction          string    `json:"nextAction,omitempty"`
}

type OutcomeResponse struct {
	Qualification string    `json:"qualification"`
	Reason        string    `json:"reason"`
	AgentID       uuid.UUID `json:"agentId"`
	ClosedAt      time.Time `json:"closedAt"`
}

type ScheduledRecontactResponse struct {
	ScheduledFor time.Time `json:"scheduledFor"`
	Notes        string    `json:"notes,omitempty"`
}

type CardResponse struct {
	ID                   uuid.UUID                   `json:"id"`
	LeadID               uuid.UUID                   `json:"leadId"`
	Stage                string                      `json:"stage"`
	Qualification        string                      `json:"qualification"`
	CurrentAgentID       *uuid.UUID                  `json:"currentAgentId,omitempty"`
	PreviousAgentID      *uuid.UUID                  `json:"previousAgentId,omitempty"`
	DistributedAt        time.Time                   `json:"distributedAt"`
	UpdatedAt            time.Time                   `json:"updatedAt"`
	TimeInStageSeconds   int64                       `json:"timeInStageSeconds"`
	TotalPipelineSeconds int64                       `json:"totalPipelineSeconds"`
	RecontactLoops       int                         `json:"recontactLoops"`
	StageHistory         []StageHistoryEntryResponse `json:"stageHistory"`
	Attempts             []AttemptResponse           `json:"attempts"`
	ScheduledRecontact   *ScheduledRecontactResponse `json:"scheduledRecontact,omitempty"`
	Outcome              *OutcomeResponse            `json:"outcome,omitempty"`
	CreatedAt            time.Time                   `json:"createdAt"`
}

type DistributionResponse struct {
	ID              uuid.UUID  `json:"id"`
	CardID          uuid.UUID  `json:"cardId"`
	LeadID          uuid.UUID  `json:"leadId"`
	AgentID         uuid.UUID  `json:"agentId"`
	PreviousAgentID *uuid.UUID `json:"previousAgentId,omitempty"`
	Reason          string     `json:"reason"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

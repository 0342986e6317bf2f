package events

import "github.com/google/uuid"

// LeadCreated is published when intake creates a lead and its pipeline card.
type LeadCreated struct {
	BaseEvent
	LeadID uuid.UUID
	CardID uuid.UUID
}

// EventName returns the unique event identifier.
func (LeadCreated) EventName() string { return "lead.created" }

// LeadDistributed is published on every assignment or reassignment of a card.
// Reason follows the distribution audit vocabulary (initial,
// timeout_redistribution, manual_redistribution).
type LeadDistributed struct {
	BaseEvent
	CardID        uuid.UUID
	LeadID        uuid.UUID
	AgentID       uuid.UUID
	PreviousAgent *uuid.UUID
	Reason        string
}

// EventName returns the unique event identifier.
func (LeadDistributed) EventName() string { return "lead.distributed" }

// StageChanged is published after a successful stage transition.
type StageChanged struct {
	BaseEvent
	CardID  uuid.UUID
	From    string
	To      string
	AgentID uuid.UUID
}

// EventName returns the unique event identifier.
func (StageChanged) EventName() string { return "pipeline.stage_changed" }

// AttemptRecorded is published after a contact attempt is appended.
type AttemptRecorded struct {
	BaseEvent
	CardID    uuid.UUID
	AttemptID uuid.UUID
	Channel   string
	Result    string
}

// EventName returns the unique event identifier.
func (AttemptRecorded) EventName() string { return "pipeline.attempt_recorded" }

// TaskEscalated is published when a task exhausts its redistribution budget
// and requires human intervention.
type TaskEscalated struct {
	BaseEvent
	TaskID  uuid.UUID
	CardID  uuid.UUID
	AgentID uuid.UUID
}

// EventName returns the unique event identifier.
func (TaskEscalated) EventName() string { return "task.escalated" }

// RecontactDue is published when a card's scheduled recontact date arrives.
type RecontactDue struct {
	BaseEvent
	CardID  uuid.UUID
	AgentID uuid.UUID
}

// EventName returns the unique event identifier.
func (RecontactDue) EventName() string { return "pipeline.recontact_due" }

// TaskRedistributed is published when an overdue task moves its card to a new
// agent.
type TaskRedistributed struct {
	BaseEvent
	TaskID    uuid.UUID
	CardID    uuid.UUID
	FromAgent uuid.UUID
	ToAgent   uuid.UUID
	Attempt   int
}

// EventName returns the unique event identifier.
func (TaskRedistributed) EventName() string { return "task.redistributed" }

package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidTransition is returned for a move that violates stage order,
	// including replaying the current stage.
	ErrInvalidTransition = errors.New("invalid stage transition")
	// ErrCardClosed is returned when mutating a card already in outcome.
	ErrCardClosed = errors.New("card is closed")
	// ErrMissingOutcome is returned when entering outcome without a payload.
	ErrMissingOutcome = errors.New("outcome payload required")
	// ErrRecontactExhausted is returned when the recontact loop bound is hit.
	ErrRecontactExhausted = errors.New("recontact loop limit reached")
)

// Qualification is the final classification of a lead.
type Qualification string

const (
	QualificationUndetermined Qualification = "undetermined"
	QualificationQualified    Qualification = "qualified"
	QualificationUnqualified  Qualification = "unqualified"
)

// Lead is the prospective client captured at intake. Identity is immutable;
// contact fields may be updated later.
type Lead struct {
	ID               uuid.UUID
	FirstName        string
	LastName         string
	Phone            string
	Email            string
	ProductInterests []string
	Source           string
	Notes            string
	CreatedAt        time.Time
}

// StageHistoryEntry is one closed or open interval of a card's stage log.
// The log is append-only; the open entry has a nil ExitedAt.
type StageHistoryEntry struct {
	Stage     Stage
	AgentID   uuid.UUID
	EnteredAt time.Time
	ExitedAt  *time.Time
	Dwell     time.Duration
	Notes     string
}

// Outcome is the final qualification record, set exactly once when the card
// reaches the terminal stage.
type Outcome struct {
	Qualification Qualification
	Reason        string
	AgentID       uuid.UUID
	ClosedAt      time.Time
}

// ScheduledRecontact records a planned re-entry into the call stages.
type ScheduledRecontact struct {
	ScheduledFor time.Time
	Notes        string
}

// Card is the workflow unit wrapping a lead. Cards are value types: every
// mutation helper returns a new card with copied slices, so an aborted
// operation leaves the stored card untouched (copy-then-swap).
type Card struct {
	ID                 uuid.UUID
	LeadID             uuid.UUID
	Stage              Stage
	Qualification      Qualification
	CurrentAgentID     uuid.UUID
	PreviousAgentID    *uuid.UUID
	DistributedAt      time.Time
	UpdatedAt          time.Time
	TotalPipelineTime  time.Duration
	RecontactLoops     int
	StageHistory       []StageHistoryEntry
	Attempts           []ContactAttempt
	ScheduledRecontact *ScheduledRecontact
	Outcome            *Outcome
	CreatedAt          time.Time
}

// NewCard opens a card in the new_lead stage for the given lead and agent.
func NewCard(leadID, agentID uuid.UUID, now time.Time) Card {
	return Card{
		ID:             uuid.New(),
		LeadID:         leadID,
		Stage:          StageNewLead,
		Qualification:  QualificationUndetermined,
		CurrentAgentID: agentID,
		DistributedAt:  now,
		UpdatedAt:      now,
		StageHistory: []StageHistoryEntry{
			{Stage: StageNewLead, AgentID: agentID, EnteredAt: now},
		},
		CreatedAt: now,
	}
}

// clone returns a deep copy of the card so callers can mutate freely.
func (c Card) clone() Card {
	out := c
	out.StageHistory = append([]StageHistoryEntry(nil), c.StageHistory...)
	out.Attempts = append([]ContactAttempt(nil), c.Attempts...)
	if c.PreviousAgentID != nil {
		prev := *c.PreviousAgentID
		out.PreviousAgentID = &prev
	}
	if c.ScheduledRecontact != nil {
		sr := *c.ScheduledRecontact
		out.ScheduledRecontact = &sr
	}
	if c.Outcome != nil {
		o := *c.Outcome
		out.Outcome = &o
	}
	return out
}

// WithStage returns a copy of the card advanced to next. The open history
// entry is closed with its dwell time, a new entry is opened, and the
// cumulative pipeline time is recomputed. Entering outcome requires a
// non-nil outcome payload; entering recontact beyond the configured loop
// bound is rejected.
func (c Card) WithStage(next Stage, agentID uuid.UUID, notes string, outcome *Outcome, maxRecontactLoops int, now time.Time) (Card, error) {
	if c.Stage.IsTerminal() {
		return Card{}, ErrCardClosed
	}
	if !CanTransition(c.Stage, next) {
		return Card{}, ErrInvalidTransition
	}
	if next == StageOutcome && outcome == nil {
		return Card{}, ErrMissingOutcome
	}
	if next == StageRecontact && c.RecontactLoops >= maxRecontactLoops {
		return Card{}, ErrRecontactExhausted
	}

	out := c.clone()

	last := len(out.StageHistory) - 1
	dwell := now.Sub(out.StageHistory[last].EnteredAt)
	if dwell < 0 {
		dwell = 0
	}
	exitedAt := now
	out.StageHistory[last].ExitedAt = &exitedAt
	out.StageHistory[last].Dwell = dwell

	out.StageHistory = append(out.StageHistory, StageHistoryEntry{
		Stage:     next,
		AgentID:   agentID,
		EnteredAt: now,
		Notes:     notes,
	})

	out.Stage = next
	out.TotalPipelineTime += dwell
	out.UpdatedAt = now

	if next == StageRecontact {
		out.RecontactLoops++
	}

	if next == StageOutcome {
		o := *outcome
		o.ClosedAt = now
		out.Outcome = &o
		out.Qualification = o.Qualification
	}

	return out, nil
}

// WithAttempt returns a copy of the card with the attempt appended and the
// last-update timestamp refreshed. It does not touch the stage; transitions
// are explicit caller decisions.
func (c Card) WithAttempt(attempt ContactAttempt, now time.Time) Card {
	out := c.clone()
	out.Attempts = append(out.Attempts, attempt)
	out.UpdatedAt = now
	return out
}

// WithOwner returns a copy of the card assigned to agentID, remembering the
// previous owner.
func (c Card) WithOwner(agentID uuid.UUID, now time.Time) Card {
	out := c.clone()
	if out.CurrentAgentID != uuid.Nil {
		prev := out.CurrentAgentID
		out.PreviousAgentID = &prev
	}
	out.CurrentAgentID = agentID
	out.DistributedAt = now
	out.UpdatedAt = now
	if len(out.StageHistory) > 0 && out.StageHistory[len(out.StageHistory)-1].ExitedAt == nil {
		out.StageHistory[len(out.StageHistory)-1].AgentID = agentID
	}
	return out
}

// WithScheduledRecontact returns a copy of the card carrying a planned
// recontact time.
func (c Card) WithScheduledRecontact(at time.Time, notes string, now time.Time) Card {
	out := c.clone()
	out.ScheduledRecontact = &ScheduledRecontact{ScheduledFor: at, Notes: notes}
	out.UpdatedAt = now
	return out
}

// CurrentDwell returns how long the card has been in its current stage.
func (c Card) CurrentDwell(now time.Time) time.Duration {
	if len(c.StageHistory) == 0 {
		return 0
	}
	last := c.StageHistory[len(c.StageHistory)-1]
	if last.ExitedAt != nil {
		return last.Dwell
	}
	d := now.Sub(last.EnteredAt)
	if d < 0 {
		return 0
	}
	return d
}

// Package repository persists leads, pipeline cards, contact attempts, and
// the distribution audit log.
package repository

import (
	"context"
	"errors"
	"time"

	"staffhub_backend/internal/pipeline/domain"

	"github.com/google/uuid"
)

var (
	// ErrCardNotFound is returned when a pipeline card does not exist.
	ErrCardNotFound = errors.New("pipeline card not found")
	// ErrLeadNotFound is returned when a lead does not exist.
	ErrLeadNotFound = errors.New("lead not found")
)

// Distribution is one assignment or reassignment audit record. Append-only.
type Distribution struct {
	ID            uuid.UUID
	CardID        uuid.UUID
	LeadID        uuid.UUID
	AgentID       uuid.UUID
	PreviousAgent *uuid.UUID
	Reason        string
	Notes         string
	CreatedAt     time.Time
}

// Distribution reasons recorded in the audit log.
const (
	ReasonInitial               = "initial"
	ReasonTimeoutRedistribution = "timeout_redistribution"
	ReasonManualRedistribution  = "manual_redistribution"
)

// CardStore is the persistence boundary for leads and cards. The engine
// treats failures as retryable storage errors; no method leaves a partial
// write behind.
type CardStore interface {
	CreateLead(ctx context.Context, lead domain.Lead) error
	GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error)
	UpdateLead(ctx context.Context, lead domain.Lead) error
	CreateCard(ctx context.Context, card domain.Card) error
	GetCard(ctx context.Context, id uuid.UUID) (domain.Card, error)
	SaveCard(ctx context.Context, card domain.Card) error
	ListCardsByAgent(ctx context.Context, agentID uuid.UUID) ([]domain.Card, error)
	AppendAttempt(ctx context.Context, attempt domain.ContactAttempt) error
	ListAttempts(ctx context.Context, cardID uuid.UUID) ([]domain.ContactAttempt, error)
	ListAttemptsByAgent(ctx context.Context, agentID uuid.UUID) ([]domain.ContactAttempt, error)
}

// DistributionStore is the append-only audit log of assignment events.
type DistributionStore interface {
	AppendDistribution(ctx context.Context, d Distribution) error
	ListDistributions(ctx context.Context, cardID uuid.UUID) ([]Distribution, error)
}

// Package service implements lead intake, distribution, the stage transition
// state machine, and contact attempt recording. All card mutations run under
// a per-card lock and follow copy-then-swap: the card value is rebuilt first
// and persisted in a single transaction, so a cancelled operation leaves no
// half-updated card behind.
package service

import (
	"context"
	"errors"
	"time"

	"staffhub_backend/internal/events"
	"staffhub_backend/internal/pipeline/domain"
	"staffhub_backend/internal/pipeline/repository"
	"staffhub_backend/internal/pipeline/transport"
	"staffhub_backend/platform/apperr"
	"staffhub_backend/platform/clock"
	"staffhub_backend/platform/config"
	"staffhub_backend/platform/logger"
	"staffhub_backend/platform/phone"

	"github.com/google/uuid"
)

const distributionRetryDelay = 5 * time.Minute

// Store combines the persistence interfaces the service needs.
type Store interface {
	repository.CardStore
	repository.DistributionStore
}

// TaskPlanner creates and cancels follow-up tasks as cards move between
// stages. Implemented by the tasks service and injected via setter to avoid
// a package cycle with the redistribution path.
type TaskPlanner interface {
	PlanForStage(ctx context.Context, card domain.Card) error
	CancelOpen(ctx context.Context, cardID uuid.UUID) error
}

// RetryScheduler queues deferred distribution work (saturated-team retries
// and scheduled recontacts).
type RetryScheduler interface {
	ScheduleDistributionRetry(ctx context.Context, cardID uuid.UUID, runAt time.Time) error
	ScheduleRecontact(ctx context.Context, cardID uuid.UUID, runAt time.Time) error
}

type Service struct {
	store  Store
	roster RosterStore
	bus    events.Bus
	clk    clock.Clock
	wf     config.Workflow
	log    *logger.Logger

	locks *cardLocks
	tasks TaskPlanner
	retry RetryScheduler
}

func New(store Store, roster RosterStore, bus events.Bus, clk clock.Clock, wf config.Workflow, log *logger.Logger) *Service {
	return &Service{
		store:  store,
		roster: roster,
		bus:    bus,
		clk:    clk,
		wf:     wf,
		log:    log,
		locks:  newCardLocks(),
	}
}

// SetTaskPlanner wires the follow-up task planner. Optional; without it the
// engine still moves cards, it just plans no tasks.
func (s *Service) SetTaskPlanner(planner TaskPlanner) { s.tasks = planner }

// SetRetryScheduler wires the deferred-distribution scheduler. Optional.
func (s *Service) SetRetryScheduler(retry RetryScheduler) { s.retry = retry }

// CreateLead persists a new lead and opens its pipeline card. Distribution
// runs immediately; when the whole team is saturated the card is created
// unassigned and a distribution retry is queued, so the lead is never
// dropped.
func (s *Service) CreateLead(ctx context.Context, req transport.CreateLeadRequest) (transport.CardResponse, error) {
	now := s.clk.Now()

	lead := domain.Lead{
		ID:               uuid.New(),
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Phone:            phone.NormalizeE164(req.Phone),
		Email:            req.Email,
		ProductInterests: req.ProductInterests,
		Source:           req.Source,
		Notes:            req.Notes,
		CreatedAt:        now,
	}
	if err := s.store.CreateLead(ctx, lead); err != nil {
		return transport.CardResponse{}, apperr.Wrap(apperr.KindInternal, "create lead", err)
	}

	agent, assigned, err := s.acquireAgent(ctx, lead.ProductInterests, nil)
	if err != nil {
		return transport.CardResponse{}, apperr.Wrap(apperr.KindInternal, "distribute lead", err)
	}

	ownerID := uuid.Nil
	if assigned {
		ownerID = agent.ID
	}

	card := domain.NewCard(lead.ID, ownerID, now)
	if err := s.store.CreateCard(ctx, card); err != nil {
		if assigned {
			s.releaseQuietly(ctx, agent.ID)
		}
		return transport.CardResponse{}, apperr.Wrap(apperr.KindInternal, "create pipeline card", err)
	}

	s.bus.Publish(ctx, events.LeadCreated{BaseEvent: events.NewBaseEvent(), LeadID: lead.ID, CardID: card.ID})

	if assigned {
		s.recordDistribution(ctx, card, nil, repository.ReasonInitial, "")
		s.planTasks(ctx, card)
	} else {
		s.log.Warn("no agent capacity for new lead, queueing retry", "card_id", card.ID)
		s.scheduleDistributionRetry(ctx, card.ID, now.Add(distributionRetryDelay))
	}

	return toCardResponse(card, now), nil
}

// DistributeUnassigned assigns an owner to a card created while the team was
// saturated. Invoked from the scheduler worker; re-queues itself while
// capacity is still exhausted.
func (s *Service) DistributeUnassigned(ctx context.Context, cardID uuid.UUID) error {
	unlock := s.locks.lock(cardID)
	defer unlock()

	card, err := s.loadCard(ctx, cardID)
	if err != nil {
		return err
	}
	if card.CurrentAgentID != uuid.Nil || card.Stage.IsTerminal() {
		return nil
	}

	lead, err := s.store.GetLead(ctx, card.LeadID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "load lead", err)
	}

	now := s.clk.Now()
	agent, assigned, err := s.acquireAgent(ctx, lead.ProductInterests, nil)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "distribute lead", err)
	}
	if !assigned {
		s.scheduleDistributionRetry(ctx, cardID, now.Add(distributionRetryDelay))
		return nil
	}

	updated := card.WithOwner(agent.ID, now)
	if err := s.store.SaveCard(ctx, updated); err != nil {
		s.releaseQuietly(ctx, agent.ID)
		return apperr.Wrap(apperr.KindInternal, "save pipeline card", err)
	}

	s.recordDistribution(ctx, updated, nil, repository.ReasonInitial, "")
	s.planTasks(ctx, updated)
	return nil
}

// Transition moves a card to the next stage. Invalid moves are rejected
// before anything is persisted.
func (s *Service) Transition(ctx context.Context, cardID uuid.UUID, req transport.TransitionRequest) (transport.CardResponse, error) {
	next := domain.Stage(req.NextStage)
	if !next.IsValid() {
		return transport.CardResponse{}, apperr.Validation("unknown stage")
	}

	var outcome *domain.Outcome
	if req.Outcome != nil {
		outcome = &domain.Outcome{
			Qualification: domain.Qualification(req.Outcome.Qualification),
			Reason:        req.Outcome.Reason,
		}
	}

	unlock := s.locks.lock(cardID)
	defer unlock()

	card, err := s.loadCard(ctx, cardID)
	if err != nil {
		return transport.CardResponse{}, err
	}

	if outcome != nil {
		outcome.AgentID = card.CurrentAgentID
	}

	now := s.clk.Now()
	updated, err := card.WithStage(next, card.CurrentAgentID, req.Notes, outcome, s.wf.MaxRecontactLoops, now)
	if err != nil {
		return transport.CardResponse{}, mapTransitionError(err)
	}

	if next == domain.StageRecontact && req.RecontactAt != nil {
		updated = updated.WithScheduledRecontact(*req.RecontactAt, req.Notes, now)
	}

	if err := s.store.SaveCard(ctx, updated); err != nil {
		return transport.CardResponse{}, apperr.Wrap(apperr.KindInternal, "save pipeline card", err)
	}

	s.log.StageTransition(updated.ID.String(), string(card.Stage), string(next), updated.CurrentAgentID.String())
	s.bus.Publish(ctx, events.StageChanged{
		BaseEvent: events.NewBaseEvent(),
		CardID:    updated.ID,
		From:      string(card.Stage),
		To:        string(next),
		AgentID:   updated.CurrentAgentID,
	})

	s.cancelTasks(ctx, updated.ID)
	if next == domain.StageOutcome {
		// terminal: free the agent's capacity slot
		if updated.CurrentAgentID != uuid.Nil {
			s.releaseQuietly(ctx, updated.CurrentAgentID)
		}
	} else {
		s.planTasks(ctx, updated)
	}

	if next == domain.StageRecontact && req.RecontactAt != nil && s.retry != nil {
		if err := s.retry.ScheduleRecontact(ctx, updated.ID, *req.RecontactAt); err != nil {
			s.log.Error("failed to schedule recontact", "card_id", updated.ID, "error", err)
		}
	}

	return toCardResponse(updated, now), nil
}

// RecordAttempt appends an immutable contact attempt to the card's history.
// It never advances the stage or completes tasks; those are explicit caller
// decisions.
func (s *Service) RecordAttempt(ctx context.Context, cardID uuid.UUID, req transport.RecordAttemptRequest) (transport.AttemptResponse, error) {
	channel := domain.Channel(req.Channel)
	result := domain.Result(req.Result)
	if !channel.IsValid() || !result.IsValid() {
		return transport.AttemptResponse{}, apperr.Validation("unknown channel or result")
	}

	now := s.clk.Now()
	timestamp := now
	if req.Timestamp != nil {
		timestamp = *req.Timestamp
	}
	if timestamp.After(now.Add(s.wf.AttemptClockSkewTolerance)) {
		return transport.AttemptResponse{}, apperr.Validation("attempt timestamp is in the future")
	}

	unlock := s.locks.lock(cardID)
	defer unlock()

	card, err := s.loadCard(ctx, cardID)
	if err != nil {
		return transport.AttemptResponse{}, err
	}

	attempt := domain.ContactAttempt{
		ID:         uuid.New(),
		CardID:     card.ID,
		AgentID:    card.CurrentAgentID,
		Channel:    channel,
		Result:     result,
		Timestamp:  timestamp,
		NextAction: req.NextAction,
	}
	if req.CallDurationSeconds != nil {
		d := time.Duration(*req.CallDurationSeconds) * time.Second
		attempt.CallDuration = &d
	}

	if err := s.store.AppendAttempt(ctx, attempt); err != nil {
		return transport.AttemptResponse{}, apperr.Wrap(apperr.KindInternal, "append contact attempt", err)
	}

	s.bus.Publish(ctx, events.AttemptRecorded{
		BaseEvent: events.NewBaseEvent(),
		CardID:    card.ID,
		AttemptID: attempt.ID,
		Channel:   string(channel),
		Result:    string(result),
	})

	return toAttemptResponse(attempt), nil
}

// ManualRedistribute moves the card to a different agent at an operator's
// request.
func (s *Service) ManualRedistribute(ctx context.Context, cardID uuid.UUID, notes string) (transport.CardResponse, error) {
	card, err := s.redistribute(ctx, cardID, repository.ReasonManualRedistribution, notes)
	if err != nil {
		return transport.CardResponse{}, err
	}
	return toCardResponse(card, s.clk.Now()), nil
}

// RedistributeForTimeout moves the card away from an agent who let its task
// go overdue. Called by the tasks service; returns the new owner.
func (s *Service) RedistributeForTimeout(ctx context.Context, cardID uuid.UUID) (uuid.UUID, error) {
	card, err := s.redistribute(ctx, cardID, repository.ReasonTimeoutRedistribution, "")
	if err != nil {
		return uuid.Nil, err
	}
	return card.CurrentAgentID, nil
}

func (s *Service) redistribute(ctx context.Context, cardID uuid.UUID, reason, notes string) (domain.Card, error) {
	unlock := s.locks.lock(cardID)
	defer unlock()

	card, err := s.loadCard(ctx, cardID)
	if err != nil {
		return domain.Card{}, err
	}
	if card.Stage.IsTerminal() {
		return domain.Card{}, apperr.Conflict("card is closed")
	}

	lead, err := s.store.GetLead(ctx, card.LeadID)
	if err != nil {
		return domain.Card{}, apperr.Wrap(apperr.KindInternal, "load lead", err)
	}

	var exclude *uuid.UUID
	previous := card.CurrentAgentID
	if previous != uuid.Nil {
		exclude = &previous
	}

	agent, assigned, err := s.acquireAgent(ctx, lead.ProductInterests, exclude)
	if err != nil {
		return domain.Card{}, apperr.Wrap(apperr.KindInternal, "distribute lead", err)
	}
	if !assigned {
		return domain.Card{}, apperr.Unprocessable("no agent with spare capacity")
	}

	now := s.clk.Now()
	updated := card.WithOwner(agent.ID, now)
	if err := s.store.SaveCard(ctx, updated); err != nil {
		s.releaseQuietly(ctx, agent.ID)
		return domain.Card{}, apperr.Wrap(apperr.KindInternal, "save pipeline card", err)
	}

	if previous != uuid.Nil {
		s.releaseQuietly(ctx, previous)
	}

	s.recordDistribution(ctx, updated, updated.PreviousAgentID, reason, notes)
	return updated, nil
}

// GetCard returns the card with its full history and attempt list.
func (s *Service) GetCard(ctx context.Context, cardID uuid.UUID) (transport.CardResponse, error) {
	card, err := s.loadCard(ctx, cardID)
	if err != nil {
		return transport.CardResponse{}, err
	}
	return toCardResponse(card, s.clk.Now()), nil
}

// ListCardsByAgent returns the cards currently owned by the agent.
func (s *Service) ListCardsByAgent(ctx context.Context, agentID uuid.UUID) ([]transport.CardResponse, error) {
	cards, err := s.store.ListCardsByAgent(ctx, agentID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list cards", err)
	}
	now := s.clk.Now()
	out := make([]transport.CardResponse, 0, len(cards))
	for _, card := range cards {
		out = append(out, toCardResponse(card, now))
	}
	return out, nil
}

// ListDistributions returns the assignment audit trail of a card.
func (s *Service) ListDistributions(ctx context.Context, cardID uuid.UUID) ([]transport.DistributionResponse, error) {
	if _, err := s.loadCard(ctx, cardID); err != nil {
		return nil, err
	}
	records, err := s.store.ListDistributions(ctx, cardID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list distributions", err)
	}
	out := make([]transport.DistributionResponse, 0, len(records))
	for _, d := range records {
		out = append(out, toDistributionResponse(d))
	}
	return out, nil
}

// UpdateLead updates a lead's mutable contact fields.
func (s *Service) UpdateLead(ctx context.Context, leadID uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	lead, err := s.store.GetLead(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("lead not found")
		}
		return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, "load lead", err)
	}

	if req.Phone != nil {
		lead.Phone = phone.NormalizeE164(*req.Phone)
	}
	if req.Email != nil {
		lead.Email = *req.Email
	}
	if req.ProductInterests != nil {
		lead.ProductInterests = req.ProductInterests
	}
	if req.Notes != nil {
		lead.Notes = *req.Notes
	}

	if err := s.store.UpdateLead(ctx, lead); err != nil {
		return transport.LeadResponse{}, apperr.Wrap(apperr.KindInternal, "update lead", err)
	}
	return toLeadResponse(lead), nil
}

// =============================================================================
// internals
// =============================================================================

func (s *Service) loadCard(ctx context.Context, cardID uuid.UUID) (domain.Card, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return domain.Card{}, apperr.NotFound("pipeline card not found")
		}
		return domain.Card{}, apperr.Wrap(apperr.KindInternal, "load pipeline card", err)
	}
	return card, nil
}

func mapTransitionError(err error) error {
	switch {
	case errors.Is(err, domain.ErrMissingOutcome):
		return apperr.Validation("outcome payload required")
	case errors.Is(err, domain.ErrCardClosed):
		return apperr.Conflict("card is closed")
	case errors.Is(err, domain.ErrRecontactExhausted):
		return apperr.Conflict("recontact loop limit reached")
	case errors.Is(err, domain.ErrInvalidTransition):
		return apperr.Conflict("invalid stage transition")
	default:
		return apperr.Wrap(apperr.KindInternal, "stage transition", err)
	}
}

func (s *Service) recordDistribution(ctx context.Context, card domain.Card, previous *uuid.UUID, reason, notes string) {
	record := repository.Distribution{
		ID:            uuid.New(),
		CardID:        card.ID,
		LeadID:        card.LeadID,
		AgentID:       card.CurrentAgentID,
		PreviousAgent: previous,
		Reason:        reason,
		Notes:         notes,
		CreatedAt:     s.clk.Now(),
	}
	if err := s.store.AppendDistribution(ctx, record); err != nil {
		s.log.DatabaseError("append distribution", err)
	}

	fromAgent := ""
	if previous != nil {
		fromAgent = previous.String()
	}
	s.log.Redistribution(card.ID.String(), fromAgent, card.CurrentAgentID.String(), reason, 0)

	s.bus.Publish(ctx, events.LeadDistributed{
		BaseEvent:     events.NewBaseEvent(),
		CardID:        card.ID,
		LeadID:        card.LeadID,
		AgentID:       card.CurrentAgentID,
		PreviousAgent: previous,
		Reason:        reason,
	})
}

func (s *Service) planTasks(ctx context.Context, card domain.Card) {
	if s.tasks == nil {
		return
	}
	if err := s.tasks.PlanForStage(ctx, card); err != nil {
		s.log.Error("failed to plan follow-up task", "card_id", card.ID, "stage", card.Stage, "error", err)
	}
}

func (s *Service) cancelTasks(ctx context.Context, cardID uuid.UUID) {
	if s.tasks == nil {
		return
	}
	if err := s.tasks.CancelOpen(ctx, cardID); err != nil {
		s.log.Error("failed to cancel open tasks", "card_id", cardID, "error", err)
	}
}

func (s *Service) scheduleDistributionRetry(ctx context.Context, cardID uuid.UUID, runAt time.Time) {
	if s.retry == nil {
		return
	}
	if err := s.retry.ScheduleDistributionRetry(ctx, cardID, runAt); err != nil {
		s.log.Error("failed to schedule distribution retry", "card_id", cardID, "error", err)
	}
}

func (s *Service) releaseQuietly(ctx context.Context, agentID uuid.UUID) {
	if err := s.roster.Release(ctx, agentID); err != nil {
		s.log.DatabaseError("release agent capacity", err)
	}
}

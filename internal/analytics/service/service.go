// Package service exposes the analytics views over stored attempt history.
// All computation happens in the pure engine package; this layer only loads
// attempts and maps results.
package service

import (
	"context"
	"errors"

	"staffhub_backend/internal/analytics/engine"
	"staffhub_backend/internal/analytics/transport"
	"staffhub_backend/internal/pipeline/domain"
	pipelinerepo "staffhub_backend/internal/pipeline/repository"
	rosterrepo "staffhub_backend/internal/roster/repository"
	"staffhub_backend/platform/apperr"
	"staffhub_backend/platform/clock"
	"staffhub_backend/platform/config"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// AttemptStore reads stored attempt history. Satisfied by the pipeline
// repository.
type AttemptStore interface {
	GetCard(ctx context.Context, id uuid.UUID) (domain.Card, error)
	ListAttempts(ctx context.Context, cardID uuid.UUID) ([]domain.ContactAttempt, error)
	ListAttemptsByAgent(ctx context.Context, agentID uuid.UUID) ([]domain.ContactAttempt, error)
}

// RosterStore lists the agents included in team analytics.
type RosterStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (rosterrepo.Member, error)
	ListActive(ctx context.Context) ([]rosterrepo.Member, error)
}

type Service struct {
	attempts AttemptStore
	roster   RosterStore
	clk      clock.Clock
	cfg      engine.Config
}

func New(attempts AttemptStore, roster RosterStore, clk clock.Clock, wf config.Workflow) *Service {
	return &Service{
		attempts: attempts,
		roster:   roster,
		clk:      clk,
		cfg: engine.Config{
			FrequencyGapThreshold: wf.FrequencyGapThreshold,
			SuccessRateFloor:      wf.SuccessRateFloor,
			TrailingWindowDays:    30,
		},
	}
}

// CardAnalytics computes the analytics view of one card's attempt history.
func (s *Service) CardAnalytics(ctx context.Context, cardID uuid.UUID) (engine.Analytics, error) {
	if _, err := s.attempts.GetCard(ctx, cardID); err != nil {
		if errors.Is(err, pipelinerepo.ErrCardNotFound) {
			return engine.Analytics{}, apperr.NotFound("pipeline card not found")
		}
		return engine.Analytics{}, apperr.Wrap(apperr.KindInternal, "load pipeline card", err)
	}

	attempts, err := s.attempts.ListAttempts(ctx, cardID)
	if err != nil {
		return engine.Analytics{}, apperr.Wrap(apperr.KindInternal, "list attempts", err)
	}
	return engine.Analyze(attempts, s.clk.Now(), s.cfg), nil
}

// AgentAnalytics computes the analytics view over every attempt an agent has
// recorded, across all their cards.
func (s *Service) AgentAnalytics(ctx context.Context, agentID uuid.UUID) (engine.Analytics, error) {
	if _, err := s.roster.GetByID(ctx, agentID); err != nil {
		if errors.Is(err, rosterrepo.ErrNotFound) {
			return engine.Analytics{}, apperr.NotFound("team member not found")
		}
		return engine.Analytics{}, apperr.Wrap(apperr.KindInternal, "load team member", err)
	}

	attempts, err := s.attempts.ListAttemptsByAgent(ctx, agentID)
	if err != nil {
		return engine.Analytics{}, apperr.Wrap(apperr.KindInternal, "list attempts", err)
	}
	return engine.Analyze(attempts, s.clk.Now(), s.cfg), nil
}

// TeamAnalytics computes per-agent analytics for every active team member and
// ranks them. Per-agent histories load concurrently; output order follows the
// roster listing.
func (s *Service) TeamAnalytics(ctx context.Context) (transport.TeamAnalyticsResponse, error) {
	members, err := s.roster.ListActive(ctx)
	if err != nil {
		return transport.TeamAnalyticsResponse{}, apperr.Wrap(apperr.KindInternal, "list team members", err)
	}

	now := s.clk.Now()
	agents := make([]transport.AgentAnalytics, len(members))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(5)

	for i, m := range members {
		i, m := i, m
		g.Go(func() error {
			attempts, err := s.attempts.ListAttemptsByAgent(gctx, m.ID)
			if err != nil {
				return err
			}
			agents[i] = transport.AgentAnalytics{
				AgentID:   m.ID,
				Name:      m.Name,
				Analytics: engine.Analyze(attempts, now, s.cfg),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return transport.TeamAnalyticsResponse{}, apperr.Wrap(apperr.KindInternal, "list attempts", err)
	}

	byAgent := make(map[uuid.UUID]engine.Analytics, len(agents))
	for _, a := range agents {
		byAgent[a.AgentID] = a.Analytics
	}

	return transport.TeamAnalyticsResponse{
		Agents:     agents,
		Comparison: engine.CompareTeam(byAgent),
	}, nil
}

package service

import (
	"context"
	"testing"
	"time"

	"staffhub_backend/internal/pipeline/domain"
	pipelinerepo "staffhub_backend/internal/pipeline/repository"
	rosterrepo "staffhub_backend/internal/roster/repository"
	"staffhub_backend/platform/apperr"
	"staffhub_backend/platform/clock"
	"staffhub_backend/platform/config"

	"github.com/google/uuid"
)

type fakeAttempts struct {
	cards   map[uuid.UUID]domain.Card
	byAgent map[uuid.UUID][]domain.ContactAttempt
}

func (f *fakeAttempts) GetCard(_ context.Context, id uuid.UUID) (domain.Card, error) {
	card, ok := f.cards[id]
	if !ok {
		return domain.Card{}, pipelinerepo.ErrCardNotFound
	}
	return card, nil
}

func (f *fakeAttempts) ListAttempts(_ context.Context, cardID uuid.UUID) ([]domain.ContactAttempt, error) {
	card, ok := f.cards[cardID]
	if !ok {
		return nil, pipelinerepo.ErrCardNotFound
	}
	return card.Attempts, nil
}

func (f *fakeAttempts) ListAttemptsByAgent(_ context.Context, agentID uuid.UUID) ([]domain.ContactAttempt, error) {
	return f.byAgent[agentID], nil
}

type fakeRoster struct {
	members []rosterrepo.Member
}

func (f *fakeRoster) GetByID(_ context.Context, id uuid.UUID) (rosterrepo.Member, error) {
	for _, m := range f.members {
		if m.ID == id {
			return m, nil
		}
	}
	return rosterrepo.Member{}, rosterrepo.ErrNotFound
}

func (f *fakeRoster) ListActive(_ context.Context) ([]rosterrepo.Member, error) {
	return f.members, nil
}

func attemptAt(agentID uuid.UUID, result domain.Result, at time.Time) domain.ContactAttempt {
	return domain.ContactAttempt{
		ID:        uuid.New(),
		CardID:    uuid.New(),
		AgentID:   agentID,
		Channel:   domain.ChannelCall,
		Result:    result,
		Timestamp: at,
	}
}

func TestCardAnalyticsNotFound(t *testing.T) {
	svc := New(
		&fakeAttempts{cards: map[uuid.UUID]domain.Card{}},
		&fakeRoster{},
		clock.NewFake(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)),
		config.DefaultWorkflow(),
	)
	if _, err := svc.CardAnalytics(context.Background(), uuid.New()); apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("kind = %v, want not found", apperr.GetKind(err))
	}
	if _, err := svc.AgentAnalytics(context.Background(), uuid.New()); apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("agent kind = %v, want not found", apperr.GetKind(err))
	}
}

func TestTeamAnalyticsKeepsRosterOrder(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	high := rosterrepo.Member{ID: uuid.New(), Name: "Ana", Active: true}
	low := rosterrepo.Member{ID: uuid.New(), Name: "Bruno", Active: true}

	attempts := &fakeAttempts{byAgent: map[uuid.UUID][]domain.ContactAttempt{
		high.ID: {
			attemptAt(high.ID, domain.ResultSuccess, now.Add(-2*time.Hour)),
			attemptAt(high.ID, domain.ResultSuccess, now.Add(-time.Hour)),
		},
		low.ID: {
			attemptAt(low.ID, domain.ResultNoAnswer, now.Add(-2*time.Hour)),
			attemptAt(low.ID, domain.ResultSuccess, now.Add(-time.Hour)),
		},
	}}

	svc := New(attempts, &fakeRoster{members: []rosterrepo.Member{high, low}}, clock.NewFake(now), config.DefaultWorkflow())

	resp, err := svc.TeamAnalytics(context.Background())
	if err != nil {
		t.Fatalf("TeamAnalytics: %v", err)
	}

	if len(resp.Agents) != 2 {
		t.Fatalf("agents = %d, want 2", len(resp.Agents))
	}
	if resp.Agents[0].AgentID != high.ID || resp.Agents[1].AgentID != low.ID {
		t.Errorf("agent order %v/%v does not follow the roster", resp.Agents[0].Name, resp.Agents[1].Name)
	}
	if resp.Agents[0].Analytics.SuccessRate != 100 {
		t.Errorf("successRate = %v, want 100", resp.Agents[0].Analytics.SuccessRate)
	}
	if resp.Comparison.TopPerformer == nil || *resp.Comparison.TopPerformer != high.ID {
		t.Errorf("topPerformer = %v, want %v", resp.Comparison.TopPerformer, high.ID)
	}
}

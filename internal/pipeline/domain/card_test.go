package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

var testStart = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

func TestWithStageClosesHistoryAndAccumulatesTime(t *testing.T) {
	agent := uuid.New()
	card := NewCard(uuid.New(), agent, testStart)

	later := testStart.Add(2 * time.Hour)
	next, err := card.WithStage(StageCall1, agent, "first call", nil, 3, later)
	if err != nil {
		t.Fatalf("WithStage: %v", err)
	}

	if next.Stage != StageCall1 {
		t.Errorf("stage = %q, want %q", next.Stage, StageCall1)
	}
	if len(next.StageHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(next.StageHistory))
	}

	closed := next.StageHistory[0]
	if closed.ExitedAt == nil || !closed.ExitedAt.Equal(later) {
		t.Errorf("closed entry exit = %v, want %v", closed.ExitedAt, later)
	}
	if closed.Dwell != 2*time.Hour {
		t.Errorf("dwell = %v, want 2h", closed.Dwell)
	}
	if next.TotalPipelineTime != 2*time.Hour {
		t.Errorf("total pipeline time = %v, want 2h", next.TotalPipelineTime)
	}

	open := next.StageHistory[1]
	if open.ExitedAt != nil {
		t.Error("new entry must be open")
	}
	if open.Notes != "first call" {
		t.Errorf("notes = %q", open.Notes)
	}

	// original card untouched (copy-then-swap)
	if card.Stage != StageNewLead || len(card.StageHistory) != 1 {
		t.Error("WithStage mutated the receiver")
	}
	if card.StageHistory[0].ExitedAt != nil {
		t.Error("WithStage closed the receiver's open history entry")
	}
}

func TestWithStageReplayRejected(t *testing.T) {
	agent := uuid.New()
	card := NewCard(uuid.New(), agent, testStart)

	if _, err := card.WithStage(StageNewLead, agent, "", nil, 3, testStart.Add(time.Minute)); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("replaying current stage: err = %v, want ErrInvalidTransition", err)
	}
	if len(card.StageHistory) != 1 {
		t.Errorf("history grew on rejected transition: %d entries", len(card.StageHistory))
	}
}

func TestWithStageOutcomeRequiresPayload(t *testing.T) {
	agent := uuid.New()
	card := NewCard(uuid.New(), agent, testStart)

	if _, err := card.WithStage(StageOutcome, agent, "", nil, 3, testStart.Add(time.Hour)); !errors.Is(err, ErrMissingOutcome) {
		t.Fatalf("err = %v, want ErrMissingOutcome", err)
	}

	closed, err := card.WithStage(StageOutcome, agent, "", &Outcome{
		Qualification: QualificationQualified,
		Reason:        "hired for warehouse role",
		AgentID:       agent,
	}, 3, testStart.Add(time.Hour))
	if err != nil {
		t.Fatalf("WithStage outcome: %v", err)
	}

	if closed.Outcome == nil {
		t.Fatal("outcome not set")
	}
	if closed.Outcome.ClosedAt != testStart.Add(time.Hour) {
		t.Errorf("outcome closedAt = %v", closed.Outcome.ClosedAt)
	}
	if closed.Qualification != QualificationQualified {
		t.Errorf("qualification = %q", closed.Qualification)
	}

	// terminal cards reject every further move
	if _, err := closed.WithStage(StageCall1, agent, "", nil, 3, testStart.Add(2*time.Hour)); !errors.Is(err, ErrCardClosed) {
		t.Errorf("transition on closed card: err = %v, want ErrCardClosed", err)
	}
}

func TestWithStageRecontactLoopBound(t *testing.T) {
	agent := uuid.New()
	card := NewCard(uuid.New(), agent, testStart)
	now := testStart

	const maxLoops = 2
	for i := 0; i < maxLoops; i++ {
		now = now.Add(time.Hour)
		next, err := card.WithStage(StageRecontact, agent, "", nil, maxLoops, now)
		if err != nil {
			t.Fatalf("loop %d into recontact: %v", i+1, err)
		}
		now = now.Add(time.Hour)
		card, err = next.WithStage(StageCall1, agent, "", nil, maxLoops, now)
		if err != nil {
			t.Fatalf("loop %d back to call_1: %v", i+1, err)
		}
	}

	if card.RecontactLoops != maxLoops {
		t.Fatalf("recontact loops = %d, want %d", card.RecontactLoops, maxLoops)
	}
	if _, err := card.WithStage(StageRecontact, agent, "", nil, maxLoops, now.Add(time.Hour)); !errors.Is(err, ErrRecontactExhausted) {
		t.Errorf("err = %v, want ErrRecontactExhausted", err)
	}
}

func TestTotalPipelineTimeMonotonic(t *testing.T) {
	agent := uuid.New()
	card := NewCard(uuid.New(), agent, testStart)
	now := testStart

	prev := card.TotalPipelineTime
	for _, next := range []Stage{StageCall1, StageCall2, StageMessage, StageRecontact} {
		now = now.Add(30 * time.Minute)
		updated, err := card.WithStage(next, agent, "", nil, 3, now)
		if err != nil {
			t.Fatalf("to %q: %v", next, err)
		}
		if updated.TotalPipelineTime < prev {
			t.Errorf("pipeline time decreased entering %q: %v < %v", next, updated.TotalPipelineTime, prev)
		}
		prev = updated.TotalPipelineTime
		card = updated
	}
}

func TestWithOwnerTracksPreviousAgent(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	card := NewCard(uuid.New(), first, testStart)

	reassigned := card.WithOwner(second, testStart.Add(time.Hour))
	if reassigned.CurrentAgentID != second {
		t.Errorf("current agent = %v, want %v", reassigned.CurrentAgentID, second)
	}
	if reassigned.PreviousAgentID == nil || *reassigned.PreviousAgentID != first {
		t.Errorf("previous agent = %v, want %v", reassigned.PreviousAgentID, first)
	}
	if got := reassigned.StageHistory[0].AgentID; got != second {
		t.Errorf("open history entry agent = %v, want new owner", got)
	}
	if card.CurrentAgentID != first {
		t.Error("WithOwner mutated the receiver")
	}
}

func TestWithAttemptAppendsWithoutTouchingStage(t *testing.T) {
	agent := uuid.New()
	card := NewCard(uuid.New(), agent, testStart)

	attempt := ContactAttempt{
		ID:        uuid.New(),
		CardID:    card.ID,
		AgentID:   agent,
		Channel:   ChannelCall,
		Result:    ResultNoAnswer,
		Timestamp: testStart.Add(10 * time.Minute),
	}

	updated := card.WithAttempt(attempt, testStart.Add(10*time.Minute))
	if len(updated.Attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(updated.Attempts))
	}
	if updated.Stage != card.Stage {
		t.Error("recording an attempt must not change the stage")
	}
	if !updated.UpdatedAt.Equal(testStart.Add(10 * time.Minute)) {
		t.Errorf("updatedAt = %v", updated.UpdatedAt)
	}
	if len(card.Attempts) != 0 {
		t.Error("WithAttempt mutated the receiver")
	}
}

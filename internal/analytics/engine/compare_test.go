package engine

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func analyticsWithRate(rate float64) Analytics {
	return Analytics{SuccessRate: rate}
}

func TestCompareTeamEmpty(t *testing.T) {
	out := CompareTeam(nil)
	if out.TopPerformer != nil {
		t.Errorf("topPerformer = %v, want nil", out.TopPerformer)
	}
	if len(out.AveragePerformers) != 0 || len(out.NeedsImprovement) != 0 || len(out.Recommendations) != 0 {
		t.Errorf("unexpected output for empty team: %+v", out)
	}
}

func TestCompareTeamRanking(t *testing.T) {
	top := uuid.New()
	mid := uuid.New()
	low := uuid.New()

	out := CompareTeam(map[uuid.UUID]Analytics{
		top: analyticsWithRate(80),
		mid: analyticsWithRate(50),
		low: analyticsWithRate(20),
	})

	if out.TeamMeanRate != 50 {
		t.Fatalf("teamMeanRate = %v, want 50", out.TeamMeanRate)
	}
	if out.TopPerformer == nil || *out.TopPerformer != top {
		t.Errorf("topPerformer = %v, want %v", out.TopPerformer, top)
	}
	if len(out.AveragePerformers) != 1 || out.AveragePerformers[0] != mid {
		t.Errorf("averagePerformers = %v, want [%v]", out.AveragePerformers, mid)
	}
	// 20 < 80% of 50
	if len(out.NeedsImprovement) != 1 || out.NeedsImprovement[0] != low {
		t.Errorf("needsImprovement = %v, want [%v]", out.NeedsImprovement, low)
	}

	if len(out.Recommendations) != 1 {
		t.Fatalf("recommendations = %v, want one training recommendation", out.Recommendations)
	}
	rec := out.Recommendations[0]
	if rec.Type != RecommendationTraining || rec.Impact != ImpactHigh || !rec.Actionable {
		t.Errorf("training rec = %+v", rec)
	}
	if !strings.Contains(rec.Message, low.String()) {
		t.Errorf("training rec does not name the flagged agent: %q", rec.Message)
	}
}

func TestCompareTeamNoUnderperformers(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	out := CompareTeam(map[uuid.UUID]Analytics{
		a: analyticsWithRate(52),
		b: analyticsWithRate(48),
	})

	if len(out.NeedsImprovement) != 0 {
		t.Errorf("needsImprovement = %v, want none", out.NeedsImprovement)
	}
	if len(out.Recommendations) != 0 {
		t.Errorf("recommendations = %v, want none without underperformers", out.Recommendations)
	}
	if len(out.AveragePerformers) != 2 {
		t.Errorf("averagePerformers = %v, want both agents", out.AveragePerformers)
	}
}

func TestCompareTeamDeterministicOrder(t *testing.T) {
	agents := map[uuid.UUID]Analytics{}
	for i := 0; i < 5; i++ {
		agents[uuid.New()] = analyticsWithRate(10) // all equal, all "average"
	}

	first := CompareTeam(agents)
	for i := 0; i < 10; i++ {
		next := CompareTeam(agents)
		if len(next.AveragePerformers) != len(first.AveragePerformers) {
			t.Fatalf("length changed between runs")
		}
		for j := range next.AveragePerformers {
			if next.AveragePerformers[j] != first.AveragePerformers[j] {
				t.Fatalf("ordering changed between runs")
			}
		}
		if *next.TopPerformer != *first.TopPerformer {
			t.Fatalf("top performer changed between runs")
		}
	}
}

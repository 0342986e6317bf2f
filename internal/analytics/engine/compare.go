package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Tolerance and floor used when ranking agents against the team mean.
const (
	averageTolerancePP     = 5.0  // percentage points around the mean
	needsImprovementFactor = 0.8  // share of the mean below which an agent is flagged
)

// TeamComparison ranks agents by their analytics.
type TeamComparison struct {
	TeamMeanRate      float64          `json:"teamMeanRate"`
	TopPerformer      *uuid.UUID       `json:"topPerformer,omitempty"`
	AveragePerformers []uuid.UUID      `json:"averagePerformers"`
	NeedsImprovement  []uuid.UUID      `json:"needsImprovement"`
	Recommendations   []Recommendation `json:"recommendations"`
}

// CompareTeam ranks agents by success rate. The top performer is the agent
// with the highest rate; average performers sit within a few percentage
// points of the team mean; agents below 80% of the mean are flagged, and a
// training recommendation naming them is produced. Ties and iteration order
// are made deterministic by sorting agent IDs.
func CompareTeam(byAgent map[uuid.UUID]Analytics) TeamComparison {
	out := TeamComparison{
		AveragePerformers: []uuid.UUID{},
		NeedsImprovement:  []uuid.UUID{},
		Recommendations:   []Recommendation{},
	}
	if len(byAgent) == 0 {
		return out
	}

	ids := make([]uuid.UUID, 0, len(byAgent))
	for id := range byAgent {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	var sum float64
	for _, id := range ids {
		sum += byAgent[id].SuccessRate
	}
	out.TeamMeanRate = sum / float64(len(ids))

	var top uuid.UUID
	bestRate := -1.0
	for _, id := range ids {
		a := byAgent[id]
		if a.SuccessRate > bestRate {
			top = id
			bestRate = a.SuccessRate
		}

		switch {
		case a.SuccessRate < out.TeamMeanRate*needsImprovementFactor:
			out.NeedsImprovement = append(out.NeedsImprovement, id)
		case a.SuccessRate >= out.TeamMeanRate-averageTolerancePP && a.SuccessRate <= out.TeamMeanRate+averageTolerancePP:
			out.AveragePerformers = append(out.AveragePerformers, id)
		}
	}
	out.TopPerformer = &top

	if len(out.NeedsImprovement) > 0 {
		names := make([]string, 0, len(out.NeedsImprovement))
		for _, id := range out.NeedsImprovement {
			names = append(names, id.String())
		}
		out.Recommendations = append(out.Recommendations, Recommendation{
			Type:       RecommendationTraining,
			Message:    fmt.Sprintf("agents below 80%% of the team success rate need coaching: %s", strings.Join(names, ", ")),
			Impact:     ImpactHigh,
			Actionable: true,
		})
	}

	return out
}

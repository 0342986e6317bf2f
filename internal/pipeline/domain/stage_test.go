package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Stage
		to   Stage
		want bool
	}{
		// forward walk
		{StageNewLead, StageCall1, true},
		{StageCall1, StageCall2, true},
		{StageCall2, StageMessage, true},
		{StageMessage, StageRecontact, true},

		// recontact and outcome reachable from any non-terminal stage
		{StageNewLead, StageRecontact, true},
		{StageNewLead, StageOutcome, true},
		{StageCall1, StageOutcome, true},
		{StageMessage, StageOutcome, true},

		// recontact loops back to the call stages only
		{StageRecontact, StageCall1, true},
		{StageRecontact, StageCall2, true},
		{StageRecontact, StageNewLead, false},
		{StageRecontact, StageMessage, false},
		{StageRecontact, StageOutcome, true},

		// no skipping forward
		{StageNewLead, StageCall2, false},
		{StageCall1, StageMessage, false},

		// no moving backwards outside the recontact loop
		{StageCall2, StageCall1, false},
		{StageMessage, StageNewLead, false},

		// replay of the current stage is invalid
		{StageCall1, StageCall1, false},
		{StageOutcome, StageOutcome, false},

		// terminal stage is final
		{StageOutcome, StageCall1, false},
		{StageOutcome, StageRecontact, false},

		// unknown stages
		{Stage("bogus"), StageCall1, false},
		{StageCall1, Stage("bogus"), false},
	}

	for _, tc := range tests {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestStagesOrdered(t *testing.T) {
	stages := Stages()
	if len(stages) != len(stageOrder) {
		t.Fatalf("Stages() returned %d stages, want %d", len(stages), len(stageOrder))
	}
	for i, s := range stages {
		if stageOrder[s] != i {
			t.Errorf("Stages()[%d] = %q, order index %d", i, s, stageOrder[s])
		}
	}
}

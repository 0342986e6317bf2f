// Package domain holds the pipeline workflow value types: stages, contact
// attempts, and the lead pipeline card. Everything here is pure data and
// pure functions; persistence and locking live in the surrounding packages.
package domain

// Stage is a phase of the lead qualification workflow. The set is closed:
// adding a stage means updating the order table and the transition rules
// here, and the analytics bucketing stays unaffected.
type Stage string

const (
	StageNewLead   Stage = "new_lead"
	StageCall1     Stage = "call_1"
	StageCall2     Stage = "call_2"
	StageMessage   Stage = "message"
	StageRecontact Stage = "recontact"
	StageOutcome   Stage = "outcome"
)

// stageOrder defines the forward walk through the pipeline. Recontact and
// outcome are additionally reachable from any non-terminal stage, and
// recontact may loop back to the call stages.
var stageOrder = map[Stage]int{
	StageNewLead:   0,
	StageCall1:     1,
	StageCall2:     2,
	StageMessage:   3,
	StageRecontact: 4,
	StageOutcome:   5,
}

// IsValid reports whether s is a known stage.
func (s Stage) IsValid() bool {
	_, ok := stageOrder[s]
	return ok
}

// IsTerminal reports whether s is the terminal outcome stage.
func (s Stage) IsTerminal() bool { return s == StageOutcome }

// CanTransition reports whether a card in stage from may move to stage to.
// Allowed moves are: the next stage in pipeline order, recontact or outcome
// from any non-terminal stage, and the recontact loop back to call_1/call_2.
// A no-op move (from == to) is never allowed, which makes transition replay
// detectable.
func CanTransition(from, to Stage) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if from.IsTerminal() || from == to {
		return false
	}

	if to == StageRecontact || to == StageOutcome {
		return true
	}

	if from == StageRecontact {
		return to == StageCall1 || to == StageCall2
	}

	return stageOrder[to] == stageOrder[from]+1
}

// Stages returns all stages in pipeline order.
func Stages() []Stage {
	return []Stage{StageNewLead, StageCall1, StageCall2, StageMessage, StageRecontact, StageOutcome}
}

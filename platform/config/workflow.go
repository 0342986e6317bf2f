package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Workflow holds the pipeline workflow tuning parameters. Values come from an
// optional YAML settings file; individual environment variables override the
// file. Defaults apply when neither is set.
type Workflow struct {
	// MaxRedistributionAttempts bounds how often an overdue task may be
	// redistributed before the lead escalates to the commercial director.
	MaxRedistributionAttempts int `yaml:"maxRedistributionAttempts"`
	// MaxRecontactLoops bounds how often a card may re-enter the recontact
	// stage before an outcome is forced.
	MaxRecontactLoops int `yaml:"maxRecontactLoops"`
	// TaskDueAfter is the follow-up window granted when a card enters a stage.
	TaskDueAfter time.Duration `yaml:"taskDueAfter"`
	// AttemptClockSkewTolerance is how far in the future an attempt timestamp
	// may lie before it is rejected.
	AttemptClockSkewTolerance time.Duration `yaml:"attemptClockSkewTolerance"`
	// FrequencyGapThreshold is the mean inter-attempt gap above which the
	// analytics engine recommends contacting more often.
	FrequencyGapThreshold time.Duration `yaml:"frequencyGapThreshold"`
	// SuccessRateFloor is the overall success rate (percent) below which the
	// analytics engine recommends a strategy review.
	SuccessRateFloor float64 `yaml:"successRateFloor"`
}

// DefaultWorkflow returns the built-in workflow tuning.
func DefaultWorkflow() Workflow {
	return Workflow{
		MaxRedistributionAttempts: 3,
		MaxRecontactLoops:         3,
		TaskDueAfter:              24 * time.Hour,
		AttemptClockSkewTolerance: 5 * time.Minute,
		FrequencyGapThreshold:     72 * time.Hour,
		SuccessRateFloor:          30,
	}
}

func loadWorkflow(path string) (Workflow, error) {
	wf := DefaultWorkflow()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Workflow{}, fmt.Errorf("read workflow settings: %w", err)
		}
		if err := yaml.Unmarshal(data, &wf); err != nil {
			return Workflow{}, fmt.Errorf("parse workflow settings: %w", err)
		}
	}

	if v := getIntEnv("MAX_REDISTRIBUTION_ATTEMPTS", 0); v > 0 {
		wf.MaxRedistributionAttempts = v
	}
	if v := getIntEnv("MAX_RECONTACT_LOOPS", 0); v > 0 {
		wf.MaxRecontactLoops = v
	}
	if v := getDurationEnv("TASK_DUE_AFTER", 0); v > 0 {
		wf.TaskDueAfter = v
	}
	if v := getDurationEnv("ATTEMPT_CLOCK_SKEW_TOLERANCE", 0); v > 0 {
		wf.AttemptClockSkewTolerance = v
	}

	if wf.MaxRedistributionAttempts < 1 {
		return Workflow{}, fmt.Errorf("maxRedistributionAttempts must be positive")
	}
	if wf.MaxRecontactLoops < 1 {
		return Workflow{}, fmt.Errorf("maxRecontactLoops must be positive")
	}

	return wf, nil
}

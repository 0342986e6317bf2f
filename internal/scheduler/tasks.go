package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskDistributionRetry = "pipeline.distribution.retry"

const TaskRecontactDue = "pipeline.recontact.due"

type DistributionRetryPayload struct {
	CardID string `json:"cardId"`
}

type RecontactDuePayload struct {
	CardID string `json:"cardId"`
}

func NewDistributionRetryTask(payload DistributionRetryPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDistributionRetry, data), nil
}

func ParseDistributionRetryPayload(task *asynq.Task) (DistributionRetryPayload, error) {
	var payload DistributionRetryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DistributionRetryPayload{}, err
	}
	return payload, nil
}

func NewRecontactDueTask(payload RecontactDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRecontactDue, data), nil
}

func ParseRecontactDuePayload(task *asynq.Task) (RecontactDuePayload, error) {
	var payload RecontactDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RecontactDuePayload{}, err
	}
	return payload, nil
}

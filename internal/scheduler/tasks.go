package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskBatchRun = "sourcing.batch.run"

type BatchRunPayload struct {
	BatchID string `json:"batchId"`
	DryRun  bool   `json:"dryRun"`
}

func NewBatchRunTask(payload BatchRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBatchRun, data), nil
}

func ParseBatchRunPayload(task *asynq.Task) (BatchRunPayload, error) {
	var payload BatchRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return BatchRunPayload{}, err
	}
	return payload, nil
}

// Package scheduler runs the campaign dispatch loop. A periodic tick fans out
// over the configured jobs; each job checks its window and daily cap, selects
// leads, and hands them to the dialer.
package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type identifiers.
const (
	TaskCampaignTick = "campaign:tick"
)

// CampaignTickPayload selects which jobs a tick covers. An empty JobName
// ticks every enabled job.
type CampaignTickPayload struct {
	JobName string `json:"jobName,omitempty"`
}

// NewCampaignTickTask builds an asynq task for a campaign tick.
func NewCampaignTickTask(payload CampaignTickPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal campaign tick payload: %w", err)
	}
	return asynq.NewTask(TaskCampaignTick, data), nil
}

// ParseCampaignTickPayload decodes a campaign tick task payload.
func ParseCampaignTickPayload(task *asynq.Task) (CampaignTickPayload, error) {
	var payload CampaignTickPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("parse campaign tick payload: %w", err)
	}
	return payload, nil
}

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type testSchedulerConfig struct {
	redisURL string
}

func (c testSchedulerConfig) GetRedisURL() string                   { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool             { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string             { return "dialer" }
func (c testSchedulerConfig) GetAsynqConcurrency() int              { return 1 }
func (c testSchedulerConfig) GetCampaignTickCron() string           { return "@every 1m" }
func (c testSchedulerConfig) GetDueCallPollInterval() time.Duration { return time.Second }

func TestClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("expected error without a redis url")
	}
}

func TestEnqueueTick(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := NewClient(testSchedulerConfig{redisURL: "redis://" + srv.Addr()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	if err := client.EnqueueTick(context.Background(), "ScheduledCalls"); err != nil {
		t.Fatalf("EnqueueTick: %v", err)
	}

	// The task lands in the configured queue's pending list.
	if !srv.Exists("asynq:{dialer}:pending") {
		t.Fatalf("expected a pending task in the dialer queue, keys: %v", srv.Keys())
	}
}

func TestCampaignTickPayloadRoundTrip(t *testing.T) {
	task, err := NewCampaignTickTask(CampaignTickPayload{JobName: "ScheduledCalls"})
	if err != nil {
		t.Fatalf("NewCampaignTickTask: %v", err)
	}
	if task.Type() != TaskCampaignTick {
		t.Errorf("task type = %q", task.Type())
	}

	payload, err := ParseCampaignTickPayload(task)
	if err != nil {
		t.Fatalf("ParseCampaignTickPayload: %v", err)
	}
	if payload.JobName != "ScheduledCalls" {
		t.Errorf("job name = %q", payload.JobName)
	}
}

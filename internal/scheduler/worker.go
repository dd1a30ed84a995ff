package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"dialdesk_backend/platform/config"
	"dialdesk_backend/platform/logger"
)

// Worker consumes campaign tick tasks from the shared queue.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	campaign *Campaign
	log      *logger.Logger
}

// NewWorker creates the queue consumer for campaign ticks.
func NewWorker(cfg config.SchedulerConfig, campaign *Campaign, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		campaign: campaign,
		log:      log,
	}

	mux.HandleFunc(TaskCampaignTick, w.handleCampaignTick)

	return w, nil
}

func (w *Worker) handleCampaignTick(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCampaignTickPayload(task)
	if err != nil {
		return err
	}

	now := time.Now()
	if payload.JobName != "" {
		_, err := w.campaign.RunTick(ctx, payload.JobName, now, false)
		return err
	}

	_, err = w.campaign.RunAll(ctx, now)
	return err
}

// Run serves tasks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

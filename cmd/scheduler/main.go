package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"dialdesk_backend/internal/callhistory"
	"dialdesk_backend/internal/dialer"
	"dialdesk_backend/internal/events"
	"dialdesk_backend/internal/jobsettings"
	"dialdesk_backend/internal/leads"
	"dialdesk_backend/internal/leads/selection"
	"dialdesk_backend/internal/scheduler"
	"dialdesk_backend/internal/voice"
	"dialdesk_backend/platform/config"
	"dialdesk_backend/platform/db"
	"dialdesk_backend/platform/logger"
)

// The scheduler binary runs three loops: the periodic tick producer, the
// queue worker consuming ticks, and the due-call poller draining deferred
// requests. Migrations are owned by the api binary.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	voiceClient := voice.NewClient(cfg)

	leadsRepo := leads.New(pool)
	callsRepo := callhistory.New(pool)
	jobsRepo := jobsettings.NewRepository(pool)

	dialerSvc := dialer.NewService(voiceClient, callsRepo, leadsRepo, eventBus, log,
		cfg.GetDefaultFromNumber(), cfg.GetDefaultAgentID())
	scheduledRepo := dialer.NewScheduledCallRepository(pool)

	campaign := scheduler.NewCampaign(
		jobsRepo,
		selection.NewSelector(leadsRepo),
		dialerSvc,
		callsRepo,
		log,
		cfg.GetJobTimeStorageOffset(),
		cfg.GetDefaultFromNumber(),
	)

	worker, err := scheduler.NewWorker(cfg, campaign, log)
	if err != nil {
		log.Error("failed to initialize worker", "error", err)
		panic("failed to initialize worker: " + err.Error())
	}

	periodic, err := scheduler.NewPeriodicScheduler(cfg)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}

	poller := scheduler.NewDueCallPoller(scheduledRepo, dialerSvc, log, cfg.GetDueCallPollInterval())

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := periodic.Start(); err != nil {
			log.Error("periodic scheduler failed to start", "error", err)
			stop()
			return
		}
		<-ctx.Done()
		periodic.Shutdown()
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	wg.Wait()
	log.Info("scheduler stopped")
}

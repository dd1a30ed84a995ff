package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"dialdesk_backend/internal/callhistory"
	"dialdesk_backend/internal/dialer"
	"dialdesk_backend/internal/events"
	apphttp "dialdesk_backend/internal/http"
	"dialdesk_backend/internal/http/router"
	"dialdesk_backend/internal/jobsettings"
	"dialdesk_backend/internal/leads"
	"dialdesk_backend/internal/leads/selection"
	"dialdesk_backend/internal/scheduler"
	"dialdesk_backend/internal/voice"
	"dialdesk_backend/internal/webhook"
	"dialdesk_backend/migrations"
	"dialdesk_backend/platform/config"
	"dialdesk_backend/platform/db"
	"dialdesk_backend/platform/logger"
	"dialdesk_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()
	voiceClient := voice.NewClient(cfg)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	jobSettingsModule := jobsettings.NewModule(pool, cfg.GetJobTimeStorageOffset(), val)
	callHistoryModule := callhistory.NewModule(pool)
	leadsRepo := leads.New(pool)

	dialerModule := dialer.NewModule(pool, voiceClient, callHistoryModule.Repository(),
		leadsRepo, eventBus, log, cfg, val)

	webhookModule := webhook.NewModule(callHistoryModule.Repository(), leadsRepo,
		voiceClient, eventBus, log)

	// Manual run-now shares the campaign engine with the scheduler worker.
	campaign := scheduler.NewCampaign(
		jobSettingsModule.Repository(),
		selection.NewSelector(leadsRepo),
		dialerModule.Service(),
		callHistoryModule.Repository(),
		log,
		cfg.GetJobTimeStorageOffset(),
		cfg.GetDefaultFromNumber(),
	)
	schedulerModule := scheduler.NewModule(campaign)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			jobSettingsModule,
			callHistoryModule,
			dialerModule,
			webhookModule,
			schedulerModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}

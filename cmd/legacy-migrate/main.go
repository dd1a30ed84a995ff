package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"dialdesk_backend/internal/callhistory"
	"dialdesk_backend/internal/leads"
	"dialdesk_backend/platform/config"
	"dialdesk_backend/platform/db"
	"dialdesk_backend/platform/logger"
)

// One-shot conversion of embedded per-lead call blobs into the normalized
// call history tables. Safe to run repeatedly; migrated leads are skipped.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting legacy call data migration", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	migrator := callhistory.NewMigrator(leads.New(pool), callhistory.New(pool), log)

	report, err := migrator.Run(ctx)
	if err != nil {
		log.Error("migration aborted", "error", err,
			"leads_processed", report.LeadsProcessed,
			"records_created", report.RecordsCreated)
		os.Exit(1)
	}

	log.Info("migration complete",
		"leads_processed", report.LeadsProcessed,
		"records_created", report.RecordsCreated,
		"failures", len(report.Failures),
	)
	for _, failure := range report.Failures {
		log.Warn("migration failure", "detail", failure)
	}
	if len(report.Failures) > 0 {
		os.Exit(1)
	}
}

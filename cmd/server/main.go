// KPIPulse - KPI Reminder and Reporting Automation
// Copyright 2026 STS Platform Team
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/sts-platform/kpipulse

// Package main is the entry point for the KPIPulse server.
//
// KPIPulse automates the weekly KPI reporting cycle: a daily scheduler (and
// a manual HTTP trigger) finds KPIs due for reporting in the current ISO
// week, emails each responsible one reminder per plant with a link back to
// the reporting form, and advances each notified KPI to its next cycle.
//
// The server initializes components in the following order:
//
//  1. Configuration: layered defaults, optional YAML file, environment
//     variables (Koanf v2)
//  2. Database: DuckDB with the KPI schema applied
//  3. Notifier: SMTP email delivery
//  4. Planner: the reminder cycle
//  5. Scheduler: daily trigger in the configured operating zone
//  6. HTTP server: health, status, trigger, form and dashboard endpoints
//
// The scheduler and HTTP server run under a suture supervisor tree.
// SIGINT/SIGTERM cancels the root context; the tree shuts both down
// gracefully before the database is closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sts-platform/kpipulse/internal/api"
	"github.com/sts-platform/kpipulse/internal/config"
	"github.com/sts-platform/kpipulse/internal/database"
	"github.com/sts-platform/kpipulse/internal/logging"
	"github.com/sts-platform/kpipulse/internal/notifier"
	"github.com/sts-platform/kpipulse/internal/planner"
	"github.com/sts-platform/kpipulse/internal/scheduler"
	"github.com/sts-platform/kpipulse/internal/supervisor"
	"github.com/sts-platform/kpipulse/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("smtp_host", cfg.SMTP.Host).
		Bool("schedule_enabled", cfg.Schedule.Enabled).
		Str("timezone", cfg.Schedule.Timezone).
		Msg("Starting KPIPulse")

	loc := cfg.ScheduleLocation()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close database")
		}
	}()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	baseURL := cfg.Server.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
		logging.Warn().Str("base_url", baseURL).Msg("No base URL configured; form links use localhost")
	}

	emailer := notifier.NewEmailNotifier(cfg.SMTP, baseURL)
	runner := planner.New(db, emailer, loc)

	daily := scheduler.New(runner, scheduler.Config{
		Enabled:  cfg.Schedule.Enabled,
		Hour:     cfg.Schedule.Hour,
		Minute:   cfg.Schedule.Minute,
		Location: loc,
	})

	handler := api.NewHandler(db, runner, daily, api.HandlerConfig{
		Location:     loc,
		DashboardURL: cfg.Dashboard.URL,
		SMTPEndpoint: fmt.Sprintf("%s:%d", cfg.SMTP.Host, cfg.SMTP.Port),
	})
	router := api.NewRouter(handler, &cfg.Server)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())
	tree.AddJobService(services.NewReminderService(daily))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor has fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

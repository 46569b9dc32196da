package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gosmtp "github.com/emersion/go-smtp"
	"github.com/spf13/cobra"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/api"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/api/middleware"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/logger"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/scheduler"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/smtp"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/websocket"
	"golang.org/x/time/rate"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the SMTP receiver, HTTP API and scheduled sweeps",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	log.Info("Starting gigbook inbound server...")
	cfg.LogConfig(log)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := websocket.NewHub(log)
	go hub.Run(hubCtx)

	a, err := newApp(ctx, cfg, log, hub)
	if err != nil {
		return err
	}
	defer a.close()

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.RateLimitRequests), cfg.RateLimitBurst)

	// A nil *MemoryTracker must not reach the scheduler as a non-nil Evicter.
	var quotaEvicter scheduler.Evicter
	if a.memQuota != nil {
		quotaEvicter = a.memQuota
	}
	sched := scheduler.New(a.bookings, a.tenants, a.writer, quotaEvicter, scheduler.Config{
		Schedule:         cfg.SweepSchedule,
		PlaceholderAfter: cfg.PlaceholderReviewAfter,
	}, log)
	sched.AddEvicter(limiter)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	backend := smtp.NewBackend(&smtp.BackendConfig{
		Processor: a.pipeline,
		Domains:   cfg.SMTPDomains,
		Logger:    log,
	})
	smtpServer := smtp.NewSecureServer(backend, smtp.ServerConfigFrom(cfg))

	e := api.NewRouter(&api.RouterConfig{
		DB:                a.db,
		Logger:            log,
		Security:          logger.NewSecurityLoggerWithHandler(logger.Component(log, "security").Handler()),
		Processor:         a.pipeline,
		Reprocessor:       a.pipeline,
		Reviews:           a.reviews,
		Tenants:           a.tenants,
		Hub:               hub,
		HealthChecks:      a.healthChecks(),
		Limiter:           limiter,
		APIKey:            cfg.APIKey,
		AllowedOrigins:    cfg.Origins(),
		Production:        cfg.IsProduction(),
		WebhookSigningKey: cfg.MailgunWebhookSigningKey,
	})

	errCh := make(chan error, 2)
	go func() {
		log.Info("SMTP server listening", slog.String("addr", smtpServer.Addr))
		if err := smtpServer.ListenAndServe(); err != nil && !errors.Is(err, gosmtp.ErrServerClosed) {
			errCh <- fmt.Errorf("smtp server: %w", err)
		}
	}()
	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		log.Info("HTTP server listening", slog.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case runErr = <-errCh:
		log.Error("server failed, shutting down", slog.String("error", runErr.Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP shutdown failed", slog.String("error", err.Error()))
	}
	if err := smtpServer.Close(); err != nil {
		log.Error("SMTP shutdown failed", slog.String("error", err.Error()))
	}
	stopHub()

	log.Info("Server stopped")
	return runErr
}

// Command server starts the job pipeline's HTTP surface: health,
// readiness, metrics, and the approval webhook. The pipeline run itself is
// driven by cmd/pipeline, not this process.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpserver "github.com/hipanai/jobpipeline/internal/adapter/httpserver"
	"github.com/hipanai/jobpipeline/internal/adapter/observability"
	"github.com/hipanai/jobpipeline/internal/app"
	"github.com/hipanai/jobpipeline/internal/config"
	"github.com/hipanai/jobpipeline/internal/dedupstore"
	"github.com/hipanai/jobpipeline/internal/retryexec"
	"github.com/hipanai/jobpipeline/internal/sheetstore"
	"github.com/hipanai/jobpipeline/internal/submission"
	"github.com/hipanai/jobpipeline/internal/webhook"
	"github.com/hipanai/jobpipeline/internal/wiring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()

	pool, err := sheetstore.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	sheet := sheetstore.New(pool)
	if cfg.SheetColumns != "" {
		sheet.Columns = sheetstore.NewColumnSet(strings.Split(cfg.SheetColumns, ","))
	}

	dedup, err := dedupstore.New(cfg.DedupBackend, cfg.RedisURL, cfg.DedupFilePath)
	if err != nil {
		slog.Error("dedup store init failed", slog.Any("error", err))
		os.Exit(1)
	}
	var dedupPinger app.Pinger
	if rs, ok := dedup.(*dedupstore.RedisStore); ok {
		dedupPinger = rs
	}

	trigger, err := submission.New(cfg.AsynqRedisURL)
	if err != nil {
		slog.Error("submission trigger init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := trigger.Close(); err != nil {
			slog.Error("failed to close submission trigger", slog.Any("error", err))
		}
	}()

	executor := retryexec.New(cfg.RetryConfig(), nil)
	drivers := wiring.BuildStageDrivers(cfg, executor)

	approvalHandler := &webhook.HTTPHandler{
		Callback: &webhook.Handler{
			Sheet:    sheet,
			Notifier: drivers.Notifier,
			Trigger:  trigger,
		},
		SigningSecret: cfg.WebhookSigningSecret,
		ReplayWindow:  cfg.WebhookReplayWindow,
	}

	dbCheck, dedupCheck := app.BuildReadinessChecks(cfg, pool, dedupPinger)
	srv := &httpserver.Server{DBCheck: dbCheck, DedupCheck: dedupCheck}

	handler := app.BuildRouter(cfg, srv, approvalHandler)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}

// Command pipeline runs one pass of the job pipeline: ingest, dedup, score,
// extract, generate, boost-decide, and notify. It exits after the run
// completes; the approval webhook and submission trigger live in
// cmd/server.
package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"

	"github.com/hipanai/jobpipeline/internal/adapter/observability"
	"github.com/hipanai/jobpipeline/internal/config"
	"github.com/hipanai/jobpipeline/internal/dedupstore"
	"github.com/hipanai/jobpipeline/internal/gate"
	"github.com/hipanai/jobpipeline/internal/pipeline"
	"github.com/hipanai/jobpipeline/internal/retryexec"
	"github.com/hipanai/jobpipeline/internal/sheetstore"
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

	dedup, err := dedupstore.New(cfg.DedupBackend, cfg.RedisURL, cfg.DedupFilePath)
	if err != nil {
		slog.Error("dedup store init failed", slog.Any("error", err))
		os.Exit(1)
	}

	executor := retryexec.New(cfg.RetryConfig(), nil)

	src, err := wiring.BuildSource(cfg, executor)
	if err != nil {
		slog.Error("source init failed", slog.Any("error", err))
		os.Exit(1)
	}
	drivers := wiring.BuildStageDrivers(cfg, executor)

	orch := &pipeline.Orchestrator{
		Source:      src,
		Dedup:       dedup,
		Scorer:      drivers.Scorer,
		Extractor:   drivers.Extractor,
		Deliverable: drivers.Deliverable,
		Boost:       drivers.Boost,
		Notifier:    drivers.Notifier,
		Gate:        gate.New(),
		MinScore:    cfg.MinScore,
		WorkerCount: cfg.WorkerCount,
		Mock:        cfg.Mock,
	}

	if !cfg.Mock {
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
		orch.Sheet = sheet
	}

	result, err := orch.Run(ctx, cfg.IngestLimit)
	if err != nil {
		slog.Error("pipeline run failed", slog.Any("error", err))
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(result, "", "  ")
	slog.Info("pipeline run complete",
		slog.String("run_id", result.RunID),
		slog.Int("ingested", result.JobsIngested),
		slog.Int("after_dedup", result.JobsAfterDedup),
		slog.Int("after_prefilter", result.JobsAfterPrefilter),
		slog.Int("filtered_out", result.JobsFilteredOut),
		slog.Int("sent_to_approval", result.JobsSentToApproval),
		slog.Int("with_errors", result.JobsWithErrors),
	)
	os.Stdout.Write(out)
	os.Stdout.WriteString("\n")
}

// Package pipeline implements the Pipeline Orchestrator: the seven-stage,
// bounded-concurrency run that drives every job from ingestion to
// approval-pending state.
package pipeline

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/hipanai/jobpipeline/internal/adapter/observability"
	"github.com/hipanai/jobpipeline/internal/domain"
	"github.com/hipanai/jobpipeline/internal/gate"
	"github.com/hipanai/jobpipeline/internal/source"
)

var tracer = otel.Tracer("jobpipeline")

// Orchestrator drives one pipeline run end to end.
type Orchestrator struct {
	Source       domain.SourceAdapter
	Dedup        domain.DedupStore
	Sheet        domain.SheetStore
	Scorer       domain.Scorer
	Extractor    domain.Extractor
	Deliverable  domain.DeliverableGenerator
	Boost        domain.BoostDecider
	Notifier     domain.ApprovalNotifier
	Gate         *gate.Gate

	MinScore    int
	WorkerCount int
	// Mock disables all external side effects, including Sheet Store
	// writes, so a run completes with synthetic values and no external
	// calls — callers still wire Mock* stage drivers so Scorer/Extractor/
	// etc. return synthetic results.
	Mock bool
}

// Run executes one pipeline pass for the configured source, ingesting at
// most limit jobs when limit > 0.
func (o *Orchestrator) Run(ctx domain.Context, limit int) (*domain.PipelineResult, error) {
	ctx, span := tracer.Start(ctx, "pipeline.Run")
	defer span.End()

	result := &domain.PipelineResult{
		RunID:     uuid.NewString(),
		Source:    o.Source.Name(),
		StartedAt: time.Now().UTC(),
	}

	raw, err := o.Source.Ingest(ctx, limit)
	if err != nil {
		return result, fmt.Errorf("op=pipeline.ingest: %w", err)
	}
	result.JobsIngested = len(raw)

	jobs := make([]*domain.JobRecord, 0, len(raw))
	for _, r := range raw {
		jobs = append(jobs, source.ToJobRecord(r, o.Source.Name()))
	}

	jobs, err = o.deduplicate(ctx, jobs, result)
	if err != nil {
		result.FinishedAt = time.Now().UTC()
		return result, err
	}
	result.JobsAfterDedup = len(jobs)
	if len(jobs) == 0 {
		result.FinishedAt = time.Now().UTC()
		return result, nil
	}

	jobs = o.scoreAndPrefilter(ctx, jobs, result)
	result.JobsAfterPrefilter = len(jobs)
	if len(jobs) == 0 {
		result.FinishedAt = time.Now().UTC()
		return result, nil
	}

	o.runStage(ctx, jobs, domain.StatusExtracting, func(ctx domain.Context, job *domain.JobRecord) error {
		return o.Extractor.Extract(ctx, job)
	})

	o.runStage(ctx, jobs, domain.StatusGenerating, func(ctx domain.Context, job *domain.JobRecord) error {
		return o.Deliverable.Generate(ctx, job, o.Gate)
	})

	o.runStage(ctx, jobs, domain.StatusBoostDeciding, func(ctx domain.Context, job *domain.JobRecord) error {
		boost, reasoning, err := o.Boost.Decide(ctx, job)
		if err != nil {
			return err
		}
		job.BoostDecision = &boost
		job.BoostReasoning = reasoning
		return nil
	})

	o.notify(ctx, jobs, result)

	result.JobsProcessed = len(jobs)
	result.ProcessedJobs = jobs
	result.FinishedAt = time.Now().UTC()
	return result, nil
}

// deduplicate drops jobs already recorded in the Dedup Store, adding
// surviving ids so a future run won't reprocess them.
func (o *Orchestrator) deduplicate(ctx domain.Context, jobs []*domain.JobRecord, result *domain.PipelineResult) ([]*domain.JobRecord, error) {
	_, span := tracer.Start(ctx, "pipeline.deduplicate")
	defer span.End()

	survivors := make([]*domain.JobRecord, 0, len(jobs))
	for _, job := range jobs {
		seen, err := o.Dedup.Contains(ctx, job.ID)
		if err != nil {
			return nil, fmt.Errorf("op=pipeline.deduplicate: %w", err)
		}
		if seen {
			continue
		}
		if err := o.Dedup.Add(ctx, job.ID); err != nil {
			return nil, fmt.Errorf("op=pipeline.deduplicate: %w", err)
		}
		survivors = append(survivors, job)
	}
	return survivors, nil
}

// scoreAndPrefilter sets status scoring, persists, scores under the Retry
// Executor (embedded in o.Scorer) and the worker semaphore, then partitions
// into survivors (fit_score >= MinScore, or no score: fail-open) and
// filtered-out records.
func (o *Orchestrator) scoreAndPrefilter(ctx domain.Context, jobs []*domain.JobRecord, result *domain.PipelineResult) []*domain.JobRecord {
	ctx, span := tracer.Start(ctx, "pipeline.score_and_prefilter")
	defer span.End()

	for _, job := range jobs {
		job.Status = domain.StatusScoring
		o.persist(ctx, job)
	}

	corpusVersion := string(result.Source)
	observability.UpdateBaselineScore("fit_score", "external-scorer", corpusVersion, float64(o.MinScore))

	o.forEachBounded(ctx, jobs, func(ctx domain.Context, job *domain.JobRecord) {
		score, reasoning, err := o.Scorer.Score(ctx, job)
		if err != nil {
			job.AppendFailure("scorer", err)
			result.JobsWithErrors++
			return
		}
		job.FitScore = &score
		job.FitReasoning = reasoning
		observability.RecordScoreDriftValue("fit_score", "external-scorer", corpusVersion, float64(score))
	})

	survivors := make([]*domain.JobRecord, 0, len(jobs))
	for _, job := range jobs {
		if job.FitScore != nil && *job.FitScore < o.MinScore {
			job.Status = domain.StatusFilteredOut
			o.persist(ctx, job)
			result.JobsFilteredOut++
			continue
		}
		job.Status = domain.StatusExtracting
		survivors = append(survivors, job)
	}
	return survivors
}

// runStage sets status on every job, persists, fans the work across the
// worker semaphore, then persists every job again with the stage's result
// fields filled in. Per-job failures are appended to the failure log and
// the job continues to the next stage with partial data.
func (o *Orchestrator) runStage(ctx domain.Context, jobs []*domain.JobRecord, status domain.Status, fn func(ctx domain.Context, job *domain.JobRecord) error) {
	ctx, span := tracer.Start(ctx, "pipeline.stage."+string(status))
	defer span.End()

	for _, job := range jobs {
		job.Status = status
		o.persist(ctx, job)
	}

	o.forEachBounded(ctx, jobs, func(ctx domain.Context, job *domain.JobRecord) {
		if err := fn(ctx, job); err != nil {
			job.AppendFailure(string(status), err)
		}
	})

	for _, job := range jobs {
		o.persist(ctx, job)
	}
}

// notify sets status pending_approval, persists, then posts every job to
// the approval channel, recording the returned message timestamp. Done
// concurrently across the worker semaphore like every other stage.
func (o *Orchestrator) notify(ctx domain.Context, jobs []*domain.JobRecord, result *domain.PipelineResult) {
	ctx, span := tracer.Start(ctx, "pipeline.notify")
	defer span.End()

	for _, job := range jobs {
		job.Status = domain.StatusPendingApproval
		o.persist(ctx, job)
	}

	o.forEachBounded(ctx, jobs, func(ctx domain.Context, job *domain.JobRecord) {
		ts, err := o.Notifier.Notify(ctx, job)
		if err != nil {
			job.AppendFailure("approval_notifier", err)
			result.JobsWithErrors++
		} else {
			job.SlackMessageTS = ts
			result.JobsSentToApproval++
		}
		o.persist(ctx, job)
	})
}

// forEachBounded runs fn for every job, bounding in-flight calls to
// o.WorkerCount via a counting semaphore. Stages are not pipelined with
// respect to each other: this call returns only once every job in jobs has
// completed.
func (o *Orchestrator) forEachBounded(ctx domain.Context, jobs []*domain.JobRecord, fn func(ctx domain.Context, job *domain.JobRecord)) {
	workers := o.WorkerCount
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for _, job := range jobs {
		wg.Add(1)
		sem <- struct{}{}
		go func(job *domain.JobRecord) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(ctx, job)
		}(job)
	}
	wg.Wait()
}

// persist writes job's current state to the Sheet Store, unless the
// orchestrator is running in mock mode, in which case it only logs —
// mirroring the original's `if mock: ... return True` short circuit.
func (o *Orchestrator) persist(ctx domain.Context, job *domain.JobRecord) {
	if o.Mock {
		slog.Info("mock: would update sheet", slog.String("job_id", job.ID), slog.String("status", string(job.Status)))
		return
	}
	if err := o.Sheet.UpdateOne(ctx, job); err != nil {
		slog.Error("failed to persist job status", slog.String("job_id", job.ID), slog.Any("error", err))
		job.AppendFailure("sheet_store", err)
	}
}

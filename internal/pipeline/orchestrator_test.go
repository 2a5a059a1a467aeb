package pipeline_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hipanai/jobpipeline/internal/domain"
	"github.com/hipanai/jobpipeline/internal/gate"
	"github.com/hipanai/jobpipeline/internal/pipeline"
)

// fakeSource yields a fixed set of raw jobs.
type fakeSource struct {
	jobs []domain.RawJob
	name domain.Source
}

func (f *fakeSource) Ingest(_ domain.Context, limit int) ([]domain.RawJob, error) {
	if limit > 0 && limit < len(f.jobs) {
		return f.jobs[:limit], nil
	}
	return f.jobs, nil
}
func (f *fakeSource) Name() domain.Source { return f.name }

// fakeDedup is an in-memory DedupStore.
type fakeDedup struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newFakeDedup(preseeded ...string) *fakeDedup {
	d := &fakeDedup{seen: make(map[string]struct{})}
	for _, id := range preseeded {
		d.seen[id] = struct{}{}
	}
	return d
}

func (d *fakeDedup) Contains(_ domain.Context, jobID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[jobID]
	return ok, nil
}

func (d *fakeDedup) Add(_ domain.Context, jobID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[jobID] = struct{}{}
	return nil
}

// fakeSheet records every UpdateOne call, protected by a mutex since the
// orchestrator persists concurrently within a stage.
type fakeSheet struct {
	mu      sync.Mutex
	updates []string
}

func (s *fakeSheet) UpdateOne(_ domain.Context, record *domain.JobRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, record.ID+":"+string(record.Status))
	return nil
}

func (s *fakeSheet) UpdateMany(_ domain.Context, records []*domain.JobRecord) (domain.BatchWriteStats, error) {
	return domain.BatchWriteStats{}, nil
}

// fakeScorer scores by exact job id: "err" fails, "boundary" scores exactly
// the test orchestrator's MinScore (50), "low" scores below it, and every
// other id scores above it.
type fakeScorer struct{}

func (fakeScorer) Score(_ domain.Context, job *domain.JobRecord) (int, string, error) {
	if job.ID == "err" {
		return 0, "", fmt.Errorf("scorer unavailable")
	}
	if job.ID == "boundary" {
		return 50, "boundary case", nil
	}
	if job.ID == "low" {
		return 10, "too junior", nil
	}
	return 90, "strong match", nil
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(_ domain.Context, job *domain.JobRecord) error {
	if job.ID == "extract-fail" {
		return fmt.Errorf("extraction timed out")
	}
	job.Description = "extracted: " + job.Description
	return nil
}

type fakeDeliverable struct{}

func (fakeDeliverable) Generate(ctx domain.Context, job *domain.JobRecord, g *gate.Gate) error {
	return g.Do(ctx, func(_ domain.Context) error {
		job.ProposalDocURL = "doc://" + job.ID
		return nil
	})
}

type fakeBoost struct{}

func (fakeBoost) Decide(_ domain.Context, job *domain.JobRecord) (bool, string, error) {
	return job.ID == "boost", "fake decision", nil
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *fakeNotifier) Notify(_ domain.Context, job *domain.JobRecord) (string, error) {
	n.mu.Lock()
	n.calls++
	n.mu.Unlock()
	if job.ID == "notify-fail" {
		return "", fmt.Errorf("slack unreachable")
	}
	return "ts-" + job.ID, nil
}

func (n *fakeNotifier) UpdateMessage(_ domain.Context, _ string, _ string, _ *domain.JobRecord) error {
	return nil
}

func newTestOrchestrator(src domain.SourceAdapter, dedup domain.DedupStore, sheet domain.SheetStore, notifier domain.ApprovalNotifier) *pipeline.Orchestrator {
	return &pipeline.Orchestrator{
		Source:      src,
		Dedup:       dedup,
		Sheet:       sheet,
		Scorer:      fakeScorer{},
		Extractor:   fakeExtractor{},
		Deliverable: fakeDeliverable{},
		Boost:       fakeBoost{},
		Notifier:    notifier,
		Gate:        gate.New(),
		MinScore:    50,
		WorkerCount: 4,
	}
}

func TestOrchestratorRunHappyPath(t *testing.T) {
	src := &fakeSource{name: domain.SourceManual, jobs: []domain.RawJob{
		{JobID: "a", URL: "https://x/a"},
		{JobID: "b", URL: "https://x/b"},
	}}
	sheet := &fakeSheet{}
	notifier := &fakeNotifier{}
	o := newTestOrchestrator(src, newFakeDedup(), sheet, notifier)

	result, err := o.Run(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.JobsIngested)
	assert.Equal(t, 2, result.JobsAfterDedup)
	assert.Equal(t, 2, result.JobsAfterPrefilter)
	assert.Equal(t, 2, result.JobsProcessed)
	assert.Equal(t, 2, result.JobsSentToApproval)
	assert.Equal(t, 2, notifier.calls)

	for _, job := range result.ProcessedJobs {
		assert.Equal(t, domain.StatusPendingApproval, job.Status)
		assert.NotEmpty(t, job.SlackMessageTS)
		assert.NotEmpty(t, job.ProposalDocURL)
	}
}

func TestOrchestratorPrefilterBoundaryIsInclusive(t *testing.T) {
	src := &fakeSource{name: domain.SourceManual, jobs: []domain.RawJob{{JobID: "boundary"}}}
	o := newTestOrchestrator(src, newFakeDedup(), &fakeSheet{}, &fakeNotifier{})

	result, err := o.Run(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.JobsAfterPrefilter)
	assert.Equal(t, 0, result.JobsFilteredOut)
}

func TestOrchestratorPrefilterCullsLowScore(t *testing.T) {
	src := &fakeSource{name: domain.SourceManual, jobs: []domain.RawJob{{JobID: "low"}, {JobID: "strong"}}}
	o := newTestOrchestrator(src, newFakeDedup(), &fakeSheet{}, &fakeNotifier{})

	result, err := o.Run(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.JobsAfterPrefilter)
	assert.Equal(t, 1, result.JobsFilteredOut)
	assert.Equal(t, 1, result.JobsProcessed)
}

func TestOrchestratorDedupAcrossRuns(t *testing.T) {
	src := &fakeSource{name: domain.SourceManual, jobs: []domain.RawJob{{JobID: "seen"}, {JobID: "fresh"}}}
	dedup := newFakeDedup("seen")
	o := newTestOrchestrator(src, dedup, &fakeSheet{}, &fakeNotifier{})

	result, err := o.Run(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.JobsIngested)
	assert.Equal(t, 1, result.JobsAfterDedup)
}

func TestOrchestratorTreatsScorerFailureAsFilterSurvivor(t *testing.T) {
	src := &fakeSource{name: domain.SourceManual, jobs: []domain.RawJob{{JobID: "err"}}}
	o := newTestOrchestrator(src, newFakeDedup(), &fakeSheet{}, &fakeNotifier{})

	result, err := o.Run(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, result.ProcessedJobs, 1)
	job := result.ProcessedJobs[0]
	assert.Nil(t, job.FitScore)
	assert.NotEmpty(t, job.FailureLog)
}

func TestOrchestratorExtractorFailureDoesNotAbortRun(t *testing.T) {
	src := &fakeSource{name: domain.SourceManual, jobs: []domain.RawJob{{JobID: "extract-fail"}, {JobID: "ok"}}}
	o := newTestOrchestrator(src, newFakeDedup(), &fakeSheet{}, &fakeNotifier{})

	result, err := o.Run(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.JobsProcessed)
	assert.Equal(t, 2, result.JobsSentToApproval)
}

func TestOrchestratorNotifierFailureRecordedNotFatal(t *testing.T) {
	src := &fakeSource{name: domain.SourceManual, jobs: []domain.RawJob{{JobID: "notify-fail"}}}
	o := newTestOrchestrator(src, newFakeDedup(), &fakeSheet{}, &fakeNotifier{})

	result, err := o.Run(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.JobsWithErrors)
	assert.Equal(t, 0, result.JobsSentToApproval)
}

func TestOrchestratorEmptyIngestionIsZeroCountRun(t *testing.T) {
	src := &fakeSource{name: domain.SourceManual, jobs: nil}
	o := newTestOrchestrator(src, newFakeDedup(), &fakeSheet{}, &fakeNotifier{})

	result, err := o.Run(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.JobsIngested)
	assert.Equal(t, 0, result.JobsAfterDedup)
	assert.Nil(t, result.ProcessedJobs)
}

func TestOrchestratorMockModeSkipsSheetWrites(t *testing.T) {
	src := &fakeSource{name: domain.SourceManual, jobs: []domain.RawJob{{JobID: "mocked"}}}
	sheet := &fakeSheet{}
	o := newTestOrchestrator(src, newFakeDedup(), sheet, &fakeNotifier{})
	o.Mock = true

	result, err := o.Run(t.Context(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.JobsProcessed)
	assert.Empty(t, sheet.updates)
}

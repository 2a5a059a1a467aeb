package stagedriver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hipanai/jobpipeline/internal/domain"
	"github.com/hipanai/jobpipeline/internal/retryexec"
)

// HTTPScorer implements domain.Scorer against an external scoring service.
type HTTPScorer struct {
	url      string
	hc       *http.Client
	executor *retryexec.Executor
}

type scoreRequest struct {
	JobID       string `json:"job_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type scoreResponse struct {
	Score     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// NewHTTPScorer constructs a Scorer calling url, retried by executor.
func NewHTTPScorer(url string, timeout time.Duration, executor *retryexec.Executor) *HTTPScorer {
	return &HTTPScorer{
		url:      url,
		hc:       newHTTPClient(timeout, "scorer"),
		executor: executor,
	}
}

// Score calls the external scorer and returns a fit score in [0, 100].
func (s *HTTPScorer) Score(ctx domain.Context, job *domain.JobRecord) (int, string, error) {
	req := scoreRequest{JobID: job.ID, Title: job.Title, Description: job.Description}

	resp, err := doWithRetry(ctx, s.executor, func(ctx domain.Context) (scoreResponse, error) {
		var out scoreResponse
		err := postJSON(ctx, s.hc, s.url, req, &out)
		return out, err
	})
	if err != nil {
		return 0, "", fmt.Errorf("op=stagedriver.scorer.score: %w", err)
	}
	return resp.Score, resp.Reasoning, nil
}

// MockScorer assigns deterministic alternating scores, used when the
// orchestrator runs with Mock enabled and no live Scorer is available.
type MockScorer struct{ calls int }

// NewMockScorer returns a ready-to-use MockScorer.
func NewMockScorer() *MockScorer { return &MockScorer{} }

// Score alternates between a passing and a failing score, mirroring the
// original's `85 if i % 2 == 0 else 55` mock behavior.
func (m *MockScorer) Score(_ domain.Context, _ *domain.JobRecord) (int, string, error) {
	i := m.calls
	m.calls++
	if i%2 == 0 {
		return 85, "mock scoring result", nil
	}
	return 55, "mock scoring result", nil
}

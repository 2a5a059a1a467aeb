package stagedriver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hipanai/jobpipeline/internal/domain"
	"github.com/hipanai/jobpipeline/internal/retryexec"
)

// HTTPBoostDecider implements domain.BoostDecider against an external
// decisioning service. Pricing is always derived locally from the budget
// bounds, never from the remote response.
type HTTPBoostDecider struct {
	url      string
	hc       *http.Client
	executor *retryexec.Executor
}

type boostRequest struct {
	JobID    string `json:"job_id"`
	FitScore *int   `json:"fit_score"`
}

type boostResponse struct {
	Boost     bool   `json:"boost"`
	Reasoning string `json:"reasoning"`
}

// NewHTTPBoostDecider constructs a decider calling url, retried by executor.
func NewHTTPBoostDecider(url string, timeout time.Duration, executor *retryexec.Executor) *HTTPBoostDecider {
	return &HTTPBoostDecider{
		url:      url,
		hc:       newHTTPClient(timeout, "boost_decider"),
		executor: executor,
	}
}

// Decide calls the external boost decisioning service and derives pricing
// locally from the job's budget bounds.
func (b *HTTPBoostDecider) Decide(ctx domain.Context, job *domain.JobRecord) (bool, string, error) {
	req := boostRequest{JobID: job.ID, FitScore: job.FitScore}

	resp, err := doWithRetry(ctx, b.executor, func(ctx domain.Context) (boostResponse, error) {
		var out boostResponse
		err := postJSON(ctx, b.hc, b.url, req, &out)
		return out, err
	})
	if err != nil {
		return false, "", fmt.Errorf("op=stagedriver.boost_decider.decide: %w", err)
	}
	job.ComputePricing()
	return resp.Boost, resp.Reasoning, nil
}

// MockBoostDecider always declines the boost, still deriving pricing
// locally so downstream status fields stay populated.
type MockBoostDecider struct{}

// NewMockBoostDecider returns a ready-to-use MockBoostDecider.
func NewMockBoostDecider() *MockBoostDecider { return &MockBoostDecider{} }

// Decide always returns boost=false with a fixed reasoning string.
func (m *MockBoostDecider) Decide(_ domain.Context, job *domain.JobRecord) (bool, string, error) {
	job.ComputePricing()
	return false, "mock boost decision", nil
}

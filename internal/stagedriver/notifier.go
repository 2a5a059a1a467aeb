package stagedriver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hipanai/jobpipeline/internal/domain"
	"github.com/hipanai/jobpipeline/internal/retryexec"
)

// HTTPApprovalNotifier implements domain.ApprovalNotifier against an
// external chat channel (Slack in the original system).
type HTTPApprovalNotifier struct {
	postURL   string
	updateURL string
	channel   string
	hc        *http.Client
	executor  *retryexec.Executor
}

type notifyRequest struct {
	Channel      string `json:"channel"`
	JobID        string `json:"job_id"`
	Title        string `json:"title"`
	FitScore     *int   `json:"fit_score"`
	Boost        *bool  `json:"boost"`
	ProposalText string `json:"proposal_text"`
}

type notifyResponse struct {
	MessageTS string `json:"message_ts"`
}

type updateMessageRequest struct {
	Channel   string `json:"channel"`
	MessageTS string `json:"message_ts"`
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
}

// NewHTTPApprovalNotifier constructs a notifier posting to channel via
// postURL/updateURL, retried by executor.
func NewHTTPApprovalNotifier(postURL, updateURL, channel string, timeout time.Duration, executor *retryexec.Executor) *HTTPApprovalNotifier {
	return &HTTPApprovalNotifier{
		postURL:   postURL,
		updateURL: updateURL,
		channel:   channel,
		hc:        newHTTPClient(timeout, "approval_notifier"),
		executor:  executor,
	}
}

// Notify posts a structured approval message and returns its timestamp.
func (n *HTTPApprovalNotifier) Notify(ctx domain.Context, job *domain.JobRecord) (string, error) {
	req := notifyRequest{
		Channel:      n.channel,
		JobID:        job.ID,
		Title:        job.Title,
		FitScore:     job.FitScore,
		Boost:        job.BoostDecision,
		ProposalText: job.ProposalText,
	}

	resp, err := doWithRetry(ctx, n.executor, func(ctx domain.Context) (notifyResponse, error) {
		var out notifyResponse
		err := postJSON(ctx, n.hc, n.postURL, req, &out)
		return out, err
	})
	if err != nil {
		return "", fmt.Errorf("op=stagedriver.approval_notifier.notify: %w", err)
	}
	return resp.MessageTS, nil
}

// UpdateMessage edits the previously posted message to reflect a new status.
func (n *HTTPApprovalNotifier) UpdateMessage(ctx domain.Context, channel, messageTS string, job *domain.JobRecord) error {
	req := updateMessageRequest{Channel: channel, MessageTS: messageTS, JobID: job.ID, Status: string(job.Status)}

	_, err := doWithRetry(ctx, n.executor, func(ctx domain.Context) (struct{}, error) {
		return struct{}{}, postJSON(ctx, n.hc, n.updateURL, req, nil)
	})
	if err != nil {
		return fmt.Errorf("op=stagedriver.approval_notifier.update_message: %w", err)
	}
	return nil
}

// MockApprovalNotifier returns a synthetic message timestamp without
// making any external call.
type MockApprovalNotifier struct{}

// NewMockApprovalNotifier returns a ready-to-use MockApprovalNotifier.
func NewMockApprovalNotifier() *MockApprovalNotifier { return &MockApprovalNotifier{} }

// Notify returns a synthetic timestamp derived from the job id.
func (m *MockApprovalNotifier) Notify(_ domain.Context, job *domain.JobRecord) (string, error) {
	return "mock-ts-" + job.ID, nil
}

// UpdateMessage is a no-op in mock mode.
func (m *MockApprovalNotifier) UpdateMessage(_ domain.Context, _, _ string, _ *domain.JobRecord) error {
	return nil
}

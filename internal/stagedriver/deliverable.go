package stagedriver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hipanai/jobpipeline/internal/domain"
	"github.com/hipanai/jobpipeline/internal/gate"
	"github.com/hipanai/jobpipeline/internal/retryexec"
)

// HTTPDeliverableGenerator implements domain.DeliverableGenerator against an
// external document/video generation service. Its doc-creation call must
// run under the caller-supplied Serialization Gate.
type HTTPDeliverableGenerator struct {
	docURL   string
	videoURL string
	hc       *http.Client
	executor *retryexec.Executor
}

type docRequest struct {
	JobID       string `json:"job_id"`
	CoverLetter string `json:"cover_letter"`
}

type docResponse struct {
	ProposalDocURL string `json:"proposal_doc_url"`
	ProposalText   string `json:"proposal_text"`
	PDFURL         string `json:"pdf_url"`
}

type videoRequest struct {
	JobID string `json:"job_id"`
}

type videoResponse struct {
	VideoURL string `json:"video_url"`
}

// NewHTTPDeliverableGenerator constructs a generator calling docURL/videoURL.
// videoURL may be empty when video generation is not configured, in which
// case Generate skips it.
func NewHTTPDeliverableGenerator(docURL, videoURL string, timeout time.Duration, executor *retryexec.Executor) *HTTPDeliverableGenerator {
	return &HTTPDeliverableGenerator{
		docURL:   docURL,
		videoURL: videoURL,
		hc:       newHTTPClient(timeout, "deliverable_generator"),
		executor: executor,
	}
}

// Generate produces a cover letter locally, then calls out for the
// proposal document/PDF (serialized by g) and, if configured, a video.
func (d *HTTPDeliverableGenerator) Generate(ctx domain.Context, job *domain.JobRecord, g *gate.Gate) error {
	job.EnrichContact()
	job.CoverLetter = domain.FormatGreeting(job.ContactName, job.ContactConfidence) + "\n\n" + job.Description

	req := docRequest{JobID: job.ID, CoverLetter: job.CoverLetter}
	var resp docResponse
	err := g.Do(ctx, func(ctx domain.Context) error {
		out, err := doWithRetry(ctx, d.executor, func(ctx domain.Context) (docResponse, error) {
			var out docResponse
			err := postJSON(ctx, d.hc, d.docURL, req, &out)
			return out, err
		})
		resp = out
		return err
	})
	if err != nil {
		return fmt.Errorf("op=stagedriver.deliverable_generator.generate_doc: %w", err)
	}
	job.ProposalDocURL = resp.ProposalDocURL
	job.ProposalText = resp.ProposalText
	job.PDFURL = resp.PDFURL

	if d.videoURL == "" {
		return nil
	}
	videoResp, err := doWithRetry(ctx, d.executor, func(ctx domain.Context) (videoResponse, error) {
		var out videoResponse
		err := postJSON(ctx, d.hc, d.videoURL, videoRequest{JobID: job.ID}, &out)
		return out, err
	})
	if err != nil {
		return fmt.Errorf("op=stagedriver.deliverable_generator.generate_video: %w", err)
	}
	job.VideoURL = videoResp.VideoURL
	return nil
}

// MockDeliverableGenerator fills in synthetic deliverable URLs without
// making any external call.
type MockDeliverableGenerator struct{}

// NewMockDeliverableGenerator returns a ready-to-use MockDeliverableGenerator.
func NewMockDeliverableGenerator() *MockDeliverableGenerator { return &MockDeliverableGenerator{} }

// Generate fills job with placeholder deliverable URLs, still acquiring g
// to exercise the same serialization contract as the real generator.
func (m *MockDeliverableGenerator) Generate(ctx domain.Context, job *domain.JobRecord, g *gate.Gate) error {
	job.EnrichContact()
	job.CoverLetter = domain.FormatGreeting(job.ContactName, job.ContactConfidence) + "\n\n" + job.Description
	return g.Do(ctx, func(_ domain.Context) error {
		job.ProposalDocURL = "mock://proposal/" + job.ID
		job.ProposalText = job.CoverLetter
		job.PDFURL = "mock://pdf/" + job.ID
		return nil
	})
}

package stagedriver

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/hipanai/jobpipeline/internal/adapter/textextractor/tika"
	"github.com/hipanai/jobpipeline/internal/domain"
	"github.com/hipanai/jobpipeline/internal/retryexec"
)

// HTTPExtractor implements domain.Extractor against an external deep
// extraction service (a headless-browser session in the original system).
// Attachments it returns that aren't already plain text are run through a
// Tika server to flatten PDFs/Word documents into extractable text.
type HTTPExtractor struct {
	url      string
	hc       *http.Client
	executor *retryexec.Executor
	tika     *tika.Client
}

type extractRequest struct {
	URL string `json:"url"`
}

type extractedAttachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Content  []byte `json:"content"`
}

type extractResponse struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	BudgetType  string                `json:"budget_type"`
	BudgetMin   *float64              `json:"budget_min"`
	BudgetMax   *float64              `json:"budget_max"`
	BudgetRaw   string                `json:"budget_raw"`
	Country     string                `json:"client_country"`
	TotalSpent  *float64              `json:"client_total_spent"`
	Hires       *int                  `json:"client_hires"`
	Verified    bool                  `json:"client_payment_verified"`
	Attachments []extractedAttachment `json:"attachments"`
}

// NewHTTPExtractor constructs an Extractor calling url, retried by executor.
// tikaURL may be empty, in which case non-text attachments are left with no
// extracted text.
func NewHTTPExtractor(url, tikaURL string, timeout time.Duration, executor *retryexec.Executor) *HTTPExtractor {
	e := &HTTPExtractor{
		url:      url,
		hc:       newHTTPClient(timeout, "extractor"),
		executor: executor,
	}
	if tikaURL != "" {
		e.tika = tika.New(tikaURL)
	}
	return e
}

// Extract fetches a job posting's page content and writes the parsed
// fields, budget, client signals, and attachment content back onto job.
func (e *HTTPExtractor) Extract(ctx domain.Context, job *domain.JobRecord) error {
	req := extractRequest{URL: job.URL}

	resp, err := doWithRetry(ctx, e.executor, func(ctx domain.Context) (extractResponse, error) {
		var out extractResponse
		err := postJSON(ctx, e.hc, e.url, req, &out)
		return out, err
	})
	if err != nil {
		return fmt.Errorf("op=stagedriver.extractor.extract: %w", err)
	}

	job.Title = resp.Title
	job.Description = resp.Description
	job.Budget = domain.Budget{
		Type: domain.BudgetType(resp.BudgetType),
		Min:  resp.BudgetMin,
		Max:  resp.BudgetMax,
		Raw:  resp.BudgetRaw,
	}
	job.ClientInfo = domain.Client{
		Country:         resp.Country,
		TotalSpent:      resp.TotalSpent,
		Hires:           resp.Hires,
		PaymentVerified: resp.Verified,
	}

	job.Attachments = make([]domain.Attachment, 0, len(resp.Attachments))
	for _, a := range resp.Attachments {
		mt := mimetype.Detect(a.Content)
		job.Attachments = append(job.Attachments, domain.Attachment{
			Filename:      a.Filename,
			URL:           a.URL,
			ContentType:   mt.String(),
			ExtractedText: e.extractText(ctx, mt.String(), a.Content),
		})
	}
	job.SetAttachmentContent()
	return nil
}

// extractText returns the attachment body as text directly when it's
// already plain text; otherwise it flattens the content through Tika, if
// configured. A Tika failure is logged and treated as no extracted text
// rather than failing the whole extraction stage for one attachment.
func (e *HTTPExtractor) extractText(ctx domain.Context, mimeType string, content []byte) string {
	if strings.HasPrefix(mimeType, "text/") {
		return string(content)
	}
	if e.tika == nil {
		return ""
	}
	text, err := e.tika.ExtractBytes(ctx, mimeType, content)
	if err != nil {
		slog.Warn("tika extraction failed", slog.String("mime_type", mimeType), slog.Any("error", err))
		return ""
	}
	return text
}

// MockExtractor fills in synthetic, deterministic data without making any
// external call, used when the orchestrator runs with Mock enabled.
type MockExtractor struct{}

// NewMockExtractor returns a ready-to-use MockExtractor.
func NewMockExtractor() *MockExtractor { return &MockExtractor{} }

// Extract populates job with placeholder extracted fields.
func (m *MockExtractor) Extract(_ domain.Context, job *domain.JobRecord) error {
	min, max := 500.0, 1500.0
	job.Budget = domain.Budget{Type: domain.BudgetFixed, Min: &min, Max: &max, Raw: "$500-$1,500"}
	job.ClientInfo = domain.Client{Country: "US", PaymentVerified: true}
	job.AttachmentContent = ""
	return nil
}

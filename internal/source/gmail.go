package source

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hipanai/jobpipeline/internal/domain"
	"github.com/hipanai/jobpipeline/internal/retryexec"
)

// GmailSource implements domain.SourceAdapter against a mailbox-scanning
// endpoint that already parses job-alert emails into structured items.
// Unlike apify, gmail items always carry an explicit job id.
type GmailSource struct {
	url      string
	hc       *http.Client
	executor *retryexec.Executor
}

// NewGmailSource constructs a GmailSource calling url, retried by executor.
func NewGmailSource(url string, timeout time.Duration, executor *retryexec.Executor) *GmailSource {
	return &GmailSource{url: url, hc: newHTTPClient(timeout, "gmail_source"), executor: executor}
}

// Name reports the source tag applied to every yielded raw job.
func (g *GmailSource) Name() domain.Source { return domain.SourceGmail }

type gmailItem struct {
	JobID       string `json:"job_id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Ingest fetches job alerts parsed from recent email, bounded by limit when
// limit > 0.
func (g *GmailSource) Ingest(ctx domain.Context, limit int) ([]domain.RawJob, error) {
	items, err := doWithRetry(ctx, g.executor, func(ctx domain.Context) ([]gmailItem, error) {
		var out []gmailItem
		err := postJSON(ctx, g.hc, g.url, struct {
			Limit int `json:"limit"`
		}{Limit: limit}, &out)
		return out, err
	})
	if err != nil {
		return nil, fmt.Errorf("op=source.gmail.ingest: %w", err)
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	jobs := make([]domain.RawJob, 0, len(items))
	for _, it := range items {
		jobs = append(jobs, domain.RawJob{JobID: it.JobID, URL: it.URL, Title: it.Title, Description: it.Description})
	}
	return jobs, nil
}

package source

import (
	"fmt"
	"net/http"
	"time"

	"github.com/hipanai/jobpipeline/internal/domain"
	"github.com/hipanai/jobpipeline/internal/retryexec"
)

// ApifySource implements domain.SourceAdapter against an Apify actor run
// result endpoint, returning the raw job dicts it last scraped.
type ApifySource struct {
	url      string
	hc       *http.Client
	executor *retryexec.Executor
}

// NewApifySource constructs an ApifySource calling url, retried by executor.
func NewApifySource(url string, timeout time.Duration, executor *retryexec.Executor) *ApifySource {
	return &ApifySource{url: url, hc: newHTTPClient(timeout, "apify_source"), executor: executor}
}

// Name reports the source tag applied to every yielded raw job.
func (a *ApifySource) Name() domain.Source { return domain.SourceApify }

type apifyItem struct {
	ID          string `json:"id"`
	UID         string `json:"uid"`
	JobID       string `json:"job_id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Ingest fetches the latest scraped items, bounded by limit when limit > 0.
func (a *ApifySource) Ingest(ctx domain.Context, limit int) ([]domain.RawJob, error) {
	items, err := doWithRetry(ctx, a.executor, func(ctx domain.Context) ([]apifyItem, error) {
		var out []apifyItem
		err := postJSON(ctx, a.hc, a.url, struct {
			Limit int `json:"limit"`
		}{Limit: limit}, &out)
		return out, err
	})
	if err != nil {
		return nil, fmt.Errorf("op=source.apify.ingest: %w", err)
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	jobs := make([]domain.RawJob, 0, len(items))
	for _, it := range items {
		jobs = append(jobs, domain.RawJob{
			ID: it.ID, UID: it.UID, JobID: it.JobID,
			URL: it.URL, Title: it.Title, Description: it.Description,
		})
	}
	return jobs, nil
}

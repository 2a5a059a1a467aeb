package source

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hipanai/jobpipeline/internal/domain"
)

// ManualSource implements domain.SourceAdapter over a caller-provided list,
// used for the manual-trigger / backfill source.
type ManualSource struct {
	jobs []domain.RawJob
}

// NewManualSource wraps a fixed list of raw jobs.
func NewManualSource(jobs []domain.RawJob) *ManualSource {
	return &ManualSource{jobs: jobs}
}

// manualJobsYAML mirrors the on-disk shape of a manual jobs file: a flat
// list under a "jobs" key, one entry per RawJob field understood by the
// mapper stage.
type manualJobsYAML struct {
	Jobs []struct {
		ID          string `yaml:"id"`
		UID         string `yaml:"uid"`
		JobID       string `yaml:"job_id"`
		URL         string `yaml:"url"`
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
	} `yaml:"jobs"`
}

// LoadManualJobsYAML reads a YAML file of manually-curated jobs and wraps
// it in a ManualSource. Used when SOURCE=manual and MANUAL_JOBS_PATH points
// at a backfill or one-off list that didn't come through Apify or Gmail.
func LoadManualJobsYAML(path string) (*ManualSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("op=source.manual.load: %w", err)
	}
	var parsed manualJobsYAML
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("op=source.manual.load: %w", err)
	}
	jobs := make([]domain.RawJob, 0, len(parsed.Jobs))
	for _, j := range parsed.Jobs {
		jobs = append(jobs, domain.RawJob{
			ID:          j.ID,
			UID:         j.UID,
			JobID:       j.JobID,
			URL:         j.URL,
			Title:       j.Title,
			Description: j.Description,
		})
	}
	return NewManualSource(jobs), nil
}

// Name reports the source tag applied to every yielded raw job.
func (m *ManualSource) Name() domain.Source { return domain.SourceManual }

// Ingest returns the caller-provided jobs, bounded by limit when limit > 0.
func (m *ManualSource) Ingest(_ domain.Context, limit int) ([]domain.RawJob, error) {
	if limit > 0 && limit < len(m.jobs) {
		return m.jobs[:limit], nil
	}
	return m.jobs, nil
}

// Package source implements the SourceAdapter port for the pipeline's three
// origins: apify, gmail, and manual.
package source

import (
	"regexp"

	"github.com/hipanai/jobpipeline/internal/domain"
)

// jobIDToken matches the `~<hex or digits>` token Upwork job URLs embed,
// used to derive a job id when a source omits one.
var jobIDToken = regexp.MustCompile(`~[0-9a-fA-F]+`)

// DeriveJobID resolves the canonical id for raw, preferring an explicit id
// field and falling back to a token extracted from the URL.
func DeriveJobID(raw domain.RawJob) string {
	switch {
	case raw.JobID != "":
		return raw.JobID
	case raw.ID != "":
		return raw.ID
	case raw.UID != "":
		return raw.UID
	}
	return jobIDToken.FindString(raw.URL)
}

// ToJobRecord maps a raw job dict onto a new Job Record in status new. The
// Pipeline Orchestrator's ingest stage calls this for every raw job a
// SourceAdapter yields.
func ToJobRecord(raw domain.RawJob, src domain.Source) *domain.JobRecord {
	return &domain.JobRecord{
		ID:          DeriveJobID(raw),
		URL:         raw.URL,
		Source:      src,
		Status:      domain.StatusNew,
		Title:       raw.Title,
		Description: raw.Description,
	}
}

package domain

import "github.com/hipanai/jobpipeline/internal/gate"

// SourceAdapter yields raw job postings from one origin. Concrete
// implementations for apify/gmail/manual dispatch at startup based on
// configuration; each is a capability offering Ingest.
type SourceAdapter interface {
	// Ingest returns the raw jobs available from this source, bounded by
	// limit when limit > 0.
	Ingest(ctx Context, limit int) ([]RawJob, error)
	// Name identifies the source for logging and Job Record tagging.
	Name() Source
}

// SheetStore is the durable, column-name-addressed projection of Job
// Records, keyed by job id.
//
//go:generate mockery --name=SheetStore --with-expecter --filename=sheetstore_mock.go
type SheetStore interface {
	// UpdateOne idempotently upserts a single record.
	UpdateOne(ctx Context, record *JobRecord) error
	// UpdateMany batches the upsert of many records in O(1) external calls
	// regardless of len(records).
	UpdateMany(ctx Context, records []*JobRecord) (BatchWriteStats, error)
	// GetByID looks up a single record by its key column.
	GetByID(ctx Context, jobID string) (*JobRecord, error)
}

// BatchWriteStats reports how a SheetStore.UpdateMany call was satisfied.
// It is returned to the UpdateMany caller only; the Pipeline Result carries
// no copy of it.
type BatchWriteStats struct {
	Updated       int
	Inserted      int
	Failed        int
	ExternalCalls int
}

// DedupStore is a set of job ids that persists across invocations.
// Contains must be observed before Add for the same id by every caller, so
// that a job is processed at most once ever.
//
//go:generate mockery --name=DedupStore --with-expecter --filename=dedupstore_mock.go
type DedupStore interface {
	Contains(ctx Context, jobID string) (bool, error)
	Add(ctx Context, jobID string) error
}

// Scorer assigns a fit score to a job.
type Scorer interface {
	Score(ctx Context, job *JobRecord) (score int, reasoning string, err error)
}

// Extractor performs deep extraction of a job posting's page: title,
// description, budget, client signals, and attachment content.
type Extractor interface {
	Extract(ctx Context, job *JobRecord) error
}

// DeliverableGenerator produces a proposal document, PDF, and optionally a
// video for a job. Its document-creation call must run under the
// Serialization Gate.
type DeliverableGenerator interface {
	Generate(ctx Context, job *JobRecord, g *gate.Gate) error
}

// BoostDecider decides whether a job merits extra attention/credits.
type BoostDecider interface {
	Decide(ctx Context, job *JobRecord) (boost bool, reasoning string, err error)
}

// ApprovalNotifier posts a structured message to the approval channel and
// returns the opaque message timestamp used to later update that message.
type ApprovalNotifier interface {
	Notify(ctx Context, job *JobRecord) (messageTS string, err error)
	UpdateMessage(ctx Context, channel, messageTS string, job *JobRecord) error
}

// SubmissionTrigger emits the internal event consumed by the excluded
// submission subsystem once a job is approved.
type SubmissionTrigger interface {
	Emit(ctx Context, jobID string) error
}

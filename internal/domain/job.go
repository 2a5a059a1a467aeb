package domain

import "time"

// Status captures the lifecycle state of a Job Record as it threads the
// pipeline. It is not a strict total order: filtered_out, approved,
// rejected, and editing are branches off the main line.
type Status string

// Pipeline status values, per the status graph:
//
//	new -> scoring -> [filtered_out | extracting] -> generating
//	    -> boost_deciding -> pending_approval
//	    -> {approved | rejected | editing}
//	    -> submitted | submission_failed
//	error (absorbing, reachable from any non-terminal state)
const (
	StatusNew             Status = "new"
	StatusScoring         Status = "scoring"
	StatusFilteredOut     Status = "filtered_out"
	StatusExtracting      Status = "extracting"
	StatusGenerating      Status = "generating"
	StatusBoostDeciding   Status = "boost_deciding"
	StatusPendingApproval Status = "pending_approval"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusEditing         Status = "editing"
	StatusSubmitted       Status = "submitted"
	StatusSubmissionFailed Status = "submission_failed"
	StatusError           Status = "error"
)

// Source identifies where a raw job posting originated.
type Source string

const (
	SourceApify  Source = "apify"
	SourceGmail  Source = "gmail"
	SourceManual Source = "manual"
)

// BudgetType classifies how a job's budget was expressed.
type BudgetType string

const (
	BudgetFixed   BudgetType = "fixed"
	BudgetHourly  BudgetType = "hourly"
	BudgetUnknown BudgetType = "unknown"
)

// Confidence grades how sure the contact-name discovery heuristic is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Budget holds the parsed budget range for a job posting. Min/Max are nil
// when unavailable, matching the "optional wrapper rather than sentinel
// zeros" guidance for numeric fields that may be absent pre-stage.
type Budget struct {
	Type BudgetType
	Min  *float64
	Max  *float64
	Raw  string
}

// Client is the sub-record of client-quality signals extracted from a job
// posting page.
type Client struct {
	Country         string
	TotalSpentRaw   string
	TotalSpent      *float64
	Hires           *int
	PaymentVerified bool
}

// Attachment is one file referenced by a job posting, optionally with its
// extracted text.
type Attachment struct {
	Filename      string
	URL           string
	LocalPath     string
	ContentType   string
	ExtractedText string
}

// maxAttachmentContentLen is the truncation bound for the concatenation of
// all attachment extracted text onto a Job Record, per the Deep Extractor
// contract.
const maxAttachmentContentLen = 5000

// JobRecord is the canonical in-memory representation of a job as it moves
// through the pipeline stages. It carries status, scores, deliverable URLs,
// and an accumulated failure log.
//
// Invariants:
//  1. ID is never mutated after creation.
//  2. Status only advances to a later value or to StatusError, or — via the
//     approval callback — from StatusPendingApproval to Approved/Rejected/Editing.
//  3. FitScore == nil implies the record skipped past scoring without a
//     score, treated as "passes filter" (fail-open).
//  4. ApprovedAt is set iff Status is Approved or later.
//  5. PricingProposed lies within [BudgetMin, BudgetMax] when both bounds
//     exist; the midpoint is used when both are set.
type JobRecord struct {
	// Identity
	ID     string
	URL    string
	Source Source

	// Status
	Status Status

	// Ingested fields
	Title       string
	Description string
	Skills      []string

	// Scoring fields
	FitScore     *int
	FitReasoning string

	// Extracted fields
	Budget            Budget
	ClientInfo        Client
	Attachments       []Attachment
	AttachmentContent string

	// Deliverable fields
	ProposalDocURL string
	ProposalText   string
	VideoURL       string
	PDFURL         string
	CoverLetter    string

	// Boost fields
	BoostDecision   *bool
	BoostReasoning  string
	PricingProposed *float64

	// Discovery fields
	ContactName       string
	ContactConfidence Confidence

	// Approval fields
	SlackMessageTS string
	ApprovedAt     *time.Time
	SubmittedAt    *time.Time

	// Failure log: ordered list of diagnostic strings accumulated across
	// stages. A stage never raises past the orchestrator; it appends here.
	FailureLog []string
}

// AppendFailure records a diagnostic string onto the record's failure log
// without altering its status. Stage drivers call this instead of
// propagating an error past the record boundary.
func (j *JobRecord) AppendFailure(stage string, err error) {
	if err == nil {
		return
	}
	j.FailureLog = append(j.FailureLog, stage+": "+err.Error())
}

// SetAttachmentContent concatenates the extracted text of every attachment,
// truncated to maxAttachmentContentLen, matching the Deep Extractor's
// contract for the AttachmentContent field.
func (j *JobRecord) SetAttachmentContent() {
	var joined string
	for i, a := range j.Attachments {
		if a.ExtractedText == "" {
			continue
		}
		if i > 0 && joined != "" {
			joined += "\n\n"
		}
		joined += a.ExtractedText
	}
	if len(joined) > maxAttachmentContentLen {
		joined = joined[:maxAttachmentContentLen]
	}
	j.AttachmentContent = joined
}

// ComputePricing derives PricingProposed from the budget bounds: the
// midpoint when both Min and Max are set, whichever bound is set when only
// one is, or nil when neither is available.
func (j *JobRecord) ComputePricing() {
	min, max := j.Budget.Min, j.Budget.Max
	switch {
	case min != nil && max != nil:
		mid := (*min + *max) / 2
		j.PricingProposed = &mid
	case min != nil:
		v := *min
		j.PricingProposed = &v
	case max != nil:
		v := *max
		j.PricingProposed = &v
	default:
		j.PricingProposed = nil
	}
}

// RawJob is the loosely shaped record a source adapter yields before it is
// mapped onto a JobRecord. Field presence varies by source (see SourceAdapter).
type RawJob struct {
	ID          string
	UID         string
	JobID       string
	URL         string
	Title       string
	Description string
}

// PipelineResult accumulates run statistics for one orchestrator pass.
type PipelineResult struct {
	RunID              string
	Source             Source
	StartedAt          time.Time
	FinishedAt         time.Time
	JobsIngested       int
	JobsAfterDedup     int
	JobsAfterPrefilter int
	JobsFilteredOut    int
	JobsProcessed      int
	JobsSentToApproval int
	JobsWithErrors     int
	Errors             []string
	ProcessedJobs      []*JobRecord
}

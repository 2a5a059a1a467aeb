package sheetstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/hipanai/jobpipeline/internal/domain"
)

// PgxPool is the minimal subset of pgxpool exercised by the Sheet Store,
// kept narrow so unit tests can stub it without a live database.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// ColumnSet names the job_rows columns a deployment's sheet exposes. A nil
// or empty ColumnSet means every column is exposed, preserving the
// "header row is source of truth" invariant when no explicit allowlist is
// configured. Fields whose column is absent from the set are silently
// dropped on write, the Postgres-backed equivalent of a spreadsheet column
// missing from the header row.
type ColumnSet map[string]bool

// NewColumnSet builds a ColumnSet from a list of column names, ignoring
// blanks so a caller can pass the result of splitting a config string
// without pre-filtering it.
func NewColumnSet(columns []string) ColumnSet {
	set := make(ColumnSet, len(columns))
	for _, c := range columns {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		set[c] = true
	}
	return set
}

// Store implements domain.SheetStore against a job_rows table.
type Store struct {
	Pool PgxPool
	// Columns restricts which job_rows columns UpdateOne/UpdateMany write
	// and GetByID reads. Nil/empty exposes every column.
	Columns ColumnSet
}

// New constructs a Store with the given pool and no column restriction.
func New(p PgxPool) *Store { return &Store{Pool: p} }

var tracer = otel.Tracer("sheetstore")

// UpdateOne writes a single job row, inserting it if it does not yet exist.
func (s *Store) UpdateOne(ctx context.Context, job *domain.JobRecord) error {
	ctx, span := tracer.Start(ctx, "sheetstore.UpdateOne")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "job_rows"),
		attribute.String("job.id", job.ID),
	)

	cols := s.columns()
	args, err := rowArgs(job, cols)
	if err != nil {
		return fmt.Errorf("op=sheetstore.update_one.marshal: %w", err)
	}
	if _, err := s.Pool.Exec(ctx, upsertSQL(cols), args...); err != nil {
		return fmt.Errorf("op=sheetstore.update_one: %w", err)
	}
	return nil
}

// UpdateMany writes a batch of job rows in a single round trip using a
// pipelined batch, so a run of N jobs costs one external call regardless
// of N rather than N individual writes.
func (s *Store) UpdateMany(ctx context.Context, jobs []*domain.JobRecord) (domain.BatchWriteStats, error) {
	ctx, span := tracer.Start(ctx, "sheetstore.UpdateMany")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "job_rows"),
		attribute.Int("batch.size", len(jobs)),
	)

	stats := domain.BatchWriteStats{}
	if len(jobs) == 0 {
		return stats, nil
	}

	cols := s.columns()
	sql := upsertSQL(cols)

	batch := &pgx.Batch{}
	for _, job := range jobs {
		args, err := rowArgs(job, cols)
		if err != nil {
			stats.Failed++
			continue
		}
		batch.Queue(sql, args...)
	}

	results := s.Pool.SendBatch(ctx, batch)
	stats.ExternalCalls = 1
	defer results.Close()

	for range jobs {
		if _, err := results.Exec(); err != nil {
			stats.Failed++
			continue
		}
		stats.Updated++
	}

	return stats, nil
}

// GetByID loads a single job row by id.
func (s *Store) GetByID(ctx context.Context, id string) (*domain.JobRecord, error) {
	ctx, span := tracer.Start(ctx, "sheetstore.GetByID")
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.sql.table", "job_rows"),
		attribute.String("job.id", id),
	)

	cols := s.columns()
	row := s.Pool.QueryRow(ctx, selectSQL(cols), id)
	job, err := scanRow(row, cols)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("op=sheetstore.get_by_id: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("op=sheetstore.get_by_id: %w", err)
	}
	return job, nil
}

// columns returns the job-data columns this Store writes and reads, in
// canonical order, filtered by Columns when it is non-empty.
func (s *Store) columns() []string {
	if len(s.Columns) == 0 {
		return allColumns
	}
	out := make([]string, 0, len(allColumns))
	for _, c := range allColumns {
		if s.Columns[c] {
			out = append(out, c)
		}
	}
	return out
}

// allColumns lists every job_rows column gated by ColumnSet, in the order
// they appear in the table, excluding the always-present "id" and
// "updated_at" system columns.
var allColumns = []string{
	"url", "source", "status", "title", "description", "skills",
	"fit_score", "fit_reasoning",
	"budget_type", "budget_min", "budget_max", "budget_raw",
	"client_country", "client_total_spent_raw", "client_total_spent", "client_hires", "client_payment_verified",
	"attachments", "attachment_content",
	"proposal_doc_url", "proposal_text", "video_url", "pdf_url", "cover_letter",
	"boost_decision", "boost_reasoning", "pricing_proposed",
	"contact_name", "contact_confidence",
	"slack_message_ts", "approved_at", "submitted_at", "failure_log",
}

// upsertSQL builds an INSERT ... ON CONFLICT DO UPDATE statement covering
// only "id", cols, and "updated_at" — the columns this deployment's
// ColumnSet exposes, plus the two system columns always written.
func upsertSQL(cols []string) string {
	columns := make([]string, 0, len(cols)+2)
	columns = append(columns, "id")
	columns = append(columns, cols...)
	columns = append(columns, "updated_at")

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	setClauses := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		setClauses = append(setClauses, c+"=EXCLUDED."+c)
	}
	setClauses = append(setClauses, "updated_at=EXCLUDED.updated_at")

	return fmt.Sprintf(
		"INSERT INTO job_rows (%s) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s",
		strings.Join(columns, ", "), strings.Join(placeholders, ","), strings.Join(setClauses, ", "),
	)
}

// selectSQL builds a SELECT statement covering "id" and cols only.
func selectSQL(cols []string) string {
	columns := make([]string, 0, len(cols)+1)
	columns = append(columns, "id")
	columns = append(columns, cols...)
	return fmt.Sprintf("SELECT %s FROM job_rows WHERE id = $1", strings.Join(columns, ", "))
}

// rowArgs flattens job into the argument list expected by upsertSQL(cols):
// id, one value per column in cols, then updated_at.
func rowArgs(job *domain.JobRecord, cols []string) ([]any, error) {
	attachmentsJSON, err := json.Marshal(job.Attachments)
	if err != nil {
		return nil, err
	}

	values := map[string]any{
		"url": job.URL, "source": string(job.Source), "status": string(job.Status),
		"title": job.Title, "description": job.Description, "skills": job.Skills,
		"fit_score": job.FitScore, "fit_reasoning": job.FitReasoning,
		"budget_type": string(job.Budget.Type), "budget_min": job.Budget.Min, "budget_max": job.Budget.Max, "budget_raw": job.Budget.Raw,
		"client_country": job.ClientInfo.Country, "client_total_spent_raw": job.ClientInfo.TotalSpentRaw,
		"client_total_spent": job.ClientInfo.TotalSpent, "client_hires": job.ClientInfo.Hires, "client_payment_verified": job.ClientInfo.PaymentVerified,
		"attachments": attachmentsJSON, "attachment_content": job.AttachmentContent,
		"proposal_doc_url": job.ProposalDocURL, "proposal_text": job.ProposalText, "video_url": job.VideoURL,
		"pdf_url": job.PDFURL, "cover_letter": job.CoverLetter,
		"boost_decision": job.BoostDecision, "boost_reasoning": job.BoostReasoning, "pricing_proposed": job.PricingProposed,
		"contact_name": job.ContactName, "contact_confidence": string(job.ContactConfidence),
		"slack_message_ts": job.SlackMessageTS, "approved_at": job.ApprovedAt, "submitted_at": job.SubmittedAt, "failure_log": job.FailureLog,
	}

	args := make([]any, 0, len(cols)+2)
	args = append(args, job.ID)
	for _, c := range cols {
		args = append(args, values[c])
	}
	args = append(args, time.Now().UTC())
	return args, nil
}

// rowScanTemp holds raw scan destinations for columns that need a type
// conversion after Scan: domain enums stored as text, and attachments
// stored as a JSON blob.
type rowScanTemp struct {
	source, status, budgetType, contactConf string
	attachmentsJSON                         []byte
}

// scanDest returns the Scan destination for column c, pointing directly
// into job for plain fields or into tmp for columns needing conversion.
func scanDest(job *domain.JobRecord, tmp *rowScanTemp, c string) any {
	switch c {
	case "url":
		return &job.URL
	case "source":
		return &tmp.source
	case "status":
		return &tmp.status
	case "title":
		return &job.Title
	case "description":
		return &job.Description
	case "skills":
		return &job.Skills
	case "fit_score":
		return &job.FitScore
	case "fit_reasoning":
		return &job.FitReasoning
	case "budget_type":
		return &tmp.budgetType
	case "budget_min":
		return &job.Budget.Min
	case "budget_max":
		return &job.Budget.Max
	case "budget_raw":
		return &job.Budget.Raw
	case "client_country":
		return &job.ClientInfo.Country
	case "client_total_spent_raw":
		return &job.ClientInfo.TotalSpentRaw
	case "client_total_spent":
		return &job.ClientInfo.TotalSpent
	case "client_hires":
		return &job.ClientInfo.Hires
	case "client_payment_verified":
		return &job.ClientInfo.PaymentVerified
	case "attachments":
		return &tmp.attachmentsJSON
	case "attachment_content":
		return &job.AttachmentContent
	case "proposal_doc_url":
		return &job.ProposalDocURL
	case "proposal_text":
		return &job.ProposalText
	case "video_url":
		return &job.VideoURL
	case "pdf_url":
		return &job.PDFURL
	case "cover_letter":
		return &job.CoverLetter
	case "boost_decision":
		return &job.BoostDecision
	case "boost_reasoning":
		return &job.BoostReasoning
	case "pricing_proposed":
		return &job.PricingProposed
	case "contact_name":
		return &job.ContactName
	case "contact_confidence":
		return &tmp.contactConf
	case "slack_message_ts":
		return &job.SlackMessageTS
	case "approved_at":
		return &job.ApprovedAt
	case "submitted_at":
		return &job.SubmittedAt
	case "failure_log":
		return &job.FailureLog
	default:
		panic("sheetstore: unknown column " + c)
	}
}

// scanRow scans a row built from selectSQL(cols) into a JobRecord, applying
// the enum/JSON conversions that couldn't be scanned directly. Columns
// absent from cols keep their JobRecord zero value, the read-side
// counterpart of ColumnSet's write-side drop.
func scanRow(row pgx.Row, cols []string) (*domain.JobRecord, error) {
	var j domain.JobRecord
	var tmp rowScanTemp

	dest := make([]any, 0, len(cols)+1)
	dest = append(dest, &j.ID)
	for _, c := range cols {
		dest = append(dest, scanDest(&j, &tmp, c))
	}

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	included := NewColumnSet(cols)
	if included["source"] {
		j.Source = domain.Source(tmp.source)
	}
	if included["status"] {
		j.Status = domain.Status(tmp.status)
	}
	if included["budget_type"] {
		j.Budget.Type = domain.BudgetType(tmp.budgetType)
	}
	if included["contact_confidence"] {
		j.ContactConfidence = domain.Confidence(tmp.contactConf)
	}
	if included["attachments"] && len(tmp.attachmentsJSON) > 0 {
		if err := json.Unmarshal(tmp.attachmentsJSON, &j.Attachments); err != nil {
			return nil, err
		}
	}
	return &j, nil
}

package sheetstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hipanai/jobpipeline/internal/domain"
	"github.com/hipanai/jobpipeline/internal/sheetstore"
)

type rowStub struct{ scan func(dest ...any) error }

func (r rowStub) Scan(dest ...any) error { return r.scan(dest...) }

type batchResultsStub struct {
	execErrs []error
	idx      int
}

func (b *batchResultsStub) Exec() (pgconn.CommandTag, error) {
	if b.idx >= len(b.execErrs) {
		return pgconn.CommandTag{}, nil
	}
	err := b.execErrs[b.idx]
	b.idx++
	return pgconn.CommandTag{}, err
}
func (b *batchResultsStub) Query() (pgx.Rows, error)                       { return nil, nil }
func (b *batchResultsStub) QueryRow() pgx.Row                              { return nil }
func (b *batchResultsStub) QueryFunc(scans []any, f func(pgx.QueryFuncRow) error) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (b *batchResultsStub) Close() error { return nil }

type poolStub struct {
	execErr     error
	row         pgx.Row
	batchResult *batchResultsStub
	lastSQL     string
	lastArgs    []any
}

func (p *poolStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.lastSQL = sql
	p.lastArgs = args
	return pgconn.CommandTag{}, p.execErr
}
func (p *poolStub) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row { return p.row }
func (p *poolStub) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, nil
}
func (p *poolStub) SendBatch(_ context.Context, _ *pgx.Batch) pgx.BatchResults {
	return p.batchResult
}

func sampleJob() *domain.JobRecord {
	score := 80
	return &domain.JobRecord{
		ID:     "job-1",
		URL:    "https://example.com/job-1",
		Source: domain.SourceManual,
		Status: domain.StatusScoring,
		Title:  "Go backend engineer",
		Skills: []string{"go", "postgres"},
		FitScore: &score,
	}
}

func TestUpdateOneSuccess(t *testing.T) {
	pool := &poolStub{}
	store := sheetstore.New(pool)
	require.NoError(t, store.UpdateOne(context.Background(), sampleJob()))
}

func TestUpdateOneDBError(t *testing.T) {
	pool := &poolStub{execErr: errors.New("conn reset")}
	store := sheetstore.New(pool)
	err := store.UpdateOne(context.Background(), sampleJob())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=sheetstore.update_one")
}

func TestUpdateManyIsOneExternalCall(t *testing.T) {
	jobs := []*domain.JobRecord{sampleJob(), sampleJob(), sampleJob()}
	pool := &poolStub{batchResult: &batchResultsStub{execErrs: []error{nil, nil, nil}}}
	store := sheetstore.New(pool)

	stats, err := store.UpdateMany(context.Background(), jobs)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ExternalCalls)
	assert.Equal(t, 3, stats.Updated)
	assert.Equal(t, 0, stats.Failed)
}

func TestUpdateManyPartialFailure(t *testing.T) {
	jobs := []*domain.JobRecord{sampleJob(), sampleJob()}
	pool := &poolStub{batchResult: &batchResultsStub{execErrs: []error{nil, errors.New("constraint violation")}}}
	store := sheetstore.New(pool)

	stats, err := store.UpdateMany(context.Background(), jobs)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ExternalCalls)
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, stats.Failed)
}

func TestUpdateManyEmptyIsNoop(t *testing.T) {
	pool := &poolStub{}
	store := sheetstore.New(pool)
	stats, err := store.UpdateMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ExternalCalls)
}

func TestGetByIDNotFound(t *testing.T) {
	pool := &poolStub{row: rowStub{scan: func(_ ...any) error { return pgx.ErrNoRows }}}
	store := sheetstore.New(pool)
	_, err := store.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateOneDropsColumnsOutsideColumnSet(t *testing.T) {
	pool := &poolStub{}
	store := sheetstore.New(pool)
	store.Columns = sheetstore.NewColumnSet([]string{"url", "title", "status"})

	require.NoError(t, store.UpdateOne(context.Background(), sampleJob()))

	assert.Contains(t, pool.lastSQL, "url")
	assert.Contains(t, pool.lastSQL, "title")
	assert.Contains(t, pool.lastSQL, "status")
	assert.NotContains(t, pool.lastSQL, "fit_score")
	assert.NotContains(t, pool.lastSQL, "attachment_content")
	// id + 3 selected columns + updated_at.
	assert.Len(t, pool.lastArgs, 5)
}

func TestUpdateOneEmptyColumnSetExposesEveryColumn(t *testing.T) {
	pool := &poolStub{}
	store := sheetstore.New(pool)

	require.NoError(t, store.UpdateOne(context.Background(), sampleJob()))
	assert.Contains(t, pool.lastSQL, "fit_score")
	assert.Contains(t, pool.lastSQL, "attachment_content")
}

func TestGetByIDRespectsColumnSet(t *testing.T) {
	pool := &poolStub{row: rowStub{scan: func(dest ...any) error {
		// id + status + title, in allColumns order.
		require.Len(t, dest, 3)
		return nil
	}}}
	store := sheetstore.New(pool)
	store.Columns = sheetstore.NewColumnSet([]string{"title", "status"})

	job, err := store.GetByID(context.Background(), "job-1")
	require.NoError(t, err)
	// Columns outside the set keep their zero value.
	assert.Empty(t, job.Description)
}

func TestNewColumnSetIgnoresBlanks(t *testing.T) {
	set := sheetstore.NewColumnSet([]string{"url", "", "  ", "title"})
	assert.Len(t, set, 2)
}

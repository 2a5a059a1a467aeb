package stagedriver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hipanai/jobpipeline/internal/domain"
	"github.com/hipanai/jobpipeline/internal/stagedriver"
)

func TestHTTPScorerScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"score": 78, "reasoning": "good match"})
	}))
	defer srv.Close()

	scorer := stagedriver.NewHTTPScorer(srv.URL, time.Second, nil)
	score, reasoning, err := scorer.Score(t.Context(), &domain.JobRecord{ID: "job-1", Title: "Go dev"})
	require.NoError(t, err)
	assert.Equal(t, 78, score)
	assert.Equal(t, "good match", reasoning)
}

func TestHTTPScorerUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad job"}`))
	}))
	defer srv.Close()

	scorer := stagedriver.NewHTTPScorer(srv.URL, time.Second, nil)
	_, _, err := scorer.Score(t.Context(), &domain.JobRecord{ID: "job-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=stagedriver.scorer.score")
}

func TestMockScorerAlternates(t *testing.T) {
	m := stagedriver.NewMockScorer()
	s1, _, _ := m.Score(t.Context(), &domain.JobRecord{})
	s2, _, _ := m.Score(t.Context(), &domain.JobRecord{})
	s3, _, _ := m.Score(t.Context(), &domain.JobRecord{})
	assert.Equal(t, 85, s1)
	assert.Equal(t, 55, s2)
	assert.Equal(t, 85, s3)
}

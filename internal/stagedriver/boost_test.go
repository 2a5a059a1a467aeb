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

func TestHTTPBoostDeciderDecide(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"boost": true, "reasoning": "high value client"})
	}))
	defer srv.Close()

	min, max := 100.0, 300.0
	decider := stagedriver.NewHTTPBoostDecider(srv.URL, time.Second, nil)
	job := &domain.JobRecord{ID: "job-1", Budget: domain.Budget{Min: &min, Max: &max}}
	boost, reasoning, err := decider.Decide(t.Context(), job)
	require.NoError(t, err)
	assert.True(t, boost)
	assert.Equal(t, "high value client", reasoning)
	require.NotNil(t, job.PricingProposed)
	assert.Equal(t, 200.0, *job.PricingProposed)
}

func TestMockBoostDeciderDeclinesAndPrices(t *testing.T) {
	m := stagedriver.NewMockBoostDecider()
	min := 400.0
	job := &domain.JobRecord{Budget: domain.Budget{Min: &min}}
	boost, _, err := m.Decide(t.Context(), job)
	require.NoError(t, err)
	assert.False(t, boost)
	require.NotNil(t, job.PricingProposed)
	assert.Equal(t, 400.0, *job.PricingProposed)
}

package webhook_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hipanai/jobpipeline/internal/domain"
	"github.com/hipanai/jobpipeline/internal/webhook"
)

func signedRequest(t *testing.T, secret, body string) *http.Request {
	t.Helper()
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + ts + ":" + body))
	sig := "v0=" + hex.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/approval", strings.NewReader(body))
	req.Header.Set("X-Signature-Timestamp", ts)
	req.Header.Set("X-Signature", sig)
	return req
}

func TestHTTPHandlerServeHTTPApprove(t *testing.T) {
	job := &domain.JobRecord{ID: "job-1", Status: domain.StatusPendingApproval}
	sheet := newStubSheet(job)
	callback := &webhook.Handler{Sheet: sheet, Notifier: &stubNotifier{}, Trigger: &stubTrigger{}}
	h := &webhook.HTTPHandler{Callback: callback, SigningSecret: "shh", ReplayWindow: 5 * time.Minute}

	body := `{"action":"approve","job_id":"job-1","user":"u1","channel":"c1","message_ts":"100.1"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, "shh", body))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.StatusApproved, job.Status)
}

func TestHTTPHandlerServeHTTPRejectsBadSignature(t *testing.T) {
	callback := &webhook.Handler{Sheet: newStubSheet(), Notifier: &stubNotifier{}, Trigger: &stubTrigger{}}
	h := &webhook.HTTPHandler{Callback: callback, SigningSecret: "shh", ReplayWindow: 5 * time.Minute}

	req := httptest.NewRequest(http.MethodPost, "/webhooks/approval", strings.NewReader(`{}`))
	req.Header.Set("X-Signature-Timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	req.Header.Set("X-Signature", "v0=bogus")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTPHandlerServeHTTPRejectsMissingFields(t *testing.T) {
	callback := &webhook.Handler{Sheet: newStubSheet(), Notifier: &stubNotifier{}, Trigger: &stubTrigger{}}
	h := &webhook.HTTPHandler{Callback: callback, SigningSecret: "shh", ReplayWindow: 5 * time.Minute}

	body := `{"action":"approve"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, signedRequest(t, "shh", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package webhook_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hipanai/jobpipeline/internal/webhook"
)

func sign(secret, timestamp, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + timestamp + ":" + body))
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignatureAcceptsValid(t *testing.T) {
	now := time.Now()
	ts := strconv.FormatInt(now.Unix(), 10)
	body := `{"action":"approve"}`
	sig := sign("shh", ts, body)

	err := webhook.VerifySignature("shh", ts, body, sig, 5*time.Minute, now)
	assert.NoError(t, err)
}

func TestVerifySignatureRejectsBadSignature(t *testing.T) {
	now := time.Now()
	ts := strconv.FormatInt(now.Unix(), 10)

	err := webhook.VerifySignature("shh", ts, "{}", "v0=deadbeef", 5*time.Minute, now)
	assert.Error(t, err)
}

func TestVerifySignatureRejectsStaleTimestamp(t *testing.T) {
	now := time.Now()
	old := now.Add(-10 * time.Minute)
	ts := strconv.FormatInt(old.Unix(), 10)
	body := `{}`
	sig := sign("shh", ts, body)

	err := webhook.VerifySignature("shh", ts, body, sig, 5*time.Minute, now)
	assert.Error(t, err)
}

func TestVerifySignatureRejectsMissingSecret(t *testing.T) {
	now := time.Now()
	ts := strconv.FormatInt(now.Unix(), 10)

	err := webhook.VerifySignature("", ts, "{}", "v0=x", 5*time.Minute, now)
	assert.Error(t, err)
}

// Package webhook implements the Approval Callback Handler: verification
// of the approval channel's signed webhook and dispatch of the reviewer's
// button action onto a Job Record.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/hipanai/jobpipeline/internal/domain"
)

// VerifySignature checks an approval webhook's HMAC-SHA256 signature and
// replay window, matching the "v0:" scheme: the expected signature is
// "v0=" + hex(HMAC-SHA256(secret, "v0:"+timestamp+":"+body)).
func VerifySignature(secret, timestamp, body, signature string, replayWindow time.Duration, now time.Time) error {
	if secret == "" {
		return fmt.Errorf("%w: signing secret not configured", domain.ErrSignatureInvalid)
	}

	ts, err := strconv.ParseFloat(timestamp, 64)
	if err != nil {
		return fmt.Errorf("%w: invalid timestamp", domain.ErrSignatureInvalid)
	}
	age := now.Sub(time.Unix(int64(ts), 0))
	if age < 0 {
		age = -age
	}
	if age > replayWindow {
		return fmt.Errorf("%w: timestamp outside replay window", domain.ErrSignatureInvalid)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("v0:" + timestamp + ":" + body))
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("%w: signature mismatch", domain.ErrSignatureInvalid)
	}
	return nil
}

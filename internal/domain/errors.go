// Package domain defines the core job record, ports, and domain-specific
// errors for the pipeline engine.
package domain

import (
	"context"
	"errors"
)

// Error taxonomy (sentinels). Adapters wrap these with fmt.Errorf("%w: ...")
// so that callers can classify failures with errors.Is regardless of which
// external collaborator produced them.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrRateLimited       = errors.New("rate limited")
	ErrUpstreamTimeout   = errors.New("upstream timeout")
	ErrUpstreamRateLimit = errors.New("upstream rate limit")
	ErrSchemaInvalid     = errors.New("schema invalid")
	ErrInternal          = errors.New("internal error")
	// ErrDuplicate names a job id already seen in a prior run. The dedup
	// stores do not return it: they report membership through Contains.
	ErrDuplicate = errors.New("duplicate job id")
	// ErrSignatureInvalid is returned by the approval webhook verifier when
	// the HMAC signature does not match or the timestamp falls outside the
	// replay window.
	ErrSignatureInvalid = errors.New("invalid signature")
)

// Context is a type alias to stdlib context.Context for convenience across
// layers; ports accept it directly rather than a narrower interface.
type Context = context.Context

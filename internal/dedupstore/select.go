package dedupstore

import (
	"fmt"

	"github.com/hipanai/jobpipeline/internal/domain"
)

// New constructs the Dedup Store backing named by backend ("redis" or
// "file"), dispatching the way config-driven adapter selection is done
// throughout this codebase.
func New(backend, redisURL, filePath string) (domain.DedupStore, error) {
	switch backend {
	case "redis":
		return NewRedisStore(redisURL)
	case "file":
		return NewFileStore(filePath)
	default:
		return nil, fmt.Errorf("op=dedupstore.new: %w: unknown backend %q", domain.ErrInvalidArgument, backend)
	}
}

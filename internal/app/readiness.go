// Package app wires application components and startup helpers.
//
// It provides dependency injection and application initialization.
// The package coordinates between different layers and provides
// a clean application bootstrap process.
package app

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hipanai/jobpipeline/internal/config"
)

// Pinger is the minimal interface for a database pool capable of Ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// BuildReadinessChecks returns two readiness checks: db and dedup store.
// The dedup check is a no-op success when the configured backend is the
// local file store, since that backend has nothing external to reach.
func BuildReadinessChecks(cfg config.Config, pool Pinger, dedup Pinger) (
	func(ctx context.Context) error,
	func(ctx context.Context) error,
) {
	dbCheck := func(ctx context.Context) error {
		if pool == nil {
			return fmt.Errorf("db not configured")
		}
		if err := pool.Ping(ctx); err != nil {
			annotate(ctx, "readiness.db.error", err.Error())
			return err
		}
		return nil
	}

	dedupCheck := func(ctx context.Context) error {
		if cfg.DedupBackend != "redis" {
			return nil
		}
		if dedup == nil {
			return fmt.Errorf("dedup store not configured")
		}
		if err := dedup.Ping(ctx); err != nil {
			annotate(ctx, "readiness.dedup.error", err.Error())
			return err
		}
		return nil
	}

	return dbCheck, dedupCheck
}

// annotate attaches a best-effort string attribute to the span active on
// ctx, if any.
func annotate(ctx context.Context, key, value string) {
	span := trace.SpanFromContext(ctx)
	if span == nil {
		return
	}
	span.SetAttributes(attribute.String(key, value))
}

// Package observability provides integrated observable client wrapper for external connections.
// This integrates with the existing OpenTelemetry, Prometheus, and Jaeger infrastructure.
package observability

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hipanai/jobpipeline/internal/adapter/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// IntegratedObservableClient wraps external clients with OpenTelemetry tracing and Prometheus metrics
type IntegratedObservableClient struct {
	// Core components
	AdaptiveTimeout *AdaptiveTimeoutManager
	Metrics         *ConnectionMetrics
	CircuitBreaker  *CircuitBreaker

	// Connection details
	ConnectionType ConnectionType
	OperationType  OperationType
	Endpoint       string
	ServiceName    string

	// OpenTelemetry tracer
	tracer trace.Tracer
}

// NewIntegratedObservableClient creates a new integrated observable client
func NewIntegratedObservableClient(
	connectionType ConnectionType,
	operationType OperationType,
	endpoint string,
	serviceName string,
	baseTimeout time.Duration,
	minTimeout time.Duration,
	maxTimeout time.Duration,
) *IntegratedObservableClient {
	return &IntegratedObservableClient{
		AdaptiveTimeout: NewAdaptiveTimeoutManager(baseTimeout, minTimeout, maxTimeout),
		Metrics:         NewConnectionMetrics(connectionType, operationType, endpoint),
		CircuitBreaker:  NewCircuitBreaker(5, 30*time.Second, 0.5),
		ConnectionType:  connectionType,
		OperationType:   operationType,
		Endpoint:        endpoint,
		ServiceName:     serviceName,
		tracer:          otel.Tracer("jobpipeline"),
	}
}

// ExecuteWithMetrics executes a function with comprehensive observability
func (c *IntegratedObservableClient) ExecuteWithMetrics(
	ctx context.Context,
	operation string,
	fn func(ctx context.Context) error,
) error {
	// Start OpenTelemetry span
	spanCtx, span := c.tracer.Start(ctx, fmt.Sprintf("%s.%s", c.ServiceName, operation))
	defer span.End()

	// Set span attributes
	span.SetAttributes(
		attribute.String("connection.type", string(c.ConnectionType)),
		attribute.String("operation.type", string(c.OperationType)),
		attribute.String("endpoint", c.Endpoint),
		attribute.String("service.name", c.ServiceName),
		attribute.String("operation.name", operation),
	)

	if !c.CircuitBreaker.CanExecute() {
		observability.RecordCircuitBreakerStatus(c.ServiceName, operation, int(c.CircuitBreaker.GetState()))
		span.SetStatus(codes.Error, "circuit breaker open")
		span.SetAttributes(attribute.Bool("circuit_breaker.open", true))
		return fmt.Errorf("circuit breaker open for %s", c.ServiceName)
	}

	// Get adaptive timeout
	timeout := c.AdaptiveTimeout.GetTimeout()
	span.SetAttributes(attribute.Float64("timeout.seconds", timeout.Seconds()))

	// Create timeout context
	timeoutCtx, cancel := context.WithTimeout(spanCtx, timeout)
	defer cancel()

	// Record start time for metrics
	start := time.Now()

	// Execute the function
	err := fn(timeoutCtx)

	// Calculate duration
	duration := time.Since(start)

	// Update adaptive timeout based on result
	if err != nil {
		if timeoutCtx.Err() == context.DeadlineExceeded {
			c.AdaptiveTimeout.RecordTimeout()
			span.SetStatus(codes.Error, "timeout")
			span.SetAttributes(attribute.Bool("timeout", true))
		} else {
			c.AdaptiveTimeout.RecordFailure(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Bool("success", false))
		c.CircuitBreaker.RecordFailure()
	} else {
		c.AdaptiveTimeout.RecordSuccess(duration)
		span.SetStatus(codes.Ok, "success")
		span.SetAttributes(attribute.Bool("success", true))
		c.CircuitBreaker.RecordSuccess()
	}

	// Record Prometheus metrics based on connection type
	c.recordPrometheusMetrics(operation, duration, err)
	observability.RecordCircuitBreakerStatus(c.ServiceName, operation, int(c.CircuitBreaker.GetState()))

	// Set span attributes for duration and result
	span.SetAttributes(
		attribute.Float64("duration.seconds", duration.Seconds()),
		attribute.Bool("success", err == nil),
	)

	return err
}

// recordPrometheusMetrics records metrics using the existing Prometheus infrastructure
func (c *IntegratedObservableClient) recordPrometheusMetrics(operation string, duration time.Duration, err error) {
	// Determine status label
	status := "success"
	if err != nil {
		if err == context.DeadlineExceeded {
			status = "timeout"
		} else {
			status = "error"
		}
	}

	// Record metrics based on connection type
	switch c.ConnectionType {
	case ConnectionTypeSubmission:
		switch status {
		case "success":
			observability.JobsCompletedTotal.WithLabelValues("submission").Inc()
		case "error", "timeout":
			observability.JobsFailedTotal.WithLabelValues("submission").Inc()
		}
		observability.StageRequestDuration.WithLabelValues(string(c.ConnectionType), operation).Observe(duration.Seconds())

	case ConnectionTypeWebhook:
		observability.HTTPRequestsTotal.WithLabelValues(c.Endpoint, operation, status).Inc()
		observability.HTTPRequestDuration.WithLabelValues(c.Endpoint, operation).Observe(duration.Seconds())

	case ConnectionTypeSheetStore:
		observability.StageRequestsTotal.WithLabelValues(string(c.ConnectionType), operation).Inc()
		observability.StageRequestDuration.WithLabelValues(string(c.ConnectionType), operation).Observe(duration.Seconds())

	default:
		// Scorer, Extractor, Deliverable, Boost, Notifier, DedupStore stage drivers.
		observability.StageRequestsTotal.WithLabelValues(string(c.ConnectionType), operation).Inc()
		observability.StageRequestDuration.WithLabelValues(string(c.ConnectionType), operation).Observe(duration.Seconds())
	}

	// Log the operation
	slog.Info("external connection executed",
		slog.String("connection_type", string(c.ConnectionType)),
		slog.String("operation_type", string(c.OperationType)),
		slog.String("endpoint", c.Endpoint),
		slog.String("operation", operation),
		slog.Duration("duration", duration),
		slog.Bool("success", err == nil),
		slog.String("status", status),
		slog.Duration("timeout", c.AdaptiveTimeout.GetTimeout()),
	)
}

// GetHealthStatus returns the health status of the connection
func (c *IntegratedObservableClient) GetHealthStatus() map[string]interface{} {
	stats := c.AdaptiveTimeout.GetStats()

	// Safely extract success rate: GetStats reports it as a percentage
	// string such as "87.50%", converted here to a fraction.
	successRate := 0.0
	if sr, ok := stats["success_rate"].(string); ok {
		var pct float64
		if _, err := fmt.Sscanf(sr, "%f%%", &pct); err == nil {
			successRate = pct / 100
		}
	}

	return map[string]interface{}{
		"is_healthy":      successRate > 0.8 && c.CircuitBreaker.CanExecute(),
		"current_timeout": c.AdaptiveTimeout.GetTimeout().Seconds(),
		"success_rate":    successRate,
		"total_requests":  stats["success_count"].(int64) + stats["failure_count"].(int64) + stats["timeout_count"].(int64),
		"last_update":     stats["last_update"],
		"circuit_breaker": c.CircuitBreaker.GetStats(),
	}
}

// IsHealthy returns true if the connection is healthy
func (c *IntegratedObservableClient) IsHealthy() bool {
	healthy, _ := c.GetHealthStatus()["is_healthy"].(bool)
	return healthy
}

package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hipanai/jobpipeline/internal/domain"
	"github.com/hipanai/jobpipeline/internal/retryexec"
)

// newHTTPClient builds a traced HTTP client for a source adapter named name.
func newHTTPClient(timeout time.Duration, name string) *http.Client {
	transport := otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return fmt.Sprintf("%s %s %s", name, r.Method, r.URL.Host)
		}),
	)
	return &http.Client{Timeout: timeout, Transport: transport}
}

// postJSON POSTs req as JSON to url and decodes the response body into resp.
func postJSON(ctx context.Context, hc *http.Client, url string, req, resp any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", domain.ErrInvalidArgument, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	}
	defer httpResp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))

	switch {
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamRateLimit, httpResp.StatusCode, respBody)
	case httpResp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstreamTimeout, httpResp.StatusCode, respBody)
	case httpResp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d: %s", domain.ErrInvalidArgument, httpResp.StatusCode, respBody)
	}

	if resp == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, resp); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrSchemaInvalid, err)
	}
	return nil
}

// doWithRetry runs fn under the given Retry Executor, or calls it directly
// when executor is nil.
func doWithRetry[T any](ctx context.Context, executor *retryexec.Executor, fn func(ctx context.Context) (T, error)) (T, error) {
	if executor == nil {
		return fn(ctx)
	}
	return retryexec.Do(ctx, executor, fn)
}

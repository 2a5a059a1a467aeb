// Package tika extracts plain text from attachment bytes via an Apache Tika
// server, used by the Deep Extractor stage driver for attachments whose
// sniffed MIME type isn't already plain text (PDF, Word documents).
package tika

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hipanai/jobpipeline/internal/observability"
	"github.com/hipanai/jobpipeline/pkg/textx"
)

// Client is a minimal Apache Tika HTTP client. It performs PUT /tika with
// Accept: text/plain to retrieve extracted text.
// See: https://tika.apache.org/server/ for API details.
type Client struct {
	baseURL    string
	httpClient *http.Client
	obs        *observability.IntegratedObservableClient
}

// New constructs a Tika client with a default timeout.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9998"
	}
	obsClient := observability.NewIntegratedObservableClient(
		observability.ConnectionTypeExtractor,
		observability.OperationTypeExtract,
		baseURL,
		"tika",
		15*time.Second, // base timeout
		5*time.Second,  // min timeout
		60*time.Second, // max timeout
	)
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		obs:        obsClient,
	}
}

// ExtractBytes submits content to the Tika server and returns its sanitized
// plain-text rendering. contentType, if known, is passed along so Tika can
// pick the right parser; an empty value leaves detection to Tika itself.
func (c *Client) ExtractBytes(ctx context.Context, contentType string, content []byte) (string, error) {
	var result string
	err := c.obs.ExecuteWithMetrics(ctx, "extract", func(callCtx context.Context) error {
		req, err := http.NewRequestWithContext(callCtx, http.MethodPut, c.baseURL+"/tika", bytes.NewReader(content))
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "text/plain")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("tika status %d", resp.StatusCode)
		}
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		sanitized := textx.SanitizeText(string(b))
		result = strings.Join(strings.Fields(sanitized), " ")
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// Package generator is the HTTP client for the downstream text generator.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/aigate/backend/internal/domain/generation"
	"github.com/aigate/backend/internal/domain/shared"
	"github.com/aigate/backend/internal/infrastructure/config"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	apiKeyHeader    = "x-api-key"
	maxErrorBodyLen = 4 << 10
)

// Client streams prompts to the downstream generator over HTTP.
// The response body is handed to the caller unread.
type Client struct {
	url        string
	apiKey     string
	model      string
	options    map[string]any
	httpClient *http.Client
	idle       time.Duration
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// NewClient creates a generator client.
// cfg.Timeout bounds the wait for response headers and every gap between body reads.
func NewClient(cfg config.GeneratorConfig, opts ...ClientOption) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout

	c := &Client{
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		options: map[string]any{"temperature": cfg.Temperature},
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(transport),
		},
		idle: timeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stream posts the prompt and returns the streaming response body.
// Connection failures and non-2xx responses are reported as upstream errors.
func (c *Client) Stream(ctx context.Context, req generation.Request) (io.ReadCloser, error) {
	if req.Model == "" {
		req.Model = c.model
	}
	if len(req.Options) == 0 {
		req.Options = c.options
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeServerError, "Failed to encode generation request", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		cancel()
		return nil, upstreamError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		cancel()
		return nil, upstreamError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		return nil, upstreamError(fmt.Errorf("generator returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body))))
	}

	return newIdleBody(resp.Body, c.idle, cancel), nil
}

// ErrStreamStalled reports a generator that stopped sending mid-stream
var ErrStreamStalled = errors.New("generator stream stalled")

// idleBody cancels the request when no read completes within timeout.
// A read interrupted that way fails with ErrStreamStalled.
type idleBody struct {
	body    io.ReadCloser
	timeout time.Duration
	timer   *time.Timer
	cancel  context.CancelFunc
	stalled atomic.Bool
}

func newIdleBody(body io.ReadCloser, timeout time.Duration, cancel context.CancelFunc) *idleBody {
	b := &idleBody{body: body, timeout: timeout, cancel: cancel}
	b.timer = time.AfterFunc(timeout, func() {
		b.stalled.Store(true)
		cancel()
	})
	return b
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.body.Read(p)
	if b.stalled.Load() {
		return n, upstreamError(fmt.Errorf("%w: no data for %s", ErrStreamStalled, b.timeout))
	}
	if err == nil {
		b.timer.Reset(b.timeout)
	}
	return n, err
}

func (b *idleBody) Close() error {
	b.timer.Stop()
	b.cancel()
	return b.body.Close()
}

func upstreamError(cause error) error {
	return shared.WrapDomainError(shared.CodeUpstreamError, shared.ErrUpstream.Message, cause)
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/loginform/internal/form"
	"github.com/sandeepkv93/loginform/internal/observability"
)

var ErrLoginRejected = errors.New("login rejected by endpoint")

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("login endpoint returned status %d", e.Code)
}

func (e *StatusError) Unwrap() error { return ErrLoginRejected }

// Client posts credentials to a fixed login endpoint. Only the status code of
// the response is interpreted.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a client for endpoint. No client-side timeout is set on the
// transport; callers bound each attempt through the context.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger:   observability.NewLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) Login(ctx context.Context, creds form.Credentials) error {
	body, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode login payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build login request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		observability.RecordLoginResponse(ctx, "transport_error")
		c.logger.WarnContext(ctx, "login request failed", "request_id", requestID, "error", err)
		return fmt.Errorf("post login: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	observability.RecordLoginResponse(ctx, observability.StatusClass(resp.StatusCode))
	c.logger.DebugContext(ctx, "login response",
		"request_id", requestID,
		"status", resp.StatusCode,
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

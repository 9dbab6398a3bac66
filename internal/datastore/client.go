package datastore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/frahmantamala/travel-backoffice/internal"
)

const restPrefix = "/rest/v1/"

type Config struct {
	BaseURL string
	APIKey  string
	// Timeout is applied to calls that pass no timeout of their own.
	Timeout time.Duration
	// MaxRetries enables bounded retries of timeout and server errors. Zero disables retry.
	MaxRetries   uint64
	RetryBackoff time.Duration
	HTTPClient   *http.Client
}

// Client speaks the table store's REST dialect. It is safe for concurrent use.
type Client struct {
	baseURL      string
	apiKey       string
	timeout      time.Duration
	maxRetries   uint64
	retryBackoff time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// per-request deadlines come from the context
		httpClient = &http.Client{Timeout: 0}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = internal.DefaultRequestTimeout
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		timeout:      timeout,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: backoff,
		httpClient:   httpClient,
		logger:       logger,
	}
}

func (c *Client) DefaultTimeout() time.Duration {
	return c.timeout
}

type response struct {
	statusCode int
	body       []byte
}

// Request performs one logical operation and decodes the store's answer into T.
// A non-positive timeout falls back to the client default.
func Request[T any](ctx context.Context, c *Client, op Operation, timeout time.Duration) Result[T] {
	start := time.Now()
	resp, err := c.execute(ctx, op, timeout)
	RequestDuration.WithLabelValues(op.Table, string(op.Method)).Observe(time.Since(start).Seconds())

	if err != nil {
		result := Fail[T](err)
		RequestsTotal.WithLabelValues(op.Table, string(op.Method), string(result.Status)).Inc()
		c.logger.Warn("store request failed",
			"table", op.Table,
			"method", op.Method,
			"status", result.Status,
			"status_code", result.StatusCode,
			"error", err)
		return result
	}

	var value T
	if _, empty := any(value).(Empty); !empty && len(bytes.TrimSpace(resp.body)) > 0 {
		if err := json.Unmarshal(resp.body, &value); err != nil {
			RequestsTotal.WithLabelValues(op.Table, string(op.Method), string(StatusUnknown)).Inc()
			c.logger.Error("failed to decode store response", "table", op.Table, "method", op.Method, "error", err)
			var zero T
			return Result[T]{
				Value:      zero,
				Err:        internal.NewInternalError(fmt.Sprintf("could not decode %s response", op.Table), err),
				Status:     StatusUnknown,
				StatusCode: resp.statusCode,
			}
		}
	}

	RequestsTotal.WithLabelValues(op.Table, string(op.Method), string(StatusOK)).Inc()
	c.logger.Debug("store request completed",
		"table", op.Table,
		"method", op.Method,
		"status_code", resp.statusCode,
		"duration", time.Since(start))
	return Ok(value, resp.statusCode)
}

func (c *Client) execute(ctx context.Context, op Operation, timeout time.Duration) (*response, error) {
	if timeout <= 0 {
		timeout = c.timeout
	}

	var payload []byte
	if op.Method != MethodSelect {
		body := op.Body
		if body == nil {
			body = struct{}{}
		}
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, internal.NewValidationError(fmt.Sprintf("could not encode %s payload: %v", op.Table, err), internal.ErrCodeValidationFailed)
		}
	}

	if c.maxRetries == 0 {
		return c.attempt(ctx, op, payload, timeout)
	}

	var out *response
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		resp, err := c.attempt(ctx, op, payload, timeout)
		if err != nil {
			if isRetryable(err) {
				RetriesTotal.WithLabelValues(op.Table, string(op.Method)).Inc()
				c.logger.Debug("retrying store request", "table", op.Table, "method", op.Method, "error", err)
				return retry.RetryableError(err)
			}
			return err
		}
		out = resp
		return nil
	})
	if err != nil {
		if _, ok := internal.IsAppError(err); !ok {
			return nil, mapTransportError(err, op, timeout)
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) attempt(ctx context.Context, op Operation, payload []byte, timeout time.Duration) (*response, error) {
	attemptCtx, cancel := internal.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := c.newRequest(attemptCtx, op, payload)
	if err != nil {
		return nil, internal.NewTransportError(fmt.Sprintf("could not build %s request", op.Table), err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, mapTransportError(err, op, timeout)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, mapTransportError(err, op, timeout)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return &response{statusCode: resp.StatusCode, body: body}, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, internal.NewClientError(storeMessage(body, resp.StatusCode), resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, internal.NewServerError(storeMessage(body, resp.StatusCode), resp.StatusCode)
	default:
		return nil, internal.NewTransportError(fmt.Sprintf("unexpected status %d from store", resp.StatusCode), nil)
	}
}

func (c *Client) newRequest(ctx context.Context, op Operation, payload []byte) (*http.Request, error) {
	target := c.baseURL + restPrefix + op.Table
	if values := op.Query.Values(); len(values) > 0 {
		target += "?" + values.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, op.Method.HTTPMethod(), target, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if op.Method == MethodInsert || op.Method == MethodUpdate {
		req.Header.Set("Prefer", "return=representation")
	}
	if traceID := internal.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Trace-ID", traceID)
	}
	return req, nil
}

// storeError is the error body the table store returns with 4xx/5xx responses.
type storeError struct {
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Details json.RawMessage `json:"details"`
	Hint    string          `json:"hint"`
}

func storeMessage(body []byte, statusCode int) string {
	var se storeError
	if err := json.Unmarshal(body, &se); err == nil && se.Message != "" {
		if se.Code != "" {
			return fmt.Sprintf("%s (%s)", se.Message, se.Code)
		}
		return se.Message
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 256 {
		return text
	}
	return fmt.Sprintf("store responded %d %s", statusCode, http.StatusText(statusCode))
}

func mapTransportError(err error, op Operation, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return internal.NewTimeoutError(fmt.Sprintf("%s %s timed out after %s", op.Method, op.Table, timeout)).WithCause(err)
	}
	return internal.NewTransportError(fmt.Sprintf("%s %s could not reach the store", op.Method, op.Table), err)
}

func isRetryable(err error) bool {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		return false
	}
	return appErr.Type == internal.ErrorTypeTimeout || appErr.Type == internal.ErrorTypeServer
}

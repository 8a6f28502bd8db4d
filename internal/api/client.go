// Package api implements the rate-limited, retrying HTTP pipeline for
// the provider's REST API and its typed endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pryvon/mailtm-go/internal/apierrors"
)

// Defaults for the transport configuration.
const (
	DefaultBaseURL     = "https://api.mail.tm"
	DefaultTimeout     = 30 * time.Second
	DefaultMinInterval = 100 * time.Millisecond
	DefaultUserAgent   = "mailtm-go/1.0"
)

// Config configures the transport. Zero fields take the documented
// defaults.
type Config struct {
	BaseURL     string
	HTTPClient  *http.Client
	Timeout     time.Duration
	Policy      *RetryPolicy
	MinInterval time.Duration
	Logger      *slog.Logger
	UserAgent   string
}

// Client executes provider requests with rate limiting, bounded
// retries and outcome classification. All methods are safe for
// concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	policy     *RetryPolicy
	limiter    *Limiter
	logger     *slog.Logger
	userAgent  string

	mu    sync.RWMutex
	token string

	requests atomic.Int64
}

// NewClient creates a transport from the given config.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Policy == nil {
		cfg.Policy = DefaultRetryPolicy()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: cfg.HTTPClient,
		policy:     cfg.Policy,
		limiter:    NewLimiter(cfg.MinInterval),
		logger:     cfg.Logger,
		userAgent:  cfg.UserAgent,
	}
}

// SetToken installs the bearer token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the bearer token.
func (c *Client) ClearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// Requests returns the number of upstream HTTP requests sent so far,
// counting every retry attempt.
func (c *Client) Requests() int64 {
	return c.requests.Load()
}

func (c *Client) bearer() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do executes one logical request with rate limiting and retries.
// Transient outcomes (network failures, retryable statuses) are retried
// up to the policy's attempt budget; the last failure is returned as a
// classified error.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apierrors.Validation("encode request body: " + err.Error())
		}
		payload = data
	}

	var lastErr *apierrors.Error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		outcome, err := c.attempt(ctx, method, path, payload, result, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if retryable := outcome == 0 || c.policy.RetryableOn(outcome); !retryable {
			return err
		}
		if attempt == c.policy.MaxAttempts {
			break
		}

		c.logger.Warn("retrying request",
			"method", method, "path", path,
			"attempt", attempt, "status", outcome,
			"delay", c.policy.Delay(attempt))
		if err := c.policy.Wait(ctx, attempt); err != nil {
			return err
		}
	}

	c.logger.Error("request failed",
		"method", method, "path", path,
		"attempts", c.policy.MaxAttempts, "error", lastErr)
	return lastErr
}

// attempt performs a single HTTP exchange. It returns the response
// status code (zero for network-level failures) alongside the
// classified error, and logs one event per attempt.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, result any, attempt int) (int, *apierrors.Error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return 0, apierrors.Validation("build request: " + err.Error())
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		if method == http.MethodPatch {
			// The provider requires merge-patch semantics on PATCH.
			req.Header.Set("Content-Type", "application/merge-patch+json")
		} else {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	if token := c.bearer(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.requests.Add(1)
	elapsed := time.Since(start)

	if err != nil {
		c.logger.Debug("request attempt",
			"method", method, "path", path,
			"attempt", attempt, "elapsed", elapsed, "error", err)
		return 0, apierrors.Network(err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request attempt",
		"method", method, "path", path,
		"attempt", attempt, "elapsed", elapsed, "status", resp.StatusCode)

	if resp.StatusCode >= 400 {
		return resp.StatusCode, apierrors.FromStatus(resp.StatusCode, readErrorMessage(resp.Body))
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return resp.StatusCode, &apierrors.Error{
				Kind:       apierrors.KindServer,
				StatusCode: resp.StatusCode,
				Message:    "malformed response body",
				Err:        err,
			}
		}
	}
	return resp.StatusCode, nil
}

// readErrorMessage extracts the most specific message from an error
// body, falling back to the raw text.
func readErrorMessage(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 8<<10))
	if err != nil || len(body) == 0 {
		return ""
	}

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		switch {
		case errResp.Message != "":
			return errResp.Message
		case errResp.Detail != "":
			return errResp.Detail
		case errResp.Description != "":
			return errResp.Description
		}
	}
	return string(body)
}

package mailtm

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pryvon/mailtm-go/internal/api"
)

// Default cache TTLs per namespace.
const (
	DefaultDomainsTTL        = time.Hour
	DefaultMessagesTTL       = 5 * time.Minute
	DefaultMessageContentTTL = 30 * time.Minute
)

// clientConfig holds configuration for the client.
type clientConfig struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *slog.Logger

	maxAttempts     int
	retryBaseDelay  time.Duration
	retryMaxDelay   time.Duration
	retryMultiplier float64
	retryOn         []int

	cacheEnabled bool
	domainsTTL   time.Duration
	messagesTTL  time.Duration
	contentTTL   time.Duration

	minRequestInterval time.Duration
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		cacheEnabled:       true,
		domainsTTL:         DefaultDomainsTTL,
		messagesTTL:        DefaultMessagesTTL,
		contentTTL:         DefaultMessageContentTTL,
		minRequestInterval: api.DefaultMinInterval,
	}
}

// Option configures the client.
type Option func(*clientConfig)

// WithBaseURL sets the provider base URL.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithRetries sets the total attempt budget per request, including the
// first attempt.
func WithRetries(attempts int) Option {
	return func(c *clientConfig) {
		c.maxAttempts = attempts
	}
}

// WithRetryBackoff sets the backoff schedule: the delay before attempt
// n+1 is base * multiplier^(n-1), capped at max.
func WithRetryBackoff(base, max time.Duration, multiplier float64) Option {
	return func(c *clientConfig) {
		c.retryBaseDelay = base
		c.retryMaxDelay = max
		c.retryMultiplier = multiplier
	}
}

// WithRetryOn sets the HTTP status codes that trigger a retry.
// Default: 429, 500, 502, 503, 504.
func WithRetryOn(statusCodes []int) Option {
	return func(c *clientConfig) {
		c.retryOn = statusCodes
	}
}

// WithCacheDisabled turns off response caching; every read goes to the
// network.
func WithCacheDisabled() Option {
	return func(c *clientConfig) {
		c.cacheEnabled = false
	}
}

// WithCacheTTLs overrides the per-namespace cache TTLs. Non-positive
// values keep the defaults.
func WithCacheTTLs(domains, messages, content time.Duration) Option {
	return func(c *clientConfig) {
		if domains > 0 {
			c.domainsTTL = domains
		}
		if messages > 0 {
			c.messagesTTL = messages
		}
		if content > 0 {
			c.contentTTL = content
		}
	}
}

// WithMinRequestInterval sets the minimum spacing between upstream
// requests. Zero disables pacing. Default: 100ms.
func WithMinRequestInterval(interval time.Duration) Option {
	return func(c *clientConfig) {
		c.minRequestInterval = interval
	}
}

// WithLogger sets the structured logger for client events. Default
// discards all output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}

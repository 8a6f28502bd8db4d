package mailtm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/pryvon/mailtm-go/internal/api"
	"github.com/pryvon/mailtm-go/internal/apierrors"
	"github.com/pryvon/mailtm-go/internal/cache"
)

// Client is the main entry point for talking to the provider. It owns
// the session, the response cache and the retrying transport, and is
// safe for concurrent use.
type Client struct {
	api     *api.Client
	cache   *cache.Store
	session *sessionManager
	flight  singleflight.Group
	logger  *slog.Logger

	cacheEnabled bool
	domainsTTL   time.Duration
	messagesTTL  time.Duration
	contentTTL   time.Duration
}

// CacheStats reports response-cache usage.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int64
}

// New creates a client. All settings are optional; defaults target the
// public provider endpoint.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	policy := api.DefaultRetryPolicy()
	if cfg.maxAttempts > 0 {
		policy.MaxAttempts = cfg.maxAttempts
	}
	if cfg.retryBaseDelay > 0 {
		policy.BaseDelay = cfg.retryBaseDelay
	}
	if cfg.retryMaxDelay > 0 {
		policy.MaxDelay = cfg.retryMaxDelay
	}
	if cfg.retryMultiplier > 0 {
		policy.Multiplier = cfg.retryMultiplier
	}
	if len(cfg.retryOn) > 0 {
		retryable := make(map[int]bool, len(cfg.retryOn))
		for _, code := range cfg.retryOn {
			retryable[code] = true
		}
		policy.RetryableOn = func(status int) bool { return retryable[status] }
	}

	apiClient := api.NewClient(api.Config{
		BaseURL:     cfg.baseURL,
		HTTPClient:  cfg.httpClient,
		Timeout:     cfg.timeout,
		Policy:      policy,
		MinInterval: cfg.minRequestInterval,
		Logger:      logger,
		UserAgent:   cfg.userAgent,
	})

	return &Client{
		api:          apiClient,
		cache:        cache.New(),
		session:      newSessionManager(apiClient, logger),
		logger:       logger,
		cacheEnabled: cfg.cacheEnabled,
		domainsTTL:   cfg.domainsTTL,
		messagesTTL:  cfg.messagesTTL,
		contentTTL:   cfg.contentTTL,
	}, nil
}

// Cache keys are derived centrally so per-account namespacing cannot
// drift between readers and invalidators.
const domainsCacheKey = "domains"

func messagesCacheKey(accountID string, page int) string {
	return fmt.Sprintf("messages:%s:p%d", accountID, page)
}

func messageCacheKey(accountID, messageID string) string {
	return fmt.Sprintf("message:%s:%s", accountID, messageID)
}

// fetchCached returns the live cached value under (ns, key) or fetches
// it, collapsing concurrent misses for the same key into one upstream
// request.
func fetchCached[T any](ctx context.Context, c *Client, ns cache.Namespace, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	if c.cacheEnabled {
		if v, ok := c.cache.Get(ns, key); ok {
			if typed, ok := v.(T); ok {
				return typed, nil
			}
		}
	}

	v, err, _ := c.flight.Do(string(ns)+"\x00"+key, func() (any, error) {
		val, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if c.cacheEnabled {
			if err := c.cache.Set(ns, key, val, ttl); err != nil {
				return nil, err
			}
		}
		return val, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// authorized runs fn behind the session check. When the provider
// rejects the token mid-session, the session is destroyed and the
// authentication error surfaces to the caller; the next call fails
// locally without network access.
func (c *Client) authorized(op string, fn func() error) error {
	if err := c.session.requireAuth(); err != nil {
		return wrapError(op, err)
	}
	if err := fn(); err != nil {
		var apiErr *apierrors.Error
		if errors.As(err, &apiErr) &&
			apiErr.Kind == apierrors.KindAuthentication && apiErr.StatusCode != 0 {
			c.session.invalidate()
		}
		return wrapError(op, err)
	}
	return nil
}

// Domains lists the domains available for new addresses. The result is
// cached for the domains namespace TTL.
func (c *Client) Domains(ctx context.Context) ([]Domain, error) {
	domains, err := fetchCached(ctx, c, cache.Domains, domainsCacheKey, c.domainsTTL,
		func(ctx context.Context) ([]Domain, error) {
			raw, err := c.api.GetDomains(ctx)
			if err != nil {
				return nil, err
			}
			c.logger.Info("retrieved domains", "count", len(raw))
			return newDomains(raw), nil
		})
	if err != nil {
		return nil, wrapError("domains", err)
	}
	return domains, nil
}

// CreateAccount registers a new account without logging in.
func (c *Client) CreateAccount(ctx context.Context, address, password string) (*Account, error) {
	if err := validateCredentials(address, password); err != nil {
		return nil, wrapError("create account", err)
	}

	raw, err := c.api.CreateAccount(ctx, address, password)
	if err != nil {
		return nil, wrapError("create account", err)
	}
	c.logger.Info("account created", "address", address)
	return newAccount(raw), nil
}

// Register creates an account and immediately logs into it.
func (c *Client) Register(ctx context.Context, address, password string) (*Account, error) {
	if _, err := c.CreateAccount(ctx, address, password); err != nil {
		return nil, err
	}
	return c.Login(ctx, address, password)
}

// Login authenticates and makes the account the client's active
// session. Credentials are not retained.
func (c *Client) Login(ctx context.Context, address, password string) (*Account, error) {
	account, err := c.session.login(ctx, address, password)
	if err != nil {
		return nil, wrapError("login", err)
	}
	return account, nil
}

// Logout destroys the session and drops the per-account caches.
func (c *Client) Logout() {
	c.session.logout()
	c.cache.Clear(cache.Messages)
	c.cache.Clear(cache.MessageContent)
}

// CurrentSession returns a copy of the active session, if any.
func (c *Client) CurrentSession() (Session, bool) {
	return c.session.current()
}

// Account returns a fresh snapshot of the logged-in account.
func (c *Client) Account(ctx context.Context) (*Account, error) {
	var account *Account
	err := c.authorized("account", func() error {
		raw, err := c.api.GetMe(ctx)
		if err != nil {
			return err
		}
		account = newAccount(raw)
		c.session.refreshAccount(account)
		return nil
	})
	return account, err
}

// AccountStats summarizes quota usage plus client-side counters.
func (c *Client) AccountStats(ctx context.Context) (*AccountStats, error) {
	account, err := c.Account(ctx)
	if err != nil {
		return nil, err
	}

	stats := &AccountStats{
		Address:      account.Address,
		QuotaUsed:    account.Used,
		QuotaTotal:   account.Quota,
		CreatedAt:    account.CreatedAt,
		UpdatedAt:    account.UpdatedAt,
		RequestCount: c.api.Requests(),
		Cache:        c.CacheStats(),
	}
	if account.Quota > 0 {
		stats.QuotaPercentage = float64(account.Used) / float64(account.Quota) * 100
	}
	return stats, nil
}

// Messages lists one page of the mailbox, newest first. Pages are
// cached per account for the messages namespace TTL.
func (c *Client) Messages(ctx context.Context, page int) ([]MessageSummary, error) {
	if page < 1 {
		page = 1
	}

	var messages []MessageSummary
	err := c.authorized("messages", func() error {
		key := messagesCacheKey(c.session.accountID(), page)
		var err error
		messages, err = fetchCached(ctx, c, cache.Messages, key, c.messagesTTL,
			func(ctx context.Context) ([]MessageSummary, error) {
				raw, err := c.api.GetMessages(ctx, page)
				if err != nil {
					return nil, err
				}
				c.logger.Info("retrieved messages", "count", len(raw), "page", page)
				return newMessageSummaries(raw), nil
			})
		return err
	})
	return messages, err
}

// Message fetches the full content of a message, cached for the
// message-content namespace TTL.
func (c *Client) Message(ctx context.Context, messageID string) (*Message, error) {
	var message *Message
	err := c.authorized("message", func() error {
		key := messageCacheKey(c.session.accountID(), messageID)
		var err error
		message, err = fetchCached(ctx, c, cache.MessageContent, key, c.contentTTL,
			func(ctx context.Context) (*Message, error) {
				raw, err := c.api.GetMessage(ctx, messageID)
				if err != nil {
					return nil, err
				}
				return newMessage(raw), nil
			})
		return err
	})
	return message, err
}

// MarkMessageSeen marks a message as read and drops the cache entries
// the change makes stale.
func (c *Client) MarkMessageSeen(ctx context.Context, messageID string) error {
	return c.authorized("mark message seen", func() error {
		if err := c.api.MarkMessageSeen(ctx, messageID); err != nil {
			return err
		}
		c.invalidateMessage(messageID)
		c.logger.Info("message marked seen", "message_id", messageID)
		return nil
	})
}

// DeleteMessage deletes a message and invalidates the stale list and
// content cache entries.
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	return c.authorized("delete message", func() error {
		if err := c.api.DeleteMessage(ctx, messageID); err != nil {
			return err
		}
		c.invalidateMessage(messageID)
		c.logger.Info("message deleted", "message_id", messageID)
		return nil
	})
}

// DeleteAccount deletes the logged-in account and destroys the
// session.
func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.authorized("delete account", func() error {
		session, _ := c.session.current()
		if err := c.api.DeleteAccount(ctx, session.AccountID); err != nil {
			return err
		}
		c.logger.Warn("account deleted", "address", session.Address)
		c.Logout()
		return nil
	})
}

// RefreshMailbox drops the cached message lists for the account and
// refetches the first page from the provider.
func (c *Client) RefreshMailbox(ctx context.Context) ([]MessageSummary, error) {
	var messages []MessageSummary
	err := c.authorized("refresh mailbox", func() error {
		c.cache.Clear(cache.Messages)
		raw, err := c.api.GetMessages(ctx, 1)
		if err != nil {
			return err
		}
		messages = newMessageSummaries(raw)
		if c.cacheEnabled {
			key := messagesCacheKey(c.session.accountID(), 1)
			if err := c.cache.Set(cache.Messages, key, messages, c.messagesTTL); err != nil {
				return err
			}
		}
		c.logger.Info("mailbox refreshed", "count", len(messages))
		return nil
	})
	return messages, err
}

// CacheStats returns a snapshot of the response-cache counters.
func (c *Client) CacheStats() CacheStats {
	s := c.cache.Stats()
	return CacheStats{Hits: s.Hits, Misses: s.Misses, Evictions: s.Evictions, Size: s.Size}
}

// ClearCache drops every cached response.
func (c *Client) ClearCache() {
	c.cache.ClearAll()
	c.logger.Info("cache cleared")
}

// invalidateMessage drops the cache entries a message mutation makes
// stale: its content entry and every cached list page.
func (c *Client) invalidateMessage(messageID string) {
	c.cache.Invalidate(cache.MessageContent, messageCacheKey(c.session.accountID(), messageID))
	c.cache.Clear(cache.Messages)
}

// validateCredentials applies the provider's documented constraints
// locally so obviously bad input never reaches the network.
func validateCredentials(address, password string) error {
	if address == "" || !strings.Contains(address, "@") {
		return apierrors.Validation("invalid email address format")
	}
	if len(password) < 6 {
		return apierrors.Validation("password must be at least 6 characters")
	}
	return nil
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pryvon/mailtm-go/internal/apierrors"
)

// fastPolicy retries without meaningful delay so tests stay quick.
func fastPolicy(maxAttempts int) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
		RetryableOn: apierrors.Retryable,
	}
}

func newTestClient(baseURL string, maxAttempts int) *Client {
	return NewClient(Config{
		BaseURL:     baseURL,
		Policy:      fastPolicy(maxAttempts),
		MinInterval: 0,
	})
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})

	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %s, want %s", c.baseURL, DefaultBaseURL)
	}
	if c.httpClient == nil || c.httpClient.Timeout != DefaultTimeout {
		t.Error("default HTTP client not configured")
	}
	if c.policy.MaxAttempts != 3 {
		t.Errorf("maxAttempts = %d, want 3", c.policy.MaxAttempts)
	}
}

func TestClient_Do_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Errorf("Accept = %s", got)
		}
		if got := r.Header.Get("User-Agent"); got != DefaultUserAgent {
			t.Errorf("User-Agent = %s", got)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "abc"})
	}))
	defer server.Close()

	c := newTestClient(server.URL, 3)

	var result struct {
		ID string `json:"id"`
	}
	if err := c.do(context.Background(), http.MethodGet, "/me", nil, &result); err != nil {
		t.Fatalf("do() error = %v", err)
	}
	if result.ID != "abc" {
		t.Errorf("id = %s, want abc", result.ID)
	}
	if got := c.Requests(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func TestClient_Do_AttachesBearerToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Errorf("Authorization = %q, want Bearer tok-123", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := newTestClient(server.URL, 1)
	c.SetToken("tok-123")

	if err := c.do(context.Background(), http.MethodGet, "/messages", nil, nil); err != nil {
		t.Fatalf("do() error = %v", err)
	}

	c.ClearToken()
	if got := c.bearer(); got != "" {
		t.Errorf("token after ClearToken = %q", got)
	}
}

func TestClient_Do_RetriesTransientThenSucceeds(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch attempts.Add(1) {
		case 1, 2:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			json.NewEncoder(w).Encode(map[string]string{"id": "ok"})
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL, 3)

	var result struct {
		ID string `json:"id"`
	}
	if err := c.do(context.Background(), http.MethodGet, "/domains", nil, &result); err != nil {
		t.Fatalf("do() error = %v", err)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want 3", got)
	}
	if result.ID != "ok" {
		t.Errorf("result = %+v, want final 200 payload", result)
	}
}

func TestClient_Do_ExhaustsRetriesOn502(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := newTestClient(server.URL, 3)

	err := c.do(context.Background(), http.MethodGet, "/domains", nil, nil)
	if err == nil {
		t.Fatal("do() = nil, want error")
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want exactly 3", got)
	}

	var apiErr *apierrors.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *apierrors.Error", err)
	}
	if apiErr.Kind != apierrors.KindServer {
		t.Errorf("kind = %v, want server", apiErr.Kind)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", apiErr.StatusCode)
	}
}

func TestClient_Do_RateLimitedAfterRetries(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := newTestClient(server.URL, 2)

	err := c.do(context.Background(), http.MethodGet, "/messages", nil, nil)
	var apiErr *apierrors.Error
	if !errors.As(err, &apiErr) || apiErr.Kind != apierrors.KindRateLimited {
		t.Fatalf("error = %v, want rate limited", err)
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("attempts = %d, want 2", got)
	}
}

func TestClient_Do_NoRetryOnClientErrors(t *testing.T) {
	tests := []struct {
		status int
		kind   apierrors.Kind
	}{
		{http.StatusUnauthorized, apierrors.KindAuthentication},
		{http.StatusNotFound, apierrors.KindNotFound},
		{http.StatusUnprocessableEntity, apierrors.KindValidation},
		{http.StatusBadRequest, apierrors.KindValidation},
	}

	for _, tt := range tests {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(tt.status)
			json.NewEncoder(w).Encode(map[string]string{"message": "nope"})
		}))

		c := newTestClient(server.URL, 3)
		err := c.do(context.Background(), http.MethodGet, "/x", nil, nil)

		var apiErr *apierrors.Error
		if !errors.As(err, &apiErr) {
			t.Fatalf("status %d: error type = %T", tt.status, err)
		}
		if apiErr.Kind != tt.kind {
			t.Errorf("status %d: kind = %v, want %v", tt.status, apiErr.Kind, tt.kind)
		}
		if apiErr.Message != "nope" {
			t.Errorf("status %d: message = %q, want body message", tt.status, apiErr.Message)
		}
		if got := attempts.Load(); got != 1 {
			t.Errorf("status %d: attempts = %d, want 1 (no retry)", tt.status, got)
		}
		server.Close()
	}
}

func TestClient_Do_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	c := newTestClient(server.URL, 2)

	err := c.do(context.Background(), http.MethodGet, "/domains", nil, nil)
	var apiErr *apierrors.Error
	if !errors.As(err, &apiErr) || apiErr.Kind != apierrors.KindNetwork {
		t.Fatalf("error = %v, want network kind", err)
	}
}

func TestClient_Do_CancelDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(Config{
		BaseURL: server.URL,
		Policy: &RetryPolicy{
			MaxAttempts: 3,
			BaseDelay:   time.Hour,
			MaxDelay:    time.Hour,
			Multiplier:  1.0,
			RetryableOn: apierrors.Retryable,
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.do(ctx, http.MethodGet, "/domains", nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("do() = %v, want deadline exceeded from backoff wait", err)
	}
}

func TestClient_Do_PatchUsesMergePatchContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/merge-patch+json" {
			t.Errorf("Content-Type = %q, want merge-patch", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(server.URL, 1)
	body := map[string]bool{"seen": true}
	if err := c.do(context.Background(), http.MethodPatch, "/messages/m1", body, nil); err != nil {
		t.Fatalf("do() error = %v", err)
	}
}

func TestClient_Do_PacedAttempts(t *testing.T) {
	const interval = 15 * time.Millisecond

	var stamps []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stamps = append(stamps, time.Now())
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient(Config{
		BaseURL:     server.URL,
		Policy:      fastPolicy(3),
		MinInterval: interval,
	})

	_ = c.do(context.Background(), http.MethodGet, "/domains", nil, nil)

	if len(stamps) != 3 {
		t.Fatalf("attempts = %d, want 3", len(stamps))
	}
	for i := 1; i < len(stamps); i++ {
		if spacing := stamps[i].Sub(stamps[i-1]); spacing < interval-time.Millisecond {
			t.Errorf("attempt %d spacing = %v, want >= %v", i, spacing, interval)
		}
	}
}

func TestEndpoints_GetDomains(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/domains" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"hydra:member":[{"id":"d1","domain":"example.test","isActive":true}],"hydra:totalItems":1}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL, 1)
	domains, err := c.GetDomains(context.Background())
	if err != nil {
		t.Fatalf("GetDomains() error = %v", err)
	}
	if len(domains) != 1 || domains[0].Domain != "example.test" || !domains[0].IsActive {
		t.Errorf("domains = %+v", domains)
	}
}

func TestEndpoints_GetToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["address"] != "a@b.test" || body["password"] != "secret-1" {
			t.Errorf("body = %v", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"token": "tok", "id": "acct-1"})
	}))
	defer server.Close()

	c := newTestClient(server.URL, 1)
	token, id, err := c.GetToken(context.Background(), "a@b.test", "secret-1")
	if err != nil {
		t.Fatalf("GetToken() error = %v", err)
	}
	if token != "tok" || id != "acct-1" {
		t.Errorf("token = %s, id = %s", token, id)
	}
}

func TestEndpoints_GetMessagesPaging(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("page = %q, want 2", got)
		}
		w.Write([]byte(`{"hydra:member":[]}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL, 1)
	if _, err := c.GetMessages(context.Background(), 2); err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}
}

func TestEndpoints_NotFoundTaggedWithResource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := newTestClient(server.URL, 1)
	_, err := c.GetMessage(context.Background(), "missing")

	var apiErr *apierrors.Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T", err)
	}
	if apiErr.Resource != apierrors.ResourceMessage {
		t.Errorf("resource = %q, want message", apiErr.Resource)
	}
}

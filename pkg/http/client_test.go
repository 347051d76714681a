package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	expected := &ClientConfig{
		Timeout:      10 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 1 * time.Second,
		UserAgent:    "link-preview/1.0",
		Headers:      make(map[string]string),
	}

	if !reflect.DeepEqual(config, expected) {
		t.Errorf("DefaultConfig() = %+v, expected %+v", config, expected)
	}
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name   string
		config *ClientConfig
	}{
		{
			name:   "with nil config",
			config: nil,
		},
		{
			name: "with custom config",
			config: &ClientConfig{
				Timeout:      5 * time.Second,
				MaxRetries:   0,
				RetryBackoff: 500 * time.Millisecond,
				UserAgent:    "custom-agent/1.0",
				Headers:      map[string]string{"Accept": "text/html"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.config)

			if client == nil {
				t.Fatal("NewClient() returned nil")
			}

			if tt.config == nil && !reflect.DeepEqual(client.config, DefaultConfig()) {
				t.Errorf("NewClient(nil) should use default config")
			}

			if client.HTTPClient().Timeout != client.config.Timeout {
				t.Errorf("NewClient() timeout = %v, expected %v", client.HTTPClient().Timeout, client.config.Timeout)
			}
		})
	}
}

func TestGetWithContext_SetsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent/1.0" {
			t.Errorf("User-Agent = %q, expected %q", got, "test-agent/1.0")
		}
		if got := r.Header.Get("Accept"); got != "text/html" {
			t.Errorf("Accept = %q, expected %q", got, "text/html")
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{
		Timeout:   time.Second,
		UserAgent: "test-agent/1.0",
		Headers:   map[string]string{"Accept": "text/html"},
	})

	resp, err := client.GetWithContext(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetWithContext() error = %v", err)
	}
	resp.Body.Close()
}

func TestPostJSON_RetriesWithBody(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]string
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("attempt %d: invalid body %q: %v", calls.Load()+1, body, err)
		}
		if payload["query"] != "{ ping }" {
			t.Errorf("query = %q, expected %q", payload["query"], "{ ping }")
		}

		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{
		Timeout:      time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	})

	resp, err := client.PostJSON(context.Background(), server.URL, map[string]string{"query": "{ ping }"})
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, expected %d", resp.StatusCode, http.StatusOK)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server called %d times, expected 2", got)
	}
}

func TestDoWithRetry_NoRetriesReturnsLastResponse(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{Timeout: time.Second})

	resp, err := client.GetWithContext(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetWithContext() error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, expected %d", resp.StatusCode, http.StatusInternalServerError)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server called %d times, expected 1", got)
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		expected   bool
	}{
		{"200 OK - not retryable", http.StatusOK, false},
		{"404 Not Found - not retryable", http.StatusNotFound, false},
		{"429 Too Many Requests - retryable", http.StatusTooManyRequests, true},
		{"500 Internal Server Error - retryable", http.StatusInternalServerError, true},
		{"502 Bad Gateway - retryable", http.StatusBadGateway, true},
		{"503 Service Unavailable - retryable", http.StatusServiceUnavailable, true},
		{"504 Gateway Timeout - retryable", http.StatusGatewayTimeout, true},
		{"505 HTTP Version Not Supported - not retryable", http.StatusHTTPVersionNotSupported, false},
		{"edge case: 0 status code", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsRetryableStatusCode(tt.statusCode)
			if result != tt.expected {
				t.Errorf("IsRetryableStatusCode(%d) = %v, expected %v",
					tt.statusCode, result, tt.expected)
			}
		})
	}
}

type countingLimiter struct {
	waits atomic.Int32
	err   error
}

func (l *countingLimiter) Wait(context.Context) error {
	l.waits.Add(1)
	return l.err
}

func TestDoWithRetry_UsesRateLimiter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	limiter := &countingLimiter{}
	client := NewClient(&ClientConfig{Timeout: time.Second, RateLimiter: limiter})

	for i := 0; i < 3; i++ {
		resp, err := client.GetWithContext(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("GetWithContext() error = %v", err)
		}
		resp.Body.Close()
	}

	if got := limiter.waits.Load(); got != 3 {
		t.Errorf("limiter waits = %d, want 3", got)
	}
}

func TestDoWithRetry_RateLimiterError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewClient(&ClientConfig{Timeout: time.Second, RateLimiter: &countingLimiter{err: context.Canceled}})

	if _, err := client.GetWithContext(context.Background(), server.URL); err == nil {
		t.Fatal("expected error from rate limiter")
	}
	if calls.Load() != 0 {
		t.Error("request was sent despite limiter error")
	}
}

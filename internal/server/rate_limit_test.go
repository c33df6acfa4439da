package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExtractFirstIP(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"127.0.0.1", "127.0.0.1"},
		{"127.0.0.1, 192.168.1.1", "127.0.0.1"},
		{"10.0.0.1, 10.0.0.2, 10.0.0.3", "10.0.0.1"},
		{"", ""},
		{"   1.2.3.4   ", "1.2.3.4"},
	}

	for _, tt := range tests {
		got := extractFirstIP(tt.input)
		if got != tt.expected {
			t.Errorf("extractFirstIP(%q) = %q; want %q", tt.input, got, tt.expected)
		}
	}
}

func TestStripPort(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"127.0.0.1:8080", "127.0.0.1"},
		{"192.168.1.1", "192.168.1.1"},
		{"[::1]:8080", "::1"},
		{"[::1]", "::1"},
	}

	for _, tt := range tests {
		got := stripPort(tt.input)
		if got != tt.expected {
			t.Errorf("stripPort(%q) = %q; want %q", tt.input, got, tt.expected)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{
			name:     "X-Forwarded-For",
			headers:  map[string]string{"X-Forwarded-For": "203.0.113.1, 10.0.0.1"},
			remote:   "10.0.0.2:1234",
			expected: "203.0.113.1",
		},
		{
			name:     "X-Real-IP",
			headers:  map[string]string{"X-Real-IP": "203.0.113.5"},
			remote:   "10.0.0.2:1234",
			expected: "203.0.113.5",
		},
		{
			name:     "RemoteAddr fallback",
			headers:  map[string]string{},
			remote:   "203.0.113.9:5555",
			expected: "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/evaluate", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			got := getClientIP(req)
			if got != tt.expected {
				t.Errorf("getClientIP() = %q; want %q", got, tt.expected)
			}
		})
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 2, CleanupInterval: time.Minute})
	defer rl.Stop()

	if !rl.Allow("1.2.3.4") {
		t.Fatal("first request should be allowed")
	}
	if !rl.Allow("1.2.3.4") {
		t.Fatal("second request should be allowed")
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("third request should be rate limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("a different client should not be affected by another client's limit")
	}
}

func TestRateLimiter_AllowNChargesProportionalCost(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 10, CleanupInterval: time.Minute})
	defer rl.Stop()

	if !rl.AllowN("1.2.3.4", 7) {
		t.Fatal("a 7-token request should be allowed against a 10-token budget")
	}
	if rl.AllowN("1.2.3.4", 4) {
		t.Fatal("a 4-token request should be rejected with only 3 tokens left")
	}
	if !rl.AllowN("1.2.3.4", 3) {
		t.Fatal("a 3-token request should exactly exhaust the remaining budget")
	}
}

func TestEvaluationCost(t *testing.T) {
	tests := []struct {
		numBodies int
		want      int
	}{
		{1, 1},
		{10_000, 1},
		{10_001, 2},
		{50_000, 6},
	}
	for _, tt := range tests {
		if got := evaluationCost(tt.numBodies); got != tt.want {
			t.Errorf("evaluationCost(%d) = %d, want %d", tt.numBodies, got, tt.want)
		}
	}
}

func TestRateLimitMiddleware_TooManyRequests(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	handler := RateLimitMiddleware(rl, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/evaluate", nil)
	req.RemoteAddr = "9.9.9.9:1111"

	w1 := httptest.NewRecorder()
	handler(w1, req)
	if w1.Code != http.StatusOK {
		t.Fatalf("first request: got status %d, want %d", w1.Code, http.StatusOK)
	}

	w2 := httptest.NewRecorder()
	handler(w2, req)
	if w2.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got status %d, want %d", w2.Code, http.StatusTooManyRequests)
	}
}

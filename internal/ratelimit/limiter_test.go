// SPDX-License-Identifier: MIT

package ratelimit

import (
	"fmt"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiterBurst(t *testing.T) {
	limiter := New(60, 5)

	allowed := 0
	for i := 0; i < 10; i++ {
		if limiter.Allow("192.168.1.1") {
			allowed++
		}
	}
	if allowed != 5 {
		t.Errorf("expected burst of 5 to pass, got %d", allowed)
	}
}

func TestLimiterPerIPIsolation(t *testing.T) {
	limiter := New(60, 3)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("192.168.1.1") {
			t.Fatalf("request %d for first IP unexpectedly limited", i)
		}
	}
	if limiter.Allow("192.168.1.1") {
		t.Error("fourth request for first IP should be limited")
	}

	// A different client gets its own bucket.
	if !limiter.Allow("192.168.1.2") {
		t.Error("first request for second IP should pass")
	}
}

func TestLimiterRefill(t *testing.T) {
	now := time.Unix(1700000000, 0)
	limiter := New(60, 1) // one token per second
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("10.0.0.1") {
		t.Fatal("first request should pass")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("second immediate request should be limited")
	}

	now = now.Add(1100 * time.Millisecond)
	if !limiter.Allow("10.0.0.1") {
		t.Error("request after refill interval should pass")
	}
}

func TestLimiterReapsIdleBuckets(t *testing.T) {
	now := time.Unix(1700000000, 0)
	limiter := New(60, 5) // refill interval 1s, reap TTL 10s
	limiter.now = func() time.Time { return now }

	for i := 0; i < 10; i++ {
		limiter.Allow(fmt.Sprintf("192.168.1.%d", 100+i))
	}
	if got := limiter.Len(); got != 10 {
		t.Fatalf("expected 10 tracked buckets, got %d", got)
	}

	// Advance past ten refill intervals of inactivity; the next request
	// sweeps the idle buckets and registers only itself.
	now = now.Add(11 * time.Second)
	limiter.Allow("192.168.1.200")

	if got := limiter.Len(); got != 1 {
		t.Errorf("expected 1 bucket after reap, got %d", got)
	}
}

func TestLimiterDefaults(t *testing.T) {
	limiter := New(0, 0)
	if !limiter.Allow("10.0.0.9") {
		t.Error("fallback limiter should allow the first request")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trustProxy bool
		want       string
	}{
		{
			name:       "X-Forwarded-For single IP",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1"},
			remoteAddr: "192.168.1.1:12345",
			trustProxy: true,
			want:       "203.0.113.1",
		},
		{
			name:       "X-Forwarded-For multiple IPs",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1, 192.168.1.1, 10.0.0.1"},
			remoteAddr: "127.0.0.1:12345",
			trustProxy: true,
			want:       "203.0.113.1",
		},
		{
			name:       "X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.2"},
			remoteAddr: "192.168.1.1:12345",
			trustProxy: true,
			want:       "203.0.113.2",
		},
		{
			name:       "proxy headers ignored when untrusted",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.1"},
			remoteAddr: "192.168.1.1:12345",
			trustProxy: false,
			want:       "192.168.1.1",
		},
		{
			name:       "fallback to RemoteAddr",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: true,
			want:       "192.168.1.100",
		},
		{
			name:       "X-Forwarded-For with spaces",
			headers:    map[string]string{"X-Forwarded-For": "  203.0.113.5  "},
			remoteAddr: "192.168.1.1:12345",
			trustProxy: true,
			want:       "203.0.113.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			req.RemoteAddr = tt.remoteAddr

			got := GetClientIP(req, tt.trustProxy)
			if got != tt.want {
				t.Errorf("GetClientIP() = %v, want %v", got, tt.want)
			}
		})
	}
}

func BenchmarkLimiterAllow(b *testing.B) {
	limiter := New(6000, 1000000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow("192.168.1.1")
	}
}

func BenchmarkGetClientIP(b *testing.B) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.1, 192.168.1.1")
	req.RemoteAddr = "192.168.1.100:54321"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		GetClientIP(req, true)
	}
}

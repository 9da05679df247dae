package smarthq

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

// RateLimitError is returned when a property write is blocked locally.
type RateLimitError struct {
	RetryAt time.Time
}

func (e RateLimitError) Error() string {
	return fmt.Sprintf("smarthq write rate limited (retry at %s)", e.RetryAt.UTC().Format(time.RFC3339))
}

// WrapHTTP wraps an http.Client with a token bucket over POST requests,
// so a misbehaving caller cannot flood the appliance API with writes.
// Reads pass through untouched.
func WrapHTTP(base *http.Client, writesPerMinute, burst int) *http.Client {
	if base == nil {
		base = &http.Client{}
	}
	client := *base
	transport := client.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	client.Transport = &guardedTransport{
		base: transport,
		guard: &writeGuard{
			perMinute: writesPerMinute,
			burst:     burst,
			tokens:    float64(burst),
			last:      time.Now(),
		},
	}
	return &client
}

type guardedTransport struct {
	base  http.RoundTripper
	guard *writeGuard
}

func (t *guardedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPost {
		return t.base.RoundTrip(req)
	}
	if retryAt, ok := t.guard.take(time.Now()); !ok {
		return nil, RateLimitError{RetryAt: retryAt}
	}
	return t.base.RoundTrip(req)
}

type writeGuard struct {
	mu        sync.Mutex
	perMinute int
	burst     int
	tokens    float64
	last      time.Time
}

func (g *writeGuard) take(now time.Time) (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rate := float64(g.perMinute) / 60
	g.tokens += now.Sub(g.last).Seconds() * rate
	if g.tokens > float64(g.burst) {
		g.tokens = float64(g.burst)
	}
	g.last = now

	if g.tokens < 1 {
		wait := time.Duration((1 - g.tokens) / rate * float64(time.Second))
		return now.Add(wait), false
	}
	g.tokens--
	return time.Time{}, true
}

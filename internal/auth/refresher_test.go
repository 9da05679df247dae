package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubRefresher struct {
	mu    sync.Mutex
	calls int
	fail  int // fail the first n calls
}

func (s *stubRefresher) Refresh(_ context.Context, refreshToken string) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.fail {
		return Credential{}, errors.New("provider unavailable")
	}
	return Credential{
		AccessToken:  "refreshed",
		RefreshToken: refreshToken,
		ExpiresIn:    3600,
		ObtainedAt:   time.Now(),
	}, nil
}

func (s *stubRefresher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestRefresherReplacesCredential(t *testing.T) {
	store := &Store{}
	stub := &stubRefresher{}
	r := NewRefresher(stub, store, time.Minute)

	// already-expired credential fires the first refresh immediately
	r.Start(Credential{AccessToken: "stale", RefreshToken: "rt", ObtainedAt: time.Now()})
	defer r.Stop()

	deadline := time.After(2 * time.Second)
	for {
		cred, ok := store.Snapshot()
		if ok && cred.AccessToken == "refreshed" {
			if cred.RefreshToken != "rt" {
				t.Errorf("refresh token = %q", cred.RefreshToken)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("credential never replaced")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRefresherFallbackRetry(t *testing.T) {
	store := &Store{}
	stub := &stubRefresher{fail: 2}
	r := NewRefresher(stub, store, time.Minute)
	r.fallback = 5 * time.Millisecond

	r.Start(Credential{RefreshToken: "rt", ObtainedAt: time.Now()})
	defer r.Stop()

	deadline := time.After(2 * time.Second)
	for {
		if cred, ok := store.Snapshot(); ok && cred.AccessToken == "refreshed" {
			if got := stub.callCount(); got != 3 {
				t.Errorf("refresh calls = %d, want 3", got)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("refresh never recovered")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRefresherEscalatesAfterBoundedFailures(t *testing.T) {
	store := &Store{}
	stub := &stubRefresher{fail: 1 << 30}
	r := NewRefresher(stub, store, time.Minute)
	r.fallback = time.Millisecond
	r.limit = 3

	r.Start(Credential{RefreshToken: "rt", ObtainedAt: time.Now()})

	select {
	case err := <-r.Done():
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
		if got := stub.callCount(); got != 3 {
			t.Errorf("refresh calls = %d, want 3", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session failure never escalated")
	}
}

func TestRefresherOnReplaceHook(t *testing.T) {
	store := &Store{}
	r := NewRefresher(&stubRefresher{}, store, time.Minute)

	var mu sync.Mutex
	var seen []string
	r.OnReplace = func(cred Credential) {
		mu.Lock()
		seen = append(seen, cred.AccessToken)
		mu.Unlock()
	}

	r.Start(Credential{AccessToken: "initial", RefreshToken: "rt", ObtainedAt: time.Now()})
	defer r.Stop()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(seen)
		first := ""
		if n > 0 {
			first = seen[0]
		}
		mu.Unlock()
		if n >= 2 {
			if first != "initial" {
				t.Errorf("first installed credential = %q", first)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatal("hook never observed the refreshed credential")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

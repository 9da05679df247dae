// Package auth performs the SmartHQ authorization-code login, including
// the scripted HTML form submission the provider interposes, and keeps the
// resulting token pair fresh for the rest of the process.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Credential is one access/refresh token pair. ExpiresIn is interpreted
// relative to ObtainedAt; a credential is valid until ObtainedAt plus
// ExpiresIn. Credentials are replaced wholesale, never merged.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	ObtainedAt   time.Time
}

// ExpiresAt returns the instant the provider stops guaranteeing the token.
func (c Credential) ExpiresAt() time.Time {
	return c.ObtainedAt.Add(time.Duration(c.ExpiresIn) * time.Second)
}

// Store holds the process-wide credential. Readers always observe a fully
// formed credential; Replace swaps the whole value under the lock.
type Store struct {
	mu   sync.RWMutex
	cred Credential
	set  bool
}

// Replace installs a new credential for all readers.
func (s *Store) Replace(cred Credential) {
	s.mu.Lock()
	s.cred = cred
	s.set = true
	s.mu.Unlock()
	tokenValid.Set(1)
}

// Snapshot returns the current credential, if one has been installed.
func (s *Store) Snapshot() (Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred, s.set
}

// Token returns the current bearer token. It satisfies the token source
// contract of the appliance API client.
func (s *Store) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return "", fmt.Errorf("auth: no credential installed")
	}
	return s.cred.AccessToken, nil
}

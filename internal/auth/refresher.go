package auth

import (
	"context"
	"time"
)

const (
	DefaultRefreshMargin = 2 * time.Minute

	// fallbackInterval is the retry cadence after a failed refresh; a
	// single missed refresh must not silently end the session.
	fallbackInterval = time.Minute
	maxFailures      = 5
)

// TokenRefresher is the slice of Session the refresher needs.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (Credential, error)
}

// Refresher schedules a token refresh shortly before each credential
// expires and installs the replacement in the shared store. Consecutive
// failures beyond the bound escalate on Done as a hard session failure.
type Refresher struct {
	session  TokenRefresher
	store    *Store
	margin   time.Duration
	fallback time.Duration
	limit    int

	// OnReplace, if set, observes every installed credential. Used to
	// persist refresh-token state.
	OnReplace func(Credential)

	done chan error
	stop chan struct{}
}

func NewRefresher(session TokenRefresher, store *Store, margin time.Duration) *Refresher {
	if margin <= 0 {
		margin = DefaultRefreshMargin
	}
	return &Refresher{
		session:  session,
		store:    store,
		margin:   margin,
		fallback: fallbackInterval,
		limit:    maxFailures,
		done:     make(chan error, 1),
		stop:     make(chan struct{}),
	}
}

// Start installs the initial credential and begins the refresh loop.
func (r *Refresher) Start(initial Credential) {
	r.install(initial)
	go r.run(initial)
}

// Done delivers at most one hard session failure.
func (r *Refresher) Done() <-chan error {
	return r.done
}

// Stop ends the refresh loop. Safe to call once.
func (r *Refresher) Stop() {
	close(r.stop)
}

func (r *Refresher) run(cred Credential) {
	timer := time.NewTimer(r.wait(cred))
	defer timer.Stop()

	failures := 0
	for {
		select {
		case <-r.stop:
			return
		case <-timer.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		next, err := r.session.Refresh(ctx, cred.RefreshToken)
		cancel()
		if err != nil {
			failures++
			if failures >= r.limit {
				r.done <- ErrSessionExpired
				return
			}
			timer.Reset(r.fallback)
			continue
		}

		failures = 0
		cred = next
		r.install(next)
		timer.Reset(r.wait(next))
	}
}

func (r *Refresher) install(cred Credential) {
	r.store.Replace(cred)
	if r.OnReplace != nil {
		r.OnReplace(cred)
	}
}

// wait leaves the safety margin before the declared expiry; the declared
// lifetime is only a lower bound and requests near it race the provider's
// clock.
func (r *Refresher) wait(cred Credential) time.Duration {
	d := time.Until(cred.ExpiresAt()) - r.margin
	if d < 0 {
		return 0
	}
	return d
}

package auth

import "errors"

// Login failures carry the phase that broke so the operator can tell a
// scraping problem from a provider rejection.
var (
	// ErrLoginFormParse: the login page did not contain the expected form.
	ErrLoginFormParse = errors.New("auth: login form not found in provider page")

	// ErrRedirectMissingCode: form submission succeeded at the HTTP level
	// but the redirect carried no authorization code.
	ErrRedirectMissingCode = errors.New("auth: redirect missing authorization code")

	// ErrTokenExchange: the token endpoint rejected a grant.
	ErrTokenExchange = errors.New("auth: token exchange failed")

	// ErrSessionExpired: refresh failed repeatedly; the session is gone and
	// a fresh login is required.
	ErrSessionExpired = errors.New("auth: session expired after repeated refresh failures")
)

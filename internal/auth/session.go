package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	loginFormID      = "frmsignin"
	authenticatePath = "/oauth2/g_authenticate"

	// Fixed client registration used by the vendor's own mobile app.
	defaultClientID     = "564c31616c4f7474434b307435412b4d2f6e7670"
	defaultClientSecret = "6476512b5246446d572f6a3862714f653843744f"
	defaultRedirectURI  = "brillion://oauth/redirect"

	defaultTimeout = 30 * time.Second
)

// Options configures a Session. Zero values fall back to the production
// provider registration.
type Options struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Timeout      time.Duration
	Parser       FormParser
}

// Session executes the authorization-code flow against the identity
// provider, including the scripted login-form submission, and the
// refresh-token grant. Refresh depends on nothing left over from Login
// besides the refresh token itself.
type Session struct {
	issuer       string
	clientID     string
	clientSecret string
	redirectURI  string
	timeout      time.Duration
	parser       FormParser
	base         *http.Client
}

func NewSession(opts Options) *Session {
	s := &Session{
		issuer:       strings.TrimRight(opts.IssuerURL, "/"),
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		redirectURI:  opts.RedirectURI,
		timeout:      opts.Timeout,
		parser:       opts.Parser,
	}
	if s.clientID == "" {
		s.clientID = defaultClientID
	}
	if s.clientSecret == "" {
		s.clientSecret = defaultClientSecret
	}
	if s.redirectURI == "" {
		s.redirectURI = defaultRedirectURI
	}
	if s.timeout == 0 {
		s.timeout = defaultTimeout
	}
	if s.parser == nil {
		s.parser = HTMLFormParser{}
	}
	s.base = &http.Client{Timeout: s.timeout}
	return s
}

// Login walks the full authorization-code flow: fetch the login page
// through a session cookie jar, carry every field the form declares into
// the submission, catch the redirect without following it, and exchange
// the code for a token pair.
func (s *Session) Login(ctx context.Context, username, password string) (Credential, error) {
	eps, err := discoverEndpoints(ctx, s.base, s.issuer)
	if err != nil {
		loginFailure.Inc()
		return Credential{}, err
	}
	conf := s.oauthConfig(eps)

	jar, err := cookiejar.New(nil)
	if err != nil {
		return Credential{}, err
	}
	pageClient := &http.Client{Jar: jar, Timeout: s.timeout}

	fields, err := s.fetchLoginForm(ctx, pageClient, conf.AuthCodeURL(""))
	if err != nil {
		loginFailure.Inc()
		return Credential{}, err
	}
	fields.Set("username", username)
	fields.Set("password", password)

	code, err := s.submitLoginForm(ctx, jar, fields)
	if err != nil {
		loginFailure.Inc()
		return Credential{}, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, pageClient)
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		loginFailure.Inc()
		return Credential{}, wrapExchangeErr("code exchange", err)
	}

	loginSuccess.Inc()
	return credentialFromToken(token, ""), nil
}

// Refresh trades the stored refresh token for a new credential.
func (s *Session) Refresh(ctx context.Context, refreshToken string) (Credential, error) {
	eps, err := discoverEndpoints(ctx, s.base, s.issuer)
	if err != nil {
		refreshFailure.Inc()
		return Credential{}, err
	}
	conf := s.oauthConfig(eps)

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.base)
	token, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		refreshFailure.Inc()
		tokenValid.Set(0)
		return Credential{}, wrapExchangeErr("refresh", err)
	}

	refreshSuccess.Inc()
	return credentialFromToken(token, refreshToken), nil
}

func (s *Session) fetchLoginForm(ctx context.Context, client *http.Client, authURL string) (url.Values, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login form fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login form fetch: status %d", resp.StatusCode)
	}

	fields, err := s.parser.Fields(resp.Body, loginFormID)
	if err != nil {
		return nil, fmt.Errorf("login form fetch: %w", err)
	}
	return fields, nil
}

// submitLoginForm posts the credentials and pulls the authorization code
// out of the redirect. The client must not follow the redirect: the 3xx
// itself is the success response.
func (s *Session) submitLoginForm(ctx context.Context, jar http.CookieJar, fields url.Values) (string, error) {
	client := &http.Client{
		Jar:     jar,
		Timeout: s.timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.issuer+authenticatePath, strings.NewReader(fields.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", s.issuer)

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("form submission: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return "", fmt.Errorf("%w: form submission returned status %d", ErrRedirectMissingCode, resp.StatusCode)
	}
	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("%w: no Location header", ErrRedirectMissingCode)
	}
	redirect, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("%w: bad Location %q", ErrRedirectMissingCode, location)
	}
	code := redirect.Query().Get("code")
	if code == "" {
		return "", fmt.Errorf("%w: Location %q has no code parameter", ErrRedirectMissingCode, location)
	}
	return code, nil
}

func (s *Session) oauthConfig(eps Endpoints) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		RedirectURL:  s.redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL:   eps.AuthorizationURL,
			TokenURL:  eps.TokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
}

// credentialFromToken keeps the provider's declared expires_in rather than
// the computed expiry, since the credential's validity window is always
// interpreted relative to when it was obtained.
func credentialFromToken(token *oauth2.Token, previousRefresh string) Credential {
	cred := Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ObtainedAt:   time.Now(),
	}
	if v, ok := token.Extra("expires_in").(float64); ok && v > 0 {
		cred.ExpiresIn = int(v)
	} else if !token.Expiry.IsZero() {
		cred.ExpiresIn = int(time.Until(token.Expiry).Seconds())
	}
	if cred.RefreshToken == "" {
		cred.RefreshToken = previousRefresh
	}
	return cred
}

func wrapExchangeErr(phase string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		body := strings.TrimSpace(string(retrieveErr.Body))
		return fmt.Errorf("%w: %s: status %d: %s", ErrTokenExchange, phase, retrieveErr.Response.StatusCode, body)
	}
	return fmt.Errorf("%w: %s: %v", ErrTokenExchange, phase, err)
}

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Endpoints are the provider's resolved OAuth2 endpoints.
type Endpoints struct {
	AuthorizationURL string `json:"authorization_endpoint"`
	TokenURL         string `json:"token_endpoint"`
}

var (
	endpointsMu    sync.Mutex
	endpointsCache = map[string]Endpoints{}
)

// discoverEndpoints resolves the issuer's OpenID discovery metadata. The
// result never changes within a run, so it is cached per issuer.
func discoverEndpoints(ctx context.Context, client *http.Client, issuer string) (Endpoints, error) {
	issuer = strings.TrimRight(issuer, "/")

	endpointsMu.Lock()
	cached, ok := endpointsCache[issuer]
	endpointsMu.Unlock()
	if ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, issuer+"/.well-known/openid-configuration", nil)
	if err != nil {
		return Endpoints{}, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return Endpoints{}, fmt.Errorf("endpoint discovery: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Endpoints{}, fmt.Errorf("endpoint discovery: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var eps Endpoints
	if err := json.NewDecoder(resp.Body).Decode(&eps); err != nil {
		return Endpoints{}, fmt.Errorf("endpoint discovery: decode metadata: %w", err)
	}
	if eps.AuthorizationURL == "" || eps.TokenURL == "" {
		return Endpoints{}, fmt.Errorf("endpoint discovery: metadata missing endpoints")
	}

	endpointsMu.Lock()
	endpointsCache[issuer] = eps
	endpointsMu.Unlock()
	return eps, nil
}

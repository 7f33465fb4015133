/*
Package integrations holds the clients for the external systems claims are
eventually lodged with: the NDIA API and Xero.

PURPOSE:
  Both use OAuth2 client credentials. TokenCache is an explicit, injectable
  cache of token sources keyed by integration name; there is no package
  level state. Factory builds authenticated HTTP clients and reports
  ErrNotConfigured when credentials are absent, so callers degrade
  gracefully.

SEE ALSO:
  - claims/strategy.go: submission strategies (manual for now)
  - config/config.go: ndia.* and xero.* keys
*/
package integrations

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrNotConfigured is returned for an integration without credentials.
var ErrNotConfigured = errors.New("integration not configured")

const (
	NDIA = "ndia"
	Xero = "xero"
)

// Credentials are OAuth2 client-credentials settings.
type Credentials struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	BaseURL      string
	Scopes       []string
}

// Configured reports whether every field needed for a token request is set.
func (c Credentials) Configured() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.TokenURL != ""
}

// TokenCache caches one reusable token source per integration. Tokens are
// fetched lazily and refreshed when they expire.
type TokenCache struct {
	mu      sync.Mutex
	creds   map[string]Credentials
	sources map[string]oauth2.TokenSource
}

// NewTokenCache creates an empty cache.
func NewTokenCache() *TokenCache {
	return &TokenCache{
		creds:   make(map[string]Credentials),
		sources: make(map[string]oauth2.TokenSource),
	}
}

// Register adds or replaces the credentials for name and drops any cached
// token. Incomplete credentials are rejected with ErrNotConfigured.
func (c *TokenCache) Register(name string, creds Credentials) error {
	if !creds.Configured() {
		return fmt.Errorf("%s: %w", name, ErrNotConfigured)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds[name] = creds
	delete(c.sources, name)
	return nil
}

// Configured lists registered integration names in order.
func (c *TokenCache) Configured() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.creds))
	for name := range c.creds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (c *TokenCache) Has(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.creds[name]
	return ok
}

// Invalidate drops the cached token for name; the next call fetches a new one.
func (c *TokenCache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sources, name)
}

// Token returns a valid access token for name.
func (c *TokenCache) Token(ctx context.Context, name string) (*oauth2.Token, error) {
	src, err := c.source(ctx, name)
	if err != nil {
		return nil, err
	}
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("%s token request failed: %w", name, err)
	}
	return tok, nil
}

// Client returns an HTTP client that authenticates requests for name.
func (c *TokenCache) Client(ctx context.Context, name string) (*http.Client, error) {
	src, err := c.source(ctx, name)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, src), nil
}

func (c *TokenCache) source(ctx context.Context, name string) (oauth2.TokenSource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if src, ok := c.sources[name]; ok {
		return src, nil
	}
	creds, ok := c.creds[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotConfigured)
	}
	cfg := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     creds.TokenURL,
		Scopes:       creds.Scopes,
	}
	// The source outlives this call, so it must not inherit its cancellation.
	src := oauth2.ReuseTokenSource(nil, cfg.TokenSource(context.WithoutCancel(ctx)))
	c.sources[name] = src
	return src, nil
}

package integrations

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Client is an authenticated client for one external system.
type Client struct {
	Name    string
	BaseURL string
	HTTP    *http.Client
}

// NewRequest builds a request against the client's base URL.
func (c *Client) NewRequest(ctx context.Context, method, path string) (*http.Request, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("%s: no base URL configured", c.Name)
	}
	url := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	return http.NewRequestWithContext(ctx, method, url, nil)
}

// Factory builds clients from a TokenCache.
type Factory struct {
	tokens   *TokenCache
	baseURLs map[string]string
}

// NewFactory registers every configured integration in creds with a new
// TokenCache. Unconfigured entries are skipped, not rejected.
func NewFactory(creds map[string]Credentials) *Factory {
	f := &Factory{tokens: NewTokenCache(), baseURLs: make(map[string]string)}
	for name, c := range creds {
		if err := f.tokens.Register(name, c); err != nil {
			continue
		}
		f.baseURLs[name] = c.BaseURL
	}
	return f
}

// Tokens exposes the underlying cache.
func (f *Factory) Tokens() *TokenCache { return f.tokens }

// Status maps each known integration to whether it is configured.
func (f *Factory) Status() map[string]bool {
	return map[string]bool{
		NDIA: f.tokens.Has(NDIA),
		Xero: f.tokens.Has(Xero),
	}
}

// NDIA returns the NDIA API client, or ErrNotConfigured.
func (f *Factory) NDIA(ctx context.Context) (*Client, error) { return f.client(ctx, NDIA) }

// Xero returns the Xero client, or ErrNotConfigured.
func (f *Factory) Xero(ctx context.Context) (*Client, error) { return f.client(ctx, Xero) }

func (f *Factory) client(ctx context.Context, name string) (*Client, error) {
	httpClient, err := f.tokens.Client(ctx, name)
	if err != nil {
		return nil, err
	}
	return &Client{Name: name, BaseURL: f.baseURLs[name], HTTP: httpClient}, nil
}

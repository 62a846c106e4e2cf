// Package static provides a trust boundary credential variant backed by
// an externally supplied access token.
//
// The variant never acquires or refreshes tokens itself; it consumes an
// oauth2.TokenSource as a collaborator and hands the current token to
// the trust boundary orchestrator.
package static

import (
	"context"

	"github.com/anirudhbiyani/trust-boundary/pkg/trustboundary"
	"golang.org/x/oauth2"
)

// ProviderName identifies this credential variant in the registry.
const ProviderName = "static"

// Credential implements trustboundary.Provider for a fixed token and
// lookup endpoint.
type Credential struct {
	tokens   oauth2.TokenSource
	endpoint string
	info     *trustboundary.Info
}

// Option configures the Credential.
type Option func(*Credential)

// WithToken sets a fixed access token.
func WithToken(token string) Option {
	return func(c *Credential) {
		c.tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	}
}

// WithTokenSource sets the token source consulted for the current token.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Credential) {
		c.tokens = ts
	}
}

// WithEndpoint sets the trust boundary lookup endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Credential) {
		c.endpoint = endpoint
	}
}

// WithLookupClient sets the lookup client backing the orchestrator.
func WithLookupClient(lc *trustboundary.LookupClient) Option {
	return func(c *Credential) {
		c.info = trustboundary.NewInfo(lc)
	}
}

// New creates a new static credential.
func New(opts ...Option) *Credential {
	c := &Credential{
		info: trustboundary.NewInfo(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements trustboundary.Provider.
func (c *Credential) Name() string {
	return ProviderName
}

// Capabilities implements trustboundary.Provider.
func (c *Credential) Capabilities() []trustboundary.Capability {
	return []trustboundary.Capability{
		trustboundary.CapabilityLookup,
		trustboundary.CapabilityRefresh,
		trustboundary.CapabilityRequestMetadata,
		trustboundary.CapabilityValidate,
	}
}

// HasCapability implements trustboundary.Provider.
func (c *Credential) HasCapability(cap trustboundary.Capability) bool {
	for _, have := range c.Capabilities() {
		if have == cap {
			return true
		}
	}
	return false
}

// TrustBoundaryLookupEndpointURL implements trustboundary.Provider.
func (c *Credential) TrustBoundaryLookupEndpointURL() string {
	return c.endpoint
}

// TrustBoundaryInfo implements trustboundary.Provider.
func (c *Credential) TrustBoundaryInfo() *trustboundary.Info {
	return c.info
}

// LookupTrustBoundary resolves the trust boundary with the credential's
// current token, serving from cache when populated.
func (c *Credential) LookupTrustBoundary(ctx context.Context) (*trustboundary.TrustBoundaryResponse, error) {
	token, err := c.accessToken()
	if err != nil {
		return nil, err
	}
	return c.info.LookupTrustBoundary(ctx, token, c.endpoint)
}

// RefreshTrustBoundary implements trustboundary.Provider.
func (c *Credential) RefreshTrustBoundary(ctx context.Context) error {
	token, err := c.accessToken()
	if err != nil {
		return err
	}
	return c.info.RefreshTrustBoundary(ctx, token, c.endpoint)
}

// accessToken reads the current token from the source. A nil source
// yields the empty token, which the lookup path resolves softly.
func (c *Credential) accessToken() (string, error) {
	if c.tokens == nil {
		return "", nil
	}
	tok, err := c.tokens.Token()
	if err != nil {
		return "", trustboundary.ErrAuth("failed to read access token from token source").
			WithProvider(ProviderName).
			WithCause(err)
	}
	return tok.AccessToken, nil
}

// Factory creates static credentials from a configuration map.
type Factory struct{}

// Create implements trustboundary.ProviderFactory.
// Recognized config keys: "token", "endpoint".
func (Factory) Create(ctx context.Context, config map[string]interface{}) (trustboundary.Provider, error) {
	var opts []Option
	if token, ok := config["token"].(string); ok && token != "" {
		opts = append(opts, WithToken(token))
	}
	if endpoint, ok := config["endpoint"].(string); ok && endpoint != "" {
		opts = append(opts, WithEndpoint(endpoint))
	}
	return New(opts...), nil
}

func init() {
	// Register with default registry
	trustboundary.RegisterFactory(ProviderName, Factory{})
}

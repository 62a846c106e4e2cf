// Package gce provides a trust boundary credential variant for workloads
// running on Google Compute Engine.
//
// The lookup endpoint is derived from the metadata server's service
// account email; off GCE the endpoint is absent and lookups resolve
// softly to no boundary. Tokens are consumed from an injected source,
// never acquired here.
package gce

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/compute/metadata"
	"github.com/anirudhbiyani/trust-boundary/pkg/trustboundary"
	"golang.org/x/oauth2"
)

// ProviderName identifies this credential variant in the registry.
const ProviderName = "gce"

// lookupEndpointTemplate builds the allowedLocations URL for a service
// account email.
const lookupEndpointTemplate = "https://iamcredentials.googleapis.com/v1/projects/-/serviceAccounts/%s/allowedLocations"

// Credential implements trustboundary.Provider for GCE-hosted workloads.
type Credential struct {
	tokens   oauth2.TokenSource
	metadata *metadata.Client
	onGCE    func() bool
	info     *trustboundary.Info

	mu       sync.Mutex
	email    string
	endpoint string
}

// Option configures the Credential.
type Option func(*Credential)

// WithTokenSource sets the token source consulted for the current token.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Credential) {
		c.tokens = ts
	}
}

// WithServiceAccountEmail pins the service account instead of asking the
// metadata server for the default one.
func WithServiceAccountEmail(email string) Option {
	return func(c *Credential) {
		c.email = email
	}
}

// WithMetadataClient sets the metadata server client.
func WithMetadataClient(client *metadata.Client) Option {
	return func(c *Credential) {
		if client != nil {
			c.metadata = client
		}
	}
}

// WithLookupClient sets the lookup client backing the orchestrator.
func WithLookupClient(lc *trustboundary.LookupClient) Option {
	return func(c *Credential) {
		c.info = trustboundary.NewInfo(lc)
	}
}

// WithEndpoint overrides endpoint derivation entirely.
func WithEndpoint(endpoint string) Option {
	return func(c *Credential) {
		c.endpoint = endpoint
	}
}

// New creates a new GCE credential.
func New(opts ...Option) *Credential {
	c := &Credential{
		metadata: metadata.NewClient(nil),
		onGCE:    metadata.OnGCE,
		info:     trustboundary.NewInfo(nil),
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
// It returns the endpoint resolved so far; off GCE, before the first
// refresh, or when derivation failed this is the empty string.
func (c *Credential) TrustBoundaryLookupEndpointURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.endpoint == "" && c.email != "" {
		c.endpoint = fmt.Sprintf(lookupEndpointTemplate, c.email)
	}
	return c.endpoint
}

// TrustBoundaryInfo implements trustboundary.Provider.
func (c *Credential) TrustBoundaryInfo() *trustboundary.Info {
	return c.info
}

// RefreshTrustBoundary implements trustboundary.Provider.
func (c *Credential) RefreshTrustBoundary(ctx context.Context) error {
	endpoint, err := c.resolveEndpoint(ctx)
	if err != nil {
		return err
	}

	token, err := c.accessToken()
	if err != nil {
		return err
	}

	return c.info.RefreshTrustBoundary(ctx, token, endpoint)
}

// resolveEndpoint derives the lookup endpoint from the configured email,
// asking the metadata server for the default service account when
// needed. Off GCE the endpoint is absent, which is not an error.
func (c *Credential) resolveEndpoint(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.endpoint != "" {
		return c.endpoint, nil
	}

	if c.email == "" {
		if !c.onGCE() {
			return "", nil
		}
		email, err := c.metadata.EmailWithContext(ctx, "default")
		if err != nil {
			return "", trustboundary.ErrNetwork("failed to read service account email from metadata server").
				WithProvider(ProviderName).
				WithOperation("resolve_endpoint").
				WithCause(err)
		}
		c.email = email
	}

	c.endpoint = fmt.Sprintf(lookupEndpointTemplate, c.email)
	return c.endpoint, nil
}

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

// Factory creates GCE credentials from a configuration map.
type Factory struct{}

// Create implements trustboundary.ProviderFactory.
// Recognized config keys: "service_account", "token", "endpoint".
func (Factory) Create(ctx context.Context, config map[string]interface{}) (trustboundary.Provider, error) {
	var opts []Option
	if email, ok := config["service_account"].(string); ok && email != "" {
		opts = append(opts, WithServiceAccountEmail(email))
	}
	if endpoint, ok := config["endpoint"].(string); ok && endpoint != "" {
		opts = append(opts, WithEndpoint(endpoint))
	}
	if token, ok := config["token"].(string); ok && token != "" {
		opts = append(opts, WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})))
	}
	return New(opts...), nil
}

func init() {
	// Register with default registry
	trustboundary.RegisterFactory(ProviderName, Factory{})
}

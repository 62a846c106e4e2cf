package trustboundary

import (
	"context"
)

// Provider is implemented by credential variants that support trust
// boundaries. Each variant composes one Info instance per credential
// lifetime and delegates to it; this interface is the only coupling
// point between the trust boundary core and the credential hierarchy.
type Provider interface {
	// Name returns the credential variant identifier.
	Name() string

	// Capabilities returns the features supported by this variant.
	Capabilities() []Capability

	// HasCapability checks if the variant supports a specific capability.
	HasCapability(cap Capability) bool

	// TrustBoundaryLookupEndpointURL returns the configured lookup
	// endpoint, or the empty string if trust boundaries are not
	// supported by this credential or universe.
	TrustBoundaryLookupEndpointURL() string

	// TrustBoundaryInfo returns the Info instance for this credential.
	TrustBoundaryInfo() *Info

	// RefreshTrustBoundary re-resolves the trust boundary using the
	// credential's current token and endpoint.
	RefreshTrustBoundary(ctx context.Context) error
}

// ProviderFactory creates provider instances.
type ProviderFactory interface {
	// Create creates a new provider instance with the given configuration.
	Create(ctx context.Context, config map[string]interface{}) (Provider, error)
}

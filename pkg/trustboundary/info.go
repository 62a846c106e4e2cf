package trustboundary

import "context"

// Info orchestrates trust boundary lookup and caching for one credential.
// It holds the credential's single cache slot and delegates network calls
// to a LookupClient. Accessors and request-metadata augmentation read the
// cache only and never touch the network, so they are safe on the hot
// request path.
type Info struct {
	cache  Cache
	lookup *LookupClient
}

// NewInfo creates a new Info using the given lookup client. A nil client
// gets a default one.
func NewInfo(lookup *LookupClient) *Info {
	if lookup == nil {
		lookup = NewLookupClient()
	}
	return &Info{lookup: lookup}
}

// LookupTrustBoundary returns the credential's trust boundary. A cached
// value is returned without any network call; otherwise the lookup client
// resolves it and the validated result is stored before returning. This
// is the sole write path into the cache, so population happens at most
// once per cache lifetime until ClearCache or RefreshTrustBoundary runs.
//
// Concurrent cache misses may issue redundant lookups; the last writer
// wins, which is safe because lookups for the same token and endpoint
// are idempotent.
func (i *Info) LookupTrustBoundary(ctx context.Context, token, endpoint string) (*TrustBoundaryResponse, error) {
	if cached := i.cache.Get(); cached != nil {
		return cached, nil
	}

	boundary, err := i.lookup.Lookup(ctx, token, endpoint)
	if err != nil {
		return nil, err
	}
	if boundary != nil {
		i.cache.Set(boundary)
	}
	return boundary, nil
}

// AllowedLocations returns the cached ordered allowed-location list, or
// nil if no boundary is cached.
func (i *Info) AllowedLocations() []string {
	if boundary := i.cache.Get(); boundary != nil {
		return boundary.Locations
	}
	return nil
}

// EncodedAllowedLocations returns the cached compact encoding, or the
// empty string if no boundary is cached.
func (i *Info) EncodedAllowedLocations() string {
	if boundary := i.cache.Get(); boundary != nil {
		return boundary.EncodedLocations
	}
	return ""
}

// AddTrustBoundaryToRequestMetadata returns a copy of metadata with the
// allowed-locations header added when a boundary with a non-empty
// encoding is cached. The caller's map is never mutated and a nil map is
// treated as empty. The cache slot is read once before the copy is built
// so the result always reflects a consistent augmentation decision.
func (i *Info) AddTrustBoundaryToRequestMetadata(metadata map[string][]string) map[string][]string {
	boundary := i.cache.Get()

	augmented := make(map[string][]string, len(metadata)+1)
	for key, values := range metadata {
		augmented[key] = append([]string(nil), values...)
	}
	if boundary != nil && boundary.EncodedLocations != "" {
		augmented[AllowedLocationsHeader] = []string{boundary.EncodedLocations}
	}
	return augmented
}

// ClearCache resets the cache slot. It always succeeds.
func (i *Info) ClearCache() {
	i.cache.Clear()
}

// RefreshTrustBoundary clears the cache and performs a fresh lookup with
// the credential's current token and endpoint. It propagates the same
// failure semantics as LookupTrustBoundary and leaves the cache empty
// when the fresh lookup fails.
func (i *Info) RefreshTrustBoundary(ctx context.Context, token, endpoint string) error {
	i.cache.Clear()

	_, err := i.LookupTrustBoundary(ctx, token, endpoint)
	return err
}

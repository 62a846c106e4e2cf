package trustboundary

import "sync/atomic"

// Cache is a single-slot holder for the last validated trust boundary
// response. Many request-path callers read it concurrently, so the slot
// is an atomic pointer rather than a mutex-guarded value: reads never
// block writers and the latest write is visible to all goroutines.
//
// The zero value is an empty cache ready for use. Entries never expire;
// the slot only transitions back to empty through Clear.
type Cache struct {
	slot atomic.Pointer[TrustBoundaryResponse]
}

// Get returns the cached response, or nil if the cache is empty.
func (c *Cache) Get() *TrustBoundaryResponse {
	return c.slot.Load()
}

// Set atomically replaces the cached response.
func (c *Cache) Set(resp *TrustBoundaryResponse) {
	c.slot.Store(resp)
}

// Clear atomically resets the cache to empty.
func (c *Cache) Clear() {
	c.slot.Store(nil)
}

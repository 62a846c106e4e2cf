// Package trustboundary resolves and caches trust boundary information
// for a credential.
//
// # Overview
//
// A trust boundary is the set of geographic locations an identity is
// authorized to operate from. This package looks up that set from a
// remote endpoint using the credential's current bearer token, caches
// the validated result, and attaches the compact encoding to outgoing
// request metadata so downstream services can enforce it.
//
// # Core Concepts
//
// ## Info
//
// Info is the orchestrator a credential depends on. It composes a
// lock-free single-slot cache with a LookupClient and exposes lookup,
// refresh, accessor, and request-metadata augmentation operations.
//
// ## Providers
//
// A Provider is a credential variant that supports trust boundaries.
// Each variant composes one Info instance for its lifetime and exposes
// its configured lookup endpoint. Variants register themselves (or a
// factory) with the default registry via init() functions.
//
// ## Records
//
// A BoundaryRecord is a persisted snapshot of a resolved trust boundary.
// The RecordStore tracks resolved boundaries per provider so the CLI can
// list and describe them across runs.
//
// # Usage
//
// ## Looking up a trust boundary
//
//	info := trustboundary.NewInfo(nil)
//	resp, err := info.LookupTrustBoundary(ctx, token, endpoint)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if resp != nil {
//	    fmt.Printf("allowed locations: %v\n", resp.Locations)
//	}
//
// ## Attaching the header to a request
//
//	metadata = info.AddTrustBoundaryToRequestMetadata(metadata)
//
// ## Refreshing after re-authentication
//
//	if err := info.RefreshTrustBoundary(ctx, token, endpoint); err != nil {
//	    // retryable: the outer token-acquisition flow decides whether to retry
//	}
//
// # Failure Semantics
//
// An absent endpoint, a missing token, or a structurally empty response
// resolve locally to an absent boundary and are never surfaced as errors.
// A malformed response body, a non-200 status, or a transport failure
// raise a retryable auth-category *TrustBoundaryError; the cache is never
// populated from a failed or partially validated lookup.
//
// # Extension
//
// New credential variants implement the Provider interface and register
// via trustboundary.Register() or trustboundary.RegisterFactory().
package trustboundary

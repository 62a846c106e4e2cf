// Package trustboundary provides core types and operations for resolving,
// caching, and propagating credential trust boundary information.
package trustboundary

import (
	"encoding/json"
	"time"
)

// AllowedLocationsHeader is the request metadata key carrying the encoded
// allowed-location set for downstream enforcement.
const AllowedLocationsHeader = "x-goog-allowed-resources"

// Capability represents a feature supported by a credential variant.
type Capability string

const (
	// CapabilityLookup indicates support for trust boundary lookup.
	CapabilityLookup Capability = "lookup"
	// CapabilityRefresh indicates support for forced re-resolution.
	CapabilityRefresh Capability = "refresh"
	// CapabilityRequestMetadata indicates support for request metadata augmentation.
	CapabilityRequestMetadata Capability = "request_metadata"
	// CapabilityValidate indicates support for configuration diagnostics.
	CapabilityValidate Capability = "validate"
)

// TrustBoundaryResponse is the decoded body of a successful lookup.
//
// Locations preserves wire order even though the value is semantically a
// set. EncodedLocations is an opaque compact encoding of the same set;
// the empty string means absent.
type TrustBoundaryResponse struct {
	// Locations is the ordered list of allowed region identifiers.
	Locations []string `json:"locations,omitempty"`

	// EncodedLocations is the compact encoding carried on the wire header.
	EncodedLocations string `json:"encodedLocations,omitempty"`
}

// Valid reports whether the response carries at least one of its fields.
// An all-empty response must never be cached.
func (r *TrustBoundaryResponse) Valid() bool {
	if r == nil {
		return false
	}
	return len(r.Locations) > 0 || r.EncodedLocations != ""
}

// RecordVersion is the current schema version for persisted records.
const RecordVersion = 1

// BoundaryRecord is a persisted snapshot of a resolved trust boundary.
// The record store keeps one per provider for listing and diagnostics.
type BoundaryRecord struct {
	// ID is a unique identifier for this resolution.
	ID string `json:"id"`

	// Provider is the credential variant the boundary was resolved for.
	Provider string `json:"provider"`

	// Endpoint is the lookup endpoint the boundary was resolved from.
	Endpoint string `json:"endpoint,omitempty"`

	// Locations is the resolved ordered allowed-location list.
	Locations []string `json:"locations,omitempty"`

	// EncodedLocations is the resolved compact encoding.
	EncodedLocations string `json:"encoded_locations,omitempty"`

	// ResolvedAt is when the boundary was resolved.
	ResolvedAt time.Time `json:"resolved_at"`

	// Version tracks schema version for migration purposes.
	Version int `json:"version"`
}

// String implements fmt.Stringer for BoundaryRecord.
func (r BoundaryRecord) String() string {
	data, _ := json.Marshal(r)
	return string(data)
}

// RecordFilter specifies criteria for listing boundary records.
type RecordFilter struct {
	// Provider filters by credential variant name.
	Provider string

	// Limit is the maximum number of results to return.
	Limit int

	// Offset is the starting index for pagination.
	Offset int
}

// Severity indicates the severity level of a diagnostic check.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// CheckStatus indicates the result of a diagnostic check.
type CheckStatus string

const (
	CheckStatusPassed  CheckStatus = "passed"
	CheckStatusFailed  CheckStatus = "failed"
	CheckStatusSkipped CheckStatus = "skipped"
)

// ValidationCheck represents a single diagnostic check result.
type ValidationCheck struct {
	// ID is a unique identifier for this check type.
	ID string `json:"id"`

	// Name is a human-readable name for the check.
	Name string `json:"name"`

	// Description explains what this check validates.
	Description string `json:"description"`

	// Status is the check result.
	Status CheckStatus `json:"status"`

	// Severity indicates how serious a failure would be.
	Severity Severity `json:"severity"`

	// Evidence contains data supporting the check result.
	Evidence map[string]interface{} `json:"evidence,omitempty"`

	// Remediation contains steps to fix a failed check.
	Remediation string `json:"remediation,omitempty"`

	// Duration is how long the check took to run.
	Duration time.Duration `json:"duration"`
}

// ValidationReport contains the results of validating a provider's
// trust boundary configuration.
type ValidationReport struct {
	// Provider identifies the validated credential variant.
	Provider string `json:"provider"`

	// Checks contains all diagnostic check results.
	Checks []ValidationCheck `json:"checks"`

	// Summary provides aggregate status.
	Summary ValidationSummary `json:"summary"`

	// ValidatedAt is when validation was performed.
	ValidatedAt time.Time `json:"validated_at"`
}

// ValidationSummary provides aggregate validation statistics.
type ValidationSummary struct {
	TotalChecks   int  `json:"total_checks"`
	PassedChecks  int  `json:"passed_checks"`
	FailedChecks  int  `json:"failed_checks"`
	SkippedChecks int  `json:"skipped_checks"`
	IsValid       bool `json:"is_valid"`
}

// IsValid returns true if no check of severity error or above failed.
func (r *ValidationReport) IsValid() bool {
	for _, check := range r.Checks {
		if check.Status == CheckStatusFailed && check.Severity != SeverityWarning && check.Severity != SeverityInfo {
			return false
		}
	}
	return true
}

// FailedChecks returns only the checks that failed.
func (r *ValidationReport) FailedChecks() []ValidationCheck {
	var failed []ValidationCheck
	for _, check := range r.Checks {
		if check.Status == CheckStatusFailed {
			failed = append(failed, check)
		}
	}
	return failed
}

package trustboundary

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// Validator performs a diagnostic check on a provider's trust boundary
// configuration.
type Validator interface {
	// ID returns the unique identifier for this validator.
	ID() string

	// Name returns a human-readable name.
	Name() string

	// Description returns what this validator checks.
	Description() string

	// Validate performs the diagnostic check.
	Validate(ctx context.Context, p Provider) ValidationCheck
}

// EndpointConfiguredValidator checks that the lookup endpoint is set and
// well formed. An unset endpoint is reported as skipped rather than
// failed: credentials without trust boundary support are legitimate.
type EndpointConfiguredValidator struct{}

func (v *EndpointConfiguredValidator) ID() string   { return "endpoint_configured" }
func (v *EndpointConfiguredValidator) Name() string { return "Lookup Endpoint Configured" }
func (v *EndpointConfiguredValidator) Description() string {
	return "Checks that the trust boundary lookup endpoint is set and is a valid HTTPS URL"
}

func (v *EndpointConfiguredValidator) Validate(ctx context.Context, p Provider) ValidationCheck {
	start := time.Now()
	check := ValidationCheck{
		ID:          v.ID(),
		Name:        v.Name(),
		Description: v.Description(),
		Severity:    SeverityError,
		Evidence:    make(map[string]interface{}),
	}

	endpoint := p.TrustBoundaryLookupEndpointURL()
	check.Evidence["endpoint"] = endpoint

	if endpoint == "" {
		check.Status = CheckStatusSkipped
		check.Remediation = "Trust boundaries are not supported by this credential"
		check.Duration = time.Since(start)
		return check
	}

	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		check.Status = CheckStatusFailed
		if err != nil {
			check.Evidence["error"] = err.Error()
		}
		check.Remediation = "Check the lookup endpoint URL format"
		check.Duration = time.Since(start)
		return check
	}

	if parsed.Scheme != "https" {
		check.Severity = SeverityWarning
		check.Status = CheckStatusFailed
		check.Remediation = "Use an HTTPS lookup endpoint; bearer tokens must not travel in clear text"
		check.Duration = time.Since(start)
		return check
	}

	check.Status = CheckStatusPassed
	check.Duration = time.Since(start)
	return check
}

// EndpointReachableValidator checks that the lookup endpoint answers at
// all. The probe is unauthenticated, so any HTTP response counts as
// reachable, including 401/403.
type EndpointReachableValidator struct {
	client *http.Client
}

// NewEndpointReachableValidator creates a new endpoint reachability validator.
func NewEndpointReachableValidator() *EndpointReachableValidator {
	return &EndpointReachableValidator{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (v *EndpointReachableValidator) ID() string   { return "endpoint_reachable" }
func (v *EndpointReachableValidator) Name() string { return "Lookup Endpoint Reachable" }
func (v *EndpointReachableValidator) Description() string {
	return "Checks that the trust boundary lookup endpoint is reachable from this network"
}

func (v *EndpointReachableValidator) Validate(ctx context.Context, p Provider) ValidationCheck {
	start := time.Now()
	check := ValidationCheck{
		ID:          v.ID(),
		Name:        v.Name(),
		Description: v.Description(),
		Severity:    SeverityError,
		Evidence:    make(map[string]interface{}),
	}

	endpoint := p.TrustBoundaryLookupEndpointURL()
	check.Evidence["endpoint"] = endpoint

	if endpoint == "" {
		check.Status = CheckStatusSkipped
		check.Remediation = "Trust boundaries are not supported by this credential"
		check.Duration = time.Since(start)
		return check
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		check.Status = CheckStatusFailed
		check.Evidence["error"] = err.Error()
		check.Remediation = "Check the lookup endpoint URL format"
		check.Duration = time.Since(start)
		return check
	}

	resp, err := v.client.Do(req)
	if err != nil {
		check.Status = CheckStatusFailed
		check.Evidence["error"] = err.Error()
		check.Remediation = "Ensure the lookup endpoint is accessible from this network"
		check.Duration = time.Since(start)
		return check
	}
	resp.Body.Close()

	check.Evidence["status_code"] = resp.StatusCode
	check.Status = CheckStatusPassed
	check.Duration = time.Since(start)
	return check
}

// CachePopulatedValidator checks whether a trust boundary has been
// resolved and cached for the credential.
type CachePopulatedValidator struct{}

func (v *CachePopulatedValidator) ID() string   { return "cache_populated" }
func (v *CachePopulatedValidator) Name() string { return "Trust Boundary Cached" }
func (v *CachePopulatedValidator) Description() string {
	return "Checks that a trust boundary has been resolved and cached for this credential"
}

func (v *CachePopulatedValidator) Validate(ctx context.Context, p Provider) ValidationCheck {
	start := time.Now()
	check := ValidationCheck{
		ID:          v.ID(),
		Name:        v.Name(),
		Description: v.Description(),
		Severity:    SeverityWarning,
		Evidence:    make(map[string]interface{}),
	}

	info := p.TrustBoundaryInfo()
	if info == nil {
		check.Status = CheckStatusFailed
		check.Remediation = "The credential exposes no trust boundary orchestrator"
		check.Duration = time.Since(start)
		return check
	}

	locations := info.AllowedLocations()
	encoded := info.EncodedAllowedLocations()
	if len(locations) == 0 && encoded == "" {
		check.Status = CheckStatusFailed
		check.Remediation = "Run a trust boundary lookup or refresh for this credential"
		check.Duration = time.Since(start)
		return check
	}

	check.Status = CheckStatusPassed
	check.Evidence["locations"] = locations
	check.Evidence["encoded_locations"] = encoded
	check.Duration = time.Since(start)
	return check
}

// HeaderAttachableValidator checks that the cached boundary can actually
// be propagated on requests. Augmentation attaches the encoded form, so
// a boundary with locations but no encoding is visible locally yet never
// reaches downstream enforcement.
type HeaderAttachableValidator struct{}

func (v *HeaderAttachableValidator) ID() string   { return "header_attachable" }
func (v *HeaderAttachableValidator) Name() string { return "Enforcement Header Attachable" }
func (v *HeaderAttachableValidator) Description() string {
	return "Checks that the cached trust boundary carries the encoding required for the request header"
}

func (v *HeaderAttachableValidator) Validate(ctx context.Context, p Provider) ValidationCheck {
	start := time.Now()
	check := ValidationCheck{
		ID:          v.ID(),
		Name:        v.Name(),
		Description: v.Description(),
		Severity:    SeverityWarning,
		Evidence:    make(map[string]interface{}),
	}

	info := p.TrustBoundaryInfo()
	if info == nil {
		check.Status = CheckStatusSkipped
		check.Remediation = "The credential exposes no trust boundary orchestrator"
		check.Duration = time.Since(start)
		return check
	}

	locations := info.AllowedLocations()
	encoded := info.EncodedAllowedLocations()
	if len(locations) == 0 && encoded == "" {
		check.Status = CheckStatusSkipped
		check.Remediation = "Run a trust boundary lookup for this credential first"
		check.Duration = time.Since(start)
		return check
	}

	check.Evidence["locations"] = locations
	if encoded == "" {
		check.Status = CheckStatusFailed
		check.Remediation = "The lookup endpoint returned locations without an encoding; requests will carry no enforcement header"
		check.Duration = time.Since(start)
		return check
	}

	check.Evidence["encoded_locations"] = encoded
	check.Status = CheckStatusPassed
	check.Duration = time.Since(start)
	return check
}

// RunValidation executes a set of validators and returns a report.
func RunValidation(ctx context.Context, p Provider, validators []Validator) *ValidationReport {
	report := &ValidationReport{
		Provider:    p.Name(),
		Checks:      make([]ValidationCheck, 0, len(validators)),
		ValidatedAt: time.Now(),
	}

	for _, v := range validators {
		check := v.Validate(ctx, p)
		report.Checks = append(report.Checks, check)

		switch check.Status {
		case CheckStatusPassed:
			report.Summary.PassedChecks++
		case CheckStatusFailed:
			report.Summary.FailedChecks++
		case CheckStatusSkipped:
			report.Summary.SkippedChecks++
		}
		report.Summary.TotalChecks++
	}

	report.Summary.IsValid = report.IsValid()
	return report
}

// StandardValidators returns the default diagnostic set.
func StandardValidators() []Validator {
	return []Validator{
		&EndpointConfiguredValidator{},
		NewEndpointReachableValidator(),
		&CachePopulatedValidator{},
		&HeaderAttachableValidator{},
	}
}

var (
	_ Validator = (*EndpointConfiguredValidator)(nil)
	_ Validator = (*EndpointReachableValidator)(nil)
	_ Validator = (*CachePopulatedValidator)(nil)
	_ Validator = (*HeaderAttachableValidator)(nil)
)

package trustboundary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"google.golang.org/api/googleapi"
)

const (
	defaultLookupTimeout = 10 * time.Second
	maxResponseBytes     = 1 << 20 // 1 MiB
)

// LookupClient issues trust boundary lookup requests against a lookup
// endpoint. It makes exactly one attempt per call; timeout policy belongs
// to the injected HTTP client and retry policy to the caller.
type LookupClient struct {
	client *http.Client
	logger glog.Logger
}

// LookupOption configures the LookupClient.
type LookupOption func(*LookupClient)

// WithHTTPClient sets the HTTP client used for lookup requests.
func WithHTTPClient(client *http.Client) LookupOption {
	return func(c *LookupClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithLookupLogger sets the logger for soft-failure diagnostics.
func WithLookupLogger(logger glog.Logger) LookupOption {
	return func(c *LookupClient) {
		c.logger = glog.Ensure(logger)
	}
}

// NewLookupClient creates a new LookupClient with the given options.
func NewLookupClient(opts ...LookupOption) *LookupClient {
	c := &LookupClient{
		client: &http.Client{Timeout: defaultLookupTimeout},
		logger: glog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Lookup resolves the trust boundary at endpoint using the given bearer
// token. It returns (nil, nil) for conditions that resolve locally to an
// absent boundary: an unset endpoint, a missing token, or a structurally
// empty 200 response. A malformed body, a non-200 status, or a transport
// failure return a retryable auth-category error.
func (c *LookupClient) Lookup(ctx context.Context, token, endpoint string) (*TrustBoundaryResponse, error) {
	if endpoint == "" {
		// Trust boundaries are not supported by this credential.
		return nil, nil
	}

	if token == "" {
		c.logger.Warn("no access token available for trust boundary lookup")
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, ErrValidation("invalid trust boundary lookup endpoint").
			WithOperation("lookup").
			WithCause(err).
			WithDetail("endpoint", endpoint)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("trust boundary lookup failed", "error", err)
		return nil, ErrAuth("trust boundary lookup failed").
			WithOperation("lookup").
			WithCause(err).
			WithRetryable(true)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		c.logger.Warn("trust boundary lookup failed with non-200 status", "status", resp.StatusCode)
		return nil, ErrAuth(fmt.Sprintf("trust boundary lookup failed with status code %d", resp.StatusCode)).
			WithOperation("lookup").
			WithCause(err).
			WithRetryable(true).
			WithDetail("status_code", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, ErrAuth("failed to read trust boundary response").
			WithOperation("lookup").
			WithCause(err).
			WithRetryable(true)
	}

	var boundary TrustBoundaryResponse
	if err := json.Unmarshal(body, &boundary); err != nil {
		c.logger.Warn("failed to parse trust boundary response", "error", err)
		return nil, ErrAuth("failed to parse trust boundary response").
			WithOperation("lookup").
			WithCause(err).
			WithRetryable(true)
	}

	if !boundary.Valid() {
		c.logger.Warn("trust boundary response is missing required fields")
		return nil, nil
	}

	return &boundary, nil
}

package static

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/anirudhbiyani/trust-boundary/pkg/trustboundary"
	"golang.org/x/oauth2"
)

const testToken = "test-access-token"

func newBoundaryServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer "+testToken {
			t.Errorf("expected bearer token header, got %q", got)
		}
		fmt.Fprint(w, `{"locations":["us-central1","us-east1","europe-west1","asia-east1"],"encodedLocations":"0xA30"}`)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestCredential(server *httptest.Server, opts ...Option) *Credential {
	base := []Option{
		WithToken(testToken),
		WithEndpoint(server.URL),
		WithLookupClient(trustboundary.NewLookupClient(trustboundary.WithHTTPClient(server.Client()))),
	}
	return New(append(base, opts...)...)
}

func TestCredentialLookup(t *testing.T) {
	var calls atomic.Int64
	server := newBoundaryServer(t, &calls)
	c := newTestCredential(server)

	boundary, err := c.LookupTrustBoundary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if boundary == nil || boundary.EncodedLocations != "0xA30" {
		t.Fatalf("unexpected boundary: %+v", boundary)
	}

	// Second lookup serves from the cache.
	if _, err := c.LookupTrustBoundary(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 network call, got %d", calls.Load())
	}
}

func TestCredentialRefresh(t *testing.T) {
	var calls atomic.Int64
	server := newBoundaryServer(t, &calls)
	c := newTestCredential(server)

	if _, err := c.LookupTrustBoundary(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.RefreshTrustBoundary(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected refresh to bypass the cache, got %d calls", calls.Load())
	}

	info := c.TrustBoundaryInfo()
	if enc := info.EncodedAllowedLocations(); enc != "0xA30" {
		t.Errorf("expected encoded 0xA30, got %q", enc)
	}
}

func TestCredentialWithoutEndpoint(t *testing.T) {
	c := New(WithToken(testToken))

	boundary, err := c.LookupTrustBoundary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if boundary != nil {
		t.Fatalf("expected no boundary without an endpoint, got %+v", boundary)
	}
}

func TestCredentialWithoutTokenSource(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	c := New(
		WithEndpoint(server.URL),
		WithLookupClient(trustboundary.NewLookupClient(trustboundary.WithHTTPClient(server.Client()))),
	)

	boundary, err := c.LookupTrustBoundary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if boundary != nil {
		t.Fatalf("expected no boundary without a token, got %+v", boundary)
	}
	if calls.Load() != 0 {
		t.Errorf("expected no network calls, got %d", calls.Load())
	}
}

type failingTokenSource struct{}

func (failingTokenSource) Token() (*oauth2.Token, error) {
	return nil, fmt.Errorf("token source broken")
}

func TestCredentialTokenSourceError(t *testing.T) {
	server := newBoundaryServer(t, nil)
	c := newTestCredential(server, WithTokenSource(failingTokenSource{}))

	_, err := c.LookupTrustBoundary(context.Background())
	if err == nil {
		t.Fatal("expected token source errors to propagate")
	}
	if !trustboundary.IsCategory(err, trustboundary.ErrCategoryAuth) {
		t.Errorf("expected auth category, got %v", err)
	}
}

func TestCredentialProviderContract(t *testing.T) {
	c := New(WithEndpoint("https://example.com/allowedLocations"))

	if c.Name() != ProviderName {
		t.Errorf("expected name %s, got %s", ProviderName, c.Name())
	}
	if c.TrustBoundaryLookupEndpointURL() != "https://example.com/allowedLocations" {
		t.Errorf("unexpected endpoint: %s", c.TrustBoundaryLookupEndpointURL())
	}
	if !c.HasCapability(trustboundary.CapabilityLookup) {
		t.Error("expected lookup capability")
	}
	if c.HasCapability(trustboundary.Capability("unknown")) {
		t.Error("did not expect unknown capability")
	}
	if c.TrustBoundaryInfo() == nil {
		t.Error("expected a trust boundary orchestrator")
	}
}

func TestFactoryCreate(t *testing.T) {
	p, err := Factory{}.Create(context.Background(), map[string]interface{}{
		"token":    testToken,
		"endpoint": "https://example.com/allowedLocations",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.TrustBoundaryLookupEndpointURL() != "https://example.com/allowedLocations" {
		t.Errorf("factory config was not applied: %s", p.TrustBoundaryLookupEndpointURL())
	}
}

var _ trustboundary.Provider = (*Credential)(nil)

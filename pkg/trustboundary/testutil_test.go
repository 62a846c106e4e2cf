package trustboundary

import "context"

// fakeProvider is a minimal Provider implementation for registry,
// manager, and validation tests.
type fakeProvider struct {
	name       string
	endpoint   string
	info       *Info
	caps       []Capability
	refreshErr error
	refreshes  int
}

func newFakeProvider(name, endpoint string) *fakeProvider {
	return &fakeProvider{
		name:     name,
		endpoint: endpoint,
		info:     NewInfo(nil),
		caps: []Capability{
			CapabilityLookup,
			CapabilityRefresh,
			CapabilityRequestMetadata,
			CapabilityValidate,
		},
	}
}

func (p *fakeProvider) Name() string               { return p.name }
func (p *fakeProvider) Capabilities() []Capability { return p.caps }

func (p *fakeProvider) HasCapability(cap Capability) bool {
	for _, have := range p.caps {
		if have == cap {
			return true
		}
	}
	return false
}

func (p *fakeProvider) TrustBoundaryLookupEndpointURL() string { return p.endpoint }
func (p *fakeProvider) TrustBoundaryInfo() *Info               { return p.info }

func (p *fakeProvider) RefreshTrustBoundary(ctx context.Context) error {
	p.refreshes++
	if p.refreshErr != nil {
		return p.refreshErr
	}
	p.info.cache.Set(&TrustBoundaryResponse{
		Locations:        []string{"us-central1", "us-east1", "europe-west1", "asia-east1"},
		EncodedLocations: "0xA30",
	})
	return nil
}

// fakeFactory creates fakeProviders, recording the config it saw.
type fakeFactory struct {
	name   string
	config map[string]interface{}
	err    error
	calls  int
}

func (f *fakeFactory) Create(ctx context.Context, config map[string]interface{}) (Provider, error) {
	f.calls++
	f.config = config
	if f.err != nil {
		return nil, f.err
	}
	endpoint, _ := config["endpoint"].(string)
	return newFakeProvider(f.name, endpoint), nil
}

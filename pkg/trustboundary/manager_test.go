package trustboundary

import (
	"context"
	"strings"
	"testing"
)

func newTestManager(t *testing.T, p Provider) (*Manager, *MemoryRecordStore) {
	t.Helper()
	registry := NewRegistry()
	if err := registry.Register(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records := NewMemoryRecordStore()
	m := NewManager(
		WithRegistry(registry),
		WithRecordStore(records),
		WithValidators([]Validator{&EndpointConfiguredValidator{}, &CachePopulatedValidator{}}),
	)
	return m, records
}

func TestManagerResolve(t *testing.T) {
	p := newFakeProvider("test", "https://example.com/allowedLocations")
	m, records := newTestManager(t, p)
	ctx := context.Background()

	record, err := m.Resolve(ctx, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Provider != "test" {
		t.Errorf("expected provider test, got %s", record.Provider)
	}
	if record.EncodedLocations != "0xA30" {
		t.Errorf("expected encoded 0xA30, got %q", record.EncodedLocations)
	}
	if !strings.HasPrefix(record.ID, "tb-test-") {
		t.Errorf("unexpected record ID format: %s", record.ID)
	}
	if p.refreshes != 1 {
		t.Errorf("expected 1 refresh, got %d", p.refreshes)
	}

	// The resolution was persisted.
	stored, err := records.Get(ctx, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.EncodedLocations != "0xA30" {
		t.Errorf("expected persisted record, got %+v", stored)
	}

	// A second resolve serves from the populated cache.
	if _, err := m.Resolve(ctx, "test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.refreshes != 1 {
		t.Errorf("expected cached resolve to skip refresh, got %d refreshes", p.refreshes)
	}
}

func TestManagerResolveUnknownProvider(t *testing.T) {
	m, _ := newTestManager(t, newFakeProvider("test", ""))
	_, err := m.Resolve(context.Background(), "missing")
	if !IsCategory(err, ErrCategoryNotFound) {
		t.Errorf("expected not_found category, got %v", err)
	}
}

func TestManagerResolveRefreshError(t *testing.T) {
	p := newFakeProvider("test", "https://example.com/allowedLocations")
	p.refreshErr = ErrAuth("lookup failed").WithRetryable(true)
	m, records := newTestManager(t, p)

	_, err := m.Resolve(context.Background(), "test")
	if err == nil {
		t.Fatal("expected refresh error to propagate")
	}
	if !IsRetryable(err) {
		t.Errorf("expected a retryable error, got %v", err)
	}
	if _, err := records.Get(context.Background(), "test"); err == nil {
		t.Error("expected no record persisted after a failed resolve")
	}
}

func TestManagerRefreshForcesLookup(t *testing.T) {
	p := newFakeProvider("test", "https://example.com/allowedLocations")
	m, _ := newTestManager(t, p)
	ctx := context.Background()

	if _, err := m.Resolve(ctx, "test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Refresh(ctx, "test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.refreshes != 2 {
		t.Errorf("expected refresh to bypass the cache, got %d refreshes", p.refreshes)
	}
}

func TestManagerDescribeAndList(t *testing.T) {
	p := newFakeProvider("test", "https://example.com/allowedLocations")
	m, _ := newTestManager(t, p)
	ctx := context.Background()

	if _, err := m.Resolve(ctx, "test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record, err := m.Describe(ctx, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Provider != "test" {
		t.Errorf("expected provider test, got %s", record.Provider)
	}

	all, err := m.List(ctx, RecordFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 record, got %d", len(all))
	}
}

func TestManagerValidate(t *testing.T) {
	p := newFakeProvider("test", "https://example.com/allowedLocations")
	m, _ := newTestManager(t, p)

	report, err := m.Validate(context.Background(), "test", ValidateOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Summary.TotalChecks != 2 {
		t.Errorf("expected 2 checks, got %d", report.Summary.TotalChecks)
	}
}

func TestManagerValidateCheckFilter(t *testing.T) {
	p := newFakeProvider("test", "https://example.com/allowedLocations")
	m, _ := newTestManager(t, p)

	report, err := m.Validate(context.Background(), "test", ValidateOptions{
		CheckIDs: []string{"endpoint_configured"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Summary.TotalChecks != 1 {
		t.Fatalf("expected 1 check, got %d", report.Summary.TotalChecks)
	}
	if report.Checks[0].ID != "endpoint_configured" {
		t.Errorf("expected endpoint_configured, got %s", report.Checks[0].ID)
	}
}

func TestGenerateRecordID(t *testing.T) {
	id := GenerateRecordID("static")
	if !strings.HasPrefix(id, "tb-static-") {
		t.Errorf("unexpected ID format: %s", id)
	}
	if id == GenerateRecordID("static") {
		t.Error("expected unique IDs")
	}
}

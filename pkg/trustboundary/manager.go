package trustboundary

import (
	"context"
	"fmt"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
)

// Manager composes the provider registry, the record store, and the
// diagnostic validators into the operations the CLI and embedding
// applications drive.
type Manager struct {
	registry   *Registry
	records    RecordStore
	validators []Validator
	logger     glog.Logger
}

// ManagerOption configures the Manager.
type ManagerOption func(*Manager)

// WithRegistry sets the provider registry.
func WithRegistry(r *Registry) ManagerOption {
	return func(m *Manager) {
		m.registry = r
	}
}

// WithRecordStore sets the record store.
func WithRecordStore(s RecordStore) ManagerOption {
	return func(m *Manager) {
		m.records = s
	}
}

// WithValidators sets the diagnostic validator set.
func WithValidators(validators []Validator) ManagerOption {
	return func(m *Manager) {
		m.validators = validators
	}
}

// WithLogger sets the logger.
func WithLogger(logger glog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = glog.Ensure(logger)
	}
}

// NewManager creates a new Manager with the given options.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		registry:   DefaultRegistry,
		records:    NewMemoryRecordStore(),
		validators: StandardValidators(),
		logger:     glog.Nop(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Resolve returns the trust boundary for the named provider, triggering
// a lookup only when nothing is cached yet, and persists the resolved
// record. A record-store write failure is logged but does not fail the
// resolution: the boundary itself was resolved.
func (m *Manager) Resolve(ctx context.Context, name string) (*BoundaryRecord, error) {
	p, err := m.registry.Get(name)
	if err != nil {
		return nil, err
	}

	info := p.TrustBoundaryInfo()
	if info == nil {
		return nil, ErrInternal("provider exposes no trust boundary orchestrator").
			WithProvider(name).
			WithOperation("resolve")
	}

	if len(info.AllowedLocations()) == 0 && info.EncodedAllowedLocations() == "" {
		if err := p.RefreshTrustBoundary(ctx); err != nil {
			return nil, err
		}
	}

	record := NewBoundaryRecord(p)
	if err := m.records.Save(ctx, record); err != nil {
		m.logger.Warn("failed to save boundary record", "provider", name, "error", err)
	}

	return &record, nil
}

// Refresh forces a fresh lookup for the named provider and persists the
// updated record.
func (m *Manager) Refresh(ctx context.Context, name string) (*BoundaryRecord, error) {
	p, err := m.registry.Get(name)
	if err != nil {
		return nil, err
	}

	if err := p.RefreshTrustBoundary(ctx); err != nil {
		return nil, err
	}

	record := NewBoundaryRecord(p)
	if err := m.records.Save(ctx, record); err != nil {
		m.logger.Warn("failed to save boundary record", "provider", name, "error", err)
	}

	return &record, nil
}

// Describe returns the persisted boundary record for a provider.
func (m *Manager) Describe(ctx context.Context, name string) (*BoundaryRecord, error) {
	return m.records.Get(ctx, name)
}

// List returns all persisted boundary records matching the filter.
func (m *Manager) List(ctx context.Context, filter RecordFilter) ([]BoundaryRecord, error) {
	return m.records.List(ctx, filter)
}

// Validate runs the diagnostic validator set against the named provider.
func (m *Manager) Validate(ctx context.Context, name string, opts ValidateOptions) (*ValidationReport, error) {
	p, err := m.registry.Get(name)
	if err != nil {
		return nil, err
	}

	validators := m.validators
	if len(opts.CheckIDs) > 0 {
		checkSet := make(map[string]bool)
		for _, id := range opts.CheckIDs {
			checkSet[id] = true
		}

		filtered := make([]Validator, 0)
		for _, v := range validators {
			if checkSet[v.ID()] {
				filtered = append(filtered, v)
			}
		}
		validators = filtered
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	return RunValidation(ctx, p, validators), nil
}

// ValidateOptions configures a Validate operation.
type ValidateOptions struct {
	// CheckIDs limits validation to specific checks.
	CheckIDs []string

	// Timeout for the validation operation.
	Timeout time.Duration
}

// GenerateRecordID generates a unique ID for a boundary record.
func GenerateRecordID(provider string) string {
	return fmt.Sprintf("tb-%s-%s", provider, uuid.New().String()[:8])
}

// NewBoundaryRecord snapshots the provider's current cached boundary
// into a record with standard fields populated.
func NewBoundaryRecord(p Provider) BoundaryRecord {
	record := BoundaryRecord{
		ID:         GenerateRecordID(p.Name()),
		Provider:   p.Name(),
		Endpoint:   p.TrustBoundaryLookupEndpointURL(),
		ResolvedAt: time.Now(),
		Version:    RecordVersion,
	}
	if info := p.TrustBoundaryInfo(); info != nil {
		record.Locations = info.AllowedLocations()
		record.EncodedLocations = info.EncodedAllowedLocations()
	}
	return record
}

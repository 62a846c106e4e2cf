package trustboundary

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RecordStore provides persistent storage for resolved boundary records.
// One record is kept per provider; saving overwrites the previous
// resolution for that provider.
type RecordStore interface {
	// Save stores a boundary record, replacing any previous record for
	// the same provider.
	Save(ctx context.Context, record BoundaryRecord) error

	// Get retrieves the boundary record for a provider.
	Get(ctx context.Context, provider string) (*BoundaryRecord, error)

	// List returns all stored records matching the filter.
	List(ctx context.Context, filter RecordFilter) ([]BoundaryRecord, error)

	// Delete removes the record for a provider. Deleting a missing
	// record is not an error.
	Delete(ctx context.Context, provider string) error
}

// recordData is the serializable store format.
type recordData struct {
	Version    int                       `json:"version"`
	Boundaries map[string]BoundaryRecord `json:"boundaries"`
	UpdatedAt  time.Time                 `json:"updated_at"`
}

// MemoryRecordStore is an in-memory RecordStore implementation for testing.
type MemoryRecordStore struct {
	mu    sync.RWMutex
	state recordData
}

// NewMemoryRecordStore creates a new in-memory record store.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{
		state: recordData{
			Version:    RecordVersion,
			Boundaries: make(map[string]BoundaryRecord),
			UpdatedAt:  time.Now(),
		},
	}
}

// Save implements RecordStore.
func (s *MemoryRecordStore) Save(ctx context.Context, record BoundaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Boundaries[record.Provider] = record
	s.state.UpdatedAt = time.Now()
	return nil
}

// Get implements RecordStore.
func (s *MemoryRecordStore) Get(ctx context.Context, provider string) (*BoundaryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.state.Boundaries[provider]
	if !exists {
		return nil, ErrNotFound("boundary record", provider)
	}
	return &record, nil
}

// List implements RecordStore.
func (s *MemoryRecordStore) List(ctx context.Context, filter RecordFilter) ([]BoundaryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return filterRecords(s.state.Boundaries, filter), nil
}

// Delete implements RecordStore.
func (s *MemoryRecordStore) Delete(ctx context.Context, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.state.Boundaries[provider]; !exists {
		// Idempotent: deleting non-existent is not an error
		return nil
	}

	delete(s.state.Boundaries, provider)
	s.state.UpdatedAt = time.Now()
	return nil
}

// FileRecordStore is a file-based RecordStore implementation.
type FileRecordStore struct {
	mu       sync.RWMutex
	filePath string
	state    recordData
}

// NewFileRecordStore creates a new file-based record store.
// If the file exists, it loads the existing records.
func NewFileRecordStore(filePath string) (*FileRecordStore, error) {
	s := &FileRecordStore{
		filePath: filePath,
		state: recordData{
			Version:    RecordVersion,
			Boundaries: make(map[string]BoundaryRecord),
			UpdatedAt:  time.Now(),
		},
	}

	// Try to load existing records
	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load boundary records: %w", err)
	}

	return s, nil
}

// load reads records from file.
func (s *FileRecordStore) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	var state recordData
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("invalid record file format: %w", err)
	}

	// Handle version migration
	if state.Version != RecordVersion {
		if err := s.migrate(&state); err != nil {
			return fmt.Errorf("record migration failed: %w", err)
		}
	}

	if state.Boundaries == nil {
		state.Boundaries = make(map[string]BoundaryRecord)
	}

	s.state = state
	return nil
}

// migrate handles schema version upgrades.
func (s *FileRecordStore) migrate(state *recordData) error {
	// Currently only version 1, no migration needed
	state.Version = RecordVersion
	return nil
}

// save writes records to file atomically.
func (s *FileRecordStore) save() error {
	s.state.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal boundary records: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create record directory: %w", err)
	}

	// Write atomically using temp file
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp record file: %w", err)
	}

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename record file: %w", err)
	}

	return nil
}

// Save implements RecordStore.
func (s *FileRecordStore) Save(ctx context.Context, record BoundaryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Boundaries[record.Provider] = record
	return s.save()
}

// Get implements RecordStore.
func (s *FileRecordStore) Get(ctx context.Context, provider string) (*BoundaryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.state.Boundaries[provider]
	if !exists {
		return nil, ErrNotFound("boundary record", provider)
	}
	return &record, nil
}

// List implements RecordStore.
func (s *FileRecordStore) List(ctx context.Context, filter RecordFilter) ([]BoundaryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return filterRecords(s.state.Boundaries, filter), nil
}

// Delete implements RecordStore.
func (s *FileRecordStore) Delete(ctx context.Context, provider string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.state.Boundaries[provider]; !exists {
		return nil // Idempotent
	}

	delete(s.state.Boundaries, provider)
	return s.save()
}

// filterRecords applies a RecordFilter to a record map.
func filterRecords(boundaries map[string]BoundaryRecord, filter RecordFilter) []BoundaryRecord {
	var records []BoundaryRecord
	for _, record := range boundaries {
		if filter.Provider != "" && record.Provider != filter.Provider {
			continue
		}
		records = append(records, record)
	}

	// Apply pagination
	if filter.Offset > 0 && filter.Offset < len(records) {
		records = records[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(records) {
		records = records[:filter.Limit]
	}

	return records
}

// DefaultRecordStorePath returns the default path for the record store file.
func DefaultRecordStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".trust-boundary", "state.json")
}

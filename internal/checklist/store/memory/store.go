// Package memory implements the record store in process memory. It
// declares an explicit field schema so schema drift is reproducible in
// tests: writes against undeclared fields fail the way the external store
// fails, with the offending names attached.
package memory

import (
	"context"
	"sort"
	"sync"

	"docket/internal/checklist/models"
	"docket/internal/checklist/ports"
	dErrors "docket/pkg/domain-errors"
)

// InMemoryRecordStore holds records keyed by id with a declared schema.
type InMemoryRecordStore struct {
	mu         sync.RWMutex
	schema     map[string]bool
	records    map[string]map[string]any
	fieldLimit int
}

// Option configures the store.
type Option func(*InMemoryRecordStore)

// WithFieldLimit bounds the number of fields per call, matching the
// external store's batching constraint.
func WithFieldLimit(limit int) Option {
	return func(s *InMemoryRecordStore) {
		s.fieldLimit = limit
	}
}

// New constructs a store whose schema declares the given field names.
func New(schema []string, opts ...Option) *InMemoryRecordStore {
	s := &InMemoryRecordStore{
		schema:  make(map[string]bool, len(schema)),
		records: make(map[string]map[string]any),
	}
	for _, field := range schema {
		s.schema[field] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed inserts or replaces a record. Test and bootstrap helper; fields
// outside the schema are accepted here so drift scenarios can be staged.
func (s *InMemoryRecordStore) Seed(recordID string, fields map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := make(map[string]any, len(fields))
	for k, v := range fields {
		record[k] = v
	}
	s.records[recordID] = record
}

// Remove deletes a record, simulating out-of-band deletion.
func (s *InMemoryRecordStore) Remove(recordID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, recordID)
}

// DropField removes a field from the schema, simulating drift: subsequent
// writes naming it fail with a SchemaError.
func (s *InMemoryRecordStore) DropField(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.schema, name)
	for _, record := range s.records {
		delete(record, name)
	}
}

// Record returns a copy of the stored record for assertions.
func (s *InMemoryRecordStore) Record(recordID string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[recordID]
	if !ok {
		return nil, false
	}
	copied := make(map[string]any, len(record))
	for k, v := range record {
		copied[k] = v
	}
	return copied, true
}

func (s *InMemoryRecordStore) Fetch(_ context.Context, recordID string, fields []string) (models.PropertyBag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.fieldLimit > 0 && len(fields) > s.fieldLimit {
		return nil, dErrors.New(dErrors.CodeBadRequest, "too many fields in one call")
	}
	record, ok := s.records[recordID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
	}

	// Absent fields are omitted, not errors: reads tolerate drift.
	bag := make(models.PropertyBag)
	for _, field := range fields {
		if v, ok := record[field]; ok {
			bag[field] = v
		}
	}
	return bag, nil
}

func (s *InMemoryRecordStore) Update(_ context.Context, recordID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fieldLimit > 0 && len(fields) > s.fieldLimit {
		return dErrors.New(dErrors.CodeBadRequest, "too many fields in one call")
	}
	record, ok := s.records[recordID]
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "record not found")
	}

	var missing []string
	for field := range fields {
		if !s.schema[field] {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &ports.SchemaError{Missing: missing}
	}

	for field, value := range fields {
		record[field] = value
	}
	return nil
}

func (s *InMemoryRecordStore) FieldLimit() int {
	return s.fieldLimit
}

// Package memory implements the catalog store in process memory. It backs
// tests and ephemeral runs directly and serves as the state engine the
// sqlite and postgres backends snapshot from.
package memory

import (
	"context"
	"sort"
	"sync"

	"reflcore/internal/catalog"
	"reflcore/pkg/domain"
)

// Compile-time contract assertion.
var _ catalog.Store = (*Store)(nil)

// Store holds the four record buckets keyed by record ID.
type Store struct {
	mu           sync.RWMutex
	reflectivity map[string]domain.Reflectivity
	samples      map[string]domain.Sample
	environments map[string]domain.Environment
	models       map[string]domain.ReflectivityModel
}

// NewStore constructs an empty in-memory catalog.
func NewStore() *Store {
	return &Store{
		reflectivity: map[string]domain.Reflectivity{},
		samples:      map[string]domain.Sample{},
		environments: map[string]domain.Environment{},
		models:       map[string]domain.ReflectivityModel{},
	}
}

// PutReflectivity upserts a reflectivity record.
func (s *Store) PutReflectivity(_ context.Context, record domain.Reflectivity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reflectivity[record.ID] = record
	return nil
}

// PutSample upserts a sample record.
func (s *Store) PutSample(_ context.Context, record domain.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[record.ID] = record
	return nil
}

// PutEnvironment upserts an environment record.
func (s *Store) PutEnvironment(_ context.Context, record domain.Environment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.environments[record.ID] = record
	return nil
}

// PutModel upserts a model provenance record.
func (s *Store) PutModel(_ context.Context, record domain.ReflectivityModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[record.ID] = record
	return nil
}

// GetReflectivity fetches a reflectivity record by ID.
func (s *Store) GetReflectivity(_ context.Context, id string) (domain.Reflectivity, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.reflectivity[id]
	return record, ok, nil
}

// GetSample fetches a sample record by ID.
func (s *Store) GetSample(_ context.Context, id string) (domain.Sample, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.samples[id]
	return record, ok, nil
}

// GetEnvironment fetches an environment record by ID.
func (s *Store) GetEnvironment(_ context.Context, id string) (domain.Environment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.environments[id]
	return record, ok, nil
}

// GetModel fetches a model record by ID.
func (s *Store) GetModel(_ context.Context, id string) (domain.ReflectivityModel, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.models[id]
	return record, ok, nil
}

// ListReflectivity returns all reflectivity records ordered by ID.
func (s *Store) ListReflectivity(_ context.Context) ([]domain.Reflectivity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.reflectivity), nil
}

// ListSamples returns all sample records ordered by ID.
func (s *Store) ListSamples(_ context.Context) ([]domain.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.samples), nil
}

// ListEnvironments returns all environment records ordered by ID.
func (s *Store) ListEnvironments(_ context.Context) ([]domain.Environment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.environments), nil
}

// ListModels returns all model records ordered by ID.
func (s *Store) ListModels(_ context.Context) ([]domain.ReflectivityModel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedValues(s.models), nil
}

// ExportState snapshots the full catalog state.
func (s *Store) ExportState() catalog.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return catalog.Snapshot{
		Reflectivity: sortedValues(s.reflectivity),
		Samples:      sortedValues(s.samples),
		Environments: sortedValues(s.environments),
		Models:       sortedValues(s.models),
	}
}

// ImportState replaces the catalog state with a snapshot.
func (s *Store) ImportState(snapshot catalog.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reflectivity = map[string]domain.Reflectivity{}
	for _, record := range snapshot.Reflectivity {
		s.reflectivity[record.ID] = record
	}
	s.samples = map[string]domain.Sample{}
	for _, record := range snapshot.Samples {
		s.samples[record.ID] = record
	}
	s.environments = map[string]domain.Environment{}
	for _, record := range snapshot.Environments {
		s.environments[record.ID] = record
	}
	s.models = map[string]domain.ReflectivityModel{}
	for _, record := range snapshot.Models {
		s.models[record.ID] = record
	}
}

// Close is a no-op for the in-memory backend.
func (s *Store) Close() error { return nil }

type identified interface {
	domain.Reflectivity | domain.Sample | domain.Environment | domain.ReflectivityModel
}

func sortedValues[T identified](bucket map[string]T) []T {
	ids := make([]string, 0, len(bucket))
	for id := range bucket {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, bucket[id])
	}
	return out
}

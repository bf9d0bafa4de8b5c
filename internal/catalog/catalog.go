// Package catalog defines the persistent record catalog: the storage
// interface the assembly pipeline writes into, the snapshot format shared
// by all backends, and the environment-driven backend selection.
package catalog

import (
	"context"

	"reflcore/pkg/domain"
)

// Snapshot is the full catalog state as four JSON-encodable buckets. All
// backends persist and exchange state in this shape.
type Snapshot struct {
	Reflectivity []domain.Reflectivity      `json:"reflectivity"`
	Samples      []domain.Sample            `json:"samples"`
	Environments []domain.Environment       `json:"environments"`
	Models       []domain.ReflectivityModel `json:"reflectivity_models"`
}

// Store is the record catalog contract. Writes are upserts keyed by record
// ID; reads report presence explicitly. Implementations must be safe for
// concurrent use.
type Store interface {
	PutReflectivity(ctx context.Context, record domain.Reflectivity) error
	PutSample(ctx context.Context, record domain.Sample) error
	PutEnvironment(ctx context.Context, record domain.Environment) error
	PutModel(ctx context.Context, record domain.ReflectivityModel) error

	GetReflectivity(ctx context.Context, id string) (domain.Reflectivity, bool, error)
	GetSample(ctx context.Context, id string) (domain.Sample, bool, error)
	GetEnvironment(ctx context.Context, id string) (domain.Environment, bool, error)
	GetModel(ctx context.Context, id string) (domain.ReflectivityModel, bool, error)

	ListReflectivity(ctx context.Context) ([]domain.Reflectivity, error)
	ListSamples(ctx context.Context) ([]domain.Sample, error)
	ListEnvironments(ctx context.Context) ([]domain.Environment, error)
	ListModels(ctx context.Context) ([]domain.ReflectivityModel, error)

	ExportState() Snapshot
	ImportState(Snapshot)

	Close() error
}

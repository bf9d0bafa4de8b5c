package catalog_test

import (
	"context"
	"testing"

	"reflcore/internal/assembly"
	"reflcore/internal/catalog"
	"reflcore/internal/infra/persistence/memory"
	"reflcore/pkg/domain"
)

func TestSaveOutcomeStoresAllRecords(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	out := &assembly.Outcome{
		Reflectivity: &domain.Reflectivity{Base: domain.Base{ID: "m-1"}},
		Sample:       &domain.Sample{Base: domain.Base{ID: "s-1"}},
		Environment:  &domain.Environment{Base: domain.Base{ID: "e-1"}},
		Model:        &domain.ReflectivityModel{Base: domain.Base{ID: "f-1"}},
	}
	if err := catalog.SaveOutcome(ctx, store, out); err != nil {
		t.Fatalf("SaveOutcome: %v", err)
	}

	if _, ok, _ := store.GetReflectivity(ctx, "m-1"); !ok {
		t.Fatal("reflectivity record not stored")
	}
	if _, ok, _ := store.GetSample(ctx, "s-1"); !ok {
		t.Fatal("sample record not stored")
	}
	if _, ok, _ := store.GetEnvironment(ctx, "e-1"); !ok {
		t.Fatal("environment record not stored")
	}
	if _, ok, _ := store.GetModel(ctx, "f-1"); !ok {
		t.Fatal("model record not stored")
	}
}

func TestSaveOutcomeSkipsNilRecords(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	out := &assembly.Outcome{
		Reflectivity: &domain.Reflectivity{Base: domain.Base{ID: "m-1"}},
	}
	if err := catalog.SaveOutcome(ctx, store, out); err != nil {
		t.Fatalf("SaveOutcome: %v", err)
	}
	samples, err := store.ListSamples(ctx)
	if err != nil {
		t.Fatalf("list samples: %v", err)
	}
	if len(samples) != 0 {
		t.Fatalf("unexpected samples stored: %+v", samples)
	}

	if err := catalog.SaveOutcome(ctx, store, nil); err != nil {
		t.Fatalf("nil outcome must be a no-op, got %v", err)
	}
}

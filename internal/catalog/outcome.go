package catalog

import (
	"context"
	"fmt"

	"reflcore/internal/assembly"
)

// SaveOutcome upserts every record an assembly call produced. Nil records
// are skipped; a partial outcome stores partially.
func SaveOutcome(ctx context.Context, store Store, out *assembly.Outcome) error {
	if out == nil {
		return nil
	}
	if out.Reflectivity != nil {
		if err := store.PutReflectivity(ctx, *out.Reflectivity); err != nil {
			return fmt.Errorf("store reflectivity record: %w", err)
		}
	}
	if out.Sample != nil {
		if err := store.PutSample(ctx, *out.Sample); err != nil {
			return fmt.Errorf("store sample record: %w", err)
		}
	}
	if out.Environment != nil {
		if err := store.PutEnvironment(ctx, *out.Environment); err != nil {
			return fmt.Errorf("store environment record: %w", err)
		}
	}
	if out.Model != nil {
		if err := store.PutModel(ctx, *out.Model); err != nil {
			return fmt.Errorf("store model record: %w", err)
		}
	}
	return nil
}

package planner

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/keremk/tutopanda/internal/blobstore"
	"github.com/keremk/tutopanda/internal/storage"
)

// WriteInputsYAML materializes the resolved input map (keyed by canonical
// input id) to the movie's inputs.yaml, overwriting any prior copy. Called
// once per planning pass so a human can read the exact values the plan
// was computed against.
func WriteInputsYAML(ctx context.Context, blobs blobstore.Store, movieID string, resolvedInputs map[string]any) error {
	data, err := yaml.Marshal(resolvedInputs)
	if err != nil {
		return fmt.Errorf("planner: marshal inputs.yaml: %w", err)
	}
	sc := storage.New(movieID)
	if err := blobs.WriteBytes(ctx, sc.InputsYAML(), data); err != nil {
		return fmt.Errorf("planner: write inputs.yaml: %w", err)
	}
	return nil
}

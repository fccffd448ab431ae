package embedding

import (
	"context"

	"github.com/antigravity-dev/codegraph/internal/logging"
)

// =============================================================================
// NULL EMBEDDING ENGINE
// =============================================================================

// NullEngine is returned when embedding is configured off (an empty or
// "disabled" provider). Every call succeeds with zero-value results rather
// than erroring, so note creation and sync still go through; only the
// embedding-dependent features (vector_search_notes/files/functions, synapse
// construction) come back empty.
type NullEngine struct{}

// NewNullEngine creates the disabled-provider sentinel engine.
func NewNullEngine() *NullEngine {
	logging.Embedding("Embedding disabled: using null provider, embedding-dependent features will return empty results")
	return &NullEngine{}
}

// Embed returns a nil vector; callers store it as "no embedding" rather
// than treating the absence as an error.
func (e *NullEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, nil
}

// EmbedBatch returns nil vectors for every input text.
func (e *NullEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	return out, nil
}

// Dimensions returns 0: the null engine produces no vectors.
func (e *NullEngine) Dimensions() int {
	return 0
}

// Name returns the engine name.
func (e *NullEngine) Name() string {
	return "disabled"
}

package embedding

import (
	"context"
	"strings"
)

// Embedder converts text into fixed-length vectors. One model and
// dimensionality must be used for the lifetime of an index; mixing models
// invalidates similarity comparisons.
type Embedder interface {
	// EmbedOne returns the embedding vector for a single text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)

	// EmbedMany returns one vector per input text, preserving order and length.
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)

	// Model returns the pinned model identifier, stored in record metadata so
	// a mixed-model index can be detected.
	Model() string
}

// Normalize collapses whitespace runs to a single space and trims the ends.
// Trailing or duplicated whitespace produces different embeddings for
// semantically identical text, which hurts retrieval consistency.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

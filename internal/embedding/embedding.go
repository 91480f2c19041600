package embedding

import "context"

// Embedding is the interface every embedding model client implements.
type Embedding interface {
	// Embed generates the embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)
}

package interfaces

import (
	"context"

	"smartlearn/internal/learning/rag/schema"
	"smartlearn/internal/models"
)

// Loader is the interface for extracting per-page text from a raw uploaded file.
type Loader interface {
	LoadPages(ctx context.Context, data []byte) ([]models.Page, error)
}

// Splitter is the interface for splitting extracted pages into smaller chunks.
// Chunks never span page boundaries.
type Splitter interface {
	Split(ctx context.Context, pages []models.Page) ([]*schema.Document, error)
}

// EmbeddingModel is the interface for a text embedding model.
type EmbeddingModel interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorIndex is the interface for the per-document vector index lifecycle.
// Each document owns exactly one index, named by its indexID.
type VectorIndex interface {
	// Create provisions a new index for vectors of the given dimension and
	// blocks until the index is ready to accept writes.
	Create(ctx context.Context, indexID string, dim int) error
	// Upsert writes chunks into the index, overwriting by chunk ID.
	Upsert(ctx context.Context, indexID string, docs []*schema.Document) error
	// Query returns up to topK chunks ordered by similarity, best first.
	// An empty index yields an empty result, not an error.
	Query(ctx context.Context, indexID string, embedding []float32, topK int) ([]*schema.Document, error)
	// Drop deletes the index and all its vectors.
	Drop(ctx context.Context, indexID string) error
}

// LLM is the interface for a large language model that can generate text,
// optionally conditioned on prior conversation turns.
type LLM interface {
	Generate(ctx context.Context, history []models.ChatMessage, prompt string) (string, error)
}

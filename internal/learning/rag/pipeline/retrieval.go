package pipeline

import (
	"context"
	"fmt"
	"time"

	"smartlearn/internal/learning/rag/interfaces"
	"smartlearn/internal/learning/rag/schema"
	"smartlearn/internal/models"
	"smartlearn/pkg/logger"
)

// Retriever embeds a query and searches one document's vector index for the
// most relevant chunks.
type Retriever struct {
	embedder interfaces.EmbeddingModel
	index    interfaces.VectorIndex
	topK     int
	timeout  time.Duration
	log      *logger.Logger
}

// NewRetriever creates a new Retriever. topK is the default number of chunks
// returned when the caller does not ask for a specific count; timeout bounds
// each index search (0 disables the deadline).
func NewRetriever(embedder interfaces.EmbeddingModel, index interfaces.VectorIndex, topK int, timeout time.Duration, log *logger.Logger) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		topK:     topK,
		timeout:  timeout,
		log:      log,
	}
}

// Run retrieves the topK chunks most similar to the query, best-first. An
// index with no matching chunks yields an empty slice, not an error. topK <= 0
// falls back to the retriever's default.
func (r *Retriever) Run(ctx context.Context, indexID string, query string, topK int) ([]models.Citation, error) {
	if topK <= 0 {
		topK = r.topK
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("expected 1 query vector, got %d", len(vectors))
	}

	queryCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		queryCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	docs, err := r.index.Query(queryCtx, indexID, vectors[0], topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query index '%s': %w", indexID, err)
	}
	r.log.Debug(fmt.Sprintf("retrieved %d chunks from index '%s'", len(docs), indexID))

	citations := make([]models.Citation, 0, len(docs))
	for _, doc := range docs {
		citations = append(citations, models.Citation{
			PageNumber: schema.Page(doc),
			Content:    doc.Text,
		})
	}
	return citations, nil
}

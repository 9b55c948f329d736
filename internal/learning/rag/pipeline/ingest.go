package pipeline

import (
	"context"
	"fmt"
	"time"

	"smartlearn/internal/learning/rag/interfaces"
	"smartlearn/internal/models"
	"smartlearn/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// IngestionPipeline orchestrates chunking, embedding and index population
// for a freshly uploaded document. Each run provisions the document's own
// vector index and fills it; on any failure the index is torn down again so
// no half-populated index is ever left behind.
type IngestionPipeline struct {
	splitter interfaces.Splitter
	embedder interfaces.EmbeddingModel
	index    interfaces.VectorIndex
	dim      int
	log      *logger.Logger
}

// NewIngestionPipeline creates a new IngestionPipeline. dim is the embedding
// dimension the index is provisioned with.
func NewIngestionPipeline(
	splitter interfaces.Splitter,
	embedder interfaces.EmbeddingModel,
	index interfaces.VectorIndex,
	dim int,
	log *logger.Logger,
) *IngestionPipeline {
	return &IngestionPipeline{
		splitter: splitter,
		embedder: embedder,
		index:    index,
		dim:      dim,
		log:      log,
	}
}

// Run executes the ingestion for one document and returns the number of
// chunks written. Index provisioning and embedding run concurrently since
// neither depends on the other; the upsert waits for both.
//
// Once the index exists, the write phase runs on a detached context so a
// client disconnect cannot leave a ready-but-empty index behind.
func (p *IngestionPipeline) Run(ctx context.Context, indexID string, pages []models.Page) (int, error) {
	chunks, err := p.splitter.Split(ctx, pages)
	if err != nil {
		return 0, fmt.Errorf("failed to split pages: %w", err)
	}
	p.log.Info(fmt.Sprintf("split %d pages into %d chunks for index '%s'", len(pages), len(chunks), indexID))

	// Deterministic chunk IDs make a replayed ingestion an overwrite
	// instead of a duplicate.
	for i, chunk := range chunks {
		chunk.ID = fmt.Sprintf("%s_c%04d", indexID, i)
	}

	eg, gCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return p.index.Create(gCtx, indexID, p.dim)
	})

	eg.Go(func() error {
		if len(chunks) == 0 {
			return nil
		}
		texts := make([]string, len(chunks))
		for i, chunk := range chunks {
			texts[i] = chunk.Text
		}
		embeddings, err := p.embedder.Embed(gCtx, texts)
		if err != nil {
			return err
		}
		for i, chunk := range chunks {
			chunk.Embedding = embeddings[i]
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		p.cleanup(indexID)
		return 0, err
	}

	if len(chunks) > 0 {
		if err := p.index.Upsert(context.WithoutCancel(ctx), indexID, chunks); err != nil {
			p.cleanup(indexID)
			return 0, err
		}
	}

	p.log.Info(fmt.Sprintf("finished ingestion for index '%s' (%d chunks)", indexID, len(chunks)))
	return len(chunks), nil
}

// cleanup drops whatever was provisioned for the failed run. Best effort:
// Drop is a no-op when the index never came to exist.
func (p *IngestionPipeline) cleanup(indexID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.index.Drop(ctx, indexID); err != nil {
		p.log.WithError(err).Warn(fmt.Sprintf("failed to clean up index '%s' after aborted ingestion", indexID))
	}
}

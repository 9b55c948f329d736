package embeddings

import (
	"context"
	"fmt"
	"time"

	"smartlearn/internal/embedding"
	"smartlearn/internal/learning"
	"smartlearn/internal/learning/rag/interfaces"
	"smartlearn/pkg/logger"
)

// Options configures the batching and retry behavior of a RetryEmbedder.
type Options struct {
	// BatchSize caps how many texts go into a single provider call.
	BatchSize int
	// MaxRetries is how many times a failed batch is retried before the
	// provider is declared unavailable.
	MaxRetries int
	// Dimension, when non-zero, is the expected vector width; vectors of
	// any other width are treated as a provider failure.
	Dimension int
	// Timeout bounds each individual provider call.
	Timeout time.Duration
}

// RetryEmbedder adapts a provider-specific embedding client to the pipeline
// EmbeddingModel interface, adding batching, per-call timeouts and a bounded
// retry with exponential backoff.
type RetryEmbedder struct {
	client  embedding.Embedding
	opts    Options
	backoff time.Duration
	log     *logger.Logger
}

// NewRetryEmbedder creates a new RetryEmbedder around an embedding client.
func NewRetryEmbedder(client embedding.Embedding, opts Options, log *logger.Logger) *RetryEmbedder {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &RetryEmbedder{
		client:  client,
		opts:    opts,
		backoff: 500 * time.Millisecond,
		log:     log,
	}
}

// Embed embeds all texts, batch by batch, preserving input order.
func (e *RetryEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.opts.BatchSize {
		end := start + e.opts.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vectors...)
	}
	return out, nil
}

// embedBatch embeds one batch with up to MaxRetries retries. Exhausting the
// retry budget surfaces as ErrEmbeddingUnavailable.
func (e *RetryEmbedder) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	var lastErr error

	for attempt := 0; attempt <= e.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := e.backoff << (attempt - 1)
			e.log.WithError(lastErr).Warn(fmt.Sprintf("embedding batch failed, retrying in %s (attempt %d/%d)", wait, attempt, e.opts.MaxRetries))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, e.opts.Timeout)
		vectors, err := e.client.EmbedBatch(callCtx, batch)
		cancel()
		if err != nil {
			lastErr = err
			continue
		}
		if err := e.validate(batch, vectors); err != nil {
			lastErr = err
			continue
		}
		return vectors, nil
	}

	return nil, fmt.Errorf("%w: %d attempts exhausted: %v", learning.ErrEmbeddingUnavailable, e.opts.MaxRetries+1, lastErr)
}

// validate checks the provider returned one vector per text, all of the
// expected dimension.
func (e *RetryEmbedder) validate(batch []string, vectors [][]float32) error {
	if len(vectors) != len(batch) {
		return fmt.Errorf("provider returned %d vectors for %d texts", len(vectors), len(batch))
	}
	if e.opts.Dimension > 0 {
		for i, v := range vectors {
			if len(v) != e.opts.Dimension {
				return fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), e.opts.Dimension)
			}
		}
	}
	return nil
}

// compile-time check to ensure RetryEmbedder implements the EmbeddingModel interface
var _ interfaces.EmbeddingModel = (*RetryEmbedder)(nil)

package embeddings

import (
	"context"
	"errors"
	"testing"
	"time"

	"smartlearn/internal/learning"
	"smartlearn/pkg/logger"
)

type fakeClient struct {
	dim      int
	failures int
	badDim   bool
	calls    int
	batches  [][]string
}

func (f *fakeClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.batches = append(f.batches, texts)
	if f.calls <= f.failures {
		return nil, errors.New("provider hiccup")
	}
	dim := f.dim
	if f.badDim {
		dim = f.dim - 1
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, dim)
	}
	return out, nil
}

func newEmbedder(client *fakeClient, retries int) *RetryEmbedder {
	e := NewRetryEmbedder(client, Options{
		BatchSize:  2,
		MaxRetries: retries,
		Dimension:  client.dim,
		Timeout:    time.Second,
	}, logger.New("test", "", ""))
	e.backoff = time.Millisecond
	return e
}

func TestEmbedBatchesInOrder(t *testing.T) {
	client := &fakeClient{dim: 4}
	e := newEmbedder(client, 0)

	vectors, err := e.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 3 {
		t.Fatalf("got %d vectors", len(vectors))
	}
	if len(client.batches) != 2 || len(client.batches[0]) != 2 || len(client.batches[1]) != 1 {
		t.Errorf("unexpected batching: %v", client.batches)
	}
}

func TestEmbedRetriesTransientFailure(t *testing.T) {
	client := &fakeClient{dim: 4, failures: 2}
	e := newEmbedder(client, 3)

	vectors, err := e.Embed(context.Background(), []string{"a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 1 {
		t.Fatalf("got %d vectors", len(vectors))
	}
	if client.calls != 3 {
		t.Errorf("got %d calls, want 3", client.calls)
	}
}

func TestEmbedExhaustsRetries(t *testing.T) {
	client := &fakeClient{dim: 4, failures: 100}
	e := newEmbedder(client, 2)

	_, err := e.Embed(context.Background(), []string{"a"})
	if !errors.Is(err, learning.ErrEmbeddingUnavailable) {
		t.Fatalf("got %v, want ErrEmbeddingUnavailable", err)
	}
	if client.calls != 3 {
		t.Errorf("got %d calls, want 3 (1 + 2 retries)", client.calls)
	}
}

func TestEmbedRejectsWrongDimension(t *testing.T) {
	client := &fakeClient{dim: 4, badDim: true}
	e := newEmbedder(client, 0)

	_, err := e.Embed(context.Background(), []string{"a"})
	if !errors.Is(err, learning.ErrEmbeddingUnavailable) {
		t.Fatalf("got %v, want ErrEmbeddingUnavailable", err)
	}
}

func TestEmbedNothing(t *testing.T) {
	e := newEmbedder(&fakeClient{dim: 4}, 0)
	vectors, err := e.Embed(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if vectors != nil {
		t.Errorf("got %v for no texts", vectors)
	}
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"smartlearn/internal/learning"
	"smartlearn/internal/learning/rag/schema"
	"smartlearn/internal/models"
	"smartlearn/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New("test", "", "")
}

type fakeSplitter struct {
	chunks []*schema.Document
	err    error
}

func (f *fakeSplitter) Split(ctx context.Context, pages []models.Page) ([]*schema.Document, error) {
	return f.chunks, f.err
}

type fakeEmbedder struct {
	dim   int
	err   error
	calls [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}

type fakeIndex struct {
	mu        sync.Mutex
	createErr error
	upsertErr error
	queryDocs []*schema.Document
	queryErr  error

	created          []string
	upserted         map[string][]*schema.Document
	dropped          []string
	queryHadDeadline bool
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{upserted: map[string][]*schema.Document{}}
}

func (f *fakeIndex) Create(ctx context.Context, indexID string, dim int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, indexID)
	return nil
}

func (f *fakeIndex) Upsert(ctx context.Context, indexID string, docs []*schema.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted[indexID] = docs
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, indexID string, embedding []float32, topK int) ([]*schema.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, f.queryHadDeadline = ctx.Deadline()
	return f.queryDocs, f.queryErr
}

func (f *fakeIndex) Drop(ctx context.Context, indexID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dropped = append(f.dropped, indexID)
	return nil
}

type fakeLLM struct {
	replies []string
	errs    []error
	calls   int
	prompts []string
}

func (f *fakeLLM) Generate(ctx context.Context, history []models.ChatMessage, prompt string) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.replies) {
		return f.replies[i], nil
	}
	return "", errors.New("no scripted reply")
}

func chunkDocs(n int) []*schema.Document {
	docs := make([]*schema.Document, n)
	for i := range docs {
		docs[i] = &schema.Document{
			Text:     fmt.Sprintf("chunk %d", i),
			Metadata: map[string]interface{}{schema.MetadataKeyPage: i + 1},
		}
	}
	return docs
}

func TestIngestionRunWritesChunks(t *testing.T) {
	index := newFakeIndex()
	embedder := &fakeEmbedder{dim: 4}
	p := NewIngestionPipeline(&fakeSplitter{chunks: chunkDocs(3)}, embedder, index, 4, testLogger())

	count, err := p.Run(context.Background(), "doc_test", []models.Page{{PageNumber: 1, Text: "x"}})
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("got %d chunks, want 3", count)
	}
	if len(index.created) != 1 || index.created[0] != "doc_test" {
		t.Errorf("index not created: %v", index.created)
	}
	docs := index.upserted["doc_test"]
	if len(docs) != 3 {
		t.Fatalf("got %d upserted docs, want 3", len(docs))
	}
	for i, doc := range docs {
		want := fmt.Sprintf("doc_test_c%04d", i)
		if doc.ID != want {
			t.Errorf("chunk %d has ID %q, want %q", i, doc.ID, want)
		}
		if len(doc.Embedding) != 4 {
			t.Errorf("chunk %d missing embedding", i)
		}
	}
	if len(index.dropped) != 0 {
		t.Errorf("successful run dropped the index: %v", index.dropped)
	}
}

func TestIngestionRunEmptyPagesProvisionsEmptyIndex(t *testing.T) {
	index := newFakeIndex()
	embedder := &fakeEmbedder{dim: 4}
	p := NewIngestionPipeline(&fakeSplitter{}, embedder, index, 4, testLogger())

	count, err := p.Run(context.Background(), "doc_empty", nil)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("got %d chunks, want 0", count)
	}
	if len(index.created) != 1 {
		t.Error("index should still be created for an empty document")
	}
	if len(embedder.calls) != 0 {
		t.Error("nothing should be embedded for an empty document")
	}
	if len(index.upserted) != 0 {
		t.Error("nothing should be upserted for an empty document")
	}
}

func TestIngestionRunCleansUpOnEmbedFailure(t *testing.T) {
	index := newFakeIndex()
	embedErr := fmt.Errorf("%w: 4 attempts exhausted", learning.ErrEmbeddingUnavailable)
	p := NewIngestionPipeline(&fakeSplitter{chunks: chunkDocs(2)}, &fakeEmbedder{err: embedErr}, index, 4, testLogger())

	_, err := p.Run(context.Background(), "doc_fail", []models.Page{{PageNumber: 1, Text: "x"}})
	if !errors.Is(err, learning.ErrEmbeddingUnavailable) {
		t.Fatalf("got %v, want ErrEmbeddingUnavailable", err)
	}
	if len(index.dropped) != 1 || index.dropped[0] != "doc_fail" {
		t.Errorf("index not cleaned up: %v", index.dropped)
	}
}

func TestIngestionRunCleansUpOnReadyTimeout(t *testing.T) {
	index := newFakeIndex()
	index.createErr = fmt.Errorf("%w: index not ready", learning.ErrIndexProvisioningTimeout)
	p := NewIngestionPipeline(&fakeSplitter{chunks: chunkDocs(1)}, &fakeEmbedder{dim: 4}, index, 4, testLogger())

	_, err := p.Run(context.Background(), "doc_slow", []models.Page{{PageNumber: 1, Text: "x"}})
	if !errors.Is(err, learning.ErrIndexProvisioningTimeout) {
		t.Fatalf("got %v, want ErrIndexProvisioningTimeout", err)
	}
	if len(index.dropped) != 1 {
		t.Error("half-provisioned index not dropped")
	}
}

func TestIngestionRunCleansUpOnUpsertFailure(t *testing.T) {
	index := newFakeIndex()
	index.upsertErr = errors.New("write refused")
	p := NewIngestionPipeline(&fakeSplitter{chunks: chunkDocs(1)}, &fakeEmbedder{dim: 4}, index, 4, testLogger())

	_, err := p.Run(context.Background(), "doc_upsert", []models.Page{{PageNumber: 1, Text: "x"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(index.dropped) != 1 {
		t.Error("index not dropped after upsert failure")
	}
}

func TestRetrieverReturnsCitations(t *testing.T) {
	index := newFakeIndex()
	index.queryDocs = []*schema.Document{
		{Text: "first", Metadata: map[string]interface{}{schema.MetadataKeyPage: 3}},
		{Text: "second", Metadata: map[string]interface{}{schema.MetadataKeyPage: 7}},
	}
	r := NewRetriever(&fakeEmbedder{dim: 4}, index, 5, 0, testLogger())

	citations, err := r.Run(context.Background(), "doc", "question", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(citations) != 2 {
		t.Fatalf("got %d citations, want 2", len(citations))
	}
	if citations[0].PageNumber != 3 || citations[0].Content != "first" {
		t.Errorf("unexpected first citation: %+v", citations[0])
	}
}

func TestRetrieverBoundsSearchWithDeadline(t *testing.T) {
	index := newFakeIndex()
	r := NewRetriever(&fakeEmbedder{dim: 4}, index, 5, 2*time.Second, testLogger())

	if _, err := r.Run(context.Background(), "doc", "question", 0); err != nil {
		t.Fatal(err)
	}
	if !index.queryHadDeadline {
		t.Error("index query ran without a deadline")
	}
}

func TestRetrieverEmptyIndexIsNotAnError(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{dim: 4}, newFakeIndex(), 5, 0, testLogger())
	citations, err := r.Run(context.Background(), "doc", "question", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(citations) != 0 {
		t.Errorf("got %d citations for an empty index", len(citations))
	}
}

func TestSynthesizerGroundsPromptAndExtractsCitations(t *testing.T) {
	llm := &fakeLLM{replies: []string{"Mitochondria produce ATP [page 4]. They also do more [Page 4] and [page 9]."}}
	s := NewSynthesizer(llm, testLogger())
	retrieved := []models.Citation{
		{PageNumber: 4, Content: "about mitochondria"},
		{PageNumber: 9, Content: "about respiration"},
		{PageNumber: 2, Content: "never cited"},
	}

	answer, citations, err := s.Run(context.Background(), "what do mitochondria do?", retrieved, nil)
	if err != nil {
		t.Fatal(err)
	}
	if answer == "" {
		t.Fatal("empty answer")
	}
	if !strings.Contains(llm.prompts[0], "[page 4]") || !strings.Contains(llm.prompts[0], "about mitochondria") {
		t.Error("prompt does not contain the labeled excerpts")
	}
	// Page 4 cited twice dedupes to one, first-mention order is kept, page 2
	// never appears.
	if len(citations) != 2 {
		t.Fatalf("got %d citations, want 2: %+v", len(citations), citations)
	}
	if citations[0].PageNumber != 4 || citations[1].PageNumber != 9 {
		t.Errorf("citation order wrong: %+v", citations)
	}
}

func TestSynthesizerDropsUnretrievedPages(t *testing.T) {
	llm := &fakeLLM{replies: []string{"See [page 42] for details."}}
	s := NewSynthesizer(llm, testLogger())
	retrieved := []models.Citation{{PageNumber: 1, Content: "something"}}

	_, citations, err := s.Run(context.Background(), "q", retrieved, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(citations) != 0 {
		t.Errorf("hallucinated page became a citation: %+v", citations)
	}
}

func TestSynthesizerRetriesOnce(t *testing.T) {
	llm := &fakeLLM{
		errs:    []error{errors.New("transient"), nil},
		replies: []string{"", "recovered answer"},
	}
	s := NewSynthesizer(llm, testLogger())

	answer, _, err := s.Run(context.Background(), "q", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if answer != "recovered answer" {
		t.Errorf("got %q", answer)
	}
	if llm.calls != 2 {
		t.Errorf("got %d calls, want 2", llm.calls)
	}
}

func TestSynthesizerFailsAfterSecondError(t *testing.T) {
	llm := &fakeLLM{errs: []error{errors.New("down"), errors.New("still down")}}
	s := NewSynthesizer(llm, testLogger())

	_, _, err := s.Run(context.Background(), "q", nil, nil)
	if !errors.Is(err, learning.ErrGenerationFailed) {
		t.Fatalf("got %v, want ErrGenerationFailed", err)
	}
	if llm.calls != 2 {
		t.Errorf("got %d calls, want 2", llm.calls)
	}
}

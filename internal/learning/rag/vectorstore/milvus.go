package vectorstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"smartlearn/internal/database/milvus"
	"smartlearn/internal/learning"
	"smartlearn/internal/learning/rag/interfaces"
	"smartlearn/internal/learning/rag/schema"
	"smartlearn/pkg/logger"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// Schema fields of the per-document collections.
	FieldID        = "id"
	FieldChunk     = "chunk"
	FieldPage      = "page"
	FieldSource    = "source"
	FieldEmbedding = "embedding"

	maxIDLength     = 128
	maxChunkLength  = 65535
	maxSourceLength = 64

	readyPollInterval = 500 * time.Millisecond
)

// MilvusIndex is an adapter for the Milvus client that implements the
// VectorIndex interface with one collection per document. Collections are
// created with a COSINE AUTOINDEX on the embedding field and loaded before
// Create returns, so a successful Create means the index accepts writes.
type MilvusIndex struct {
	log          *logger.Logger
	client       client.Client // The raw client from the MilvusClient wrapper
	readyTimeout time.Duration
}

// NewMilvusIndex creates a new MilvusIndex adapter.
// readyTimeout bounds how long Create waits for a fresh collection to load.
func NewMilvusIndex(milvusClient *milvus.MilvusClient, readyTimeout time.Duration, log *logger.Logger) (*MilvusIndex, error) {
	if milvusClient == nil || milvusClient.Client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	if readyTimeout <= 0 {
		readyTimeout = 45 * time.Second
	}
	return &MilvusIndex{
		log:          log,
		client:       milvusClient.Client,
		readyTimeout: readyTimeout,
	}, nil
}

// Create provisions the collection, builds its vector index and waits until
// the collection is loaded. Exceeding the ready window surfaces as
// ErrIndexProvisioningTimeout; the half-provisioned collection is left for
// the caller to drop.
func (s *MilvusIndex) Create(ctx context.Context, indexID string, dim int) error {
	collSchema := entity.NewSchema().
		WithName(indexID).
		WithDescription("per-document study material chunks").
		WithField(entity.NewField().WithName(FieldID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxIDLength).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName(FieldChunk).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxChunkLength)).
		WithField(entity.NewField().WithName(FieldPage).WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().WithName(FieldSource).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxSourceLength)).
		WithField(entity.NewField().WithName(FieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(dim)))

	if err := s.client.CreateCollection(ctx, collSchema, entity.DefaultShardNumber); err != nil {
		return fmt.Errorf("failed to create collection '%s': %w", indexID, err)
	}

	idx, err := entity.NewIndexAUTOINDEX(entity.COSINE)
	if err != nil {
		return fmt.Errorf("failed to build index definition: %w", err)
	}
	if err := s.client.CreateIndex(ctx, indexID, FieldEmbedding, idx, false); err != nil {
		return fmt.Errorf("failed to create index on '%s': %w", indexID, err)
	}

	return s.waitReady(ctx, indexID)
}

// waitReady kicks off an async load and polls the load state until the
// collection is ready or the deadline passes.
func (s *MilvusIndex) waitReady(ctx context.Context, indexID string) error {
	if err := s.client.LoadCollection(ctx, indexID, true); err != nil {
		return fmt.Errorf("failed to start loading collection '%s': %w", indexID, err)
	}

	deadline := time.Now().Add(s.readyTimeout)
	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		state, err := s.client.GetLoadState(ctx, indexID, nil)
		if err == nil && state == entity.LoadStateLoaded {
			s.log.Info(fmt.Sprintf("index '%s' is ready", indexID))
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: index '%s' not ready within %s", learning.ErrIndexProvisioningTimeout, indexID, s.readyTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Upsert writes the chunks into the collection, overwriting rows that share
// a chunk ID. Chunk IDs are deterministic, so replaying an ingestion is a
// harmless overwrite rather than a duplicate.
func (s *MilvusIndex) Upsert(ctx context.Context, indexID string, docs []*schema.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	texts := make([]string, len(docs))
	pages := make([]int64, len(docs))
	sources := make([]string, len(docs))
	embeddings := make([][]float32, len(docs))

	dim := 0
	for i, doc := range docs {
		ids[i] = doc.ID
		texts[i] = doc.Text
		pages[i] = int64(schema.Page(doc))
		sources[i] = schema.Source(doc)
		embeddings[i] = doc.Embedding
		if len(doc.Embedding) > dim {
			dim = len(doc.Embedding)
		}
	}

	s.log.Info(fmt.Sprintf("upserting %d chunks into index '%s'", len(docs), indexID))
	_, err := s.client.Upsert(ctx, indexID, "", /* default partition */
		entity.NewColumnVarChar(FieldID, ids),
		entity.NewColumnVarChar(FieldChunk, texts),
		entity.NewColumnInt64(FieldPage, pages),
		entity.NewColumnVarChar(FieldSource, sources),
		entity.NewColumnFloatVector(FieldEmbedding, dim, embeddings),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert chunks into '%s': %w", indexID, err)
	}

	if err := s.client.Flush(ctx, indexID, false); err != nil {
		s.log.WithError(err).Warn(fmt.Sprintf("flush after upsert failed for '%s'", indexID))
	}
	return nil
}

// Query performs a vector search over the document's collection and returns
// the chunks best-first. Ties keep their insertion order.
func (s *MilvusIndex) Query(ctx context.Context, indexID string, embedding []float32, topK int) ([]*schema.Document, error) {
	searchParams, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}

	searchResults, err := s.client.Search(
		ctx, indexID, nil, "",
		[]string{FieldChunk, FieldPage, FieldSource},
		[]entity.Vector{entity.FloatVector(embedding)},
		FieldEmbedding, entity.COSINE, topK, searchParams,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search index '%s': %w", indexID, err)
	}

	var results []*schema.Document
	for _, res := range searchResults {
		findColumn := func(name string) entity.Column {
			for _, field := range res.Fields {
				if field.Name() == name {
					return field
				}
			}
			return nil
		}

		var idData, chunkData, sourceData []string
		var pageData []int64
		if idCol, ok := res.IDs.(*entity.ColumnVarChar); ok {
			idData = idCol.Data()
		}
		if chunkCol, ok := findColumn(FieldChunk).(*entity.ColumnVarChar); ok {
			chunkData = chunkCol.Data()
		}
		if pageCol, ok := findColumn(FieldPage).(*entity.ColumnInt64); ok {
			pageData = pageCol.Data()
		}
		if sourceCol, ok := findColumn(FieldSource).(*entity.ColumnVarChar); ok {
			sourceData = sourceCol.Data()
		}

		for i := 0; i < res.ResultCount; i++ {
			doc := &schema.Document{
				Metadata: map[string]interface{}{schema.MetadataKeyScore: res.Scores[i]},
			}
			if i < len(idData) {
				doc.ID = idData[i]
			}
			if i < len(chunkData) {
				doc.Text = chunkData[i]
			}
			if i < len(pageData) {
				doc.Metadata[schema.MetadataKeyPage] = int(pageData[i])
			}
			if i < len(sourceData) {
				doc.Metadata[schema.MetadataKeySource] = sourceData[i]
			}
			results = append(results, doc)
		}
	}

	// COSINE scores are higher-is-better; keep ties stable.
	sort.SliceStable(results, func(i, j int) bool {
		return schema.Score(results[i]) > schema.Score(results[j])
	})

	return results, nil
}

// Drop deletes the document's collection. Dropping an index that no longer
// exists is a no-op.
func (s *MilvusIndex) Drop(ctx context.Context, indexID string) error {
	exists, err := s.client.HasCollection(ctx, indexID)
	if err != nil {
		return fmt.Errorf("failed to check collection '%s': %w", indexID, err)
	}
	if !exists {
		return nil
	}
	if err := s.client.DropCollection(ctx, indexID); err != nil {
		return fmt.Errorf("failed to drop collection '%s': %w", indexID, err)
	}
	s.log.Info(fmt.Sprintf("dropped index '%s'", indexID))
	return nil
}

// compile-time check to ensure MilvusIndex implements the VectorIndex interface
var _ interfaces.VectorIndex = (*MilvusIndex)(nil)

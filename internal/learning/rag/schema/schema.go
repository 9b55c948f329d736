package schema

const (
	// MetadataKeyPage is the key for the 1-based page number a chunk came from.
	MetadataKeyPage = "page"
	// MetadataKeySource is the key for the human-readable source label ("Page N").
	MetadataKeySource = "source"
	// MetadataKeyScore is the key for the similarity score set during retrieval.
	MetadataKeyScore = "score"
)

// Document is the central data structure representing a chunk of text and
// its associated data. It is the primary data carrier throughout the RAG
// pipeline.
type Document struct {
	// ID is the unique identifier for this chunk within its index.
	ID string

	// Text is the string content of the chunk.
	Text string

	// Embedding is the vector representation of the text.
	Embedding []float32

	// Metadata holds arbitrary data about the chunk, keyed by the
	// MetadataKey* constants.
	Metadata map[string]interface{}
}

// Page returns the chunk's page number, or 0 when unset.
func Page(d *Document) int {
	if d == nil || d.Metadata == nil {
		return 0
	}
	switch v := d.Metadata[MetadataKeyPage].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// Source returns the chunk's source label, or "" when unset.
func Source(d *Document) string {
	if d == nil || d.Metadata == nil {
		return ""
	}
	if s, ok := d.Metadata[MetadataKeySource].(string); ok {
		return s
	}
	return ""
}

// Score returns the similarity score recorded during retrieval, or 0.
func Score(d *Document) float32 {
	if d == nil || d.Metadata == nil {
		return 0
	}
	switch v := d.Metadata[MetadataKeyScore].(type) {
	case float32:
		return v
	case float64:
		return float32(v)
	}
	return 0
}

package splitters

import (
	"context"
	"fmt"
	"strings"

	"smartlearn/internal/learning/rag/interfaces"
	"smartlearn/internal/learning/rag/schema"
	"smartlearn/internal/models"
)

// PageSplitter implements the Splitter interface by cutting each page into
// fixed-size character windows with a fixed overlap. Chunks never cross a
// page boundary, so every chunk maps to exactly one source page.
//
// The splitter is fully deterministic: the same pages always produce the
// same chunks in the same order.
type PageSplitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewPageSplitter creates a new PageSplitter. The overlap must be smaller
// than the chunk size or the split could never advance.
func NewPageSplitter(chunkSize, chunkOverlap int) (*PageSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0,%d), got %d", chunkSize, chunkOverlap)
	}
	return &PageSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}, nil
}

// Split cuts every page into chunks carrying page provenance metadata.
// Pages without text contribute no chunks but keep their page number in
// the document record, so numbering stays intact.
func (s *PageSplitter) Split(ctx context.Context, pages []models.Page) ([]*schema.Document, error) {
	var chunks []*schema.Document

	for _, page := range pages {
		for _, piece := range s.splitText(page.Text) {
			chunks = append(chunks, &schema.Document{
				Text: piece,
				Metadata: map[string]interface{}{
					schema.MetadataKeyPage:   page.PageNumber,
					schema.MetadataKeySource: fmt.Sprintf("Page %d", page.PageNumber),
				},
			})
		}
	}

	return chunks, nil
}

// splitText produces consecutive windows of at most ChunkSize characters.
// Each window after the first starts ChunkOverlap characters before the end
// of the previous one, so adjacent chunks share exactly that many characters.
func (s *PageSplitter) splitText(text string) []string {
	if len(text) == 0 {
		return nil
	}

	var pieces []string
	start := 0
	for {
		if len(text)-start <= s.ChunkSize {
			pieces = append(pieces, text[start:])
			return pieces
		}
		end := s.cut(text, start)
		pieces = append(pieces, text[start:end])
		start = end - s.ChunkOverlap
	}
}

// cut picks where the chunk starting at start should end. It prefers a
// paragraph break, then a sentence end, then a word break, but only when the
// boundary falls in the back half of the window; otherwise it cuts hard at
// ChunkSize. The cut always lands past the overlap so the split advances.
func (s *PageSplitter) cut(text string, start int) int {
	end := start + s.ChunkSize
	window := text[start:end]

	min := s.ChunkSize / 2
	if min <= s.ChunkOverlap {
		min = s.ChunkOverlap + 1
	}

	for _, sep := range []string{"\n\n", "\n"} {
		if idx := strings.LastIndex(window, sep); idx >= 0 && idx+len(sep) > min {
			return start + idx + len(sep)
		}
	}

	if idx := lastSentenceEnd(window); idx > min {
		return start + idx
	}

	if idx := strings.LastIndex(window, " "); idx >= 0 && idx+1 > min {
		return start + idx + 1
	}

	return end
}

// lastSentenceEnd returns the position just past the last sentence
// terminator in the window, or -1 when there is none.
func lastSentenceEnd(window string) int {
	best := -1
	for _, sep := range []string{". ", "! ", "? "} {
		if idx := strings.LastIndex(window, sep); idx >= 0 && idx+len(sep) > best {
			best = idx + len(sep)
		}
	}
	return best
}

// compile-time check to ensure PageSplitter implements the Splitter interface
var _ interfaces.Splitter = (*PageSplitter)(nil)

package splitters

import (
	"context"
	"strings"
	"testing"

	"smartlearn/internal/learning/rag/schema"
	"smartlearn/internal/models"
)

func TestNewPageSplitterRejectsBadParams(t *testing.T) {
	if _, err := NewPageSplitter(0, 0); err == nil {
		t.Error("expected error for zero chunk size")
	}
	if _, err := NewPageSplitter(100, 100); err == nil {
		t.Error("expected error for overlap equal to chunk size")
	}
	if _, err := NewPageSplitter(100, -1); err == nil {
		t.Error("expected error for negative overlap")
	}
}

func TestSplitChunkCounts(t *testing.T) {
	splitter, err := NewPageSplitter(1000, 200)
	if err != nil {
		t.Fatal(err)
	}

	// Boundary-free text forces hard cuts, making counts exact:
	// each chunk advances 800 characters, the last takes the remainder.
	cases := []struct {
		length int
		want   int
	}{
		{400, 1},
		{1000, 1},
		{1500, 2},
		{2200, 3},
	}
	for _, tc := range cases {
		pages := []models.Page{{PageNumber: 1, Text: strings.Repeat("x", tc.length)}}
		chunks, err := splitter.Split(context.Background(), pages)
		if err != nil {
			t.Fatal(err)
		}
		if len(chunks) != tc.want {
			t.Errorf("length %d: got %d chunks, want %d", tc.length, len(chunks), tc.want)
		}
	}
}

func TestSplitOverlapAndCoverage(t *testing.T) {
	splitter, err := NewPageSplitter(1000, 200)
	if err != nil {
		t.Fatal(err)
	}

	text := strings.Repeat("a", 2600)
	chunks, err := splitter.Split(context.Background(), []models.Page{{PageNumber: 1, Text: text}})
	if err != nil {
		t.Fatal(err)
	}

	// Adjacent chunks share exactly the overlap.
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		tail := prev[len(prev)-200:]
		if !strings.HasPrefix(chunks[i].Text, tail) {
			t.Errorf("chunk %d does not start with the previous chunk's overlap", i)
		}
	}

	// Every character is covered: stitching chunks minus overlaps
	// reproduces the page.
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0].Text)
	for i := 1; i < len(chunks); i++ {
		rebuilt.WriteString(chunks[i].Text[200:])
	}
	if rebuilt.String() != text {
		t.Error("stitched chunks do not reproduce the original text")
	}
}

func TestSplitIsDeterministic(t *testing.T) {
	splitter, err := NewPageSplitter(1000, 200)
	if err != nil {
		t.Fatal(err)
	}

	pages := []models.Page{
		{PageNumber: 1, Text: strings.Repeat("The quick brown fox jumps over the lazy dog. ", 60)},
		{PageNumber: 2, Text: strings.Repeat("word ", 500)},
	}

	first, err := splitter.Split(context.Background(), pages)
	if err != nil {
		t.Fatal(err)
	}
	second, err := splitter.Split(context.Background(), pages)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != len(second) {
		t.Fatalf("run lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Text != second[i].Text {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestSplitPrefersSentenceBoundary(t *testing.T) {
	splitter, err := NewPageSplitter(1000, 200)
	if err != nil {
		t.Fatal(err)
	}

	// A sentence end at position ~900 falls in the back half of the window
	// and should win over a hard cut at 1000.
	text := strings.Repeat("a", 898) + ". " + strings.Repeat("b", 600)
	chunks, err := splitter.Split(context.Background(), []models.Page{{PageNumber: 1, Text: text}})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("got %d chunks, want at least 2", len(chunks))
	}
	if !strings.HasSuffix(chunks[0].Text, ". ") {
		t.Errorf("first chunk should end at the sentence boundary, ends with %q", chunks[0].Text[len(chunks[0].Text)-5:])
	}
}

func TestSplitIgnoresFrontHalfBoundary(t *testing.T) {
	splitter, err := NewPageSplitter(1000, 200)
	if err != nil {
		t.Fatal(err)
	}

	// The only sentence end sits at position ~100, in the front half, so the
	// splitter must cut hard at 1000 instead of collapsing the chunk.
	text := strings.Repeat("a", 98) + ". " + strings.Repeat("b", 1400)
	chunks, err := splitter.Split(context.Background(), []models.Page{{PageNumber: 1, Text: text}})
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks[0].Text) != 1000 {
		t.Errorf("first chunk has %d characters, want a hard cut at 1000", len(chunks[0].Text))
	}
}

func TestSplitKeepsPageConfinement(t *testing.T) {
	splitter, err := NewPageSplitter(1000, 200)
	if err != nil {
		t.Fatal(err)
	}

	pages := []models.Page{
		{PageNumber: 1, Text: strings.Repeat("p1 ", 500)},
		{PageNumber: 2, Text: ""},
		{PageNumber: 3, Text: "short page"},
	}
	chunks, err := splitter.Split(context.Background(), pages)
	if err != nil {
		t.Fatal(err)
	}

	seen := map[int]int{}
	for _, chunk := range chunks {
		page := schema.Page(chunk)
		seen[page]++
		if page == 2 {
			t.Error("empty page produced a chunk")
		}
	}
	if seen[1] == 0 || seen[3] != 1 {
		t.Errorf("unexpected per-page chunk distribution: %v", seen)
	}
}

func TestSplitNoPagesNoChunks(t *testing.T) {
	splitter, err := NewPageSplitter(1000, 200)
	if err != nil {
		t.Fatal(err)
	}
	chunks, err := splitter.Split(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("got %d chunks for no pages", len(chunks))
	}
}

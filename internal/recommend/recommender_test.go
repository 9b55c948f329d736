package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"

	"smartlearn/internal/models"
	"smartlearn/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New("test", "", "")
}

type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Generate(ctx context.Context, history []models.ChatMessage, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeSource struct {
	videos []models.VideoRecommendation
	err    error
	query  string
}

func (f *fakeSource) Search(ctx context.Context, query string, max int) ([]models.VideoRecommendation, error) {
	f.query = query
	return f.videos, f.err
}

const educationalReply = `{"isEducational": true, "topics": ["photosynthesis", "chlorophyll"], "educationalScore": 0.9}`

func TestForPageReturnsVideos(t *testing.T) {
	source := &fakeSource{videos: []models.VideoRecommendation{{Title: "Photosynthesis explained", URL: "https://example.com"}}}
	r := NewRecommender(&fakeLLM{reply: educationalReply}, []Source{source}, 5, testLogger())

	videos, analysis, err := r.ForPage(context.Background(), models.Page{PageNumber: 1, Text: "about plants"})
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 1 {
		t.Fatalf("got %d videos", len(videos))
	}
	if !analysis.IsEducational {
		t.Error("analysis lost")
	}
	if !strings.Contains(source.query, "photosynthesis") {
		t.Errorf("topics not used in query: %q", source.query)
	}
}

func TestForPageSkipsNonEducationalPages(t *testing.T) {
	source := &fakeSource{videos: []models.VideoRecommendation{{Title: "x"}}}
	reply := `{"isEducational": false, "topics": [], "educationalScore": 0.1}`
	r := NewRecommender(&fakeLLM{reply: reply}, []Source{source}, 5, testLogger())

	videos, _, err := r.ForPage(context.Background(), models.Page{PageNumber: 1, Text: "Table of contents"})
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 0 {
		t.Error("non-educational page should get no videos")
	}
	if source.query != "" {
		t.Error("sources should not be queried for non-educational pages")
	}
}

func TestForPageFallsThroughFailingSources(t *testing.T) {
	broken := &fakeSource{err: errors.New("quota exceeded")}
	fallback := SearchLinkSource{}
	r := NewRecommender(&fakeLLM{reply: educationalReply}, []Source{broken, fallback}, 5, testLogger())

	videos, _, err := r.ForPage(context.Background(), models.Page{PageNumber: 1, Text: "about plants"})
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 1 {
		t.Fatalf("fallback did not deliver: %d videos", len(videos))
	}
	if !strings.Contains(videos[0].URL, "search_query=") {
		t.Errorf("expected a search link, got %q", videos[0].URL)
	}
}

func TestForPageEmptyWhenAllSourcesDry(t *testing.T) {
	r := NewRecommender(&fakeLLM{reply: educationalReply}, []Source{&fakeSource{}}, 5, testLogger())

	videos, _, err := r.ForPage(context.Background(), models.Page{PageNumber: 1, Text: "about plants"})
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 0 {
		t.Errorf("got %d videos", len(videos))
	}
}

func TestForPageSurfacesAnalysisFailure(t *testing.T) {
	r := NewRecommender(&fakeLLM{err: errors.New("llm down")}, nil, 5, testLogger())
	if _, _, err := r.ForPage(context.Background(), models.Page{PageNumber: 1, Text: "x"}); err == nil {
		t.Error("expected error when analysis fails")
	}
}

func TestSearchLinkSourceEscapesQuery(t *testing.T) {
	videos, err := SearchLinkSource{}.Search(context.Background(), "cell division & mitosis", 5)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(videos[0].URL, "&m") {
		t.Errorf("query not escaped: %q", videos[0].URL)
	}
}

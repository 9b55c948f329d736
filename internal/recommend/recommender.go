package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"smartlearn/internal/learning/rag/interfaces"
	"smartlearn/internal/llm"
	"smartlearn/internal/models"
	"smartlearn/pkg/logger"
)

// Source is one way of finding videos for a search query.
type Source interface {
	Search(ctx context.Context, query string, max int) ([]models.VideoRecommendation, error)
}

// SearchLinkSource is the terminal fallback: instead of calling an API it
// fabricates a link to the video search results for the query, so the
// learner always gets something clickable.
type SearchLinkSource struct{}

// Search returns a single synthetic recommendation pointing at the YouTube
// search results page.
func (SearchLinkSource) Search(ctx context.Context, query string, max int) ([]models.VideoRecommendation, error) {
	return []models.VideoRecommendation{{
		Title: fmt.Sprintf("Search YouTube: %s", query),
		URL:   "https://www.youtube.com/results?search_query=" + url.QueryEscape(query),
	}}, nil
}

var _ Source = SearchLinkSource{}

// Recommender suggests videos for a page of study material. The page is
// first assessed by the LLM; only pages judged educational trigger a video
// lookup, which walks the source chain until one delivers.
type Recommender struct {
	llm           interfaces.LLM
	sources       []Source
	maxResults    int
	sourceTimeout time.Duration
	log           *logger.Logger
}

// NewRecommender creates a new Recommender. Sources are tried in order.
func NewRecommender(llmClient interfaces.LLM, sources []Source, maxResults int, log *logger.Logger) *Recommender {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Recommender{
		llm:           llmClient,
		sources:       sources,
		maxResults:    maxResults,
		sourceTimeout: 10 * time.Second,
		log:           log,
	}
}

// ForPage analyzes the page and returns video recommendations for its
// topics. Non-educational pages and pages without extractable topics yield
// an empty list. Source failures are logged and skipped, never surfaced.
func (r *Recommender) ForPage(ctx context.Context, page models.Page) ([]models.VideoRecommendation, *models.PageAnalysis, error) {
	analysis, err := r.analyzePage(ctx, page)
	if err != nil {
		return nil, nil, err
	}
	if !analysis.IsEducational || len(analysis.Topics) == 0 {
		return []models.VideoRecommendation{}, analysis, nil
	}

	query := buildQuery(analysis.Topics)
	for _, source := range r.sources {
		videos, err := r.searchSource(ctx, source, query)
		if err != nil {
			r.log.WithError(err).Warn("video source failed, trying next")
			continue
		}
		if len(videos) > 0 {
			return videos, analysis, nil
		}
	}
	return []models.VideoRecommendation{}, analysis, nil
}

func (r *Recommender) searchSource(ctx context.Context, source Source, query string) ([]models.VideoRecommendation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.sourceTimeout)
	defer cancel()
	return source.Search(ctx, query, r.maxResults)
}

// analyzePage asks the LLM whether the page is educational material and what
// its key topics are.
func (r *Recommender) analyzePage(ctx context.Context, page models.Page) (*models.PageAnalysis, error) {
	prompt := fmt.Sprintf(`Assess the following page of a document.
Respond with ONLY a JSON object: {"isEducational": bool, "topics": [up to 3 short topic strings], "educationalScore": number between 0 and 1}.
A page is educational when it teaches a concept, not when it is a cover page, table of contents or references.

Page content:
%s`, page.Text)

	reply, err := r.llm.Generate(ctx, nil, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze page: %w", err)
	}

	payload := llm.ExtractJSONObject(reply)
	if payload == "" {
		return nil, fmt.Errorf("page analysis reply contained no JSON object")
	}
	var analysis models.PageAnalysis
	if err := json.Unmarshal([]byte(payload), &analysis); err != nil {
		return nil, fmt.Errorf("page analysis reply did not parse: %w", err)
	}
	return &analysis, nil
}

// buildQuery joins the top topics into one search query.
func buildQuery(topics []string) string {
	if len(topics) > 3 {
		topics = topics[:3]
	}
	return strings.Join(topics, " ")
}

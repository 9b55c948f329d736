package recommend

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"smartlearn/internal/models"
	"smartlearn/pkg/logger"
)

// YouTubeSource searches the YouTube Data API for educational videos.
type YouTubeSource struct {
	service *youtube.Service
	log     *logger.Logger
}

// NewYouTubeSource creates a YouTubeSource backed by the Data API v3.
func NewYouTubeSource(ctx context.Context, apiKey string, log *logger.Logger) (*YouTubeSource, error) {
	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube service: %w", err)
	}
	return &YouTubeSource{service: service, log: log}, nil
}

// Search runs a video search for the query and maps the hits into
// recommendations.
func (s *YouTubeSource) Search(ctx context.Context, query string, max int) ([]models.VideoRecommendation, error) {
	call := s.service.Search.List([]string{"snippet"}).
		Context(ctx).
		Q(query).
		Type("video").
		SafeSearch("strict").
		MaxResults(int64(max))

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search failed: %w", err)
	}

	videos := make([]models.VideoRecommendation, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		rec := models.VideoRecommendation{
			VideoID:      item.Id.VideoId,
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
			Description:  item.Snippet.Description,
			URL:          "https://www.youtube.com/watch?v=" + item.Id.VideoId,
		}
		if item.Snippet.Thumbnails != nil && item.Snippet.Thumbnails.Medium != nil {
			rec.ThumbnailURL = item.Snippet.Thumbnails.Medium.Url
		}
		videos = append(videos, rec)
	}
	return videos, nil
}

var _ Source = (*YouTubeSource)(nil)

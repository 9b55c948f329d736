package models

// VideoRecommendation is one suggested video for a page of study material.
type VideoRecommendation struct {
	VideoID      string `json:"videoId,omitempty"`
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle,omitempty"`
	Description  string `json:"description,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	URL          string `json:"url"`
}

// PageAnalysis is the LLM's topical assessment of a page, used to decide
// whether video recommendations are worth fetching at all.
type PageAnalysis struct {
	IsEducational    bool     `json:"isEducational"`
	Topics           []string `json:"topics"`
	EducationalScore float64  `json:"educationalScore"`
}

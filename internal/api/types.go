// Package api provides a rate-limited client for the webtoon analytics
// backend.
package api

import (
	"encoding/json"

	"github.com/webtoonlab/tagnet/internal/network"
	"github.com/webtoonlab/tagnet/internal/webtoon"
)

// envelope wraps every analytics response.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// NetworkQuery scopes a network request.
type NetworkQuery struct {
	SelectedTags   []string
	MinCorrelation float64
	MaxNodes       int
}

// NetworkPayload is the data of the network endpoint.
type NetworkPayload struct {
	Nodes         []network.Node         `json:"nodes"`
	Links         []network.Edge         `json:"links"`
	Summary       network.Summary        `json:"summary"`
	AnalysisStats *webtoon.AnalysisStats `json:"analysis_stats,omitempty"`
}

// RecommendationRequest is the body of the enhanced recommendation endpoint.
type RecommendationRequest struct {
	Title       string  `json:"title"`
	Limit       int     `json:"limit"`
	UseTFIDF    bool    `json:"use_tfidf"`
	TFIDFWeight float64 `json:"tfidf_weight"`
}

type plainRecommendationRequest struct {
	Title string `json:"title"`
	Limit int    `json:"limit"`
}

type keywordRequest struct {
	Text        string `json:"text"`
	MaxKeywords int    `json:"max_keywords"`
}

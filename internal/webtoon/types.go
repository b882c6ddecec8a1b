// Package webtoon defines the records served by the webtoon analytics backend
// and the sample data shown when it is unreachable.
package webtoon

import "github.com/webtoonlab/tagnet/internal/tag"

// Webtoon is one ranked title.
type Webtoon struct {
	Rank          int      `json:"rank"`
	Title         string   `json:"title"`
	Summary       string   `json:"summary,omitempty"`
	Tags          []string `json:"tags"`
	InterestCount int      `json:"interest_count"`
	Rating        float64  `json:"rating"`
	Gender        string   `json:"gender,omitempty"`
	Ages          string   `json:"ages,omitempty"`
}

// Demographic returns the "gender-ages" label used by the heatmap.
func (w Webtoon) Demographic() string {
	if w.Gender == "" || w.Ages == "" {
		return ""
	}
	return w.Gender + "-" + w.Ages
}

// Stats are the headline dashboard numbers.
type Stats struct {
	TotalWebtoons    int     `json:"total_webtoons"`
	AvgRating        float64 `json:"avg_rating"`
	AvgInterest      float64 `json:"avg_interest"`
	UniqueTags       int     `json:"unique_tags"`
	TFIDFFeatures    int     `json:"tfidf_features,omitempty"`
	AnalysisEnhanced bool    `json:"analysis_enhanced,omitempty"`
}

// TagNode is a node of the legacy tag-analysis payload.
type TagNode struct {
	ID    string  `json:"id"`
	Count int     `json:"count"`
	Size  float64 `json:"size"`
}

// TagAnalysis is the payload of the tag analysis endpoint.
type TagAnalysis struct {
	TagFrequency []tag.Frequency `json:"tag_frequency"`
	NetworkNodes []TagNode       `json:"network_nodes,omitempty"`
}

// HeatmapCell is one genre by demographic count.
type HeatmapCell struct {
	X           int     `json:"x"`
	Y           int     `json:"y"`
	Value       float64 `json:"value"`
	Genre       string  `json:"genre"`
	Demographic string  `json:"demographic"`
	Count       int     `json:"count"`
}

// Recommendation is a similar title with its similarity breakdown.
type Recommendation struct {
	Webtoon
	Similarity        float64  `json:"similarity"`
	JaccardSimilarity float64  `json:"jaccard_similarity,omitempty"`
	TFIDFSimilarity   float64  `json:"tfidf_similarity,omitempty"`
	CommonTags        []string `json:"common_tags,omitempty"`
	TargetKeywords    []string `json:"target_keywords,omitempty"`
	CandidateKeywords []string `json:"candidate_keywords,omitempty"`
	AnalysisMethod    string   `json:"analysis_method,omitempty"`
}

// Keyword is a TF-IDF keyword with its score.
type Keyword struct {
	Keyword  string  `json:"keyword"`
	Score    float64 `json:"score,omitempty"`
	AvgScore float64 `json:"avg_score,omitempty"`
	Rank     int     `json:"rank"`
}

// TFIDFAnalysis is the corpus-wide keyword analysis.
type TFIDFAnalysis struct {
	GlobalKeywords  []Keyword            `json:"global_keywords"`
	WebtoonKeywords map[string][]Keyword `json:"webtoon_keywords,omitempty"`
	TotalFeatures   int                  `json:"total_features"`
	TotalDocuments  int                  `json:"total_documents"`
	AnalysisMethod  string               `json:"analysis_method,omitempty"`
}

// SummaryKeywords are keywords extracted from free text.
type SummaryKeywords struct {
	Keywords []Keyword `json:"keywords"`
	Text     string    `json:"text,omitempty"`
}

// Similarity compares two titles.
type Similarity struct {
	Title1            string   `json:"title1"`
	Title2            string   `json:"title2"`
	Similarity        float64  `json:"similarity"`
	JaccardSimilarity float64  `json:"jaccard_similarity"`
	TFIDFSimilarity   float64  `json:"tfidf_similarity"`
	CommonTags        []string `json:"common_tags,omitempty"`
	CommonKeywords    []string `json:"common_keywords,omitempty"`
}

// Health is the backend health report.
type Health struct {
	Status     string `json:"status"`
	TFIDFReady bool   `json:"tfidf_ready"`
}

// Healthy reports whether the backend said it is up.
func (h Health) Healthy() bool {
	return h.Status == "healthy" || h.Status == "ok"
}

// AnalysisStats describes the corpus behind a network payload.
type AnalysisStats struct {
	TotalUniqueTags      int     `json:"total_unique_tags"`
	FrequentTagsCount    int     `json:"frequent_tags_count"`
	CorrelationThreshold float64 `json:"correlation_threshold"`
}

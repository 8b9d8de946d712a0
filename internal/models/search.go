package models

import "fmt"

// Search modes supported by the query surface.
const (
	ModeSemantic = "semantic"
	ModeKeyword  = "keyword"
)

// SearchRequest is a project-scoped search request.
// MinSimilarity is a percentage (0-100), matching what the query surface exposes.
type SearchRequest struct {
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results,omitempty"`
	MinSimilarity int    `json:"min_similarity,omitempty"`
	Mode          string `json:"mode,omitempty"`
}

// Validate normalizes the request and returns an error if the query is empty.
func (r *SearchRequest) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if r.MaxResults <= 0 {
		r.MaxResults = 5
	}
	if r.MaxResults > 20 {
		r.MaxResults = 20
	}
	if r.MinSimilarity < 0 {
		r.MinSimilarity = 0
	}
	if r.MinSimilarity > 100 {
		r.MinSimilarity = 100
	}
	switch r.Mode {
	case "":
		r.Mode = ModeSemantic
	case ModeSemantic, ModeKeyword:
	default:
		return fmt.Errorf("unknown search mode: %s", r.Mode)
	}
	return nil
}

// Threshold returns MinSimilarity as a similarity score in [0,1].
func (r *SearchRequest) Threshold() float64 {
	return float64(r.MinSimilarity) / 100.0
}

// SearchResult is a single ranked hit mapped back to its source document.
type SearchResult struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	FileType   string  `json:"file_type"`
	Text       string  `json:"document_text"`
	Score      float64 `json:"score"`
	// SimilarityPercentage is round(Score*100).
	SimilarityPercentage int `json:"similarity_percentage"`
	// Relevance is a display bucket derived from SimilarityPercentage; it is
	// presentational only and never feeds back into ranking.
	Relevance string `json:"relevance"`
	Row       int    `json:"row"`
}

// Relevance buckets for display.
const (
	RelevanceHigh     = "high"
	RelevanceMedium   = "medium"
	RelevanceLow      = "low"
	RelevanceMarginal = "marginal"
)

// RelevanceBucket maps a similarity percentage to its display bucket.
func RelevanceBucket(percentage int) string {
	switch {
	case percentage >= 70:
		return RelevanceHigh
	case percentage >= 50:
		return RelevanceMedium
	case percentage >= 30:
		return RelevanceLow
	default:
		return RelevanceMarginal
	}
}

// SearchResponse is the response for a project search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	Query     string          `json:"query"`
	Mode      string          `json:"mode"`
	QueryTime int64           `json:"query_time_ms"`
}

// Package search serves suggestion search: Meilisearch when reachable, with
// a Postgres substring fallback so the endpoint keeps working while the index
// is down.
package search

import (
	"context"

	"trendstage/api/internal/store"
)

// Record is the data we index for one suggestion.
type Record struct {
	ID           string  `json:"id"`
	ProductID    string  `json:"productId"`
	ProductTitle string  `json:"productTitle"`
	TrendName    string  `json:"trendName"`
	Summary      string  `json:"summary"`
	Score        float64 `json:"score"`
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Record `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Fallback is the store-backed search used when Meilisearch is unavailable.
type Fallback interface {
	SearchSuggestions(ctx context.Context, q string, limit int) ([]store.Suggestion, error)
}

func recordFromSuggestion(s store.Suggestion) Record {
	return Record{
		ID:           s.ID,
		ProductID:    s.ProductID,
		ProductTitle: s.ProductTitle,
		TrendName:    s.TrendName,
		Summary:      s.Summary,
		Score:        s.Score,
	}
}

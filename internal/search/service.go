package search

import (
	"context"
	"log"

	"trendstage/api/internal/store"
)

// Service is the facade that tries Meilisearch first and falls back to the
// suggestion store's substring search.
type Service struct {
	meili    *Meili
	fallback Fallback
}

// NewService creates a search service. meili may be nil when Meilisearch is
// not configured; fallback may be nil when no database is configured.
func NewService(meili *Meili, fallback Fallback) *Service {
	return &Service{meili: meili, fallback: fallback}
}

// Search tries Meilisearch if healthy, otherwise the store fallback.
func (s *Service) Search(ctx context.Context, q string, limit int) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q, limit)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q}
		}
		log.Printf("search: meilisearch error, falling back to store: %v", err)
	}

	if s.fallback == nil {
		return Response{Results: []Record{}, Total: 0, Query: q}
	}

	suggestions, err := s.fallback.SearchSuggestions(ctx, q, limit)
	if err != nil {
		log.Printf("search: fallback error: %v", err)
		return Response{Results: []Record{}, Total: 0, Query: q}
	}
	results := make([]Record, 0, len(suggestions))
	for _, suggestion := range suggestions {
		results = append(results, recordFromSuggestion(suggestion))
	}
	return Response{Results: results, Total: len(results), Query: q}
}

// IndexSuggestion pushes one suggestion into the index, fire-and-forget.
func (s *Service) IndexSuggestion(suggestion store.Suggestion) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	record := recordFromSuggestion(suggestion)
	go func() {
		if err := s.meili.IndexSuggestion(record); err != nil {
			log.Printf("search: index suggestion %s: %v", record.ID, err)
		}
	}()
}

func nonNil(r []Record) []Record {
	if r == nil {
		return []Record{}
	}
	return r
}

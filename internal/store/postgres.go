package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore persists trend suggestions produced by the AI pipeline. The
// proposal lifecycle never depends on it; the whole suggestions surface is
// disabled when no database is configured.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) InsertSuggestion(ctx context.Context, suggestion Suggestion) error {
	const insert = `
		INSERT INTO suggestions (id, product_id, product_title, trend_name, summary, score, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	payload := suggestion.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	if _, err := s.db.ExecContext(ctx, insert,
		suggestion.ID,
		suggestion.ProductID,
		suggestion.ProductTitle,
		suggestion.TrendName,
		suggestion.Summary,
		suggestion.Score,
		[]byte(payload),
	); err != nil {
		return fmt.Errorf("insert suggestion: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSuggestion(ctx context.Context, id string) (Suggestion, error) {
	const query = `
		SELECT id, product_id, product_title, trend_name, summary, score, payload, created_at
		FROM suggestions WHERE id = $1
	`
	var suggestion Suggestion
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&suggestion.ID,
		&suggestion.ProductID,
		&suggestion.ProductTitle,
		&suggestion.TrendName,
		&suggestion.Summary,
		&suggestion.Score,
		&suggestion.Payload,
		&suggestion.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Suggestion{}, ErrNotFound
	}
	if err != nil {
		return Suggestion{}, fmt.Errorf("get suggestion: %w", err)
	}
	return suggestion, nil
}

func (s *PostgresStore) ListSuggestions(ctx context.Context, limit int) ([]Suggestion, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const query = `
		SELECT id, product_id, product_title, trend_name, summary, score, payload, created_at
		FROM suggestions
		ORDER BY created_at DESC
		LIMIT $1
	`
	return s.querySuggestions(ctx, query, limit)
}

// SearchSuggestions is the fallback search path when Meilisearch is down or
// not configured: a case-insensitive substring match over the text columns.
func (s *PostgresStore) SearchSuggestions(ctx context.Context, q string, limit int) ([]Suggestion, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const query = `
		SELECT id, product_id, product_title, trend_name, summary, score, payload, created_at
		FROM suggestions
		WHERE trend_name ILIKE '%' || $1 || '%'
		   OR product_title ILIKE '%' || $1 || '%'
		   OR summary ILIKE '%' || $1 || '%'
		ORDER BY score DESC, created_at DESC
		LIMIT $2
	`
	return s.querySuggestions(ctx, query, q, limit)
}

func (s *PostgresStore) querySuggestions(ctx context.Context, query string, args ...any) ([]Suggestion, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query suggestions: %w", err)
	}
	defer rows.Close()

	var items []Suggestion
	for rows.Next() {
		var suggestion Suggestion
		if err := rows.Scan(
			&suggestion.ID,
			&suggestion.ProductID,
			&suggestion.ProductTitle,
			&suggestion.TrendName,
			&suggestion.Summary,
			&suggestion.Score,
			&suggestion.Payload,
			&suggestion.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan suggestion: %w", err)
		}
		items = append(items, suggestion)
	}
	return items, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

package postgres

import (
	"context"

	"github.com/steadyhq/steady/internal/domain"
)

// UpsertScore inserts or replaces the quality score for a component.
func (r *Repository) UpsertScore(ctx context.Context, score *domain.ComponentScore) error {
	const query = `INSERT INTO component_scores (id, component, score, accessibility, performance, summary, model, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (component) DO UPDATE SET
			score = EXCLUDED.score,
			accessibility = EXCLUDED.accessibility,
			performance = EXCLUDED.performance,
			summary = EXCLUDED.summary,
			model = EXCLUDED.model,
			updated_at = EXCLUDED.updated_at`
	_, err := r.pool.Exec(ctx, query,
		score.ID,
		score.Component,
		score.Score,
		score.Accessibility,
		score.Performance,
		score.Summary,
		score.Model,
		score.CreatedAt,
		score.UpdatedAt,
	)
	return mapWriteError(err)
}

// ListScores returns component scores ordered by most recently updated.
func (r *Repository) ListScores(ctx context.Context, limit int) ([]domain.ComponentScore, error) {
	const query = `SELECT id, component, score, accessibility, performance, summary, model, created_at, updated_at
		FROM component_scores
		ORDER BY updated_at DESC
		LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]domain.ComponentScore, 0)
	for rows.Next() {
		var s domain.ComponentScore
		if err := rows.Scan(&s.ID, &s.Component, &s.Score, &s.Accessibility, &s.Performance, &s.Summary, &s.Model, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		scores = append(scores, s)
	}
	return scores, rows.Err()
}

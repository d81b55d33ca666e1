package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/steadyhq/steady/internal/domain"
	"github.com/steadyhq/steady/internal/repository"
)

// CreateSubmission inserts a contact submission.
func (r *Repository) CreateSubmission(ctx context.Context, submission *domain.ContactSubmission) error {
	const query = `INSERT INTO contact_submissions (id, name, email, company, budget, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query,
		submission.ID,
		submission.Name,
		submission.Email,
		submission.Company,
		submission.Budget,
		submission.Message,
		submission.Status,
		submission.CreatedAt,
		submission.UpdatedAt,
	)
	return mapWriteError(err)
}

// GetSubmissionByID fetches a contact submission.
func (r *Repository) GetSubmissionByID(ctx context.Context, id string) (*domain.ContactSubmission, error) {
	const query = `SELECT id, name, email, company, budget, message, status, created_at, updated_at
		FROM contact_submissions WHERE id = $1`
	row := r.pool.QueryRow(ctx, query, id)
	var s domain.ContactSubmission
	if err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Company, &s.Budget, &s.Message, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListSubmissions returns submissions newest first.
func (r *Repository) ListSubmissions(ctx context.Context, limit, offset int) ([]domain.ContactSubmission, error) {
	const query = `SELECT id, name, email, company, budget, message, status, created_at, updated_at
		FROM contact_submissions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	submissions := make([]domain.ContactSubmission, 0)
	for rows.Next() {
		var s domain.ContactSubmission
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Company, &s.Budget, &s.Message, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

// UpdateSubmissionStatus mutates the status of a submission.
func (r *Repository) UpdateSubmissionStatus(ctx context.Context, id, status string) error {
	const query = `UPDATE contact_submissions SET status = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, status)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

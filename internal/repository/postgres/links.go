package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/steadyhq/steady/internal/domain"
	"github.com/steadyhq/steady/internal/repository"
)

// CreateLink inserts a short link.
func (r *Repository) CreateLink(ctx context.Context, link *domain.ShortLink) error {
	const query = `INSERT INTO short_links (id, code, destination_url, domain, campaign, created_by, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query,
		link.ID,
		link.Code,
		link.DestinationURL,
		link.Domain,
		link.Campaign,
		link.CreatedBy,
		link.Active,
		link.CreatedAt,
		link.UpdatedAt,
	)
	return mapWriteError(err)
}

// GetLinkByCode fetches a short link by its code.
func (r *Repository) GetLinkByCode(ctx context.Context, code string) (*domain.ShortLink, error) {
	const query = `SELECT id, code, destination_url, domain, campaign, created_by, active, created_at, updated_at
		FROM short_links WHERE code = $1`
	row := r.pool.QueryRow(ctx, query, code)
	var link domain.ShortLink
	if err := row.Scan(
		&link.ID,
		&link.Code,
		&link.DestinationURL,
		&link.Domain,
		&link.Campaign,
		&link.CreatedBy,
		&link.Active,
		&link.CreatedAt,
		&link.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &link, nil
}

// ListLinks returns recent links with aggregate click counts.
func (r *Repository) ListLinks(ctx context.Context, limit int) ([]domain.LinkWithStats, error) {
	const query = `SELECT l.id, l.code, l.destination_url, l.domain, l.campaign, l.created_by, l.active, l.created_at, l.updated_at,
			COUNT(c.id) AS click_count
		FROM short_links l
		LEFT JOIN link_clicks c ON c.link_id = l.id
		GROUP BY l.id
		ORDER BY l.created_at DESC
		LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := make([]domain.LinkWithStats, 0)
	for rows.Next() {
		var link domain.LinkWithStats
		if err := rows.Scan(
			&link.ID,
			&link.Code,
			&link.DestinationURL,
			&link.Domain,
			&link.Campaign,
			&link.CreatedBy,
			&link.Active,
			&link.CreatedAt,
			&link.UpdatedAt,
			&link.ClickCount,
		); err != nil {
			return nil, err
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// InsertClick stores a click row.
func (r *Repository) InsertClick(ctx context.Context, click *domain.LinkClick) error {
	const query = `INSERT INTO link_clicks (link_id, referrer, user_agent, ip, occurred_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	row := r.pool.QueryRow(ctx, query, click.LinkID, click.Referrer, click.UserAgent, click.IP, click.OccurredAt)
	if err := row.Scan(&click.ID); err != nil {
		return mapWriteError(err)
	}
	return nil
}

// ListClicksByLink returns recent clicks for a link, newest first.
func (r *Repository) ListClicksByLink(ctx context.Context, linkID string, limit, offset int) ([]domain.LinkClick, error) {
	const query = `SELECT id, link_id, referrer, user_agent, ip, occurred_at
		FROM link_clicks WHERE link_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, linkID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clicks := make([]domain.LinkClick, 0)
	for rows.Next() {
		var click domain.LinkClick
		if err := rows.Scan(&click.ID, &click.LinkID, &click.Referrer, &click.UserAgent, &click.IP, &click.OccurredAt); err != nil {
			return nil, err
		}
		clicks = append(clicks, click)
	}
	return clicks, rows.Err()
}

package postgres

import (
	"context"

	"github.com/steadyhq/steady/internal/domain"
)

// UpsertSetting inserts or replaces a site setting row. A file-sourced write
// never downgrades an existing override row.
func (r *Repository) UpsertSetting(ctx context.Context, setting *domain.SiteSetting) error {
	const query = `INSERT INTO site_settings (key, value, source, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET
			value = EXCLUDED.value,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at
		WHERE site_settings.source <> 'override' OR EXCLUDED.source = 'override'`
	_, err := r.pool.Exec(ctx, query, setting.Key, setting.Value, setting.Source, setting.UpdatedAt)
	return mapWriteError(err)
}

// ListSettings returns all site settings rows.
func (r *Repository) ListSettings(ctx context.Context) ([]domain.SiteSetting, error) {
	const query = `SELECT key, value, source, updated_at FROM site_settings ORDER BY key`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make([]domain.SiteSetting, 0)
	for rows.Next() {
		var s domain.SiteSetting
		if err := rows.Scan(&s.Key, &s.Value, &s.Source, &s.UpdatedAt); err != nil {
			return nil, err
		}
		settings = append(settings, s)
	}
	return settings, rows.Err()
}

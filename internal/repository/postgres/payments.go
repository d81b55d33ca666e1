package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/steadyhq/steady/internal/domain"
	"github.com/steadyhq/steady/internal/repository"
)

// CreatePreference inserts a payment preference.
func (r *Repository) CreatePreference(ctx context.Context, pref *domain.PaymentPreference) error {
	const query = `INSERT INTO payment_preferences (id, reference, title, amount_cents, currency, checkout_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.pool.Exec(ctx, query,
		pref.ID,
		pref.Reference,
		pref.Title,
		pref.AmountCents,
		pref.Currency,
		pref.CheckoutURL,
		pref.Status,
		pref.CreatedAt,
		pref.UpdatedAt,
	)
	return mapWriteError(err)
}

// GetPreferenceByReference fetches a preference by its provider reference.
func (r *Repository) GetPreferenceByReference(ctx context.Context, reference string) (*domain.PaymentPreference, error) {
	const query = `SELECT id, reference, title, amount_cents, currency, checkout_url, status, created_at, updated_at
		FROM payment_preferences WHERE reference = $1`
	row := r.pool.QueryRow(ctx, query, reference)
	var pref domain.PaymentPreference
	if err := row.Scan(&pref.ID, &pref.Reference, &pref.Title, &pref.AmountCents, &pref.Currency, &pref.CheckoutURL, &pref.Status, &pref.CreatedAt, &pref.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &pref, nil
}

// UpdatePreferenceStatus mutates the status of a preference.
func (r *Repository) UpdatePreferenceStatus(ctx context.Context, reference, status string) error {
	const query = `UPDATE payment_preferences SET status = $2, updated_at = NOW() WHERE reference = $1`
	tag, err := r.pool.Exec(ctx, query, reference, status)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// InsertPaymentEvent stores a webhook event row.
func (r *Repository) InsertPaymentEvent(ctx context.Context, event *domain.PaymentEvent) error {
	const query = `INSERT INTO payment_events (provider_event_id, event_type, resource_id, payload, received_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	row := r.pool.QueryRow(ctx, query, event.ProviderEventID, event.EventType, event.ResourceID, event.Payload, event.ReceivedAt)
	if err := row.Scan(&event.ID); err != nil {
		return mapWriteError(err)
	}
	return nil
}

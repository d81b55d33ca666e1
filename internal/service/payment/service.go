package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"log/slog"

	retry "github.com/avast/retry-go/v4"
	"github.com/google/uuid"

	"github.com/steadyhq/steady/internal/config"
	"github.com/steadyhq/steady/internal/domain"
	"github.com/steadyhq/steady/internal/repository"
)

const (
	providerTimeout = 30 * time.Second
	maxAttempts     = 3
)

// Webhook event types understood by the status switch.
const (
	EventPaymentApproved = "payment.approved"
	EventPaymentRejected = "payment.rejected"
	EventPaymentRefunded = "payment.refunded"
)

var (
	errMissingTitle     = errors.New("title is required")
	errInvalidAmount    = errors.New("amount_cents must be positive")
	errMissingSignature = errors.New("missing webhook signature")
	errInvalidSignature = errors.New("invalid webhook signature")

	// ErrProvider wraps payment provider failures.
	ErrProvider = errors.New("payment provider request failed")
)

// Service creates checkout preferences and processes provider webhooks.
type Service struct {
	repo   repository.PaymentRepository
	client *http.Client
	logger *slog.Logger
	cfg    config.Config
	now    func() time.Time
}

// New constructs a payment service.
func New(repo repository.PaymentRepository, logger *slog.Logger, cfg config.Config) Service {
	return Service{
		repo:   repo,
		client: &http.Client{Timeout: providerTimeout},
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// PreferenceInput carries fields for a new checkout preference.
type PreferenceInput struct {
	Title       string `json:"title"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// preferenceResponse is the provider's answer to a preference creation.
type preferenceResponse struct {
	ID          string `json:"id"`
	CheckoutURL string `json:"init_point"`
}

// CreatePreference registers a checkout with the provider and stores the row.
func (s Service) CreatePreference(ctx context.Context, input PreferenceInput) (*domain.PaymentPreference, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errMissingTitle
	}
	if input.AmountCents <= 0 {
		return nil, errInvalidAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "USD"
	}

	reference := uuid.NewString()
	body, err := json.Marshal(map[string]any{
		"external_reference": reference,
		"items": []map[string]any{{
			"title":       title,
			"quantity":    1,
			"unit_price":  float64(input.AmountCents) / 100,
			"currency_id": currency,
		}},
	})
	if err != nil {
		return nil, err
	}

	var provider preferenceResponse
	err = retry.Do(
		func() error {
			resp, err := s.postPreference(ctx, body)
			if err != nil {
				return err
			}
			provider = *resp
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(maxAttempts),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var te transientError
			return errors.As(err, &te)
		}),
	)
	if err != nil {
		s.logger.Error("preference creation failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	now := s.now().UTC()
	pref := &domain.PaymentPreference{
		ID:          provider.ID,
		Reference:   reference,
		Title:       title,
		AmountCents: input.AmountCents,
		Currency:    currency,
		CheckoutURL: provider.CheckoutURL,
		Status:      domain.PaymentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreatePreference(ctx, pref); err != nil {
		return nil, err
	}
	s.logger.Info("payment preference created", "reference", reference, "preference_id", pref.ID)
	return pref, nil
}

type transientError struct{ err error }

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

func (s Service) postPreference(ctx context.Context, body []byte) (*preferenceResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.PaymentBaseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.PaymentAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, transientError{err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, transientError{err: err}
	}
	if resp.StatusCode >= 500 {
		return nil, transientError{err: fmt.Errorf("provider returned %s", resp.Status)}
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("provider rejected preference: %s", resp.Status)
	}
	var parsed preferenceResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	if parsed.ID == "" {
		return nil, errors.New("provider returned no preference id")
	}
	return &parsed, nil
}

// ValidateSignature checks the HMAC-SHA256 hex signature for payload. Hex
// digests are compared case-insensitively.
func (s Service) ValidateSignature(payload []byte, provided string) error {
	provided = strings.ToLower(strings.TrimSpace(provided))
	if provided == "" {
		return errMissingSignature
	}
	hasher := hmac.New(sha256.New, []byte(s.cfg.PaymentWebhookSecret))
	hasher.Write(payload)
	expected := hex.EncodeToString(hasher.Sum(nil))
	if !hmac.Equal([]byte(provided), []byte(expected)) {
		return errInvalidSignature
	}
	return nil
}

// webhookPayload is the provider notification body.
type webhookPayload struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Reference string `json:"external_reference"`
}

// ProcessWebhook verifies the signature, records the event, and applies the
// status transition for known event types. Unknown types are stored and
// acknowledged without a status change.
func (s Service) ProcessWebhook(ctx context.Context, body []byte, signature string) error {
	if err := s.ValidateSignature(body, signature); err != nil {
		return err
	}
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode webhook payload: %w", err)
	}
	event := &domain.PaymentEvent{
		ProviderEventID: payload.ID,
		EventType:       payload.Type,
		ResourceID:      payload.Reference,
		Payload:         json.RawMessage(body),
		ReceivedAt:      s.now().UTC(),
	}
	if err := s.repo.InsertPaymentEvent(ctx, event); err != nil {
		return err
	}

	var status string
	switch payload.Type {
	case EventPaymentApproved:
		status = domain.PaymentStatusApproved
	case EventPaymentRejected:
		status = domain.PaymentStatusRejected
	case EventPaymentRefunded:
		status = domain.PaymentStatusRefunded
	default:
		s.logger.Info("unhandled webhook event", "type", payload.Type, "event_id", payload.ID)
		return nil
	}
	if err := s.repo.UpdatePreferenceStatus(ctx, payload.Reference, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("webhook for unknown preference", "reference", payload.Reference, "type", payload.Type)
			return nil
		}
		return err
	}
	s.logger.Info("payment status updated", "reference", payload.Reference, "status", status)
	return nil
}

// IsSignatureError reports whether err is a signature validation failure.
func IsSignatureError(err error) bool {
	return errors.Is(err, errMissingSignature) || errors.Is(err, errInvalidSignature)
}

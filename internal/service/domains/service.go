// Package domains wraps the registrar HTTP API for search and purchase.
package domains

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"log/slog"

	retry "github.com/avast/retry-go/v4"

	"github.com/steadyhq/steady/internal/config"
)

const (
	registrarTimeout = 15 * time.Second
	maxAttempts      = 3
)

var (
	errMissingQuery  = errors.New("search query is required")
	errMissingDomain = errors.New("domain is required")

	// ErrRegistrar wraps registrar API failures.
	ErrRegistrar = errors.New("registrar request failed")
)

// Service relays domain search and purchase calls.
type Service struct {
	client *http.Client
	logger *slog.Logger
	cfg    config.Config
}

// New constructs a domains service.
func New(logger *slog.Logger, cfg config.Config) Service {
	return Service{
		client: &http.Client{Timeout: registrarTimeout},
		logger: logger,
		cfg:    cfg,
	}
}

// transientError marks failures worth retrying (network errors, 5xx).
type transientError struct{ err error }

func (e transientError) Error() string { return e.err.Error() }
func (e transientError) Unwrap() error { return e.err }

func retryOptions(ctx context.Context) []retry.Option {
	return []retry.Option{
		retry.Context(ctx),
		retry.Attempts(maxAttempts),
		retry.Delay(500 * time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var te transientError
			return errors.As(err, &te)
		}),
	}
}

// Availability describes one search result.
type Availability struct {
	Domain     string  `json:"domain"`
	Available  bool    `json:"available"`
	PriceCents int64   `json:"price_cents"`
	Currency   string  `json:"currency"`
	Premium    bool    `json:"premium"`
	Score      float64 `json:"score,omitempty"`
}

// Search returns availability and pricing for names matching q. Transient
// registrar failures are retried with backoff; 4xx responses are not.
func (s Service) Search(ctx context.Context, q string) ([]Availability, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, errMissingQuery
	}
	var results []Availability
	err := retry.Do(
		func() error {
			found, err := s.search(ctx, q)
			if err != nil {
				return err
			}
			results = found
			return nil
		},
		retryOptions(ctx)...,
	)
	if err != nil {
		s.logger.Warn("registrar search failed", "query", q, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrRegistrar, err)
	}
	return results, nil
}

func (s Service) search(ctx context.Context, q string) ([]Availability, error) {
	endpoint := s.cfg.RegistrarBaseURL + "/domains:search?keyword=" + url.QueryEscape(q)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.RegistrarAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, transientError{err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return nil, transientError{err: fmt.Errorf("registrar returned %s", resp.Status)}
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("registrar rejected request: %s", resp.Status)
	}
	var parsed struct {
		Results []struct {
			DomainName    string  `json:"domainName"`
			Purchasable   bool    `json:"purchasable"`
			PurchasePrice float64 `json:"purchasePrice"`
			Currency      string  `json:"currency"`
			Premium       bool    `json:"premium"`
		} `json:"results"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode registrar response: %w", err)
	}
	results := make([]Availability, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, Availability{
			Domain:     r.DomainName,
			Available:  r.Purchasable,
			PriceCents: int64(r.PurchasePrice * 100),
			Currency:   r.Currency,
			Premium:    r.Premium,
		})
	}
	return results, nil
}

// Order is the registrar's confirmation of a purchase.
type Order struct {
	Domain    string `json:"domain"`
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// Purchase relays a purchase order for the given domain name.
func (s Service) Purchase(ctx context.Context, domain string) (*Order, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return nil, errMissingDomain
	}
	body, err := json.Marshal(map[string]any{
		"domain": map[string]string{"domainName": domain},
	})
	if err != nil {
		return nil, err
	}

	var order *Order
	err = retry.Do(
		func() error {
			placed, err := s.postOrder(ctx, domain, body)
			if err != nil {
				return err
			}
			order = placed
			return nil
		},
		retryOptions(ctx)...,
	)
	if err != nil {
		s.logger.Warn("registrar purchase failed", "domain", domain, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrRegistrar, err)
	}
	s.logger.Info("domain purchased", "domain", domain, "order_id", order.OrderID)
	return order, nil
}

func (s Service) postOrder(ctx context.Context, domain string, body []byte) (*Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.RegistrarBaseURL+"/domains", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.RegistrarAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, transientError{err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return nil, transientError{err: fmt.Errorf("registrar returned %s", resp.Status)}
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("registrar rejected order: %s", resp.Status)
	}
	var parsed struct {
		Order      int64  `json:"order"`
		DomainName string `json:"domainName"`
		ExpireDate string `json:"expireDate"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode registrar response: %w", err)
	}
	return &Order{
		Domain:    domain,
		OrderID:   fmt.Sprintf("%d", parsed.Order),
		Status:    "registered",
		ExpiresAt: parsed.ExpireDate,
	}, nil
}

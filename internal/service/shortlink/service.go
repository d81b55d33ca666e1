package shortlink

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/steadyhq/steady/internal/domain"
	"github.com/steadyhq/steady/internal/repository"
	"github.com/steadyhq/steady/internal/stream"
)

const (
	defaultClickBuffer = 256
	maxCodeLength      = 64
	insertTimeout      = 5 * time.Second
)

var codePattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]*[a-z0-9])?$`)

var (
	errMissingCode        = errors.New("code is required")
	errInvalidCode        = errors.New("code must be a lowercase slug of at most 64 characters")
	errInvalidDestination = errors.New("destination must be an http or https URL")
)

// Service resolves short links and records clicks.
type Service struct {
	links    repository.LinkRepository
	hub      *stream.Hub
	logger   *slog.Logger
	fallback string
	clicks   chan domain.LinkClick
	now      func() time.Time
}

// New constructs a shortlink service. fallback is the URL visitors are sent to
// when a code cannot be resolved.
func New(links repository.LinkRepository, hub *stream.Hub, logger *slog.Logger, fallback string, buffer int) *Service {
	if buffer <= 0 {
		buffer = defaultClickBuffer
	}
	if hub == nil {
		hub = stream.NewHub()
	}
	return &Service{
		links:    links,
		hub:      hub,
		logger:   logger,
		fallback: fallback,
		clicks:   make(chan domain.LinkClick, buffer),
		now:      time.Now,
	}
}

// CreateInput carries fields for a new short link.
type CreateInput struct {
	Code           string `json:"code"`
	DestinationURL string `json:"destination_url"`
	Domain         string `json:"domain"`
	Campaign       string `json:"campaign"`
	CreatedBy      string `json:"-"`
}

// Create validates and stores a new short link.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.ShortLink, error) {
	code := strings.ToLower(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, errMissingCode
	}
	if len(code) > maxCodeLength || !codePattern.MatchString(code) {
		return nil, errInvalidCode
	}
	dest := strings.TrimSpace(input.DestinationURL)
	parsed, err := url.Parse(dest)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, errInvalidDestination
	}
	now := s.now().UTC()
	link := &domain.ShortLink{
		ID:             uuid.NewString(),
		Code:           code,
		DestinationURL: dest,
		Domain:         strings.TrimSpace(input.Domain),
		Campaign:       strings.TrimSpace(input.Campaign),
		CreatedBy:      input.CreatedBy,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.links.CreateLink(ctx, link); err != nil {
		if errors.Is(err, repository.ErrInvalidArgument) {
			return nil, errors.New("code already in use")
		}
		return nil, err
	}
	s.logger.Info("short link created", "code", code, "link_id", link.ID)
	return link, nil
}

// List returns recent links with click counts.
func (s *Service) List(ctx context.Context, limit int) ([]domain.LinkWithStats, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.links.ListLinks(ctx, limit)
}

// ClickContext captures request attributes recorded with a click.
type ClickContext struct {
	Referrer  string
	UserAgent string
	IP        string
}

// Resolve maps a code to its destination URL. On any failure it returns the
// configured fallback so the visitor is never shown an error; the boolean
// reports whether an active link was found. Successful lookups enqueue a
// click record without blocking the redirect.
func (s *Service) Resolve(ctx context.Context, code string, click ClickContext) (string, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return s.fallback, false
	}
	link, err := s.links.GetLinkByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("short link lookup failed", "code", code, "error", err)
		}
		return s.fallback, false
	}
	if !link.Active {
		return s.fallback, false
	}
	record := domain.LinkClick{
		LinkID:     link.ID,
		Referrer:   click.Referrer,
		UserAgent:  click.UserAgent,
		IP:         click.IP,
		OccurredAt: s.now().UTC(),
	}
	select {
	case s.clicks <- record:
	default:
		s.logger.Warn("click buffer full, dropping click", "link_id", link.ID)
	}
	return link.DestinationURL, true
}

// ListClicks returns recent click rows for a link code.
func (s *Service) ListClicks(ctx context.Context, code string, limit, offset int) ([]domain.LinkClick, error) {
	link, err := s.links.GetLinkByCode(ctx, strings.ToLower(strings.TrimSpace(code)))
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.links.ListClicksByLink(ctx, link.ID, limit, offset)
}

// RecentClicks returns the newest click rows for a link ID, newest first.
func (s *Service) RecentClicks(ctx context.Context, linkID string, limit int) ([]domain.LinkClick, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.links.ListClicksByLink(ctx, linkID, limit, 0)
}

// Hub exposes the click stream hub for HTTP stream handlers.
func (s *Service) Hub() *stream.Hub {
	return s.hub
}

// Run drains the click queue, persisting and broadcasting each click. It
// blocks until the context is cancelled and the queue is empty.
func (s *Service) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case click := <-s.clicks:
					s.store(context.Background(), click)
				default:
					return
				}
			}
		case click := <-s.clicks:
			s.store(ctx, click)
		}
	}
}

func (s *Service) store(ctx context.Context, click domain.LinkClick) {
	insertCtx, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()
	if err := s.links.InsertClick(insertCtx, &click); err != nil {
		s.logger.Warn("click insert failed", "link_id", click.LinkID, "error", err)
		return
	}
	payload, err := MarshalClick(click)
	if err != nil {
		s.logger.Warn("click marshal failed", "error", err)
		return
	}
	s.hub.Broadcast(click.LinkID, payload)
}

// MarshalClick formats a click for streaming payloads.
func MarshalClick(click domain.LinkClick) ([]byte, error) {
	payload := map[string]any{
		"id":          click.ID,
		"link_id":     click.LinkID,
		"referrer":    click.Referrer,
		"user_agent":  click.UserAgent,
		"occurred_at": click.OccurredAt.Format(time.RFC3339Nano),
	}
	return json.Marshal(payload)
}

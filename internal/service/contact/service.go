package contact

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/steadyhq/steady/internal/domain"
	"github.com/steadyhq/steady/internal/repository"
)

const maxMessageLength = 8192

var (
	errMissingName    = errors.New("name is required")
	errInvalidEmail   = errors.New("valid email is required")
	errMissingMessage = errors.New("message is required")
	errMessageTooLong = errors.New("message is too long")
	errInvalidStatus  = errors.New("invalid status")
)

// Service stores and manages contact form submissions.
type Service struct {
	repo   repository.ContactRepository
	logger *slog.Logger
}

// New constructs a contact service.
func New(repo repository.ContactRepository, logger *slog.Logger) Service {
	return Service{repo: repo, logger: logger}
}

// SubmitInput carries fields from the public contact form.
type SubmitInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Budget  string `json:"budget"`
	Message string `json:"message"`
}

// Submit validates and stores a new submission.
func (s Service) Submit(ctx context.Context, input SubmitInput) (*domain.ContactSubmission, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errMissingName
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, errInvalidEmail
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, errMissingMessage
	}
	if len(message) > maxMessageLength {
		return nil, errMessageTooLong
	}
	now := time.Now().UTC()
	submission := &domain.ContactSubmission{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Company:   strings.TrimSpace(input.Company),
		Budget:    strings.TrimSpace(input.Budget),
		Message:   message,
		Status:    domain.ContactStatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateSubmission(ctx, submission); err != nil {
		return nil, err
	}
	s.logger.Info("contact submission stored", "submission_id", submission.ID)
	return submission, nil
}

// List returns submissions newest first.
func (s Service) List(ctx context.Context, limit, offset int) ([]domain.ContactSubmission, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListSubmissions(ctx, limit, offset)
}

// UpdateStatus moves a submission through the review workflow.
func (s Service) UpdateStatus(ctx context.Context, id, status string) (*domain.ContactSubmission, error) {
	status = strings.TrimSpace(status)
	if !domain.ValidContactStatus(status) {
		return nil, errInvalidStatus
	}
	if err := s.repo.UpdateSubmissionStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.repo.GetSubmissionByID(ctx, id)
}

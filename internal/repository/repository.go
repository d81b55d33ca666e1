package repository

import (
	"context"

	"github.com/steadyhq/steady/internal/domain"
)

// UserRepository persists users.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	CountUsers(ctx context.Context) (int, error)
}

// LinkRepository persists short links and their clicks.
type LinkRepository interface {
	CreateLink(ctx context.Context, link *domain.ShortLink) error
	GetLinkByCode(ctx context.Context, code string) (*domain.ShortLink, error)
	ListLinks(ctx context.Context, limit int) ([]domain.LinkWithStats, error)
	InsertClick(ctx context.Context, click *domain.LinkClick) error
	ListClicksByLink(ctx context.Context, linkID string, limit, offset int) ([]domain.LinkClick, error)
}

// ContactRepository stores contact form submissions.
type ContactRepository interface {
	CreateSubmission(ctx context.Context, submission *domain.ContactSubmission) error
	GetSubmissionByID(ctx context.Context, id string) (*domain.ContactSubmission, error)
	ListSubmissions(ctx context.Context, limit, offset int) ([]domain.ContactSubmission, error)
	UpdateSubmissionStatus(ctx context.Context, id, status string) error
}

// ScoreRepository stores component quality scores.
type ScoreRepository interface {
	UpsertScore(ctx context.Context, score *domain.ComponentScore) error
	ListScores(ctx context.Context, limit int) ([]domain.ComponentScore, error)
}

// PaymentRepository stores payment preferences and webhook events.
type PaymentRepository interface {
	CreatePreference(ctx context.Context, pref *domain.PaymentPreference) error
	GetPreferenceByReference(ctx context.Context, reference string) (*domain.PaymentPreference, error)
	UpdatePreferenceStatus(ctx context.Context, reference, status string) error
	InsertPaymentEvent(ctx context.Context, event *domain.PaymentEvent) error
}

// SettingRepository stores site settings rows.
type SettingRepository interface {
	UpsertSetting(ctx context.Context, setting *domain.SiteSetting) error
	ListSettings(ctx context.Context) ([]domain.SiteSetting, error)
}

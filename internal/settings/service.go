// Package settings mirrors the site settings file into the database and
// serves a hot-reloadable snapshot to other services.
package settings

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/steadyhq/steady/internal/crypto"
	"github.com/steadyhq/steady/internal/domain"
	"github.com/steadyhq/steady/internal/repository"
)

var errMissingKey = errors.New("setting key is required")

// secretPrefix marks keys whose override values are encrypted at rest.
const secretPrefix = "secret."

// Service owns the merged settings snapshot. File values are the base layer;
// database overrides written through Override win over the file.
type Service struct {
	repo       repository.SettingRepository
	logger     *slog.Logger
	path       string
	secretsKey string

	mu        sync.RWMutex
	fileVals  map[string]string
	overrides map[string]string
	now       func() time.Time
}

// New constructs a settings service for the given YAML file path.
func New(repo repository.SettingRepository, logger *slog.Logger, path string) *Service {
	return &Service{
		repo:      repo,
		logger:    logger,
		path:      path,
		fileVals:  make(map[string]string),
		overrides: make(map[string]string),
		now:       time.Now,
	}
}

// WithSecrets enables encryption at rest for override values under the
// "secret." key prefix.
func (s *Service) WithSecrets(key string) *Service {
	s.secretsKey = key
	return s
}

// Load parses the settings file, replaces the file layer, and syncs rows to
// the database. A parse failure keeps the previous snapshot.
func (s *Service) Load(ctx context.Context) error {
	k := koanf.New(".")
	if err := k.Load(file.Provider(s.path), yaml.Parser()); err != nil {
		return fmt.Errorf("load settings file: %w", err)
	}
	values := make(map[string]string)
	for _, key := range k.Keys() {
		values[key] = fmt.Sprintf("%v", k.Get(key))
	}

	s.mu.Lock()
	s.fileVals = values
	overridden := make(map[string]struct{}, len(s.overrides))
	for key := range s.overrides {
		overridden[key] = struct{}{}
	}
	s.mu.Unlock()

	// Overridden keys are not synced; the override row must survive reloads.
	now := s.now().UTC()
	for key, value := range values {
		if _, ok := overridden[key]; ok {
			continue
		}
		row := &domain.SiteSetting{Key: key, Value: value, Source: domain.SettingSourceFile, UpdatedAt: now}
		if err := s.repo.UpsertSetting(ctx, row); err != nil {
			s.logger.Warn("setting sync failed", "key", key, "error", err)
		}
	}
	s.logger.Info("settings loaded", "path", s.path, "keys", len(values))
	return nil
}

// Hydrate restores database overrides into the snapshot, typically at boot.
func (s *Service) Hydrate(ctx context.Context) error {
	rows, err := s.repo.ListSettings(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		if row.Source != domain.SettingSourceOverride {
			continue
		}
		value := row.Value
		if s.isSecret(row.Key) {
			plain, err := s.decrypt(value)
			if err != nil {
				s.logger.Warn("secret setting unreadable, skipping", "key", row.Key, "error", err)
				continue
			}
			value = plain
		}
		s.overrides[row.Key] = value
	}
	return nil
}

// Get returns the value for key, preferring overrides, then the file layer,
// then fallback.
func (s *Service) Get(key, fallback string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.overrides[key]; ok {
		return v
	}
	if v, ok := s.fileVals[key]; ok {
		return v
	}
	return fallback
}

// All returns the merged snapshot. Secret values are redacted.
func (s *Service) All() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	merged := make(map[string]string, len(s.fileVals)+len(s.overrides))
	for k, v := range s.fileVals {
		merged[k] = v
	}
	for k, v := range s.overrides {
		merged[k] = v
	}
	for k := range merged {
		if s.isSecret(k) {
			merged[k] = "[encrypted]"
		}
	}
	return merged
}

// Override writes a database override for key and updates the snapshot.
// Values under the "secret." prefix are encrypted before they reach the
// database and never echoed back.
func (s *Service) Override(ctx context.Context, key, value string) (*domain.SiteSetting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errMissingKey
	}
	stored := value
	if s.isSecret(key) {
		sealed, err := crypto.EncryptString(s.secretsKey, value)
		if err != nil {
			return nil, fmt.Errorf("encrypt setting: %w", err)
		}
		stored = base64.StdEncoding.EncodeToString(sealed)
	}
	row := &domain.SiteSetting{
		Key:       key,
		Value:     stored,
		Source:    domain.SettingSourceOverride,
		UpdatedAt: s.now().UTC(),
	}
	if err := s.repo.UpsertSetting(ctx, row); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.overrides[key] = value
	s.mu.Unlock()
	s.logger.Info("setting overridden", "key", key)
	if s.isSecret(key) {
		row.Value = "[encrypted]"
	}
	return row, nil
}

func (s *Service) isSecret(key string) bool {
	return s.secretsKey != "" && strings.HasPrefix(key, secretPrefix)
}

func (s *Service) decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return crypto.DecryptToString(s.secretsKey, raw)
}

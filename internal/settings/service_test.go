package settings

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"log/slog"

	"github.com/steadyhq/steady/internal/domain"
)

func TestLoadMirrorsFileToRepo(t *testing.T) {
	path := writeSettingsFile(t, "site:\n  title: Steady Studio\n  tagline: we build fast sites\n")
	repo := newSettingRepoStub()
	svc := newTestService(repo, path)

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := svc.Get("site.title", ""); got != "Steady Studio" {
		t.Fatalf("unexpected title %q", got)
	}
	if got := svc.Get("site.missing", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	row, ok := repo.rows["site.title"]
	if !ok {
		t.Fatal("expected title row synced")
	}
	if row.Source != domain.SettingSourceFile {
		t.Fatalf("expected file source, got %q", row.Source)
	}
}

func TestLoadFailureKeepsSnapshot(t *testing.T) {
	path := writeSettingsFile(t, "site:\n  title: Steady Studio\n")
	svc := newTestService(newSettingRepoStub(), path)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if err := os.WriteFile(path, []byte("site:\n\ttitle: [broken"), 0o600); err != nil {
		t.Fatalf("write broken file: %v", err)
	}
	if err := svc.Load(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
	if got := svc.Get("site.title", ""); got != "Steady Studio" {
		t.Fatalf("expected previous snapshot retained, got %q", got)
	}
}

func TestOverrideWinsOverFile(t *testing.T) {
	path := writeSettingsFile(t, "site:\n  title: Steady Studio\n")
	repo := newSettingRepoStub()
	svc := newTestService(repo, path)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	if _, err := svc.Override(context.Background(), "site.title", "New Name"); err != nil {
		t.Fatalf("override: %v", err)
	}
	if got := svc.Get("site.title", ""); got != "New Name" {
		t.Fatalf("expected override value, got %q", got)
	}
	row := repo.rows["site.title"]
	if row.Source != domain.SettingSourceOverride {
		t.Fatalf("expected override source, got %q", row.Source)
	}
}

func TestOverrideRequiresKey(t *testing.T) {
	svc := newTestService(newSettingRepoStub(), "")
	if _, err := svc.Override(context.Background(), "  ", "v"); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestLoadDoesNotClobberOverride(t *testing.T) {
	path := writeSettingsFile(t, "site:\n  title: FromFile\n")
	repo := newSettingRepoStub()
	first := newTestService(repo, path)
	if err := first.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := first.Override(context.Background(), "site.title", "Overridden"); err != nil {
		t.Fatalf("override: %v", err)
	}

	if err := first.Load(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	row := repo.rows["site.title"]
	if row.Source != domain.SettingSourceOverride || row.Value != "Overridden" {
		t.Fatalf("file sync clobbered override row: source=%q value=%q", row.Source, row.Value)
	}
	if got := first.Get("site.title", ""); got != "Overridden" {
		t.Fatalf("expected override value after reload, got %q", got)
	}

	// A restart loads the file before hydrating; the override must survive.
	second := newTestService(repo, path)
	if err := second.Load(context.Background()); err != nil {
		t.Fatalf("load after restart: %v", err)
	}
	if err := second.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if got := second.Get("site.title", ""); got != "Overridden" {
		t.Fatalf("override lost across restart, got %q", got)
	}
}

func TestHydrateRestoresOverrides(t *testing.T) {
	repo := newSettingRepoStub()
	repo.rows["site.title"] = &domain.SiteSetting{Key: "site.title", Value: "Persisted", Source: domain.SettingSourceOverride}
	repo.rows["site.tagline"] = &domain.SiteSetting{Key: "site.tagline", Value: "from file", Source: domain.SettingSourceFile}
	svc := newTestService(repo, "")

	if err := svc.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if got := svc.Get("site.title", ""); got != "Persisted" {
		t.Fatalf("expected restored override, got %q", got)
	}
	if got := svc.Get("site.tagline", "fallback"); got != "fallback" {
		t.Fatalf("file rows must not hydrate into overrides, got %q", got)
	}
}

func TestSecretOverrideEncryptedAtRest(t *testing.T) {
	repo := newSettingRepoStub()
	svc := newTestService(repo, "").WithSecrets("master-key")

	row, err := svc.Override(context.Background(), "secret.api_token", "tok-12345")
	if err != nil {
		t.Fatalf("override: %v", err)
	}
	if row.Value != "[encrypted]" {
		t.Fatalf("expected redacted response value, got %q", row.Value)
	}
	stored := repo.rows["secret.api_token"].Value
	if stored == "tok-12345" || strings.Contains(stored, "tok-12345") {
		t.Fatalf("secret stored in plaintext: %q", stored)
	}
	if got := svc.Get("secret.api_token", ""); got != "tok-12345" {
		t.Fatalf("expected plaintext from snapshot, got %q", got)
	}
	if all := svc.All(); all["secret.api_token"] != "[encrypted]" {
		t.Fatalf("expected redacted listing, got %q", all["secret.api_token"])
	}
}

func TestSecretOverrideSurvivesHydrate(t *testing.T) {
	repo := newSettingRepoStub()
	first := newTestService(repo, "").WithSecrets("master-key")
	if _, err := first.Override(context.Background(), "secret.api_token", "tok-12345"); err != nil {
		t.Fatalf("override: %v", err)
	}

	second := newTestService(repo, "").WithSecrets("master-key")
	if err := second.Hydrate(context.Background()); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if got := second.Get("secret.api_token", ""); got != "tok-12345" {
		t.Fatalf("expected decrypted secret after hydrate, got %q", got)
	}
}

func newTestService(repo *settingRepoStub, path string) *Service {
	return New(repo, slog.New(slog.NewTextHandler(io.Discard, nil)), path)
}

func writeSettingsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write settings file: %v", err)
	}
	return path
}

type settingRepoStub struct {
	rows map[string]*domain.SiteSetting
}

func newSettingRepoStub() *settingRepoStub {
	return &settingRepoStub{rows: make(map[string]*domain.SiteSetting)}
}

func (s *settingRepoStub) UpsertSetting(_ context.Context, setting *domain.SiteSetting) error {
	if existing, ok := s.rows[setting.Key]; ok {
		if existing.Source == domain.SettingSourceOverride && setting.Source != domain.SettingSourceOverride {
			return nil
		}
	}
	clone := *setting
	s.rows[setting.Key] = &clone
	return nil
}

func (s *settingRepoStub) ListSettings(_ context.Context) ([]domain.SiteSetting, error) {
	out := make([]domain.SiteSetting, 0, len(s.rows))
	for _, row := range s.rows {
		out = append(out, *row)
	}
	return out, nil
}

// Package quality scores design-system components via the model provider.
package quality

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/steadyhq/steady/internal/domain"
	"github.com/steadyhq/steady/internal/repository"
	"github.com/steadyhq/steady/internal/service/ai"
)

const maxSourceLength = 65536

const analysisInstruction = `You are a design-system reviewer. Given component source code,
respond with only a JSON object: {"score": 0-100, "accessibility": 0-100,
"performance": 0-100, "summary": "<one paragraph>"}.`

var (
	errMissingComponent = errors.New("component name is required")
	errMissingSource    = errors.New("component source is required")
	errSourceTooLong    = errors.New("component source is too long")
)

// Service analyzes components and stores their quality scores.
type Service struct {
	scores repository.ScoreRepository
	client ai.Completer
	model  func() string
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a quality service.
func New(scores repository.ScoreRepository, client ai.Completer, model func() string, logger *slog.Logger) Service {
	return Service{scores: scores, client: client, model: model, logger: logger, now: time.Now}
}

// verdict is the JSON shape expected back from the model.
type verdict struct {
	Score         float64 `json:"score"`
	Accessibility float64 `json:"accessibility"`
	Performance   float64 `json:"performance"`
	Summary       string  `json:"summary"`
}

// Analyze relays component source to the provider and upserts the score row.
func (s Service) Analyze(ctx context.Context, component, source string) (*domain.ComponentScore, error) {
	component = strings.TrimSpace(component)
	if component == "" {
		return nil, errMissingComponent
	}
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errMissingSource
	}
	if len(source) > maxSourceLength {
		return nil, errSourceTooLong
	}
	model := s.model()
	reply, err := s.client.Complete(ctx, model, analysisInstruction, source)
	if err != nil {
		return nil, err
	}
	v, err := parseVerdict(reply)
	if err != nil {
		s.logger.Warn("unparseable analysis verdict", "component", component, "error", err)
		return nil, err
	}
	now := s.now().UTC()
	score := &domain.ComponentScore{
		ID:            uuid.NewString(),
		Component:     component,
		Score:         v.Score,
		Accessibility: v.Accessibility,
		Performance:   v.Performance,
		Summary:       v.Summary,
		Model:         model,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.scores.UpsertScore(ctx, score); err != nil {
		return nil, err
	}
	s.logger.Info("component scored", "component", component, "score", v.Score)
	return score, nil
}

// List returns stored scores, most recently updated first.
func (s Service) List(ctx context.Context, limit int) ([]domain.ComponentScore, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.scores.ListScores(ctx, limit)
}

// parseVerdict extracts the JSON object from a model reply, tolerating
// markdown code fences around it.
func parseVerdict(reply string) (*verdict, error) {
	trimmed := strings.TrimSpace(reply)
	if start := strings.Index(trimmed, "{"); start >= 0 {
		if end := strings.LastIndex(trimmed, "}"); end > start {
			trimmed = trimmed[start : end+1]
		}
	}
	var v verdict
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}
	if v.Score < 0 || v.Score > 100 {
		return nil, fmt.Errorf("verdict score %v out of range", v.Score)
	}
	return &v, nil
}

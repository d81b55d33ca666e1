// Package ai relays prompts to a hosted model provider.
package ai

import (
	"context"
	"errors"
	"strings"

	"log/slog"
)

const maxPromptLength = 16384

var (
	errMissingPrompt = errors.New("prompt is required")
	errPromptTooLong = errors.New("prompt is too long")
)

// Completer abstracts the provider client for testing.
type Completer interface {
	Complete(ctx context.Context, model, system, user string) (string, error)
}

// Service exposes the prompt relay.
type Service struct {
	client Completer
	model  func() string
	logger *slog.Logger
}

// NewService constructs a prompt relay. model is resolved per request so
// settings changes apply without a restart.
func NewService(client Completer, model func() string, logger *slog.Logger) Service {
	return Service{client: client, model: model, logger: logger}
}

// Reply is the prompt relay response.
type Reply struct {
	Reply string `json:"reply"`
	Model string `json:"model"`
}

// Prompt relays a raw prompt and returns the model reply.
func (s Service) Prompt(ctx context.Context, prompt string) (*Reply, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, errMissingPrompt
	}
	if len(prompt) > maxPromptLength {
		return nil, errPromptTooLong
	}
	model := s.model()
	reply, err := s.client.Complete(ctx, model, "", prompt)
	if err != nil {
		return nil, err
	}
	return &Reply{Reply: reply, Model: model}, nil
}

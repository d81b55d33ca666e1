package ai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"log/slog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCompleteReturnsFirstChoice(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello"}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", testLogger())
	reply, err := client.Complete(context.Background(), "test-model", "sys", "hi")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply != "hello" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one request, got %d", calls.Load())
	}
}

func TestCompleteRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"recovered"}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", testLogger())
	reply, err := client.Complete(context.Background(), "test-model", "", "hi")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if reply != "recovered" {
		t.Fatalf("unexpected reply %q", reply)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected three attempts, got %d", calls.Load())
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", testLogger())
	_, err := client.Complete(context.Background(), "test-model", "", "hi")
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected single attempt on 4xx, got %d", calls.Load())
	}
}

func TestCompleteExhaustedRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", testLogger())
	_, err := client.Complete(context.Background(), "test-model", "", "hi")
	if !errors.Is(err, ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected three attempts, got %d", calls.Load())
	}
}

func TestPromptValidation(t *testing.T) {
	svc := NewService(&completerStub{}, func() string { return "m" }, testLogger())
	if _, err := svc.Prompt(context.Background(), "   "); !errors.Is(err, errMissingPrompt) {
		t.Fatalf("expected missing prompt error, got %v", err)
	}
}

func TestPromptStampsModel(t *testing.T) {
	stub := &completerStub{reply: "pong"}
	svc := NewService(stub, func() string { return "gpt-test" }, testLogger())

	reply, err := svc.Prompt(context.Background(), "ping")
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if reply.Reply != "pong" {
		t.Fatalf("unexpected reply %q", reply.Reply)
	}
	if reply.Model != "gpt-test" {
		t.Fatalf("unexpected model %q", reply.Model)
	}
	if stub.lastUser != "ping" {
		t.Fatalf("unexpected user message %q", stub.lastUser)
	}
}

type completerStub struct {
	reply    string
	err      error
	lastUser string
}

func (c *completerStub) Complete(_ context.Context, model, system, user string) (string, error) {
	c.lastUser = user
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

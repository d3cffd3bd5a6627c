package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestConverseDisabledWithoutKey(t *testing.T) {
	c := NewClient(zerolog.Nop(), "http://localhost", "", "model")
	if c.Enabled() {
		t.Fatal("client without key must report disabled")
	}
	_, err := c.Converse(context.Background(), "persona", "ctx", "hi")
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestConverseInjectsContextIntoSystemPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[0].Content, "=== YOUR STATUS ===") {
			t.Errorf("context not injected into system prompt: %q", req.Messages[0].Content)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Hello there."}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(zerolog.Nop(), srv.URL, "test-key", "model")
	reply, err := c.Converse(context.Background(), "You are Aria.", "=== YOUR STATUS ===\n- Name: Aria", "hi")
	if err != nil {
		t.Fatalf("Converse err: %v", err)
	}
	if reply != "Hello there." {
		t.Fatalf("unexpected reply %q", reply)
	}
}

func TestConverseBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(zerolog.Nop(), srv.URL, "test-key", "model")
	if _, err := c.Converse(context.Background(), "p", "", "hi"); err == nil {
		t.Fatal("expected error from backend failure")
	}
}

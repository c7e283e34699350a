package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/connectbase/member-search/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := New(Config{
		Name:       "test",
		APIKey:     "key",
		BaseURL:    server.URL,
		ChatModel:  "chat-model",
		EmbedModel: "embed-model",
		Timeout:    2 * time.Second,
	})
	return client, server
}

func TestEmbedTextsTagsVectorsWithModel(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0.1, 0.2}, "index": 0},
			},
			"model": "embed-model",
		})
	}))

	vectors, err := client.EmbedTexts(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if len(vectors) != 1 {
		t.Fatalf("expected 1 vector, got %d", len(vectors))
	}
	if vectors[0].Model != "test/embed-model" {
		t.Fatalf("expected model tag test/embed-model, got %s", vectors[0].Model)
	}
}

func TestEmbedTextsServerErrorIsTemporary(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"overloaded"}}`, http.StatusServiceUnavailable)
	}))

	_, err := client.EmbedTexts(context.Background(), []string{"hello"})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
}

func TestEmbedTextsBadRequestIsPermanent(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"message":"input too long"}}`, http.StatusBadRequest)
	}))

	_, err := client.EmbedTexts(context.Background(), []string{"hello"})
	if !domain.IsKind(err, domain.ErrProviderPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}

func TestUnderstandParsesStructuredOutput(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		content := `{"intent":"find_service","entities":{"skills":["security"],"location":"Delhi"},"confidence":0.85,"normalized_query":"security audits delhi"}`
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))

	result, err := client.Understand(context.Background(), "who can do security audits in Delhi?", nil)
	if err != nil {
		t.Fatalf("Understand() error = %v", err)
	}
	if result.Intent != domain.IntentFindService {
		t.Fatalf("expected find_service intent, got %s", result.Intent)
	}
	if result.Entities.Location != "Delhi" {
		t.Fatalf("expected Delhi, got %q", result.Entities.Location)
	}
	if result.Source != domain.SourceLLM {
		t.Fatalf("expected llm source, got %s", result.Source)
	}
	if result.NormalizedQuery != "security audits delhi" {
		t.Fatalf("unexpected normalized query %q", result.NormalizedQuery)
	}
}

func TestUnderstandRejectsUnknownIntent(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		content := `{"intent":"order_pizza","confidence":0.9}`
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		})
	}))

	_, err := client.Understand(context.Background(), "anything", nil)
	if !domain.IsKind(err, domain.ErrProviderPermanent) {
		t.Fatalf("schema mismatch must be permanent, got %v", err)
	}
}

func TestParseUnderstandingExtractsEmbeddedJSON(t *testing.T) {
	raw := "Here you go:\n{\"intent\":\"find_member\",\"confidence\":0.7}\nDone."
	result, err := parseUnderstanding("query text", raw)
	if err != nil {
		t.Fatalf("parseUnderstanding() error = %v", err)
	}
	if result.Intent != domain.IntentFindMember {
		t.Fatalf("expected find_member, got %s", result.Intent)
	}
	if result.NormalizedQuery != "query text" {
		t.Fatalf("expected fallback normalized query, got %q", result.NormalizedQuery)
	}
}

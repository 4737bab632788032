package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"anonq/config"
)

func TestGrammarService_NotConfiguredPassesThrough(t *testing.T) {
	svc := NewGrammarService(nil)

	got := svc.Correct(context.Background(), "teh text")
	if got.Corrected != "teh text" {
		t.Fatalf("expected input unchanged, got %q", got.Corrected)
	}
	if got.Error != CorrectionNotConfigured {
		t.Fatalf("expected %q marker, got %q", CorrectionNotConfigured, got.Error)
	}
}

func TestGrammarService_SendsChatRequest(t *testing.T) {
	var seen chatCompletionRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&seen); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"  The text.  "}}]}`))
	}))
	defer srv.Close()

	svc := NewGrammarService(&config.ProviderConfig{
		Provider:    config.ProviderOpenAI,
		URL:         srv.URL,
		APIKey:      "sk-test",
		Model:       "gpt-test",
		MaxTokens:   123,
		Temperature: 0.2,
	})

	got := svc.Correct(context.Background(), "teh text")
	if got.Corrected != "The text." || got.Error != "" {
		t.Fatalf("unexpected correction: %+v", got)
	}
	if auth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if seen.Model != "gpt-test" || seen.MaxTokens != 123 || seen.Temperature != 0.2 {
		t.Fatalf("unexpected request params: %+v", seen)
	}
	if len(seen.Messages) != 2 || seen.Messages[0].Role != "system" || seen.Messages[1].Role != "user" || seen.Messages[1].Content != "teh text" {
		t.Fatalf("unexpected messages: %+v", seen.Messages)
	}
}

func TestGrammarService_CustomEndpointSuffix(t *testing.T) {
	cases := map[string]string{
		"https://llm.local/v1":                  "https://llm.local/v1/chat/completions",
		"https://llm.local/v1/":                 "https://llm.local/v1/chat/completions",
		"https://llm.local/v1/chat/completions": "https://llm.local/v1/chat/completions",
		"https://llm.local/api/generate":        "https://llm.local/api/generate",
	}
	for in, want := range cases {
		svc := NewGrammarService(&config.ProviderConfig{Provider: config.ProviderCustom, URL: in})
		if got := svc.endpoint(); got != want {
			t.Fatalf("endpoint(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGrammarService_CustomFallbackShapes(t *testing.T) {
	bodies := map[string]string{
		"choices":   `{"choices":[{"message":{"content":"fixed"}}]}`,
		"text":      `{"text":" fixed "}`,
		"corrected": `{"corrected":"fixed"}`,
		"empty msg": `{"choices":[{"message":{"content":""}}],"corrected":"fixed"}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/chat/completions" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				w.Write([]byte(body))
			}))
			defer srv.Close()

			svc := NewGrammarService(&config.ProviderConfig{Provider: config.ProviderCustom, URL: srv.URL, APIKey: "k"})
			got := svc.Correct(context.Background(), "fixd")
			if got.Corrected != "fixed" || got.Error != "" {
				t.Fatalf("unexpected correction: %+v", got)
			}
		})
	}
}

func TestGrammarService_DegradesOnFailure(t *testing.T) {
	handlers := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
		"bad json": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		},
		"no content": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		},
	}
	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			svc := NewGrammarService(&config.ProviderConfig{Provider: config.ProviderOpenAI, URL: srv.URL, APIKey: "k"})
			got := svc.Correct(context.Background(), "original")
			if got.Corrected != "original" || got.Error != CorrectionUnavailable {
				t.Fatalf("expected graceful fallback, got %+v", got)
			}
		})
	}
}

func TestGrammarService_DegradesWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	svc := NewGrammarService(&config.ProviderConfig{Provider: config.ProviderOpenAI, URL: url, APIKey: "k"})
	got := svc.Correct(context.Background(), "original")
	if got.Corrected != "original" || got.Error != CorrectionUnavailable {
		t.Fatalf("expected graceful fallback, got %+v", got)
	}
}

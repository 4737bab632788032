package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"anonq/config"
)

const (
	grammarTimeout = 30 * time.Second

	grammarInstruction = "Please correct the grammar and spelling of the following text while preserving the original meaning. Do not change the tone or intent. Return only the corrected text, no additional commentary."

	CorrectionNotConfigured = "API not configured"
	CorrectionUnavailable   = "Correction service unavailable"
)

// Correction always carries usable text. Error is informational only.
type Correction struct {
	Corrected string `json:"corrected"`
	Error     string `json:"error,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Text      string `json:"text"`
	Corrected string `json:"corrected"`
}

type GrammarService struct {
	provider *config.ProviderConfig
	client   *http.Client
}

// NewGrammarService accepts a nil provider, in which case every call passes
// the text through unchanged.
func NewGrammarService(provider *config.ProviderConfig) *GrammarService {
	return &GrammarService{
		provider: provider,
		client:   &http.Client{Timeout: grammarTimeout},
	}
}

func (s *GrammarService) Configured() bool { return s.provider != nil }

func (s *GrammarService) Correct(ctx context.Context, content string) Correction {
	if s.provider == nil {
		return Correction{Corrected: content, Error: CorrectionNotConfigured}
	}

	corrected, err := s.complete(ctx, content)
	if err != nil {
		log.Printf("Grammar correction failed (%s): %v", s.provider.Provider, err)
		return Correction{Corrected: content, Error: CorrectionUnavailable}
	}
	return Correction{Corrected: corrected}
}

func (s *GrammarService) endpoint() string {
	if s.provider.Provider == config.ProviderOpenAI {
		return s.provider.URL
	}
	url := strings.TrimRight(s.provider.URL, "/")
	if strings.HasSuffix(url, "/chat/completions") || strings.HasSuffix(url, "/generate") {
		return url
	}
	return url + "/chat/completions"
}

func (s *GrammarService) complete(ctx context.Context, content string) (string, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model: s.provider.Model,
		Messages: []chatMessage{
			{Role: "system", Content: grammarInstruction},
			{Role: "user", Content: content},
		},
		MaxTokens:   s.provider.MaxTokens,
		Temperature: s.provider.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.provider.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("provider returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return extractCorrection(parsed, s.provider.Provider)
}

// extractCorrection reads choices[0].message.content; custom providers may
// instead answer with a top-level text or corrected field.
func extractCorrection(resp chatCompletionResponse, provider string) (string, error) {
	if len(resp.Choices) > 0 {
		if c := strings.TrimSpace(resp.Choices[0].Message.Content); c != "" {
			return c, nil
		}
	}
	if provider == config.ProviderOpenAI {
		return "", errors.New("invalid API response format")
	}
	for _, candidate := range []string{resp.Text, resp.Corrected} {
		if c := strings.TrimSpace(candidate); c != "" {
			return c, nil
		}
	}
	return "", errors.New("invalid API response format")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

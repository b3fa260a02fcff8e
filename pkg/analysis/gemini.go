package analysis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"referral-backend/internal/domain"

	"google.golang.org/genai"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("analysis provider not configured")

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// GeminiClient wraps the Gemini API SDK. The key travels in the
// x-goog-api-key header, never in the request URL.
type GeminiClient struct {
	model  string
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{model: cfg.Model, client: client}, nil
}

// Generate sends the prompt with an optional attachment and returns the first
// candidate's text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, attachment *domain.Document) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(prompt)}
	if attachment != nil && len(attachment.Data) > 0 {
		parts = append(parts, genai.NewPartFromBytes(attachment.Data, attachment.ContentType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		var reason genai.BlockedReason
		if resp.PromptFeedback != nil {
			reason = resp.PromptFeedback.BlockReason
		}
		return "", fmt.Errorf("gemini response has no text (block reason: %q)", reason)
	}
	return text, nil
}

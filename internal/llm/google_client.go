package llm

import (
	"context"
	"fmt"
	"strings"

	genai "google.golang.org/genai"

	"github.com/codefionn/loopdriver/internal/consts"
)

// GoogleClient calls Gemini through the Google GenAI SDK.
type GoogleClient struct {
	client *genai.Client
}

// NewGoogleClient creates a Gemini generator. Client construction does not
// contact the service.
func NewGoogleClient(ctx context.Context, apiKey string) (*GoogleClient, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, fmt.Errorf("google client requires an API key")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Google GenAI client: %w", err)
	}
	return &GoogleClient{client: client}, nil
}

// Provider implements Generator.
func (c *GoogleClient) Provider() string { return "google" }

// Generate implements Generator.
func (c *GoogleClient) Generate(ctx context.Context, req *Request) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = consts.DefaultMaxOutputTokens
	}

	cfg := &genai.GenerateContentConfig{MaxOutputTokens: int32(maxTokens)}
	if sys := strings.TrimSpace(req.System); sys != "" {
		cfg.SystemInstruction = genai.NewContentFromText(sys, genai.RoleUser)
	}

	resp, err := c.client.Models.GenerateContent(ctx, normalizeGoogleModel(req.Model), genai.Text(req.User), cfg)
	if err != nil {
		return "", fmt.Errorf("google genai completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}
	return collectGenAIText(resp.Candidates[0].Content), nil
}

func collectGenAIText(content *genai.Content) string {
	var sb strings.Builder
	for _, part := range content.Parts {
		if part == nil || part.Text == "" || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func normalizeGoogleModel(model string) string {
	return strings.TrimPrefix(strings.TrimSpace(model), "models/")
}

package llm

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/codefionn/loopdriver/internal/consts"
)

// AnthropicClient calls the Messages API through the official SDK.
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient creates an Anthropic generator. Extra SDK options (base
// URL, HTTP client) are appended after the API key.
func NewAnthropicClient(apiKey string, opts ...option.RequestOption) (*AnthropicClient, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, fmt.Errorf("anthropic client requires an API key")
	}

	options := append([]option.RequestOption{option.WithAPIKey(key)}, opts...)
	return &AnthropicClient{client: anthropic.NewClient(options...)}, nil
}

// Provider implements Generator.
func (c *AnthropicClient) Provider() string { return "anthropic" }

// Generate implements Generator.
func (c *AnthropicClient) Generate(ctx context.Context, req *Request) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = consts.DefaultMaxOutputTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.User)),
		},
	}
	if sys := strings.TrimSpace(req.System); sys != "" {
		params.System = []anthropic.TextBlockParam{{Text: sys}}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic completion failed: %w", err)
	}
	return collectAnthropicText(msg.Content), nil
}

func collectAnthropicText(blocks []anthropic.ContentBlockUnion) string {
	var sb strings.Builder
	for _, block := range blocks {
		if block.Type != "text" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(block.Text)
	}
	return sb.String()
}

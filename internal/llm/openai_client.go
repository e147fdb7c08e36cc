package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/codefionn/loopdriver/internal/consts"
)

// OpenAIClient calls the Chat Completions API through the official SDK.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates an OpenAI generator.
func NewOpenAIClient(apiKey string, opts ...option.RequestOption) (*OpenAIClient, error) {
	key := strings.TrimSpace(apiKey)
	if key == "" {
		return nil, fmt.Errorf("openai client requires an API key")
	}

	options := append([]option.RequestOption{option.WithAPIKey(key)}, opts...)
	return &OpenAIClient{client: openai.NewClient(options...)}, nil
}

// Provider implements Generator.
func (c *OpenAIClient) Provider() string { return "openai" }

// Generate implements Generator.
func (c *OpenAIClient) Generate(ctx context.Context, req *Request) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = consts.DefaultMaxOutputTokens
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if sys := strings.TrimSpace(req.System); sys != "" {
		messages = append(messages, openai.SystemMessage(sys))
	}
	messages = append(messages, openai.UserMessage(req.User))

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(req.Model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}

// File: internal/services/reply/openai_provider.go
package reply

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// systemPrompt frames every completion request.
const systemPrompt = "You are a helpful assistant. Answer clearly and concisely."

// OpenAIGenerator produces replies through an OpenAI-compatible chat
// completion endpoint.
type OpenAIGenerator struct {
	client *openai.Client
	config *Config
	retry  *RetryConfig
	logger Logger
}

func NewOpenAIGenerator(config *Config, logger Logger) (*OpenAIGenerator, error) {
	if err := config.Validate(); err != nil {
		return nil, NewConfigError(err.Error())
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		retry:  &RetryConfig{MaxAttempts: config.MaxRetries, Delay: config.RetryDelay},
		logger: logger,
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, userText string) (string, error) {
	if strings.TrimSpace(userText) == "" {
		return "", NewValidationError("generate", "user text cannot be empty")
	}

	callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	var answer string
	err := RetryWithBackoff(callCtx, g.retry, func(ctx context.Context) error {
		resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: g.config.Model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: userText},
			},
			Temperature: g.config.Temperature,
			TopP:        g.config.TopP,
		})
		if err != nil {
			var apiErr *openai.APIError
			if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
				return NewRateLimitError("generate", "completion backend throttled the request", err)
			}
			return NewNetworkError("generate", "completion request failed", err)
		}
		if len(resp.Choices) == 0 {
			return NewProviderError("generate", "model returned no choices", nil)
		}
		answer = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		g.logger.Error("reply generation failed", "model", g.config.Model, "error", err)
		return "", err
	}

	g.logger.Debug("reply generated", "model", g.config.Model, "chars", len(answer))
	return answer, nil
}

func (g *OpenAIGenerator) HealthCheck(ctx context.Context) error {
	_, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.config.Model,
		MaxTokens: 1,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "ping"},
		},
	})
	if err != nil {
		return NewProviderError("health_check", "completion backend unreachable", err)
	}
	return nil
}

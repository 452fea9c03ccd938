package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/khoahotran/folio/internal/application/service"
	"github.com/khoahotran/folio/internal/config"
	"github.com/khoahotran/folio/pkg/apperror"
	"github.com/khoahotran/folio/pkg/logger"
)

const (
	MsgEmptyResponse = "AI response was empty."
	MsgNoResponse    = "Failed to get response from AI."
	MsgUnexpected    = "An unexpected error occurred."
)

type openAIAdapter struct {
	client      *openai.Client
	model       string
	temperature float32
	log         logger.Logger
}

func NewOpenAIAdapter(cfg config.Config, log logger.Logger) (service.LLMService, error) {
	if cfg.LLM.APIKey == "" {
		return nil, errNotConfigured
	}

	clientCfg := openai.DefaultConfig(cfg.LLM.APIKey)
	if cfg.LLM.BaseURL != "" {
		clientCfg.BaseURL = cfg.LLM.BaseURL
	}

	log.Info("OpenAI chat adapter initialized", zap.String("model", cfg.LLM.Model))
	return &openAIAdapter{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.LLM.Model,
		temperature: cfg.LLM.Temperature,
		log:         log,
	}, nil
}

func (a *openAIAdapter) GenerateChatResponse(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: a.temperature,
	}

	resp, err := a.client.CreateChatCompletion(ctx, req)
	if err != nil {
		a.log.Error("Chat completion request failed", err, zap.String("model", a.model))
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = MsgNoResponse
			}
			return "", apperror.NewUpstream(msg, err)
		}
		return "", apperror.NewUpstream(MsgUnexpected, err)
	}

	if len(resp.Choices) == 0 {
		return "", apperror.NewUpstream(MsgEmptyResponse, nil)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", apperror.NewUpstream(MsgEmptyResponse, nil)
	}
	return content, nil
}

var errNotConfigured = errors.New("llm api key is not configured")

// Disabled answers every prompt with an upstream error. It stands in when no
// API key is configured.
type Disabled struct{}

func (Disabled) GenerateChatResponse(context.Context, string) (string, error) {
	return "", apperror.NewUpstream(MsgNoResponse, errNotConfigured)
}

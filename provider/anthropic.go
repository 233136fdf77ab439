package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/ugnoguchigxp/regular-rag/model"
)

// AnthropicProvider is the concrete LLMProvider adapter over Anthropic's
// Messages API.
type AnthropicProvider struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicProvider constructs a provider using apiKey and modelName; pass
// an empty modelName to default to Claude 3.5 Sonnet.
func NewAnthropicProvider(apiKey, modelName string) *AnthropicProvider {
	m := anthropic.Model(modelName)
	if modelName == "" {
		m = anthropic.ModelClaude3_5SonnetLatest
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  m,
	}
}

// ChatCompletion sends messages as a single non-streaming request, retrying
// transient failures per the provider-wide retry policy.
func (p *AnthropicProvider) ChatCompletion(ctx context.Context, messages []model.Message, systemPrompt string, temperature float64) (*model.ChatResponse, error) {
	params := anthropic.MessageNewParams{
		Model:       p.model,
		MaxTokens:   4096,
		Messages:    toAnthropicMessages(messages),
		Temperature: anthropic.Float(temperature),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	var msg *anthropic.Message
	err := withRetry(ctx, isAnthropicRetryable, func(ctx context.Context) error {
		resp, err := p.client.Messages.New(ctx, params)
		if err != nil {
			return err
		}
		msg = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrProvider, err)
	}

	var content string
	for _, block := range msg.Content {
		if text := block.AsText(); text.Text != "" {
			content += text.Text
		}
	}

	return &model.ChatResponse{
		ID:      msg.ID,
		Content: content,
		Usage: &model.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}

func toAnthropicMessages(messages []model.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == "assistant" {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

func isAnthropicRetryable(err error) bool {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return IsRetryableStatus(apiErr.StatusCode)
	}
	return false
}

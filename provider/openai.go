package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ugnoguchigxp/regular-rag/model"
)

// OpenAIProvider is the concrete LLMProvider and EmbeddingProvider adapter
// over the OpenAI chat completions and embeddings APIs.
type OpenAIProvider struct {
	client         openai.Client
	chatModel      openai.ChatModel
	embeddingModel openai.EmbeddingModel
	dimension      int
}

// NewOpenAIProvider constructs a provider using apiKey, a chat model name
// and an embedding model name/dimension pair. dimension must match the
// embedding model's native output width.
func NewOpenAIProvider(apiKey, chatModel, embeddingModel string, dimension int) *OpenAIProvider {
	return &OpenAIProvider{
		client:         openai.NewClient(option.WithAPIKey(apiKey)),
		chatModel:      openai.ChatModel(chatModel),
		embeddingModel: openai.EmbeddingModel(embeddingModel),
		dimension:      dimension,
	}
}

// ChatCompletion sends messages as a single non-streaming chat completion
// request, retrying transient failures per the provider-wide retry policy.
func (p *OpenAIProvider) ChatCompletion(ctx context.Context, messages []model.Message, systemPrompt string, temperature float64) (*model.ChatResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:       p.chatModel,
		Messages:    toOpenAIMessages(messages, systemPrompt),
		Temperature: openai.Float(temperature),
	}

	var resp *openai.ChatCompletion
	err := withRetry(ctx, isOpenAIRetryable, func(ctx context.Context) error {
		r, err := p.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrProvider, err)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return &model.ChatResponse{
		ID:      resp.ID,
		Content: content,
		Usage: &model.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// CreateEmbedding embeds text, retrying transient failures.
func (p *OpenAIProvider) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: p.embeddingModel,
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	}

	var resp *openai.CreateEmbeddingResponse
	err := withRetry(ctx, isOpenAIRetryable, func(ctx context.Context) error {
		r, err := p.client.Embeddings.New(ctx, params)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrProvider, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty embedding response", model.ErrProvider)
	}

	values := resp.Data[0].Embedding
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out, nil
}

// Dimension returns the configured embedding width.
func (p *OpenAIProvider) Dimension() int {
	return p.dimension
}

func toOpenAIMessages(messages []model.Message, systemPrompt string) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)+1)
	if systemPrompt != "" {
		out = append(out, openai.SystemMessage(systemPrompt))
	}
	for _, m := range messages {
		if m.Role == "assistant" {
			out = append(out, openai.AssistantMessage(m.Content))
		} else {
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func isOpenAIRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return IsRetryableStatus(apiErr.StatusCode)
	}
	return false
}

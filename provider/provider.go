// Package provider defines the boundary between the core RAG pipeline and
// external completion/embedding services. The core never imports a vendor
// SDK directly; it depends only on these two interfaces, so swapping models
// or vendors never touches orchestrator, extractor or graphservice code.
package provider

import (
	"context"

	"github.com/ugnoguchigxp/regular-rag/model"
)

// LLMProvider is the chat-completion boundary. A single call produces one
// complete response; streaming token output is out of scope.
type LLMProvider interface {
	ChatCompletion(ctx context.Context, messages []model.Message, systemPrompt string, temperature float64) (*model.ChatResponse, error)
}

// EmbeddingProvider is the dense-vector boundary. Dimension is fixed for the
// lifetime of a provider instance. The engine's dimension probe checks the
// length of one real embedding against the store's column width at startup.
type EmbeddingProvider interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// Package engine exposes the facade a host process embeds: construction
// wires every repository and service together and performs the startup
// dimension probe; Query and IngestDocument are the two operations it hands
// out afterward.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ugnoguchigxp/regular-rag/database"
	"github.com/ugnoguchigxp/regular-rag/extractor"
	"github.com/ugnoguchigxp/regular-rag/graphservice"
	"github.com/ugnoguchigxp/regular-rag/helper"
	"github.com/ugnoguchigxp/regular-rag/model"
	"github.com/ugnoguchigxp/regular-rag/orchestrator"
	"github.com/ugnoguchigxp/regular-rag/provider"
)

// dimensionProbeText is embedded once at construction to detect a mismatch
// between the embedding provider's output width and the store's vector
// column width before any request is served.
const dimensionProbeText = "regular-rag dimension probe"

// Config describes everything Create needs to assemble an Engine. Either
// DatabaseConfig (owned connection) or Store (borrowed) must be set.
type Config struct {
	DatabaseConfig *helper.DatabaseConfiguration
	Store          *database.Store

	LLM      provider.LLMProvider
	Embedder provider.EmbeddingProvider

	Dimension int
	Logger    *slog.Logger

	// ForceReloadSQL reloads stored functions even if they already exist.
	ForceReloadSQL bool
}

// Engine is the facade over the full retrieval-augmented generation core.
type Engine struct {
	store        *database.Store
	llm          provider.LLMProvider
	embedder     provider.EmbeddingProvider
	documents    *database.DocumentRepository
	graph        *database.GraphRepository
	cache        *database.CacheRepository
	graphService *graphservice.Service
	orchestrator *orchestrator.Orchestrator
	dimension    int
}

// Create wires the store adapter, runs the dimension probe, and constructs
// every repository and service. On any failure, an owned store is released
// before the error is surfaced.
func Create(ctx context.Context, cfg Config) (*Engine, error) {
	store := cfg.Store
	var err error
	if store == nil {
		if cfg.DatabaseConfig == nil {
			return nil, helper.NewError("create engine", fmt.Errorf("either Store or DatabaseConfig must be set"))
		}
		store, err = database.NewOwnedStore(cfg.DatabaseConfig, cfg.Logger)
		if err != nil {
			return nil, helper.NewError("create owned store", err)
		}
	}

	engine, err := buildEngine(ctx, store, cfg)
	if err != nil {
		if cfg.Store == nil {
			store.Close()
		}
		return nil, err
	}
	return engine, nil
}

func buildEngine(ctx context.Context, store *database.Store, cfg Config) (*Engine, error) {
	probe, err := cfg.Embedder.CreateEmbedding(ctx, dimensionProbeText)
	if err != nil {
		return nil, helper.NewError("dimension probe", err)
	}
	if len(probe) != cfg.Dimension {
		return nil, helper.NewError("dimension probe", fmt.Errorf("%w: got %d want %d", model.ErrDimensionMismatch, len(probe), cfg.Dimension))
	}

	documents, err := database.NewDocumentRepository(store, cfg.Dimension, cfg.ForceReloadSQL)
	if err != nil {
		return nil, helper.NewError("create document repository", err)
	}

	graph, err := database.NewGraphRepository(store, cfg.Dimension, cfg.ForceReloadSQL)
	if err != nil {
		return nil, helper.NewError("create graph repository", err)
	}

	cache, err := database.NewCacheRepository(store, cfg.ForceReloadSQL)
	if err != nil {
		return nil, helper.NewError("create cache repository", err)
	}

	ext := extractor.New(cfg.LLM)
	graphService := graphservice.New(graph, cfg.Embedder, ext)
	orch := orchestrator.New(cfg.LLM, cfg.Embedder, documents, cache, graphService, cfg.Logger)

	return &Engine{
		store:        store,
		llm:          cfg.LLM,
		embedder:     cfg.Embedder,
		documents:    documents,
		graph:        graph,
		cache:        cache,
		graphService: graphService,
		orchestrator: orch,
		dimension:    cfg.Dimension,
	}, nil
}

// Query runs the full plan → retrieve → enrich → complete → cache flow.
func (e *Engine) Query(ctx context.Context, messages []model.Message, reqContext model.Metadata) (*model.ChatResponse, error) {
	return e.orchestrator.ProcessRAGRequest(ctx, messages, reqContext)
}

// IngestDocument computes an embedding on a truncated copy of content (the
// stored content is always the full text), upserts the document under a
// fresh id, and builds the knowledge graph from the full content.
func (e *Engine) IngestDocument(ctx context.Context, content string, path, screen, domain string, metadata model.Metadata) (*model.Document, *graphservice.BuildResult, error) {
	embeddingInput := truncateForEmbedding(content)

	embedding, err := e.embedder.CreateEmbedding(ctx, embeddingInput)
	if err != nil {
		return nil, nil, helper.NewError("embed document", err)
	}

	doc := &model.Document{
		ID:        uuid.NewString(),
		Content:   content,
		Path:      path,
		Screen:    screen,
		Domain:    domain,
		Metadata:  metadata,
		Embedding: embedding,
	}
	if err := e.documents.UpsertDocument(ctx, doc); err != nil {
		return nil, nil, helper.NewError("upsert document", err)
	}

	buildResult, err := e.graphService.BuildGraphFromDocument(ctx, content)
	if err != nil {
		return doc, nil, helper.NewError("build graph from document", err)
	}

	return doc, buildResult, nil
}

// Close tears down the store only if this Engine owns it.
func (e *Engine) Close() error {
	return e.store.Close()
}

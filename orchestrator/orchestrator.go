// Package orchestrator implements the request-level RAG flow: plan, cache
// lookup, hybrid retrieval, graph enrichment, completion, cache write.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ugnoguchigxp/regular-rag/database"
	"github.com/ugnoguchigxp/regular-rag/graphservice"
	"github.com/ugnoguchigxp/regular-rag/helper"
	"github.com/ugnoguchigxp/regular-rag/model"
	"github.com/ugnoguchigxp/regular-rag/provider"
)

const cacheVersion = "v2"

const planSystemPrompt = `You analyze a conversation and decide whether external retrieval is needed ` +
	`to answer it well. Respond with exactly one JSON object and nothing else, in this shape: ` +
	`{"should_search":true,"search_query":"...","top_k":5,"identified_entities":["..."]}`

const completionPreamble = `You are a helpful assistant. Answer the user's question using the ` +
	`conversation and, when present, the retrieved context below.`

// Orchestrator is stateless across requests; every field is a shared,
// concurrency-safe collaborator.
type Orchestrator struct {
	LLM          provider.LLMProvider
	Embedder     provider.EmbeddingProvider
	Documents    *database.DocumentRepository
	Cache        *database.CacheRepository
	GraphService *graphservice.Service
	Logger       *slog.Logger
}

// New constructs an Orchestrator. A nil logger falls back to slog.Default().
func New(llm provider.LLMProvider, embedder provider.EmbeddingProvider, documents *database.DocumentRepository, cache *database.CacheRepository, graphService *graphservice.Service, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{LLM: llm, Embedder: embedder, Documents: documents, Cache: cache, GraphService: graphService, Logger: logger}
}

// ProcessRAGRequest runs the full plan → retrieve → enrich → complete →
// cache flow.
func (o *Orchestrator) ProcessRAGRequest(ctx context.Context, messages []model.Message, reqContext model.Metadata) (*model.ChatResponse, error) {
	userMessage := model.LastUserMessage(messages)

	plan := o.plan(ctx, userMessage)
	normalized := model.NormalizePlan(plan)

	if reqContext == nil {
		reqContext = model.Metadata{}
	}

	cacheKey, err := o.cacheKey(messages, reqContext, normalized)
	if err != nil {
		return nil, helper.NewError("compute cache key", err)
	}

	if entry, err := o.Cache.FindByHash(ctx, cacheKey); err != nil {
		return nil, helper.NewError("cache lookup", err)
	} else if entry != nil {
		if _, err := o.Cache.IncrementHitCount(ctx, cacheKey); err != nil {
			return nil, helper.NewError("increment cache hit", err)
		}
		return &model.ChatResponse{ID: "cached", Content: entry.Response}, nil
	}

	var results []model.Result
	var ragContext string
	if normalized.ShouldSearch {
		embedding, err := o.Embedder.CreateEmbedding(ctx, normalized.SearchQuery)
		if err != nil {
			return nil, helper.NewError("embed search query", err)
		}

		screen, _ := reqContext["screen"].(string)
		results, err = o.Documents.HybridSearch(ctx, embedding, normalized.SearchQuery, normalized.TopK, screen)
		if err != nil {
			return nil, helper.NewError("hybrid search", err)
		}

		contents := make([]string, 0, len(results))
		for _, r := range results {
			contents = append(contents, r.Document.Content)
		}
		ragContext = strings.Join(contents, "\n\n")
	}

	if len(normalized.IdentifiedEntities) > 0 && o.GraphService != nil {
		graphContext, err := o.GraphService.GetContextForEntities(ctx, normalized.IdentifiedEntities)
		if err != nil {
			return nil, helper.NewError("graph enrichment", err)
		}
		if graphContext != "" {
			if ragContext != "" {
				ragContext += "\n\n"
			}
			ragContext += graphContext
		}
	}

	systemPrompt := completionPreamble
	if ragContext != "" {
		systemPrompt += "\n\n" + ragContext
	}

	final, err := o.LLM.ChatCompletion(ctx, messages, systemPrompt, 0.7)
	if err != nil {
		return nil, helper.NewError("completion", err)
	}

	if _, err := o.Cache.Save(ctx, cacheKey, userMessage, reqContext, final.Content); err != nil {
		return nil, helper.NewError("persist cache", err)
	}

	final.RAG = &model.RAGInfo{Results: results, Plan: normalized}
	return final, nil
}

// plan requests a structured intent from the LLM, falling back to
// model.DefaultPlan on any transport, parse or validation failure.
func (o *Orchestrator) plan(ctx context.Context, userMessage string) model.Plan {
	resp, err := o.LLM.ChatCompletion(ctx, []model.Message{{Role: "user", Content: userMessage}}, planSystemPrompt, 0)
	if err != nil {
		o.logPlanFallback(fmt.Errorf("%w: %s", model.ErrProvider, err))
		return model.DefaultPlan(userMessage)
	}

	raw := helper.FirstJSONObject(resp.Content)
	if raw == "" {
		o.logPlanFallback(fmt.Errorf("%w: no JSON object in response", model.ErrPlanParse))
		return model.DefaultPlan(userMessage)
	}

	var plan model.Plan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		o.logPlanFallback(fmt.Errorf("%w: %s", model.ErrPlanParse, err))
		return model.DefaultPlan(userMessage)
	}
	if plan.ShouldSearch && plan.SearchQuery == "" {
		o.logPlanFallback(fmt.Errorf("%w: should_search true with empty search_query", model.ErrPlanParse))
		return model.DefaultPlan(userMessage)
	}

	return plan
}

func (o *Orchestrator) logPlanFallback(err error) {
	o.Logger.Warn("falling back to default plan", "error", err)
}

// cacheKey is the SHA-256 hex of the stable JSON serialization of
// {cacheVersion, messages, context, plan: normalized}.
func (o *Orchestrator) cacheKey(messages []model.Message, reqContext model.Metadata, normalized model.NormalizedPlan) (string, error) {
	payload := map[string]interface{}{
		"cacheVersion": cacheVersion,
		"messages":     messages,
		"context":      reqContext,
		"plan":         normalized,
	}

	raw, err := stableMarshal(payload)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

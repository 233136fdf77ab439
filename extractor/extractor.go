// Package extractor turns raw document text into a deduplicated entity/
// relation graph via chunked, per-chunk LLM extraction.
package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ugnoguchigxp/regular-rag/helper"
	"github.com/ugnoguchigxp/regular-rag/model"
	"github.com/ugnoguchigxp/regular-rag/provider"
)

const systemPrompt = `You are an information extraction engine. Given a passage of text, ` +
	`identify every named entity and every relationship between entities. ` +
	`Respond with exactly one JSON object and nothing else, in this shape: ` +
	`{"entities":[{"name":"...","type":"...","properties":{}}],` +
	`"relations":[{"source":"...","target":"...","relationType":"...","weight":1.0}]}`

// ExtractedEntity is one entity as it comes back from the LLM, before
// identity assignment or dedup.
type ExtractedEntity struct {
	Name       string                 `json:"name"`
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}

// ExtractedRelation is one relation as it comes back from the LLM.
type ExtractedRelation struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	RelationType string  `json:"relationType"`
	Weight       float64 `json:"weight,omitempty"`
}

type extractionSchema struct {
	Entities  []ExtractedEntity   `json:"entities"`
	Relations []ExtractedRelation `json:"relations"`
}

// Result is the deduplicated output of Extract.
type Result struct {
	Entities  []ExtractedEntity
	Relations []ExtractedRelation
}

// Extractor drives chunked, per-chunk LLM extraction over document content.
type Extractor struct {
	LLM         provider.LLMProvider
	ChunkBudget int
}

// New constructs an Extractor over llm using the default chunk budget.
func New(llm provider.LLMProvider) *Extractor {
	return &Extractor{LLM: llm, ChunkBudget: DefaultChunkBudget}
}

// Extract chunks content, extracts each chunk sequentially (to bound LLM
// rate-limit pressure), and returns the deduplicated union. A chunk whose
// response fails to parse or validate contributes nothing and is never
// fatal to the overall extraction; a provider failure (transport error
// after retries) is surfaced immediately instead, since it says nothing
// about the chunk's content and may affect every remaining chunk too.
func (e *Extractor) Extract(ctx context.Context, content string) (*Result, error) {
	chunks := Chunk(content, e.ChunkBudget)

	entityOrder := make([]string, 0)
	entityByKey := make(map[string]ExtractedEntity)
	relationOrder := make([]string, 0)
	relationByKey := make(map[string]ExtractedRelation)

	for _, chunk := range chunks {
		schema, err := e.extractChunk(ctx, chunk)
		if err != nil {
			if errors.Is(err, model.ErrProvider) {
				return nil, helper.NewError("extract", err)
			}
			continue
		}

		for _, ent := range schema.Entities {
			key := strings.ToLower(ent.Name) + "::" + ent.Type
			if existing, ok := entityByKey[key]; ok {
				merged := mergeProperties(existing.Properties, ent.Properties)
				existing.Properties = merged
				entityByKey[key] = existing
				continue
			}
			entityByKey[key] = ent
			entityOrder = append(entityOrder, key)
		}

		for _, rel := range schema.Relations {
			key := strings.ToLower(rel.Source) + "::" + strings.ToLower(rel.Target) + "::" + rel.RelationType
			if _, ok := relationByKey[key]; ok {
				continue
			}
			relationByKey[key] = rel
			relationOrder = append(relationOrder, key)
		}
	}

	result := &Result{
		Entities:  make([]ExtractedEntity, 0, len(entityOrder)),
		Relations: make([]ExtractedRelation, 0, len(relationOrder)),
	}
	for _, key := range entityOrder {
		result.Entities = append(result.Entities, entityByKey[key])
	}
	for _, key := range relationOrder {
		result.Relations = append(result.Relations, relationByKey[key])
	}
	return result, nil
}

func (e *Extractor) extractChunk(ctx context.Context, chunk string) (*extractionSchema, error) {
	resp, err := e.LLM.ChatCompletion(ctx, []model.Message{{Role: "user", Content: chunk}}, systemPrompt, 0)
	if err != nil {
		return nil, helper.NewError("extract chunk", fmt.Errorf("%w: %s", model.ErrProvider, err))
	}

	raw := helper.FirstJSONObject(resp.Content)
	if raw == "" {
		return nil, fmt.Errorf("%w: no JSON object in response", model.ErrExtractionParse)
	}

	var schema extractionSchema
	if err := json.Unmarshal([]byte(raw), &schema); err != nil {
		return nil, fmt.Errorf("%w: %s", model.ErrExtractionParse, err)
	}
	for _, ent := range schema.Entities {
		if ent.Name == "" || ent.Type == "" {
			return nil, fmt.Errorf("%w: entity missing name or type", model.ErrExtractionParse)
		}
	}
	for _, rel := range schema.Relations {
		if rel.Source == "" || rel.Target == "" || rel.RelationType == "" {
			return nil, fmt.Errorf("%w: relation missing source, target or type", model.ErrExtractionParse)
		}
	}

	return &schema, nil
}

func mergeProperties(base, incoming map[string]interface{}) map[string]interface{} {
	if base == nil {
		base = make(map[string]interface{})
	}
	for k, v := range incoming {
		base[k] = v
	}
	return base
}

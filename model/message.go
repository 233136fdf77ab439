package model

import "math"

// Message is a single turn in a conversation, as handed to the orchestrator.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LastUserMessage returns the content of the last message with role "user",
// or "" if none exists.
func LastUserMessage(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return ""
}

// Plan is the structured intent the orchestrator derives from a
// conversation before deciding whether (and how) to retrieve. TopK is a
// pointer so json.Unmarshal can distinguish an absent key from a present
// "top_k": 0; use NormalizePlan to obtain a clamped, ready-to-use plan.
type Plan struct {
	ShouldSearch       bool     `json:"should_search"`
	SearchQuery        string   `json:"search_query"`
	TopK               *float64 `json:"top_k,omitempty"`
	IdentifiedEntities []string `json:"identified_entities,omitempty"`
}

// DefaultPlan is the fallback plan used whenever the planner call fails or
// returns an unparseable/invalid response.
func DefaultPlan(userMessage string) Plan {
	return Plan{
		ShouldSearch: true,
		SearchQuery:  userMessage,
	}
}

// NormalizedPlan is a Plan whose TopK has been clamped to a usable int.
type NormalizedPlan struct {
	ShouldSearch       bool
	SearchQuery        string
	TopK               int
	IdentifiedEntities []string
}

// NormalizePlan clamps TopK into [1, 8] by floor, defaulting to 5 when
// absent or non-finite. A present-but-zero TopK is floored and clamped like
// any other value (to 1), not treated as absent.
func NormalizePlan(p Plan) NormalizedPlan {
	topK := 5
	if p.TopK != nil && !math.IsNaN(*p.TopK) && !math.IsInf(*p.TopK, 0) {
		topK = int(math.Floor(*p.TopK))
		if topK < 1 {
			topK = 1
		} else if topK > 8 {
			topK = 8
		}
	}

	return NormalizedPlan{
		ShouldSearch:       p.ShouldSearch,
		SearchQuery:        p.SearchQuery,
		TopK:               topK,
		IdentifiedEntities: p.IdentifiedEntities,
	}
}

// ChatResponse is the orchestrator's final answer to a query.
type ChatResponse struct {
	ID      string   `json:"id"`
	Content string   `json:"content"`
	Usage   *Usage   `json:"usage,omitempty"`
	RAG     *RAGInfo `json:"rag,omitempty"`
}

// Usage mirrors the token accounting an LLMProvider may report.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// RAGInfo carries the retrieval results and normalized plan that produced a
// ChatResponse, for observability.
type RAGInfo struct {
	Results []Result       `json:"results"`
	Plan    NormalizedPlan `json:"plan"`
}

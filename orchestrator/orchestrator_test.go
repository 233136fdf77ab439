package orchestrator

import (
	"context"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/ugnoguchigxp/regular-rag/database"
	"github.com/ugnoguchigxp/regular-rag/helper"
	"github.com/ugnoguchigxp/regular-rag/model"
	"github.com/ugnoguchigxp/regular-rag/provider"
)

var dbPort string

const testDimension = 4

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	code := m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("error tearing down postgres container: %v", err)
		}
	}

	if code != 0 {
		log.Fatalf("orchestrator tests failed")
	}
}

func newTestOrchestrator(t *testing.T, llm provider.LLMProvider, embedder provider.EmbeddingProvider) *Orchestrator {
	t.Helper()
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	store, err := database.NewOwnedStore(dbConfig, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	documents, err := database.NewDocumentRepository(store, testDimension, false)
	require.NoError(t, err)
	cache, err := database.NewCacheRepository(store, false)
	require.NoError(t, err)

	return New(llm, embedder, documents, cache, nil, nil)
}

// scriptedLLM dispatches by whether it is being asked to plan (systemPrompt ==
// planSystemPrompt) or to complete, so cache-hit tests that only re-run the
// planning call still see a stable plan across requests.
type scriptedLLM struct {
	planResponse       string
	completionResponse string
	calls              int
	completionCalls    int
}

func (s *scriptedLLM) ChatCompletion(ctx context.Context, messages []model.Message, systemPrompt string, temperature float64) (*model.ChatResponse, error) {
	s.calls++
	if systemPrompt == planSystemPrompt {
		return &model.ChatResponse{Content: s.planResponse}, nil
	}
	s.completionCalls++
	return &model.ChatResponse{Content: s.completionResponse}, nil
}

type fixedEmbedder struct{ dim int }

func (f *fixedEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	out := make([]float32, f.dim)
	out[0] = 1
	return out, nil
}
func (f *fixedEmbedder) Dimension() int { return f.dim }

func TestProcessRAGRequestSkipsSearchWhenPlanSaysNo(t *testing.T) {
	llm := &scriptedLLM{
		planResponse:       `{"should_search":false,"search_query":"","top_k":5,"identified_entities":[]}`,
		completionResponse: "a direct answer",
	}
	orch := newTestOrchestrator(t, llm, &fixedEmbedder{dim: testDimension})

	resp, err := orch.ProcessRAGRequest(context.Background(), []model.Message{{Role: "user", Content: "hi"}}, model.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "a direct answer", resp.Content)
	assert.False(t, resp.RAG.Plan.ShouldSearch)
	assert.Empty(t, resp.RAG.Results)
}

func TestProcessRAGRequestFallsBackToDefaultPlanOnUnparsablePlan(t *testing.T) {
	llm := &scriptedLLM{planResponse: "not json", completionResponse: "an answer built from fallback search"}
	orch := newTestOrchestrator(t, llm, &fixedEmbedder{dim: testDimension})

	resp, err := orch.ProcessRAGRequest(context.Background(), []model.Message{{Role: "user", Content: "what is aspirin"}}, model.Metadata{})
	require.NoError(t, err)
	assert.True(t, resp.RAG.Plan.ShouldSearch)
	assert.Equal(t, "what is aspirin", resp.RAG.Plan.SearchQuery)
}

func TestProcessRAGRequestServesFromCacheOnSecondIdenticalRequest(t *testing.T) {
	llm := &scriptedLLM{
		planResponse:       `{"should_search":false,"search_query":"","top_k":5,"identified_entities":[]}`,
		completionResponse: "first answer",
	}
	orch := newTestOrchestrator(t, llm, &fixedEmbedder{dim: testDimension})

	messages := []model.Message{{Role: "user", Content: "same question every time"}}
	first, err := orch.ProcessRAGRequest(context.Background(), messages, model.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "first answer", first.Content)
	require.Equal(t, 1, llm.completionCalls)

	second, err := orch.ProcessRAGRequest(context.Background(), messages, model.Metadata{})
	require.NoError(t, err)
	assert.Equal(t, "cached", second.ID)
	assert.Equal(t, "first answer", second.Content)
	assert.Equal(t, 1, llm.completionCalls, "cache hit must not call completion again")
}

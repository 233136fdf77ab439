package model

import "errors"

// Error kinds the core distinguishes, per the error handling design. Where a
// repository or service raises one of these it wraps it with op context via
// helper.NewError, so callers can still errors.Is against the sentinel.
var (
	// ErrDimensionMismatch is fatal to the operation that raised it: engine
	// construction's dimension probe, a document/node upsert, or a graph build.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidEmbedding is raised by vector search when the query embedding
	// contains a non-finite element or has the wrong length.
	ErrInvalidEmbedding = errors.New("invalid embedding")

	// ErrPlanParse is swallowed by the orchestrator, which falls back to
	// DefaultPlan; it is exported so tests can assert the failure mode.
	ErrPlanParse = errors.New("plan parse error")

	// ErrExtractionParse is swallowed per chunk by the extractor, which
	// contributes an empty result for that chunk.
	ErrExtractionParse = errors.New("extraction parse error")

	// ErrProvider wraps a transport failure from an LLM or embedding
	// provider after retries are exhausted.
	ErrProvider = errors.New("provider error")

	// ErrStore wraps a failed liveness check of the store connection. Query
	// failures from the repositories are returned with op context only and
	// do not wrap ErrStore.
	ErrStore = errors.New("store error")
)

package database

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ugnoguchigxp/regular-rag/helper"
	"github.com/ugnoguchigxp/regular-rag/model"
	loadsql "github.com/ugnoguchigxp/regular-rag/sql"
)

// rrfConstant is the Reciprocal Rank Fusion smoothing constant
const rrfConstant = 60.0

// DocumentRepository handles document-corpus database operations: single-row
// upsert/read, vector search, lexical search, and their RRF fusion.
type DocumentRepository struct {
	db  *helper.Database
	dim int
}

// NewDocumentRepository loads the documents SQL functions and table.
func NewDocumentRepository(store *Store, dim int, force bool) (*DocumentRepository, error) {
	if store == nil {
		return nil, helper.NewError("new document repository", fmt.Errorf("store is nil"))
	}

	db := store.database()
	if err := loadsql.LoadDocumentsSql(db.Instance, force); err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	repo := &DocumentRepository{db: db, dim: dim}
	if err := repo.createTable(); err != nil {
		return nil, err
	}

	db.Logger.Info("initialized document repository")
	return repo, nil
}

func (r *DocumentRepository) createTable() error {
	_, err := r.db.Instance.Exec(`SELECT init_documents($1)`, r.dim)
	if err != nil {
		return helper.NewError("init documents table", err)
	}
	return nil
}

// UpsertDocument writes or overwrites doc by ID. tsv is always recomputed
// server-side, never from the caller. If Embedding is present it must have
// exactly r.dim elements, otherwise ErrDimensionMismatch is returned.
func (r *DocumentRepository) UpsertDocument(ctx context.Context, doc *model.Document) error {
	if len(doc.Embedding) != 0 && len(doc.Embedding) != r.dim {
		return helper.NewError("upsert document", fmt.Errorf("%w: got %d want %d", model.ErrDimensionMismatch, len(doc.Embedding), r.dim))
	}

	var id interface{}
	if doc.ID != "" {
		id = doc.ID
	}

	row := r.db.Instance.QueryRowContext(ctx,
		`SELECT * FROM upsert_document($1, $2, $3, $4, $5, $6, $7)`,
		id, doc.Content, doc.Path, doc.Screen, doc.Domain, doc.Metadata, embeddingParam(doc.Embedding),
	)

	return scanDocument(row, doc)
}

// SelectDocument retrieves a document by id.
func (r *DocumentRepository) SelectDocument(ctx context.Context, id string) (*model.Document, error) {
	doc := &model.Document{}
	row := r.db.Instance.QueryRowContext(ctx, `SELECT * FROM select_document($1)`, id)
	if err := scanDocument(row, doc); err != nil {
		return nil, helper.NewError("select document", err)
	}
	return doc, nil
}

// FindByVector runs dense vector search, ordered by ascending L2 distance.
// embedding must be non-empty, finite, and exactly r.dim long.
func (r *DocumentRepository) FindByVector(ctx context.Context, embedding []float32, k int, screen string) ([]model.VectorHit, error) {
	if err := validateEmbedding(embedding, r.dim); err != nil {
		return nil, helper.NewError("find by vector", err)
	}

	rows, err := r.db.Instance.QueryContext(ctx,
		`SELECT * FROM select_documents_by_vector($1, $2, $3)`,
		embeddingParam(embedding), k, nullableString(screen),
	)
	if err != nil {
		return nil, helper.NewError("query vector search", err)
	}
	defer rows.Close()

	var hits []model.VectorHit
	for rows.Next() {
		doc := &model.Document{}
		var score float64
		if err := scanDocumentWithScore(rows, doc, &score); err != nil {
			return nil, helper.NewError("scan vector hit", err)
		}
		hits = append(hits, model.VectorHit{Document: doc, VectorScore: score})
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("vector search rows", err)
	}
	return hits, nil
}

// FindByText runs lexical full-text search ranked by ts_rank descending.
func (r *DocumentRepository) FindByText(ctx context.Context, query string, k int, screen string) ([]model.TextHit, error) {
	rows, err := r.db.Instance.QueryContext(ctx,
		`SELECT * FROM select_documents_by_text($1, $2, $3)`,
		query, k, nullableString(screen),
	)
	if err != nil {
		return nil, helper.NewError("query text search", err)
	}
	defer rows.Close()

	var hits []model.TextHit
	for rows.Next() {
		doc := &model.Document{}
		var score float64
		if err := scanDocumentWithScore(rows, doc, &score); err != nil {
			return nil, helper.NewError("scan text hit", err)
		}
		hits = append(hits, model.TextHit{Document: doc, TextScore: score})
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("text search rows", err)
	}
	return hits, nil
}

// HybridSearch runs the vector and text legs concurrently via an errgroup,
// then fuses them with Reciprocal Rank Fusion (constant=60): a document's
// fused score is the sum of 1/(60+rank) over every leg it appears in, using
// 1-based rank within that leg. Documents absent from a leg contribute
// nothing for that leg. Ties break by document id for a stable order.
func (r *DocumentRepository) HybridSearch(ctx context.Context, embedding []float32, query string, k int, screen string) ([]model.Result, error) {
	var vectorHits []model.VectorHit
	var textHits []model.TextHit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vectorHits, err = r.FindByVector(gctx, embedding, k, screen)
		return err
	})
	g.Go(func() error {
		var err error
		textHits, err = r.FindByText(gctx, query, k, screen)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, helper.NewError("hybrid search", err)
	}

	scores := make(map[string]float64)
	docs := make(map[string]*model.Document)
	for rank, hit := range vectorHits {
		scores[hit.Document.ID] += 1.0 / (rrfConstant + float64(rank+1))
		docs[hit.Document.ID] = hit.Document
	}
	for rank, hit := range textHits {
		scores[hit.Document.ID] += 1.0 / (rrfConstant + float64(rank+1))
		docs[hit.Document.ID] = hit.Document
	}

	results := make([]model.Result, 0, len(docs))
	for id, doc := range docs {
		results = append(results, model.Result{Document: doc, FusedScore: scores[id]})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].FusedScore != results[j].FusedScore {
			return results[i].FusedScore > results[j].FusedScore
		}
		return results[i].Document.ID < results[j].Document.ID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func validateEmbedding(embedding []float32, dim int) error {
	if len(embedding) != dim {
		return fmt.Errorf("%w: got %d want %d", model.ErrInvalidEmbedding, len(embedding), dim)
	}
	for _, v := range embedding {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return fmt.Errorf("%w: non-finite element", model.ErrInvalidEmbedding)
		}
	}
	return nil
}

package database

import (
	"github.com/pgvector/pgvector-go"

	"github.com/ugnoguchigxp/regular-rag/model"
)

// embeddingParam converts a possibly-absent embedding into the query param
// pgvector's driver.Valuer expects, nil meaning "no vector".
func embeddingParam(embedding []float32) interface{} {
	if len(embedding) == 0 {
		return nil
	}
	v := pgvector.NewVector(embedding)
	return &v
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner, doc *model.Document) error {
	var embeddingVec *pgvector.Vector
	err := row.Scan(
		&doc.ID, &doc.Content, &doc.Path, &doc.Screen, &doc.Domain,
		&doc.Metadata, &embeddingVec, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if embeddingVec != nil {
		doc.Embedding = embeddingVec.Slice()
	}
	return nil
}

func scanDocumentWithScore(row rowScanner, doc *model.Document, score *float64) error {
	var embeddingVec *pgvector.Vector
	err := row.Scan(
		&doc.ID, &doc.Content, &doc.Path, &doc.Screen, &doc.Domain,
		&doc.Metadata, &embeddingVec, &doc.CreatedAt, &doc.UpdatedAt, score,
	)
	if err != nil {
		return err
	}
	if embeddingVec != nil {
		doc.Embedding = embeddingVec.Slice()
	}
	return nil
}

func scanNode(row rowScanner, n *model.Node) error {
	var embeddingVec *pgvector.Vector
	err := row.Scan(&n.ID, &n.Name, &n.Type, &n.Properties, &embeddingVec, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return err
	}
	if embeddingVec != nil {
		n.Embedding = embeddingVec.Slice()
	}
	return nil
}

func scanEdge(row rowScanner, e *model.Edge) error {
	return row.Scan(&e.ID, &e.SourceID, &e.TargetID, &e.RelationType, &e.Weight, &e.Properties, &e.CreatedAt)
}

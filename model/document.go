package model

import "time"

// Document represents a source document in the corpus.
//
// Embedding, if present, must have exactly the repository's configured
// dimension of elements. The lexical tsv column is always recomputed
// server-side on upsert from Content and is not part of this struct.
type Document struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Path      string         `json:"path,omitempty"`
	Screen    string         `json:"screen,omitempty"`
	Domain    string         `json:"domain,omitempty"`
	Metadata  Metadata       `json:"metadata,omitempty"`
	Embedding []float32      `json:"embedding,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// VectorHit is a Document ranked by dense vector distance.
type VectorHit struct {
	Document    *Document
	VectorScore float64
}

// TextHit is a Document ranked by lexical rank.
type TextHit struct {
	Document  *Document
	TextScore float64
}

// Result is a Document after Reciprocal Rank Fusion of vector and text hits.
type Result struct {
	Document    *Document
	FusedScore  float64
}

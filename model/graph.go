package model

import "time"

// Node is a typed entity in the knowledge graph.
//
// ID is deterministic: "node_" + the first 16 hex characters of
// SHA-256(lowercased(Name) + "::" + Type). Two entities with the same
// (lowercased name, type) always collapse onto the same node.
type Node struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Properties Metadata  `json:"properties,omitempty"`
	Embedding  []float32 `json:"embedding,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Edge is a directed, weighted relationship between two nodes.
//
// ID is deterministic: "edge_" + SourceID + "_" + RelationType + "_" +
// TargetID. Upserting with the same ID replaces RelationType, Weight and
// Properties in place.
type Edge struct {
	ID           string    `json:"id"`
	SourceID     string    `json:"source_id"`
	TargetID     string    `json:"target_id"`
	RelationType string    `json:"relation_type"`
	Weight       float64   `json:"weight"`
	Properties   Metadata  `json:"properties,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Direction of a traversal edge relative to the seed it was discovered from.
type Direction string

const (
	DirectionOutgoing Direction = "outgoing"
	DirectionIncoming Direction = "incoming"
)

// Neighbor pairs a node reached via get_neighbors with the edge that connects it.
type Neighbor struct {
	Node         *Node
	RelationType string
	Weight       float64
}

// TraversalResult is one row of a batched multi-hop traversal.
//
// Path holds the sequence of node ids from (but not including) the seed to
// Node, in traversal order; it is used purely for cycle prevention and is
// not re-walked once a node has been dedup'd to its smallest depth.
type TraversalResult struct {
	Node         *Node
	Depth        int
	RelationType string
	Direction    Direction
	Path         []string
	StartNodeID  string
}

// PathStep is one hop of a weighted path between two nodes.
type PathStep struct {
	Node         *Node
	RelationType string
}

// Path is a weighted sequence of hops from one node to another, as produced
// by find_paths.
type Path struct {
	Steps       []PathStep
	TotalWeight float64
}

// Subgraph is the induced subgraph over a seed set plus everything reached
// by traverse_batch within the given depth.
type Subgraph struct {
	Nodes []*Node
	Edges []*Edge
}

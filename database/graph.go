package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/ugnoguchigxp/regular-rag/helper"
	"github.com/ugnoguchigxp/regular-rag/model"
	loadsql "github.com/ugnoguchigxp/regular-rag/sql"
)

// GraphRepository handles node/edge database operations and the two
// recursive-CTE traversals (batched multi-hop walk, weighted path finding).
type GraphRepository struct {
	db  *helper.Database
	dim int
}

// NewGraphRepository loads the graph SQL functions and tables.
func NewGraphRepository(store *Store, dim int, force bool) (*GraphRepository, error) {
	if store == nil {
		return nil, helper.NewError("new graph repository", fmt.Errorf("store is nil"))
	}

	db := store.database()
	if err := loadsql.LoadGraphSql(db.Instance, force); err != nil {
		return nil, helper.NewError("load graph sql", err)
	}

	repo := &GraphRepository{db: db, dim: dim}
	if _, err := db.Instance.Exec(`SELECT init_graph($1)`, dim); err != nil {
		return nil, helper.NewError("init graph tables", err)
	}

	db.Logger.Info("initialized graph repository")
	return repo, nil
}

// NodeID deterministically derives a node id from its (name, type) pair:
// "node_" + the first 16 hex characters of SHA-256(lowercased(name)+"::"+type).
func NodeID(name, nodeType string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(name) + "::" + nodeType))
	return "node_" + hex.EncodeToString(sum[:])[:16]
}

// EdgeID deterministically derives an edge id from its endpoints and
// relation: "edge_" + sourceID + "_" + relationType + "_" + targetID.
func EdgeID(sourceID, relationType, targetID string) string {
	return fmt.Sprintf("edge_%s_%s_%s", sourceID, relationType, targetID)
}

// UpsertNode writes or overwrites a node by id. If Embedding is present it
// must have exactly r.dim elements.
func (r *GraphRepository) UpsertNode(ctx context.Context, n *model.Node) error {
	if len(n.Embedding) != 0 && len(n.Embedding) != r.dim {
		return helper.NewError("upsert node", fmt.Errorf("%w: got %d want %d", model.ErrDimensionMismatch, len(n.Embedding), r.dim))
	}
	if n.ID == "" {
		n.ID = NodeID(n.Name, n.Type)
	}

	row := r.db.Instance.QueryRowContext(ctx,
		`SELECT * FROM upsert_node($1, $2, $3, $4, $5)`,
		n.ID, n.Name, n.Type, n.Properties, embeddingParam(n.Embedding),
	)
	return scanNode(row, n)
}

// DeleteNode removes a node and (via foreign key cascade) every edge touching it.
func (r *GraphRepository) DeleteNode(ctx context.Context, id string) error {
	_, err := r.db.Instance.ExecContext(ctx, `SELECT delete_node($1)`, id)
	if err != nil {
		return helper.NewError("delete node", err)
	}
	return nil
}

// UpsertEdge writes or overwrites an edge by id.
func (r *GraphRepository) UpsertEdge(ctx context.Context, e *model.Edge) error {
	if e.ID == "" {
		e.ID = EdgeID(e.SourceID, e.RelationType, e.TargetID)
	}
	row := r.db.Instance.QueryRowContext(ctx,
		`SELECT * FROM upsert_edge($1, $2, $3, $4, $5, $6)`,
		e.ID, e.SourceID, e.TargetID, e.RelationType, e.Weight, e.Properties,
	)
	return scanEdge(row, e)
}

// DeleteEdge removes a single edge by id.
func (r *GraphRepository) DeleteEdge(ctx context.Context, id string) error {
	_, err := r.db.Instance.ExecContext(ctx, `SELECT delete_edge($1)`, id)
	if err != nil {
		return helper.NewError("delete edge", err)
	}
	return nil
}

// GetNodeByID retrieves a node by id.
func (r *GraphRepository) GetNodeByID(ctx context.Context, id string) (*model.Node, error) {
	n := &model.Node{}
	row := r.db.Instance.QueryRowContext(ctx, `SELECT * FROM select_node_by_id($1)`, id)
	if err := scanNode(row, n); err != nil {
		return nil, helper.NewError("select node by id", err)
	}
	return n, nil
}

// GetNodesByNames resolves a set of entity names to their nodes. Names with
// no matching node are silently omitted.
func (r *GraphRepository) GetNodesByNames(ctx context.Context, names []string) ([]*model.Node, error) {
	rows, err := r.db.Instance.QueryContext(ctx, `SELECT * FROM select_nodes_by_names($1)`, pq.Array(names))
	if err != nil {
		return nil, helper.NewError("select nodes by names", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// GetNodesByIDs hydrates a set of node ids into full Node records.
func (r *GraphRepository) GetNodesByIDs(ctx context.Context, ids []string) ([]*model.Node, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Instance.QueryContext(ctx, `SELECT * FROM select_nodes_by_ids($1)`, pq.Array(ids))
	if err != nil {
		return nil, helper.NewError("select nodes by ids", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

func scanNodes(rows *sql.Rows) ([]*model.Node, error) {
	var nodes []*model.Node
	for rows.Next() {
		n := &model.Node{}
		if err := scanNode(rows, n); err != nil {
			return nil, helper.NewError("scan node", err)
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("node rows", err)
	}
	return nodes, nil
}

// escapeLikePattern escapes %, _ and \ so SearchNodes matches pattern as a
// literal substring rather than a wildcard expression.
func escapeLikePattern(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}

// SearchNodes performs a case-insensitive substring search over node names.
func (r *GraphRepository) SearchNodes(ctx context.Context, substring string, limit int) ([]*model.Node, error) {
	rows, err := r.db.Instance.QueryContext(ctx,
		`SELECT * FROM search_nodes($1, $2)`, escapeLikePattern(substring), limit,
	)
	if err != nil {
		return nil, helper.NewError("search nodes", err)
	}
	defer rows.Close()
	return scanNodes(rows)
}

// GetNeighbors returns every node directly connected to nodeID, in either
// direction, tagged with the connecting relation and weight. Outgoing and
// incoming neighbors come back in one list; the edge direction is not reported.
func (r *GraphRepository) GetNeighbors(ctx context.Context, nodeID string) ([]model.Neighbor, error) {
	rows, err := r.db.Instance.QueryContext(ctx, `SELECT * FROM select_neighbors($1)`, nodeID)
	if err != nil {
		return nil, helper.NewError("select neighbors", err)
	}
	defer rows.Close()

	var neighbors []model.Neighbor
	for rows.Next() {
		n := &model.Node{}
		var relationType string
		var weight float64
		var isOutgoing bool
		if err := rows.Scan(&n.ID, &n.Name, &n.Type, &n.Properties, &relationType, &weight, &isOutgoing); err != nil {
			return nil, helper.NewError("scan neighbor", err)
		}
		neighbors = append(neighbors, model.Neighbor{Node: n, RelationType: relationType, Weight: weight})
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("neighbor rows", err)
	}
	return neighbors, nil
}

// TraverseBatch runs the batched multi-hop breadth-growing walk seeded from
// seedIDs, deduplicating every discovered node down to the smallest depth at
// which it was reached across all seeds.
func (r *GraphRepository) TraverseBatch(ctx context.Context, seedIDs []string, maxDepth int) ([]model.TraversalResult, error) {
	rows, err := r.db.Instance.QueryContext(ctx,
		`SELECT * FROM traverse_nodes_batch($1, $2)`, pq.Array(seedIDs), maxDepth,
	)
	if err != nil {
		return nil, helper.NewError("traverse batch", err)
	}
	defer rows.Close()

	best := make(map[string]model.TraversalResult)
	for rows.Next() {
		var nodeID, relationType, direction, startNodeID string
		var depth int
		var path pq.StringArray
		if err := rows.Scan(&nodeID, &depth, &relationType, &direction, &path, &startNodeID); err != nil {
			return nil, helper.NewError("scan traversal row", err)
		}
		existing, ok := best[nodeID]
		if !ok || depth < existing.Depth {
			best[nodeID] = model.TraversalResult{
				Node:         &model.Node{ID: nodeID},
				Depth:        depth,
				RelationType: relationType,
				Direction:    model.Direction(direction),
				Path:         []string(path),
				StartNodeID:  startNodeID,
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("traversal rows", err)
	}

	ids := make([]string, 0, len(best))
	for _, tr := range best {
		ids = append(ids, tr.Node.ID)
	}
	nodes, err := r.GetNodesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	results := make([]model.TraversalResult, 0, len(best))
	for _, tr := range best {
		if n, ok := byID[tr.Node.ID]; ok {
			tr.Node = n
		}
		results = append(results, tr)
	}
	return results, nil
}

// GetSubgraph returns the induced subgraph over seedIDs plus everything
// reachable from them within maxDepth: every discovered node, plus every
// edge with both endpoints in that node set.
func (r *GraphRepository) GetSubgraph(ctx context.Context, seedIDs []string, maxDepth int) (*model.Subgraph, error) {
	traversal, err := r.TraverseBatch(ctx, seedIDs, maxDepth)
	if err != nil {
		return nil, err
	}

	nodeSet := make(map[string]*model.Node)
	for _, id := range seedIDs {
		nodeSet[id] = nil
	}
	for _, tr := range traversal {
		nodeSet[tr.Node.ID] = tr.Node
	}

	ids := make([]string, 0, len(nodeSet))
	for id := range nodeSet {
		ids = append(ids, id)
	}
	nodes, err := r.GetNodesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Instance.QueryContext(ctx,
		`SELECT e.id, e.source_id, e.target_id, e.relation_type, e.weight, e.properties, e.created_at
		 FROM edges e WHERE e.source_id = ANY($1) AND e.target_id = ANY($1)`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, helper.NewError("select subgraph edges", err)
	}
	defer rows.Close()

	var edges []*model.Edge
	for rows.Next() {
		e := &model.Edge{}
		if err := scanEdge(rows, e); err != nil {
			return nil, helper.NewError("scan subgraph edge", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("subgraph edge rows", err)
	}

	nodePtrs := make([]*model.Node, len(nodes))
	copy(nodePtrs, nodes)
	return &model.Subgraph{Nodes: nodePtrs, Edges: edges}, nil
}

// FindPaths returns up to 5 weighted paths from fromID to toID, ordered by
// ascending total weight (lightest path first).
func (r *GraphRepository) FindPaths(ctx context.Context, fromID, toID string, maxDepth int) ([]model.Path, error) {
	rows, err := r.db.Instance.QueryContext(ctx,
		`SELECT path, relations, total_weight FROM find_weighted_paths($1, $2, $3)
		 ORDER BY total_weight ASC LIMIT 5`,
		fromID, toID, maxDepth,
	)
	if err != nil {
		return nil, helper.NewError("find weighted paths", err)
	}
	defer rows.Close()

	type rawPath struct {
		nodeIDs     []string
		relations   []string
		totalWeight float64
	}
	var raw []rawPath
	allIDs := make(map[string]struct{})
	for rows.Next() {
		var path, relations pq.StringArray
		var totalWeight float64
		if err := rows.Scan(&path, &relations, &totalWeight); err != nil {
			return nil, helper.NewError("scan weighted path", err)
		}
		for _, id := range path {
			allIDs[id] = struct{}{}
		}
		raw = append(raw, rawPath{nodeIDs: []string(path), relations: []string(relations), totalWeight: totalWeight})
	}
	if err := rows.Err(); err != nil {
		return nil, helper.NewError("weighted path rows", err)
	}

	ids := make([]string, 0, len(allIDs))
	for id := range allIDs {
		ids = append(ids, id)
	}
	nodes, err := r.GetNodesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*model.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	paths := make([]model.Path, 0, len(raw))
	for _, rp := range raw {
		steps := make([]model.PathStep, 0, len(rp.nodeIDs))
		for i, id := range rp.nodeIDs {
			node, ok := byID[id]
			if !ok {
				node = &model.Node{ID: id}
			}
			relationType := ""
			if i > 0 {
				relationType = rp.relations[i-1]
			}
			steps = append(steps, model.PathStep{Node: node, RelationType: relationType})
		}
		paths = append(paths, model.Path{Steps: steps, TotalWeight: rp.totalWeight})
	}
	return paths, nil
}

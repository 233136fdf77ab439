// Package graphservice builds the knowledge graph from extracted documents
// and renders graph neighborhoods as plain-text context for the completion
// prompt.
package graphservice

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ugnoguchigxp/regular-rag/database"
	"github.com/ugnoguchigxp/regular-rag/extractor"
	"github.com/ugnoguchigxp/regular-rag/helper"
	"github.com/ugnoguchigxp/regular-rag/model"
	"github.com/ugnoguchigxp/regular-rag/provider"
)

// contextTraversalDepth and subgraphTraversalDepth are the fixed max depths
// pathTraversalDepth bounds find_paths separately.
const (
	contextTraversalDepth  = 2
	subgraphTraversalDepth = 1
	pathTraversalDepth     = 5
)

// BuildResult counts per-row upsert invocations, including overwrites of
// existing rows.
type BuildResult struct {
	NodesCreated int
	EdgesCreated int
}

// Service ties the extractor, the embedding provider and the graph
// repository together.
type Service struct {
	Graph     *database.GraphRepository
	Embedder  provider.EmbeddingProvider
	Extractor *extractor.Extractor
}

// New constructs a Service.
func New(graph *database.GraphRepository, embedder provider.EmbeddingProvider, ext *extractor.Extractor) *Service {
	return &Service{Graph: graph, Embedder: embedder, Extractor: ext}
}

// BuildGraphFromDocument extracts content's entities/relations, embeds every
// entity name concurrently (a per-entity embedding failure leaves that node
// without an embedding rather than aborting ingestion), validates dimensions
// before any write occurs, upserts all nodes, then upserts every relation
// whose endpoints both resolved in the locally extracted entity set.
func (s *Service) BuildGraphFromDocument(ctx context.Context, content string) (*BuildResult, error) {
	extracted, err := s.Extractor.Extract(ctx, content)
	if err != nil {
		return nil, helper.NewError("extract document", err)
	}

	embeddings := make([][]float32, len(extracted.Entities))
	if s.Embedder != nil {
		g, gctx := errgroup.WithContext(ctx)
		for i, ent := range extracted.Entities {
			i, ent := i, ent
			g.Go(func() error {
				emb, err := s.Embedder.CreateEmbedding(gctx, ent.Name)
				if err != nil {
					return nil // best-effort: no embedding for this node
				}
				embeddings[i] = emb
				return nil
			})
		}
		_ = g.Wait()
	}

	dim := 0
	if s.Embedder != nil {
		dim = s.Embedder.Dimension()
	}
	for _, emb := range embeddings {
		if len(emb) != 0 && len(emb) != dim {
			return nil, helper.NewError("build graph", fmt.Errorf("%w: entity embedding length %d want %d", model.ErrDimensionMismatch, len(emb), dim))
		}
	}

	nameToID := make(map[string]string, len(extracted.Entities))
	var nodesCreated int
	for i, ent := range extracted.Entities {
		node := &model.Node{
			Name:       ent.Name,
			Type:       ent.Type,
			Properties: model.Metadata(ent.Properties),
			Embedding:  embeddings[i],
		}
		if err := s.Graph.UpsertNode(ctx, node); err != nil {
			return nil, helper.NewError("upsert node", err)
		}
		nameToID[strings.ToLower(ent.Name)] = node.ID
		nodesCreated++
	}

	var edgesCreated int
	for _, rel := range extracted.Relations {
		sourceID, sourceOK := nameToID[strings.ToLower(rel.Source)]
		targetID, targetOK := nameToID[strings.ToLower(rel.Target)]
		if !sourceOK || !targetOK {
			continue
		}

		weight := rel.Weight
		if weight == 0 {
			weight = 1.0
		}
		edge := &model.Edge{
			SourceID:     sourceID,
			TargetID:     targetID,
			RelationType: rel.RelationType,
			Weight:       weight,
		}
		if err := s.Graph.UpsertEdge(ctx, edge); err != nil {
			return nil, helper.NewError("upsert edge", err)
		}
		edgesCreated++
	}

	return &BuildResult{NodesCreated: nodesCreated, EdgesCreated: edgesCreated}, nil
}

// GetContextForEntities resolves names to nodes, traverses two hops out from
// them, and renders a plain-text neighborhood summary. Returns "" when names
// is empty or none resolve.
func (s *Service) GetContextForEntities(ctx context.Context, names []string) (string, error) {
	if len(names) == 0 {
		return "", nil
	}

	nodes, err := s.Graph.GetNodesByNames(ctx, names)
	if err != nil {
		return "", helper.NewError("resolve entities", err)
	}
	if len(nodes) == 0 {
		return "", nil
	}

	ids := make([]string, len(nodes))
	resolvedNames := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
		resolvedNames[i] = n.Name
	}

	traversal, err := s.Graph.TraverseBatch(ctx, ids, contextTraversalDepth)
	if err != nil {
		return "", helper.NewError("traverse entities", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Entities: %s\n", strings.Join(resolvedNames, ", "))
	for _, n := range nodes {
		if len(n.Properties) > 0 {
			fmt.Fprintf(&b, "%s properties: %s\n", n.Name, formatProperties(n.Properties))
		}
	}

	byDepth := make(map[int][]model.TraversalResult)
	var depths []int
	for _, tr := range traversal {
		if _, seen := byDepth[tr.Depth]; !seen {
			depths = append(depths, tr.Depth)
		}
		byDepth[tr.Depth] = append(byDepth[tr.Depth], tr)
	}
	sort.Ints(depths)

	for _, depth := range depths {
		fmt.Fprintf(&b, "Depth %d:\n", depth)
		for _, tr := range byDepth[depth] {
			arrow := "→"
			if tr.Direction == model.DirectionIncoming {
				arrow = "←"
			}
			fmt.Fprintf(&b, "%s [%s] %s (%s)\n", arrow, tr.RelationType, tr.Node.Name, tr.Node.Type)
		}
	}

	return b.String(), nil
}

// GetPathContext renders up to 5 weighted paths between fromName and toName.
// Returns "" if either name fails to resolve or no path exists.
func (s *Service) GetPathContext(ctx context.Context, fromName, toName string) (string, error) {
	nodes, err := s.Graph.GetNodesByNames(ctx, []string{fromName, toName})
	if err != nil {
		return "", helper.NewError("resolve path endpoints", err)
	}
	if len(nodes) < 2 {
		return "", nil
	}

	var fromID, toID string
	for _, n := range nodes {
		if strings.EqualFold(n.Name, fromName) {
			fromID = n.ID
		}
		if strings.EqualFold(n.Name, toName) {
			toID = n.ID
		}
	}
	if fromID == "" || toID == "" {
		return "", nil
	}

	paths, err := s.Graph.FindPaths(ctx, fromID, toID, pathTraversalDepth)
	if err != nil {
		return "", helper.NewError("find paths", err)
	}
	if len(paths) == 0 {
		return "", nil
	}

	var b strings.Builder
	for i, p := range paths {
		fmt.Fprintf(&b, "Path %d (weight %.2f): ", i+1, p.TotalWeight)
		for j, step := range p.Steps {
			if j > 0 {
				fmt.Fprintf(&b, " -[%s]-> ", step.RelationType)
			}
			fmt.Fprint(&b, step.Node.Name)
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// GetSubgraphContext resolves names (unresolved are silently dropped) and
// renders the induced subgraph within one hop.
func (s *Service) GetSubgraphContext(ctx context.Context, names []string) (string, error) {
	nodes, err := s.Graph.GetNodesByNames(ctx, names)
	if err != nil {
		return "", helper.NewError("resolve subgraph entities", err)
	}
	if len(nodes) == 0 {
		return "", nil
	}

	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}

	subgraph, err := s.Graph.GetSubgraph(ctx, ids, subgraphTraversalDepth)
	if err != nil {
		return "", helper.NewError("get subgraph", err)
	}

	byID := make(map[string]*model.Node, len(subgraph.Nodes))
	var b strings.Builder
	b.WriteString("Nodes:\n")
	for _, n := range subgraph.Nodes {
		byID[n.ID] = n
		fmt.Fprintf(&b, "- %s (%s)\n", n.Name, n.Type)
	}

	b.WriteString("Edges:\n")
	for _, e := range subgraph.Edges {
		src, tgt := byID[e.SourceID], byID[e.TargetID]
		if src == nil || tgt == nil {
			continue
		}
		fmt.Fprintf(&b, "- %s -[%s]-> %s\n", src.Name, e.RelationType, tgt.Name)
	}

	return b.String(), nil
}

func formatProperties(props model.Metadata) string {
	parts := make([]string, 0, len(props))
	for k, v := range props {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

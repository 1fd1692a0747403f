// Package network extracts bounded subgraphs around movies and shortest
// paths between entities of the film graph.
package network

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"film-community/backend/internal/graph"
	"film-community/backend/internal/ident"
	apperrors "film-community/backend/pkg/errors"
	"film-community/backend/pkg/logger"
	"film-community/backend/pkg/metrics"
)

// Bounds applied to every request regardless of what the caller asked for
const (
	MinDepth    = 1
	MaxDepth    = 3
	MinNodes    = 10
	MaxNodes    = 500
	MinPathHops = 1
	MaxPathHops = 10

	// overFetch compensates for rows whose related node is already admitted
	overFetch = 2
)

// Store is the read surface the explorer needs from the graph
type Store interface {
	FindNode(ctx context.Context, ref graph.NodeRef) (*neo4j.Node, error)
	FindMovie(ctx context.Context, movieID int64) (*neo4j.Node, error)
	Neighborhood(ctx context.Context, movieID int64, depth, rowLimit int) ([]graph.NeighborRow, error)
	ShortestPath(ctx context.Context, start, end graph.NodeRef, maxDepth int) (*neo4j.Path, error)
}

// Explorer answers movie-network and shortest-path queries
type Explorer struct {
	store  Store
	logger *zap.Logger
}

// NewExplorer creates an explorer over store
func NewExplorer(store Store) *Explorer {
	return &Explorer{
		store:  store,
		logger: logger.Named("network"),
	}
}

// Extract returns the deduplicated subgraph within depth hops of a movie,
// holding at most maxNodes nodes. An unknown movie yields an empty network.
func (e *Explorer) Extract(ctx context.Context, movieID any, depth, maxNodes int) (*Network, error) {
	depth = clamp(depth, MinDepth, MaxDepth)
	maxNodes = clamp(maxNodes, MinNodes, MaxNodes)

	id, err := ident.Canonicalize(movieID)
	if err != nil {
		return nil, err
	}

	seed, err := e.store.FindMovie(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up seed movie: %w", err)
	}
	if seed == nil {
		return emptyNetwork(), nil
	}

	res := newResolver(e.logger)
	nodes := newNodeSet()
	links := newLinkSet()
	nodes.add(Materialize(*seed, NodeMovie, res.identity(*seed)))

	rows, err := e.store.Neighborhood(ctx, id, depth, maxNodes*overFetch)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch neighborhood: %w", err)
	}

	// Once the node cap is hit no new nodes are admitted, but later rows are
	// still scanned for links between nodes already in the set.
	for _, row := range rows {
		res.learn(row.PathNodes)
		relatedID := res.identity(row.Related)
		if nodes.len() < maxNodes && !nodes.has(relatedID) {
			nodes.add(Materialize(row.Related, TypeOf(row.Related), relatedID))
		}

		for _, rel := range row.Relationships {
			source, okS := res.endpoint(rel.StartElementId)
			target, okT := res.endpoint(rel.EndElementId)
			if okS && okT && nodes.has(source) && nodes.has(target) {
				links.add(source, target, rel.Type)
			}
		}
	}

	metrics.RecordNetworkSize(nodes.len())
	e.logger.Debug("Extracted movie network",
		zap.Int64("movie_id", id),
		zap.Int("depth", depth),
		zap.Int("rows", len(rows)),
		zap.Int("nodes", nodes.len()),
		zap.Int("links", len(links.links)),
	)

	return finish(nodes, links), nil
}

// FindPath returns one shortest path of at most maxDepth hops between two
// entities, nodes in path order and links in their stored direction. Missing
// endpoints or no path within range yield an empty network. Among several
// shortest paths the store picks one; the choice is not stable.
func (e *Explorer) FindPath(ctx context.Context, startType string, startID any, endType string, endID any, maxDepth int) (*Network, error) {
	maxDepth = clamp(maxDepth, MinPathHops, MaxPathHops)

	start, err := nodeRef(startType, startID)
	if err != nil {
		return nil, err
	}
	end, err := nodeRef(endType, endID)
	if err != nil {
		return nil, err
	}

	res := newResolver(e.logger)
	nodes := newNodeSet()
	links := newLinkSet()

	if start == end {
		node, err := e.store.FindNode(ctx, start)
		if err != nil {
			return nil, fmt.Errorf("failed to look up path endpoint: %w", err)
		}
		if node == nil {
			return emptyNetwork(), nil
		}
		nodes.add(Materialize(*node, TypeOf(*node), res.identity(*node)))
		return finish(nodes, links), nil
	}

	path, err := e.store.ShortestPath(ctx, start, end, maxDepth)
	if err != nil {
		return nil, fmt.Errorf("failed to find shortest path: %w", err)
	}
	if path == nil {
		return emptyNetwork(), nil
	}

	for _, node := range path.Nodes {
		id := res.identity(node)
		if !nodes.has(id) {
			nodes.add(Materialize(node, TypeOf(node), id))
		}
	}
	for _, rel := range path.Relationships {
		source, okS := res.endpoint(rel.StartElementId)
		target, okT := res.endpoint(rel.EndElementId)
		if okS && okT {
			links.add(source, target, rel.Type)
		}
	}

	return finish(nodes, links), nil
}

// nodeRef turns an external (type, id) pair into a store lookup. Movies and
// users are keyed by canonical integer id, genres by name.
func nodeRef(nodeType string, id any) (graph.NodeRef, error) {
	switch NodeType(nodeType) {
	case NodeMovie, NodeUser:
		n, err := ident.Canonicalize(id)
		if err != nil {
			return graph.NodeRef{}, err
		}
		return graph.NodeRef{Label: nodeType, Key: "id", Value: n}, nil
	case NodeGenre:
		name := fmt.Sprint(id)
		if name == "" {
			return graph.NodeRef{}, apperrors.NewInvalidIdentifier(id)
		}
		return graph.NodeRef{Label: nodeType, Key: "name", Value: name}, nil
	}
	return graph.NodeRef{}, apperrors.NewInvalidNodeType(nodeType)
}

func finish(nodes *nodeSet, links *linkSet) *Network {
	out := emptyNetwork()
	out.Nodes = append(out.Nodes, nodes.nodes...)
	out.Links = append(out.Links, links.links...)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

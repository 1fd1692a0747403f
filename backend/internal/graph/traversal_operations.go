package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Traversal Operations
// ============================================================================

// Neighborhood returns up to rowLimit variable-length paths of 1..depth
// undirected hops out of the seed movie, in store order. Callers clamp depth;
// it is interpolated because Cypher does not accept parameters in
// variable-length bounds.
func (r *Repository) Neighborhood(ctx context.Context, movieID int64, depth, rowLimit int) ([]NeighborRow, error) {
	if depth < 1 {
		return nil, fmt.Errorf("depth must be positive, got %d", depth)
	}

	query := fmt.Sprintf(`
		MATCH (start:Movie {id: $movieID})
		MATCH path = (start)-[*1..%d]-(related)
		RETURN related, nodes(path) AS path_nodes, relationships(path) AS rels
		LIMIT $rowLimit
	`, depth)

	records, err := r.read(ctx, "neighborhood", query, map[string]any{
		"movieID":  movieID,
		"rowLimit": rowLimit,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]NeighborRow, 0, len(records))
	for _, record := range records {
		related, ok := getNodeFromRecord(record, "related")
		if !ok {
			continue
		}
		rows = append(rows, NeighborRow{
			Related:       related,
			PathNodes:     getNodeSliceFromRecord(record, "path_nodes"),
			Relationships: getRelationshipSliceFromRecord(record, "rels"),
		})
	}
	return rows, nil
}

// ShortestPath returns one shortest undirected path of at most maxDepth hops
// between two distinct nodes, or nil when either is missing or no such path
// exists. Which path wins among equal-length ones is up to the planner.
func (r *Repository) ShortestPath(ctx context.Context, start, end NodeRef, maxDepth int) (*neo4j.Path, error) {
	if err := validateRef(start); err != nil {
		return nil, err
	}
	if err := validateRef(end); err != nil {
		return nil, err
	}
	if maxDepth < 1 {
		return nil, fmt.Errorf("max depth must be positive, got %d", maxDepth)
	}

	query := fmt.Sprintf(`
		MATCH (source:%s {%s: $startValue})
		MATCH (target:%s {%s: $endValue})
		WHERE source <> target
		MATCH path = shortestPath((source)-[*..%d]-(target))
		RETURN path
		LIMIT 1
	`, start.Label, start.Key, end.Label, end.Key, maxDepth)

	records, err := r.read(ctx, "shortest_path", query, map[string]any{
		"startValue": start.Value,
		"endValue":   end.Value,
	})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	val, ok := records[0].Get("path")
	if !ok || val == nil {
		return nil, nil
	}
	path, ok := val.(neo4j.Path)
	if !ok {
		return nil, nil
	}
	return &path, nil
}

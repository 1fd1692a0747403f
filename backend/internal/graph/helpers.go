package graph

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ============================================================================
// Helper Functions
// ============================================================================

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getInt64FromRecord(record *neo4j.Record, key string) int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0
	}
	if i, ok := val.(int64); ok {
		return i
	}
	if i, ok := val.(int); ok {
		return int64(i)
	}
	if f, ok := val.(float64); ok {
		return int64(f)
	}
	return 0
}

// getOptionalInt64FromRecord distinguishes a missing property (nil) from zero
func getOptionalInt64FromRecord(record *neo4j.Record, key string) *int64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	var n int64
	switch v := val.(type) {
	case int64:
		n = v
	case int:
		n = int64(v)
	case float64:
		n = int64(v)
	default:
		return nil
	}
	return &n
}

func getFloat64FromRecord(record *neo4j.Record, key string) float64 {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return 0.0
	}
	if f, ok := val.(float64); ok {
		return f
	}
	if i, ok := val.(int64); ok {
		return float64(i)
	}
	return 0.0
}

func getStringSliceFromRecord(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return []string{}
	}
	if slice, ok := val.([]interface{}); ok {
		result := make([]string, 0, len(slice))
		for _, v := range slice {
			if str, ok := v.(string); ok {
				result = append(result, str)
			}
		}
		return result
	}
	return []string{}
}

func getNodeFromRecord(record *neo4j.Record, key string) (neo4j.Node, bool) {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return neo4j.Node{}, false
	}
	node, ok := val.(neo4j.Node)
	return node, ok
}

func getNodeSliceFromRecord(record *neo4j.Record, key string) []neo4j.Node {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	slice, ok := val.([]interface{})
	if !ok {
		return nil
	}
	nodes := make([]neo4j.Node, 0, len(slice))
	for _, v := range slice {
		if node, ok := v.(neo4j.Node); ok {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

func getRelationshipSliceFromRecord(record *neo4j.Record, key string) []neo4j.Relationship {
	val, ok := record.Get(key)
	if !ok || val == nil {
		return nil
	}
	slice, ok := val.([]interface{})
	if !ok {
		return nil
	}
	rels := make([]neo4j.Relationship, 0, len(slice))
	for _, v := range slice {
		if rel, ok := v.(neo4j.Relationship); ok {
			rels = append(rels, rel)
		}
	}
	return rels
}

func movieFromRecord(record *neo4j.Record) Movie {
	return Movie{
		ID:     getInt64FromRecord(record, "id"),
		Title:  getStringFromRecord(record, "title"),
		Year:   getOptionalInt64FromRecord(record, "year"),
		Genres: getStringSliceFromRecord(record, "genres"),
	}
}

func moviesFromRecords(records []*neo4j.Record) []Movie {
	movies := make([]Movie, 0, len(records))
	for _, record := range records {
		movies = append(movies, movieFromRecord(record))
	}
	return movies
}

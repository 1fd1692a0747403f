package graph

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"film-community/backend/internal/movielens"
	apperrors "film-community/backend/pkg/errors"
	"film-community/backend/pkg/metrics"
)

// ============================================================================
// Import Operations (out-of-band write path used by cmd/importer)
// ============================================================================

// EnsureConstraints creates the uniqueness constraints lookups rely on
func (r *Repository) EnsureConstraints(ctx context.Context) error {
	constraints := []string{
		"CREATE CONSTRAINT movie_id IF NOT EXISTS FOR (m:Movie) REQUIRE m.id IS UNIQUE",
		"CREATE CONSTRAINT user_id IF NOT EXISTS FOR (u:User) REQUIRE u.id IS UNIQUE",
		"CREATE CONSTRAINT genre_name IF NOT EXISTS FOR (g:Genre) REQUIRE g.name IS UNIQUE",
		"CREATE INDEX movie_title IF NOT EXISTS FOR (m:Movie) ON (m.title)",
	}

	for _, statement := range constraints {
		if err := r.write(ctx, "ensure_constraints", statement, nil); err != nil {
			return err
		}
	}
	return nil
}

// Clear removes every node and relationship. CALL ... IN TRANSACTIONS only
// runs in an auto-commit transaction, hence session.Run.
func (r *Repository) Clear(ctx context.Context) error {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	start := time.Now()
	result, err := session.Run(ctx, `
		MATCH (n)
		CALL { WITH n DETACH DELETE n } IN TRANSACTIONS OF 10000 ROWS
	`, nil)
	if err == nil {
		_, err = result.Consume(ctx)
	}
	metrics.RecordGraphQuery("clear", time.Since(start), err)
	if err != nil {
		return apperrors.NewGraphQueryFailed("clear", err)
	}
	return nil
}

// MergeMovies upserts movies and links them to their genres
func (r *Repository) MergeMovies(ctx context.Context, movies []movielens.Movie) error {
	rows := make([]map[string]any, 0, len(movies))
	for _, m := range movies {
		var year any
		if m.Year != nil {
			year = *m.Year
		}
		rows = append(rows, map[string]any{
			"id":     m.ID,
			"title":  m.Title,
			"year":   year,
			"genres": m.Genres,
		})
	}

	return r.write(ctx, "merge_movies", `
		UNWIND $rows AS row
		MERGE (m:Movie {id: row.id})
		SET m.title = row.title, m.year = row.year
		WITH m, row
		UNWIND row.genres AS genre
		MERGE (g:Genre {name: genre})
		MERGE (m)-[:IN_GENRE]->(g)
	`, map[string]any{"rows": rows})
}

// MergeRatings upserts users and their RATED relationships
func (r *Repository) MergeRatings(ctx context.Context, ratings []movielens.Rating) error {
	rows := make([]map[string]any, 0, len(ratings))
	for _, rt := range ratings {
		rows = append(rows, map[string]any{
			"userID":    rt.UserID,
			"movieID":   rt.MovieID,
			"rating":    rt.Rating,
			"timestamp": rt.Timestamp,
		})
	}

	return r.write(ctx, "merge_ratings", `
		UNWIND $rows AS row
		MERGE (u:User {id: row.userID})
		MERGE (m:Movie {id: row.movieID})
		MERGE (u)-[r:RATED]->(m)
		SET r.rating = row.rating, r.timestamp = row.timestamp
	`, map[string]any{"rows": rows})
}

// MergeTags upserts users and their TAGGED relationships
func (r *Repository) MergeTags(ctx context.Context, tags []movielens.Tag) error {
	rows := make([]map[string]any, 0, len(tags))
	for _, tg := range tags {
		rows = append(rows, map[string]any{
			"userID":    tg.UserID,
			"movieID":   tg.MovieID,
			"tag":       tg.Tag,
			"timestamp": tg.Timestamp,
		})
	}

	return r.write(ctx, "merge_tags", `
		UNWIND $rows AS row
		MERGE (u:User {id: row.userID})
		MERGE (m:Movie {id: row.movieID})
		MERGE (u)-[t:TAGGED]->(m)
		SET t.tag = row.tag, t.timestamp = row.timestamp
	`, map[string]any{"rows": rows})
}

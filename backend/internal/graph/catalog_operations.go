package graph

import (
	"context"
)

// ============================================================================
// Catalog Operations
// ============================================================================

// ListMovies pages through movies ordered by id
func (r *Repository) ListMovies(ctx context.Context, limit, skip int) ([]Movie, error) {
	query := `
		MATCH (m:Movie)
		OPTIONAL MATCH (m)-[:IN_GENRE]->(g:Genre)
		WITH m, collect(g.name) AS genres
		RETURN m.id AS id, m.title AS title, m.year AS year, genres
		ORDER BY m.id
		SKIP $skip
		LIMIT $limit
	`

	records, err := r.read(ctx, "list_movies", query, map[string]any{
		"skip":  skip,
		"limit": limit,
	})
	if err != nil {
		return nil, err
	}
	return moviesFromRecords(records), nil
}

// CountMovies returns the number of movies in the graph
func (r *Repository) CountMovies(ctx context.Context) (int64, error) {
	records, err := r.read(ctx, "count_movies", "MATCH (m:Movie) RETURN count(m) AS count", nil)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	return getInt64FromRecord(records[0], "count"), nil
}

// SearchMovies finds movies whose title contains keyword
func (r *Repository) SearchMovies(ctx context.Context, keyword string, limit int) ([]Movie, error) {
	query := `
		MATCH (m:Movie)
		WHERE m.title CONTAINS $keyword
		OPTIONAL MATCH (m)-[:IN_GENRE]->(g:Genre)
		WITH m, collect(g.name) AS genres
		RETURN m.id AS id, m.title AS title, m.year AS year, genres
		ORDER BY m.title
		LIMIT $limit
	`

	records, err := r.read(ctx, "search_movies", query, map[string]any{
		"keyword": keyword,
		"limit":   limit,
	})
	if err != nil {
		return nil, err
	}
	return moviesFromRecords(records), nil
}

// FindUsers returns the user with the given id, if any, with a rating count
func (r *Repository) FindUsers(ctx context.Context, userID int64, limit int) ([]UserSummary, error) {
	query := `
		MATCH (u:User {id: $userID})
		OPTIONAL MATCH (u)-[r:RATED]->(:Movie)
		WITH u, count(r) AS rating_count
		RETURN u.id AS id, rating_count
		LIMIT $limit
	`

	records, err := r.read(ctx, "find_users", query, map[string]any{
		"userID": userID,
		"limit":  limit,
	})
	if err != nil {
		return nil, err
	}

	users := make([]UserSummary, 0, len(records))
	for _, record := range records {
		users = append(users, UserSummary{
			ID:          getInt64FromRecord(record, "id"),
			RatingCount: getInt64FromRecord(record, "rating_count"),
		})
	}
	return users, nil
}

// LikedMovies lists movies the user rated at or above minRating, best first
func (r *Repository) LikedMovies(ctx context.Context, userID int64, minRating float64, limit int) ([]LikedMovie, error) {
	query := `
		MATCH (u:User {id: $userID})-[r:RATED]->(m:Movie)
		WHERE r.rating >= $minRating
		OPTIONAL MATCH (m)-[:IN_GENRE]->(g:Genre)
		WITH m, r.rating AS rating, collect(g.name) AS genres
		RETURN m.id AS id, m.title AS title, m.year AS year, genres, rating
		ORDER BY rating DESC, m.title
		LIMIT $limit
	`

	records, err := r.read(ctx, "liked_movies", query, map[string]any{
		"userID":    userID,
		"minRating": minRating,
		"limit":     limit,
	})
	if err != nil {
		return nil, err
	}

	movies := make([]LikedMovie, 0, len(records))
	for _, record := range records {
		movies = append(movies, LikedMovie{
			Movie:  movieFromRecord(record),
			Rating: getFloat64FromRecord(record, "rating"),
		})
	}
	return movies, nil
}

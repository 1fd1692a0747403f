package graph

import (
	"context"
)

// ============================================================================
// Recommendation Operations
// ============================================================================

// MinCommonMovies is how many co-rated movies make another user "similar"
const MinCommonMovies = 3

// Every strategy query carries the target user through its aggregations so
// that "not already rated" is checked against that user, not any user. Each
// returns one row per movie before LIMIT so repeats never eat candidate slots.

// GenrePreferenceCandidates recommends unrated movies from the user's five
// most-liked genres. A movie in several of them is credited to the strongest.
func (r *Repository) GenrePreferenceCandidates(ctx context.Context, userID int64, minRating float64, limit int) ([]Candidate, error) {
	query := `
		MATCH (u:User {id: $userID})-[r:RATED]->(m:Movie)
		WHERE r.rating >= $minRating
		MATCH (m)-[:IN_GENRE]->(g:Genre)
		WITH u, g, count(DISTINCT m) AS genre_count
		ORDER BY genre_count DESC, g.name
		LIMIT 5
		MATCH (g)<-[:IN_GENRE]-(rec:Movie)
		WHERE NOT EXISTS { MATCH (u)-[:RATED]->(rec) }
		WITH rec, g.name AS genre_name, genre_count AS weight
		ORDER BY weight DESC, genre_name
		WITH rec, collect(genre_name)[0] AS reason_genre, max(weight) AS genre_count
		OPTIONAL MATCH (rec)-[:IN_GENRE]->(genre:Genre)
		WITH rec, reason_genre, genre_count, collect(genre.name) AS genres
		RETURN rec.id AS id, rec.title AS title, rec.year AS year, genres, reason_genre
		ORDER BY genre_count DESC, reason_genre, id
		LIMIT $limit
	`

	records, err := r.read(ctx, "strategy_genre_preference", query, map[string]any{
		"userID":    userID,
		"minRating": minRating,
		"limit":     limit,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(records))
	for _, record := range records {
		candidates = append(candidates, Candidate{
			Movie:       movieFromRecord(record),
			ReasonGenre: getStringFromRecord(record, "reason_genre"),
		})
	}
	return candidates, nil
}

// CollaborativeCandidates recommends movies rated by users who co-rated at
// least MinCommonMovies movies with the target user.
func (r *Repository) CollaborativeCandidates(ctx context.Context, userID int64, limit int) ([]Candidate, error) {
	query := `
		MATCH (u:User {id: $userID})-[:RATED]->(m1:Movie)<-[:RATED]-(other:User)
		WHERE other <> u
		WITH u, other, count(DISTINCT m1) AS common_movies
		WHERE common_movies >= $minCommon
		MATCH (other)-[:RATED]->(m2:Movie)
		WHERE NOT EXISTS { MATCH (u)-[:RATED]->(m2) }
		WITH m2, max(common_movies) AS max_common
		OPTIONAL MATCH (m2)-[:IN_GENRE]->(g:Genre)
		WITH m2, max_common, collect(DISTINCT g.name) AS genres
		RETURN m2.id AS id, m2.title AS title, m2.year AS year, genres, max_common AS common_movies
		ORDER BY common_movies DESC, id
		LIMIT $limit
	`

	records, err := r.read(ctx, "strategy_collaborative", query, map[string]any{
		"userID":    userID,
		"minCommon": MinCommonMovies,
		"limit":     limit,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(records))
	for _, record := range records {
		candidates = append(candidates, Candidate{
			Movie:        movieFromRecord(record),
			CommonMovies: getInt64FromRecord(record, "common_movies"),
		})
	}
	return candidates, nil
}

// ContentCandidates recommends unrated movies sharing a genre with any movie
// the user liked, naming the liked movie that sorts first by title.
func (r *Repository) ContentCandidates(ctx context.Context, userID int64, minRating float64, limit int) ([]Candidate, error) {
	query := `
		MATCH (u:User {id: $userID})-[r:RATED]->(liked:Movie)
		WHERE r.rating >= $minRating
		MATCH (liked)-[:IN_GENRE]->(:Genre)<-[:IN_GENRE]-(similar:Movie)
		WHERE similar <> liked AND NOT EXISTS { MATCH (u)-[:RATED]->(similar) }
		WITH similar, min(liked.title) AS liked_title
		OPTIONAL MATCH (similar)-[:IN_GENRE]->(g:Genre)
		WITH similar, liked_title, collect(DISTINCT g.name) AS genres
		RETURN similar.id AS id, similar.title AS title, similar.year AS year, genres,
		       liked_title
		ORDER BY id
		LIMIT $limit
	`

	records, err := r.read(ctx, "strategy_content_similarity", query, map[string]any{
		"userID":    userID,
		"minRating": minRating,
		"limit":     limit,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(records))
	for _, record := range records {
		candidates = append(candidates, Candidate{
			Movie:      movieFromRecord(record),
			LikedTitle: getStringFromRecord(record, "liked_title"),
		})
	}
	return candidates, nil
}

// GenrePreferences ranks the genres of the user's liked movies
func (r *Repository) GenrePreferences(ctx context.Context, userID int64, minRating float64, limit int) ([]GenrePreference, error) {
	query := `
		MATCH (u:User {id: $userID})-[r:RATED]->(m:Movie)
		WHERE r.rating >= $minRating
		MATCH (m)-[:IN_GENRE]->(g:Genre)
		WITH g, count(DISTINCT m) AS movie_count, avg(r.rating) AS avg_rating
		RETURN g.name AS genre, movie_count, avg_rating
		ORDER BY movie_count DESC, genre
		LIMIT $limit
	`

	records, err := r.read(ctx, "genre_preferences", query, map[string]any{
		"userID":    userID,
		"minRating": minRating,
		"limit":     limit,
	})
	if err != nil {
		return nil, err
	}

	prefs := make([]GenrePreference, 0, len(records))
	for _, record := range records {
		prefs = append(prefs, GenrePreference{
			Genre:      getStringFromRecord(record, "genre"),
			MovieCount: getInt64FromRecord(record, "movie_count"),
			AvgRating:  getFloat64FromRecord(record, "avg_rating"),
		})
	}
	return prefs, nil
}

// SimilarUsers lists users with at least MinCommonMovies co-rated movies
func (r *Repository) SimilarUsers(ctx context.Context, userID int64, limit int) ([]SimilarUser, error) {
	query := `
		MATCH (u:User {id: $userID})-[:RATED]->(m:Movie)<-[:RATED]-(other:User)
		WHERE other <> u
		WITH other, count(DISTINCT m) AS common_movies
		WHERE common_movies >= $minCommon
		RETURN other.id AS user_id, common_movies
		ORDER BY common_movies DESC, user_id
		LIMIT $limit
	`

	records, err := r.read(ctx, "similar_users", query, map[string]any{
		"userID":    userID,
		"minCommon": MinCommonMovies,
		"limit":     limit,
	})
	if err != nil {
		return nil, err
	}

	users := make([]SimilarUser, 0, len(records))
	for _, record := range records {
		users = append(users, SimilarUser{
			UserID:       getInt64FromRecord(record, "user_id"),
			CommonMovies: getInt64FromRecord(record, "common_movies"),
		})
	}
	return users, nil
}

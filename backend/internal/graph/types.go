package graph

import "github.com/neo4j/neo4j-go-driver/v5/neo4j"

// ============================================================================
// Graph Row Types
// ============================================================================

// Labels and relationship types present in the film graph
const (
	LabelMovie = "Movie"
	LabelUser  = "User"
	LabelGenre = "Genre"

	RelInGenre = "IN_GENRE"
	RelRated   = "RATED"
	RelTagged  = "TAGGED"
)

// Movie is a catalog row: a movie with its genre names in store order
type Movie struct {
	ID     int64    `json:"id"`
	Title  string   `json:"title"`
	Year   *int64   `json:"year"`
	Genres []string `json:"genres"`
}

// LikedMovie is a movie the user rated at or above a threshold
type LikedMovie struct {
	Movie
	Rating float64 `json:"rating"`
}

// UserSummary is a user together with how many movies they rated
type UserSummary struct {
	ID          int64 `json:"id"`
	RatingCount int64 `json:"rating_count"`
}

// NodeRef addresses a single node by label and one identifying property
type NodeRef struct {
	Label string
	Key   string
	Value any
}

// NeighborRow is one variable-length path out of a seed node. PathNodes
// resolves relationship endpoints, which the driver reports as element ids.
type NeighborRow struct {
	Related       neo4j.Node
	PathNodes     []neo4j.Node
	Relationships []neo4j.Relationship
}

// Candidate is a movie proposed by one recommendation strategy. Only the
// field matching the producing strategy is populated.
type Candidate struct {
	Movie
	ReasonGenre  string
	CommonMovies int64
	LikedTitle   string
}

// GenrePreference summarises how a user rates one genre
type GenrePreference struct {
	Genre      string  `json:"genre"`
	MovieCount int64   `json:"movie_count"`
	AvgRating  float64 `json:"avg_rating"`
}

// SimilarUser is another user with enough co-rated movies
type SimilarUser struct {
	UserID       int64 `json:"user_id"`
	CommonMovies int64 `json:"common_movies"`
}

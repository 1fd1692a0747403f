package recommend

import "fmt"

// Strategy tags the candidate source a recommendation came from
type Strategy string

const (
	StrategyGenrePreference   Strategy = "genre_preference"
	StrategyCollaborative     Strategy = "collaborative"
	StrategyContentSimilarity Strategy = "content_similarity"
)

// Weight orders merged candidates; lower sorts first
func (s Strategy) Weight() int {
	switch s {
	case StrategyGenrePreference:
		return 1
	case StrategyCollaborative:
		return 2
	case StrategyContentSimilarity:
		return 3
	}
	return 0
}

// Basis is the structured reason a movie was recommended. Only the field
// belonging to Strategy is set. Text is rendered from it, never parsed back.
type Basis struct {
	Strategy     Strategy
	Genre        string
	CommonMovies int64
	LikedTitle   string
}

// Reason is the short label shown next to a recommendation
func (b Basis) Reason() string {
	switch b.Strategy {
	case StrategyGenrePreference:
		return "genre preference: " + b.Genre
	case StrategyCollaborative:
		return fmt.Sprintf("similar users (%d movies rated in common)", b.CommonMovies)
	case StrategyContentSimilarity:
		return fmt.Sprintf("based on your liking of %q", b.LikedTitle)
	}
	return ""
}

// Explanation is the sentence form of Reason
func (b Basis) Explanation() string {
	switch b.Strategy {
	case StrategyGenrePreference:
		return fmt.Sprintf("You enjoy %s movies, so here is another one from that genre", b.Genre)
	case StrategyCollaborative:
		return fmt.Sprintf("Users with tastes like yours (%d movies rated in common) also watched this", b.CommonMovies)
	case StrategyContentSimilarity:
		return fmt.Sprintf("Because you liked %q, here is a movie that shares a genre with it", b.LikedTitle)
	}
	return ""
}

// Details renders the basis for clients
func (b Basis) Details() Details {
	d := Details{
		Strategy:    b.Strategy,
		Explanation: b.Explanation(),
	}
	switch b.Strategy {
	case StrategyGenrePreference:
		d.ReasonGenre = b.Genre
	case StrategyCollaborative:
		common := b.CommonMovies
		d.CommonMovies = &common
	case StrategyContentSimilarity:
		d.BasedOnMovie = b.LikedTitle
	}
	return d
}

// Details is the structured explanation attached to each recommendation
type Details struct {
	Strategy     Strategy `json:"strategy"`
	Explanation  string   `json:"explanation"`
	ReasonGenre  string   `json:"reason_genre,omitempty"`
	CommonMovies *int64   `json:"common_movies,omitempty"`
	BasedOnMovie string   `json:"based_on_movie,omitempty"`
}

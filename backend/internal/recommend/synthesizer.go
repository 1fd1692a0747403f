// Package recommend merges the genre, collaborative and content strategies
// into one ranked recommendation list for a user.
package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"film-community/backend/internal/graph"
	"film-community/backend/internal/ident"
	"film-community/backend/pkg/logger"
	"film-community/backend/pkg/metrics"
)

const (
	// DefaultLimit applies when the caller asks for fewer than one result
	DefaultLimit = 20

	// DefaultMinRating is the rating at which a movie counts as liked
	DefaultMinRating = 4.0

	genrePreferenceLimit = 10
	similarUserLimit     = 5
)

// Store is the read surface the synthesizer needs from the graph
type Store interface {
	GenrePreferenceCandidates(ctx context.Context, userID int64, minRating float64, limit int) ([]graph.Candidate, error)
	CollaborativeCandidates(ctx context.Context, userID int64, limit int) ([]graph.Candidate, error)
	ContentCandidates(ctx context.Context, userID int64, minRating float64, limit int) ([]graph.Candidate, error)
	GenrePreferences(ctx context.Context, userID int64, minRating float64, limit int) ([]graph.GenrePreference, error)
	SimilarUsers(ctx context.Context, userID int64, limit int) ([]graph.SimilarUser, error)
}

// Recommendation is one suggested movie
type Recommendation struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Year     *int64   `json:"year"`
	Genres   []string `json:"genres"`
	Reason   string   `json:"reason"`
	Score    int      `json:"score"`
	Strategy Strategy `json:"strategy"`
	Details  Details  `json:"details"`

	basis Basis
}

// Basis returns the structured reason behind the recommendation
func (r Recommendation) Basis() Basis {
	return r.basis
}

// SimilarUser is a co-rating user as shown to clients
type SimilarUser struct {
	UserID       string `json:"user_id"`
	CommonMovies int64  `json:"common_movies"`
}

// Reasoning summarizes the user's profile independently of the final list
type Reasoning struct {
	GenrePreferences     []graph.GenrePreference `json:"genre_preferences"`
	SimilarUsers         []SimilarUser           `json:"similar_users"`
	TotalRecommendations int                     `json:"total_recommendations"`
}

// Result is the full answer to a recommendation request
type Result struct {
	Recommendations []Recommendation `json:"recommendations"`
	Reasoning       Reasoning        `json:"reasoning"`
}

// Synthesizer produces recommendations from a Store
type Synthesizer struct {
	store  Store
	logger *zap.Logger
}

// NewSynthesizer creates a synthesizer over store
func NewSynthesizer(store Store) *Synthesizer {
	return &Synthesizer{
		store:  store,
		logger: logger.Named("recommend"),
	}
}

// Recommend runs every strategy for the user and merges the results. The
// first strategy in precedence order to propose a movie owns it; the merged
// list is stably ordered by strategy weight and truncated to limit.
func (s *Synthesizer) Recommend(ctx context.Context, userID any, limit int, minRating float64) (*Result, error) {
	if limit < 1 {
		limit = DefaultLimit
	}

	id, err := ident.Canonicalize(userID)
	if err != nil {
		return nil, err
	}

	// The five reads are independent; each runs in its own session
	var (
		genre, collaborative, content []graph.Candidate
		prefs                         []graph.GenrePreference
		similar                       []graph.SimilarUser
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		genre, err = s.store.GenrePreferenceCandidates(gctx, id, minRating, limit)
		return err
	})
	g.Go(func() (err error) {
		collaborative, err = s.store.CollaborativeCandidates(gctx, id, limit)
		return err
	})
	g.Go(func() (err error) {
		content, err = s.store.ContentCandidates(gctx, id, minRating, limit)
		return err
	})
	g.Go(func() (err error) {
		prefs, err = s.store.GenrePreferences(gctx, id, minRating, genrePreferenceLimit)
		return err
	})
	g.Go(func() (err error) {
		similar, err = s.store.SimilarUsers(gctx, id, similarUserLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to gather recommendation candidates: %w", err)
	}

	m := newMerger()
	for _, c := range genre {
		m.offer(c, Basis{Strategy: StrategyGenrePreference, Genre: c.ReasonGenre})
	}
	for _, c := range collaborative {
		m.offer(c, Basis{Strategy: StrategyCollaborative, CommonMovies: c.CommonMovies})
	}
	for _, c := range content {
		m.offer(c, Basis{Strategy: StrategyContentSimilarity, LikedTitle: c.LikedTitle})
	}
	recs := m.ranked(limit)

	for _, rec := range recs {
		metrics.RecordRecommendation(string(rec.Strategy))
	}
	s.logger.Debug("Synthesized recommendations",
		zap.Int64("user_id", id),
		zap.Int("genre_candidates", len(genre)),
		zap.Int("collaborative_candidates", len(collaborative)),
		zap.Int("content_candidates", len(content)),
		zap.Int("returned", len(recs)),
	)

	return &Result{
		Recommendations: recs,
		Reasoning: Reasoning{
			GenrePreferences:     roundPreferences(prefs),
			SimilarUsers:         renderSimilarUsers(similar),
			TotalRecommendations: len(recs),
		},
	}, nil
}

// merger keeps the first recommendation proposed for each movie id
type merger struct {
	seen map[int64]struct{}
	recs []Recommendation
}

func newMerger() *merger {
	return &merger{seen: make(map[int64]struct{})}
}

func (m *merger) offer(c graph.Candidate, basis Basis) {
	if _, ok := m.seen[c.ID]; ok {
		return
	}
	m.seen[c.ID] = struct{}{}

	genres := c.Genres
	if genres == nil {
		genres = []string{}
	}
	m.recs = append(m.recs, Recommendation{
		ID:       strconv.FormatInt(c.ID, 10),
		Title:    c.Title,
		Year:     c.Year,
		Genres:   genres,
		Reason:   basis.Reason(),
		Score:    basis.Strategy.Weight(),
		Strategy: basis.Strategy,
		Details:  basis.Details(),
		basis:    basis,
	})
}

func (m *merger) ranked(limit int) []Recommendation {
	recs := m.recs
	if recs == nil {
		recs = []Recommendation{}
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score < recs[j].Score })
	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

func roundPreferences(prefs []graph.GenrePreference) []graph.GenrePreference {
	out := make([]graph.GenrePreference, 0, len(prefs))
	for _, p := range prefs {
		p.AvgRating = math.Round(p.AvgRating*100) / 100
		out = append(out, p)
	}
	return out
}

func renderSimilarUsers(users []graph.SimilarUser) []SimilarUser {
	out := make([]SimilarUser, 0, len(users))
	for _, u := range users {
		out = append(out, SimilarUser{
			UserID:       strconv.FormatInt(u.UserID, 10),
			CommonMovies: u.CommonMovies,
		})
	}
	return out
}

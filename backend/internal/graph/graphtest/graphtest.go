// Package graphtest provides an in-memory film graph that answers the same
// read operations as graph.Repository, for tests that should not need Neo4j.
// A Graph must not be mutated while it is being read.
package graphtest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"film-community/backend/internal/graph"
)

// Graph is a small property graph with Movie, User and Genre nodes
type Graph struct {
	nodes []neo4j.Node
	rels  []neo4j.Relationship
	byEl  map[string]int
	seq   int

	// Err, when set, is returned by every read
	Err error
}

// New returns an empty graph
func New() *Graph {
	return &Graph{byEl: make(map[string]int)}
}

// AddNode inserts a node and returns its element id
func (g *Graph) AddNode(labels []string, props map[string]any) string {
	g.seq++
	el := fmt.Sprintf("4:test:%d", g.seq)
	g.byEl[el] = len(g.nodes)
	g.nodes = append(g.nodes, neo4j.Node{
		Id:        int64(g.seq),
		ElementId: el,
		Labels:    labels,
		Props:     props,
	})
	return el
}

// Relate inserts a directed relationship between two element ids
func (g *Graph) Relate(from, to, relType string, props map[string]any) {
	g.seq++
	g.rels = append(g.rels, neo4j.Relationship{
		Id:             int64(g.seq),
		ElementId:      fmt.Sprintf("5:test:%d", g.seq),
		StartId:        g.nodes[g.byEl[from]].Id,
		StartElementId: from,
		EndId:          g.nodes[g.byEl[to]].Id,
		EndElementId:   to,
		Type:           relType,
		Props:          props,
	})
}

// AddMovie inserts a movie linked to its genres, creating genres on demand.
// A zero year leaves the property unset.
func (g *Graph) AddMovie(id int64, title string, year int64, genres ...string) string {
	props := map[string]any{"id": id, "title": title}
	if year != 0 {
		props["year"] = year
	}
	el := g.AddNode([]string{graph.LabelMovie}, props)
	for _, name := range genres {
		g.Relate(el, g.genre(name), graph.RelInGenre, nil)
	}
	return el
}

// AddUser inserts a user
func (g *Graph) AddUser(id int64) string {
	return g.AddNode([]string{graph.LabelUser}, map[string]any{"id": id})
}

// Rate records a RATED relationship, creating the user on demand
func (g *Graph) Rate(userID, movieID int64, rating float64) {
	g.Relate(g.user(userID), g.mustMovie(movieID), graph.RelRated, map[string]any{"rating": rating, "timestamp": int64(0)})
}

// Tag records a TAGGED relationship, creating the user on demand
func (g *Graph) Tag(userID, movieID int64, tag string) {
	g.Relate(g.user(userID), g.mustMovie(movieID), graph.RelTagged, map[string]any{"tag": tag, "timestamp": int64(0)})
}

func (g *Graph) genre(name string) string {
	if el, ok := g.lookup(graph.LabelGenre, "name", name); ok {
		return el
	}
	return g.AddNode([]string{graph.LabelGenre}, map[string]any{"name": name})
}

func (g *Graph) user(id int64) string {
	if el, ok := g.lookup(graph.LabelUser, "id", id); ok {
		return el
	}
	return g.AddUser(id)
}

func (g *Graph) mustMovie(id int64) string {
	el, ok := g.lookup(graph.LabelMovie, "id", id)
	if !ok {
		panic(fmt.Sprintf("graphtest: movie %d not added", id))
	}
	return el
}

func (g *Graph) lookup(label, key string, value any) (string, bool) {
	for _, n := range g.nodes {
		if hasLabel(n, label) && n.Props[key] == value {
			return n.ElementId, true
		}
	}
	return "", false
}

func hasLabel(n neo4j.Node, label string) bool {
	for _, l := range n.Labels {
		if l == label {
			return true
		}
	}
	return false
}

func (g *Graph) node(el string) neo4j.Node {
	return g.nodes[g.byEl[el]]
}

// Ping reports Err, standing in for a connectivity check
func (g *Graph) Ping(context.Context) error {
	return g.Err
}

// ============================================================================
// Traversal reads
// ============================================================================

// FindNode implements the graph lookup by label and property
func (g *Graph) FindNode(_ context.Context, ref graph.NodeRef) (*neo4j.Node, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	el, ok := g.lookup(ref.Label, ref.Key, ref.Value)
	if !ok {
		return nil, nil
	}
	n := g.node(el)
	return &n, nil
}

// FindMovie looks up a movie by id
func (g *Graph) FindMovie(ctx context.Context, movieID int64) (*neo4j.Node, error) {
	return g.FindNode(ctx, graph.NodeRef{Label: graph.LabelMovie, Key: "id", Value: movieID})
}

// Neighborhood enumerates undirected trails of 1..depth hops from the seed
// movie depth-first, in relationship insertion order.
func (g *Graph) Neighborhood(ctx context.Context, movieID int64, depth, rowLimit int) ([]graph.NeighborRow, error) {
	seed, err := g.FindMovie(ctx, movieID)
	if err != nil || seed == nil {
		return nil, err
	}

	var rows []graph.NeighborRow
	used := make(map[string]bool)
	var walk func(at string, nodes []neo4j.Node, rels []neo4j.Relationship)
	walk = func(at string, nodes []neo4j.Node, rels []neo4j.Relationship) {
		for _, rel := range g.rels {
			if len(rows) >= rowLimit {
				return
			}
			if used[rel.ElementId] {
				continue
			}
			next, ok := other(rel, at)
			if !ok {
				continue
			}
			pathNodes := append(append([]neo4j.Node{}, nodes...), g.node(next))
			pathRels := append(append([]neo4j.Relationship{}, rels...), rel)
			rows = append(rows, graph.NeighborRow{
				Related:       g.node(next),
				PathNodes:     pathNodes,
				Relationships: pathRels,
			})
			if len(pathRels) < depth {
				used[rel.ElementId] = true
				walk(next, pathNodes, pathRels)
				used[rel.ElementId] = false
			}
		}
	}
	walk(seed.ElementId, []neo4j.Node{*seed}, nil)
	return rows, nil
}

// ShortestPath runs a breadth-first search treating edges as undirected
func (g *Graph) ShortestPath(ctx context.Context, start, end graph.NodeRef, maxDepth int) (*neo4j.Path, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	from, ok := g.lookup(start.Label, start.Key, start.Value)
	if !ok {
		return nil, nil
	}
	to, ok := g.lookup(end.Label, end.Key, end.Value)
	if !ok || from == to {
		return nil, nil
	}

	visited := map[string]hop{from: {}}
	frontier := []string{from}
	for hops := 0; hops < maxDepth && len(frontier) > 0; hops++ {
		var next []string
		for _, at := range frontier {
			for _, rel := range g.rels {
				n, ok := other(rel, at)
				if !ok {
					continue
				}
				if _, seen := visited[n]; seen {
					continue
				}
				visited[n] = hop{prev: at, rel: rel}
				if n == to {
					return g.buildPath(visited, from, to), nil
				}
				next = append(next, n)
			}
		}
		frontier = next
	}
	return nil, nil
}

// hop records how the search reached a node
type hop struct {
	prev string
	rel  neo4j.Relationship
}

func (g *Graph) buildPath(visited map[string]hop, from, to string) *neo4j.Path {
	var nodes []neo4j.Node
	var rels []neo4j.Relationship
	for at := to; at != from; {
		s := visited[at]
		nodes = append(nodes, g.node(at))
		rels = append(rels, s.rel)
		at = s.prev
	}
	nodes = append(nodes, g.node(from))
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	for i, j := 0, len(rels)-1; i < j; i, j = i+1, j-1 {
		rels[i], rels[j] = rels[j], rels[i]
	}
	return &neo4j.Path{Nodes: nodes, Relationships: rels}
}

func other(rel neo4j.Relationship, at string) (string, bool) {
	switch at {
	case rel.StartElementId:
		return rel.EndElementId, true
	case rel.EndElementId:
		return rel.StartElementId, true
	}
	return "", false
}

// ============================================================================
// Relationship indexes used by the recommendation and catalog reads
// ============================================================================

func (g *Graph) ratings(userID int64) map[int64]float64 {
	out := make(map[int64]float64)
	el, ok := g.lookup(graph.LabelUser, "id", userID)
	if !ok {
		return out
	}
	for _, rel := range g.rels {
		if rel.Type == graph.RelRated && rel.StartElementId == el {
			out[g.node(rel.EndElementId).Props["id"].(int64)] = rel.Props["rating"].(float64)
		}
	}
	return out
}

func (g *Graph) userIDs() []int64 {
	var ids []int64
	for _, n := range g.nodes {
		if hasLabel(n, graph.LabelUser) {
			ids = append(ids, n.Props["id"].(int64))
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (g *Graph) genresOf(movieID int64) []string {
	el, ok := g.lookup(graph.LabelMovie, "id", movieID)
	if !ok {
		return []string{}
	}
	genres := []string{}
	for _, rel := range g.rels {
		if rel.Type == graph.RelInGenre && rel.StartElementId == el {
			genres = append(genres, g.node(rel.EndElementId).Props["name"].(string))
		}
	}
	return genres
}

func (g *Graph) moviesIn(genre string) []int64 {
	el, ok := g.lookup(graph.LabelGenre, "name", genre)
	if !ok {
		return nil
	}
	var ids []int64
	for _, rel := range g.rels {
		if rel.Type == graph.RelInGenre && rel.EndElementId == el {
			ids = append(ids, g.node(rel.StartElementId).Props["id"].(int64))
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (g *Graph) movie(id int64) graph.Movie {
	el, _ := g.lookup(graph.LabelMovie, "id", id)
	n := g.node(el)
	m := graph.Movie{ID: id, Genres: g.genresOf(id)}
	m.Title, _ = n.Props["title"].(string)
	if y, ok := n.Props["year"].(int64); ok {
		m.Year = &y
	}
	return m
}

func (g *Graph) allMovies() []graph.Movie {
	var movies []graph.Movie
	for _, n := range g.nodes {
		if hasLabel(n, graph.LabelMovie) {
			movies = append(movies, g.movie(n.Props["id"].(int64)))
		}
	}
	sort.Slice(movies, func(i, j int) bool { return movies[i].ID < movies[j].ID })
	return movies
}

func liked(ratings map[int64]float64, minRating float64) []int64 {
	var ids []int64
	for id, r := range ratings {
		if r >= minRating {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// genreCounts ranks genres of the liked movies by count, then name
func (g *Graph) genreCounts(userID int64, minRating float64) []graph.GenrePreference {
	ratings := g.ratings(userID)
	byGenre := make(map[string]*graph.GenrePreference)
	var order []string
	for _, id := range liked(ratings, minRating) {
		for _, genre := range g.genresOf(id) {
			p, ok := byGenre[genre]
			if !ok {
				p = &graph.GenrePreference{Genre: genre}
				byGenre[genre] = p
				order = append(order, genre)
			}
			p.AvgRating = (p.AvgRating*float64(p.MovieCount) + ratings[id]) / float64(p.MovieCount+1)
			p.MovieCount++
		}
	}
	prefs := make([]graph.GenrePreference, 0, len(order))
	for _, genre := range order {
		prefs = append(prefs, *byGenre[genre])
	}
	sort.SliceStable(prefs, func(i, j int) bool {
		if prefs[i].MovieCount != prefs[j].MovieCount {
			return prefs[i].MovieCount > prefs[j].MovieCount
		}
		return prefs[i].Genre < prefs[j].Genre
	})
	return prefs
}

// similar returns co-rating users meeting the threshold, best first
func (g *Graph) similar(userID int64) []graph.SimilarUser {
	mine := g.ratings(userID)
	var users []graph.SimilarUser
	if _, ok := g.lookup(graph.LabelUser, "id", userID); !ok {
		return users
	}
	for _, peer := range g.userIDs() {
		if peer == userID {
			continue
		}
		common := int64(0)
		for id := range g.ratings(peer) {
			if _, ok := mine[id]; ok {
				common++
			}
		}
		if common >= graph.MinCommonMovies {
			users = append(users, graph.SimilarUser{UserID: peer, CommonMovies: common})
		}
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].CommonMovies > users[j].CommonMovies })
	return users
}

func limitTo[T any](items []T, limit int) []T {
	if limit >= 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

// ============================================================================
// Recommendation reads
// ============================================================================

// GenrePreferenceCandidates mirrors the repository query of the same name
func (g *Graph) GenrePreferenceCandidates(_ context.Context, userID int64, minRating float64, limit int) ([]graph.Candidate, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	rated := g.ratings(userID)
	seen := make(map[int64]bool)
	candidates := []graph.Candidate{}
	for _, pref := range limitTo(g.genreCounts(userID, minRating), 5) {
		for _, id := range g.moviesIn(pref.Genre) {
			if _, ok := rated[id]; ok || seen[id] {
				continue
			}
			seen[id] = true
			candidates = append(candidates, graph.Candidate{Movie: g.movie(id), ReasonGenre: pref.Genre})
		}
	}
	return limitTo(candidates, limit), nil
}

// CollaborativeCandidates mirrors the repository query of the same name
func (g *Graph) CollaborativeCandidates(_ context.Context, userID int64, limit int) ([]graph.Candidate, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	rated := g.ratings(userID)
	best := make(map[int64]int64)
	for _, su := range g.similar(userID) {
		for id := range g.ratings(su.UserID) {
			if _, ok := rated[id]; ok {
				continue
			}
			if su.CommonMovies > best[id] {
				best[id] = su.CommonMovies
			}
		}
	}
	candidates := []graph.Candidate{}
	for id, common := range best {
		candidates = append(candidates, graph.Candidate{Movie: g.movie(id), CommonMovies: common})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CommonMovies != candidates[j].CommonMovies {
			return candidates[i].CommonMovies > candidates[j].CommonMovies
		}
		return candidates[i].ID < candidates[j].ID
	})
	return limitTo(candidates, limit), nil
}

// ContentCandidates mirrors the repository query of the same name
func (g *Graph) ContentCandidates(_ context.Context, userID int64, minRating float64, limit int) ([]graph.Candidate, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	rated := g.ratings(userID)
	index := make(map[int64]int)
	candidates := []graph.Candidate{}
	for _, likedID := range liked(rated, minRating) {
		likedTitle := g.movie(likedID).Title
		for _, genre := range g.genresOf(likedID) {
			for _, id := range g.moviesIn(genre) {
				if _, ok := rated[id]; ok || id == likedID {
					continue
				}
				if i, ok := index[id]; ok {
					if likedTitle < candidates[i].LikedTitle {
						candidates[i].LikedTitle = likedTitle
					}
					continue
				}
				index[id] = len(candidates)
				candidates = append(candidates, graph.Candidate{Movie: g.movie(id), LikedTitle: likedTitle})
			}
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ID < candidates[j].ID
	})
	return limitTo(candidates, limit), nil
}

// GenrePreferences mirrors the repository query of the same name
func (g *Graph) GenrePreferences(_ context.Context, userID int64, minRating float64, limit int) ([]graph.GenrePreference, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	return limitTo(g.genreCounts(userID, minRating), limit), nil
}

// SimilarUsers mirrors the repository query of the same name
func (g *Graph) SimilarUsers(_ context.Context, userID int64, limit int) ([]graph.SimilarUser, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	return limitTo(g.similar(userID), limit), nil
}

// ============================================================================
// Catalog reads
// ============================================================================

// ListMovies pages through movies ordered by id
func (g *Graph) ListMovies(_ context.Context, limit, skip int) ([]graph.Movie, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	movies := g.allMovies()
	if skip >= len(movies) {
		return []graph.Movie{}, nil
	}
	return limitTo(movies[skip:], limit), nil
}

// CountMovies counts movies
func (g *Graph) CountMovies(context.Context) (int64, error) {
	if g.Err != nil {
		return 0, g.Err
	}
	return int64(len(g.allMovies())), nil
}

// SearchMovies matches titles containing keyword, ordered by title
func (g *Graph) SearchMovies(_ context.Context, keyword string, limit int) ([]graph.Movie, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	movies := []graph.Movie{}
	for _, m := range g.allMovies() {
		if strings.Contains(m.Title, keyword) {
			movies = append(movies, m)
		}
	}
	sort.SliceStable(movies, func(i, j int) bool { return movies[i].Title < movies[j].Title })
	return limitTo(movies, limit), nil
}

// FindUsers returns the user with the given id and its rating count
func (g *Graph) FindUsers(_ context.Context, userID int64, limit int) ([]graph.UserSummary, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	if _, ok := g.lookup(graph.LabelUser, "id", userID); !ok {
		return []graph.UserSummary{}, nil
	}
	users := []graph.UserSummary{{ID: userID, RatingCount: int64(len(g.ratings(userID)))}}
	return limitTo(users, limit), nil
}

// LikedMovies lists movies rated at or above minRating, best first
func (g *Graph) LikedMovies(_ context.Context, userID int64, minRating float64, limit int) ([]graph.LikedMovie, error) {
	if g.Err != nil {
		return nil, g.Err
	}
	ratings := g.ratings(userID)
	movies := []graph.LikedMovie{}
	for _, id := range liked(ratings, minRating) {
		movies = append(movies, graph.LikedMovie{Movie: g.movie(id), Rating: ratings[id]})
	}
	sort.SliceStable(movies, func(i, j int) bool {
		if movies[i].Rating != movies[j].Rating {
			return movies[i].Rating > movies[j].Rating
		}
		return movies[i].Title < movies[j].Title
	})
	return limitTo(movies, limit), nil
}

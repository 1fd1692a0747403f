package network

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"film-community/backend/internal/graph"
	"film-community/backend/internal/graph/graphtest"
	apperrors "film-community/backend/pkg/errors"
)

func assertLinksClosed(t *testing.T, n *Network) {
	t.Helper()
	ids := make(map[string]bool, len(n.Nodes))
	for _, node := range n.Nodes {
		assert.False(t, ids[node.ID], "duplicate node %s", node.ID)
		ids[node.ID] = true
	}
	for _, link := range n.Links {
		assert.True(t, ids[link.Source], "link source %s missing from nodes", link.Source)
		assert.True(t, ids[link.Target], "link target %s missing from nodes", link.Target)
	}
}

func TestExtract_IsolatedSeed(t *testing.T) {
	g := graphtest.New()
	g.AddMovie(1, "Lonely", 2001)

	n, err := NewExplorer(g).Extract(context.Background(), 1, 1, 100)
	require.NoError(t, err)

	require.Len(t, n.Nodes, 1)
	assert.Equal(t, "1", n.Nodes[0].ID)
	assert.Equal(t, "Lonely", n.Nodes[0].Name)
	assert.Equal(t, NodeMovie, n.Nodes[0].Type)
	assert.NotNil(t, n.Links)
	assert.Empty(t, n.Links)
}

func TestExtract_MissingSeed(t *testing.T) {
	g := graphtest.New()
	g.AddMovie(1, "Present", 0, "Drama")

	n, err := NewExplorer(g).Extract(context.Background(), "404", 2, 100)
	require.NoError(t, err)
	assert.Equal(t, emptyNetwork(), n)
}

func TestExtract_InvalidIdentifier(t *testing.T) {
	_, err := NewExplorer(graphtest.New()).Extract(context.Background(), "notanumber", 2, 100)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidIdentifier(err))
}

func TestExtract_Neighborhood(t *testing.T) {
	g := graphtest.New()
	g.AddMovie(1, "Toy Story", 1995, "Animation", "Comedy")
	g.AddMovie(2, "Grumpier Old Men", 1995, "Comedy")
	g.AddMovie(3, "Heat", 1995, "Action")
	g.Rate(10, 1, 4.0)
	g.Rate(10, 3, 5.0)
	g.Tag(10, 1, "pixar")

	ctx := context.Background()
	explorer := NewExplorer(g)

	oneHop, err := explorer.Extract(ctx, int64(1), 1, 100)
	require.NoError(t, err)
	assertLinksClosed(t, oneHop)

	ids := nodeIDs(oneHop)
	assert.ElementsMatch(t, []string{"1", "Animation", "Comedy", "10"}, ids)
	assert.Contains(t, oneHop.Links, NetworkLink{Source: "1", Target: "Comedy", Type: graph.RelInGenre})
	assert.Contains(t, oneHop.Links, NetworkLink{Source: "10", Target: "1", Type: graph.RelRated})
	assert.Contains(t, oneHop.Links, NetworkLink{Source: "10", Target: "1", Type: graph.RelTagged})

	twoHop, err := explorer.Extract(ctx, 1.0, 2, 100)
	require.NoError(t, err)
	assertLinksClosed(t, twoHop)
	assert.Subset(t, nodeIDs(twoHop), []string{"2", "3"})

	// depth is clamped to 3, so a huge request still terminates with the same graph
	deep, err := explorer.Extract(ctx, "1", 99, 100)
	require.NoError(t, err)
	assertLinksClosed(t, deep)
	assert.GreaterOrEqual(t, len(deep.Nodes), len(twoHop.Nodes))
}

func TestExtract_NodeCap(t *testing.T) {
	g := graphtest.New()
	g.AddMovie(1, "Seed", 0, "Comedy")
	for i := int64(2); i <= 40; i++ {
		g.AddMovie(i, fmt.Sprintf("Comedy %d", i), 0, "Comedy")
	}

	n, err := NewExplorer(g).Extract(context.Background(), 1, 2, 1)
	require.NoError(t, err)

	assert.Len(t, n.Nodes, MinNodes, "max nodes is clamped up to the minimum")
	assertLinksClosed(t, n)
	assert.Equal(t, "1", n.Nodes[0].ID)
}

// rowStore serves a fixed seed and neighborhood
type rowStore struct {
	seed neo4j.Node
	rows []graph.NeighborRow
}

func (s rowStore) FindNode(context.Context, graph.NodeRef) (*neo4j.Node, error) { return nil, nil }

func (s rowStore) FindMovie(context.Context, int64) (*neo4j.Node, error) {
	seed := s.seed
	return &seed, nil
}

func (s rowStore) Neighborhood(context.Context, int64, int, int) ([]graph.NeighborRow, error) {
	return s.rows, nil
}

func (s rowStore) ShortestPath(context.Context, graph.NodeRef, graph.NodeRef, int) (*neo4j.Path, error) {
	return nil, nil
}

func movieNode(id int64) neo4j.Node {
	return neo4j.Node{
		ElementId: fmt.Sprintf("4:m:%d", id),
		Labels:    []string{graph.LabelMovie},
		Props:     map[string]any{"id": id, "title": fmt.Sprintf("Movie %d", id)},
	}
}

func relation(from, to neo4j.Node, relType string) neo4j.Relationship {
	return neo4j.Relationship{
		ElementId:      from.ElementId + ">" + to.ElementId,
		StartElementId: from.ElementId,
		EndElementId:   to.ElementId,
		Type:           relType,
	}
}

func TestExtract_LinksAfterNodeCap(t *testing.T) {
	seed := movieNode(1)
	var rows []graph.NeighborRow
	for i := int64(2); i <= 11; i++ {
		m := movieNode(i)
		rows = append(rows, graph.NeighborRow{
			Related:       m,
			PathNodes:     []neo4j.Node{seed, m},
			Relationships: []neo4j.Relationship{relation(m, seed, "SIMILAR")},
		})
	}
	// the 2->3 sequel edge is only seen after movie 11 was turned away
	m2, m3 := movieNode(2), movieNode(3)
	rows = append(rows, graph.NeighborRow{
		Related:       m3,
		PathNodes:     []neo4j.Node{seed, m2, m3},
		Relationships: []neo4j.Relationship{relation(m2, seed, "SIMILAR"), relation(m2, m3, "SEQUEL")},
	})

	n, err := NewExplorer(rowStore{seed: seed, rows: rows}).Extract(context.Background(), 1, 2, MinNodes)
	require.NoError(t, err)
	assertLinksClosed(t, n)

	require.Len(t, n.Nodes, MinNodes)
	assert.NotContains(t, nodeIDs(n), "11")
	assert.Contains(t, n.Links, NetworkLink{Source: "2", Target: "3", Type: "SEQUEL"})
	assert.Len(t, n.Links, MinNodes)
}

// sharedIDFixture gives user 1 and movie 1 the same numeric id
func sharedIDFixture() *graphtest.Graph {
	g := graphtest.New()
	g.AddMovie(1, "Toy Story", 1995, "Comedy")
	g.AddMovie(2, "Grumpier Old Men", 1995, "Comedy")
	g.Rate(1, 1, 4.0)
	return g
}

func TestExtract_UserAndMovieShareID(t *testing.T) {
	n, err := NewExplorer(sharedIDFixture()).Extract(context.Background(), 1, 1, 100)
	require.NoError(t, err)
	assertLinksClosed(t, n)

	assert.Equal(t, []string{"1", "Comedy", "User:1"}, nodeIDs(n))
	assert.Equal(t, NodeMovie, n.Nodes[0].Type)
	assert.Equal(t, NodeUser, n.Nodes[2].Type)
	assert.Equal(t, "User_1", n.Nodes[2].Name)
	assert.Equal(t, []NetworkLink{
		{Source: "1", Target: "Comedy", Type: graph.RelInGenre},
		{Source: "User:1", Target: "1", Type: graph.RelRated},
	}, n.Links)
}

func TestFindPath_UserAndMovieShareID(t *testing.T) {
	n, err := NewExplorer(sharedIDFixture()).FindPath(context.Background(), "User", 1, "Movie", 2, 5)
	require.NoError(t, err)
	assertLinksClosed(t, n)
	assertConsecutive(t, n)

	assert.Equal(t, []string{"1", "Movie:1", "Comedy", "2"}, nodeIDs(n))
	assert.Equal(t, NodeUser, n.Nodes[0].Type)
	assert.Equal(t, NodeMovie, n.Nodes[1].Type)
	assert.Equal(t, NetworkLink{Source: "1", Target: "Movie:1", Type: graph.RelRated}, n.Links[0])
}

func TestExtract_ElementIDFallback(t *testing.T) {
	g := graphtest.New()
	seed := g.AddMovie(1, "Seed", 0)
	anon := g.AddNode([]string{"Studio"}, map[string]any{"founded": int64(1986)})
	g.Relate(anon, seed, "PRODUCED", nil)

	n, err := NewExplorer(g).Extract(context.Background(), 1, 1, 10)
	require.NoError(t, err)
	require.Len(t, n.Nodes, 2)

	studio := n.Nodes[1]
	assert.True(t, strings.HasPrefix(studio.ID, "element:"))
	assert.Equal(t, NodeUnknown, studio.Type)
	assert.Equal(t, "Unknown_"+studio.ID, studio.Name)
	assert.Equal(t, []NetworkLink{{Source: studio.ID, Target: "1", Type: "PRODUCED"}}, n.Links)
}

func TestExtract_StoreFailure(t *testing.T) {
	g := graphtest.New()
	g.Err = errors.New("connection refused")

	_, err := NewExplorer(g).Extract(context.Background(), 1, 1, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, g.Err)
}

// pathFixture links movies 1 and 2 only through user 10, and movie 3 through
// a chain of genres that is four hops away from movie 1.
func pathFixture() *graphtest.Graph {
	g := graphtest.New()
	g.AddMovie(1, "Alpha", 0, "Comedy")
	g.AddMovie(2, "Beta", 0, "Drama")
	g.AddMovie(3, "Gamma", 0, "Horror")
	g.AddMovie(4, "Delta", 0, "Comedy", "Horror")
	g.Rate(10, 1, 4.5)
	g.Rate(10, 2, 3.0)
	return g
}

func TestFindPath_DepthBound(t *testing.T) {
	explorer := NewExplorer(pathFixture())
	ctx := context.Background()

	n, err := explorer.FindPath(ctx, "Movie", 1, "Movie", 2, 1)
	require.NoError(t, err)
	assert.Equal(t, emptyNetwork(), n)

	n, err = explorer.FindPath(ctx, "Movie", 1, "Movie", 2, 3)
	require.NoError(t, err)
	require.NotEmpty(t, n.Nodes)
	assert.LessOrEqual(t, len(n.Links), 3)
	assert.Equal(t, []string{"1", "10", "2"}, nodeIDs(n))
	assertConsecutive(t, n)

	// links keep their stored direction even when walked backwards
	assert.Equal(t, []NetworkLink{
		{Source: "10", Target: "1", Type: graph.RelRated},
		{Source: "10", Target: "2", Type: graph.RelRated},
	}, n.Links)
}

func TestFindPath_MixedTypes(t *testing.T) {
	explorer := NewExplorer(pathFixture())
	ctx := context.Background()

	n, err := explorer.FindPath(ctx, "User", "10", "Genre", "Horror", 10)
	require.NoError(t, err)
	require.NotEmpty(t, n.Nodes)
	assert.Equal(t, "10", n.Nodes[0].ID)
	assert.Equal(t, "Horror", n.Nodes[len(n.Nodes)-1].ID)
	assertConsecutive(t, n)

	n, err = explorer.FindPath(ctx, "Movie", 1, "Movie", 3, 2)
	require.NoError(t, err)
	assert.Empty(t, n.Nodes, "movie 3 is four hops from movie 1")
}

func TestFindPath_SameEndpoint(t *testing.T) {
	explorer := NewExplorer(pathFixture())

	n, err := explorer.FindPath(context.Background(), "Movie", 1, "Movie", "1", 3)
	require.NoError(t, err)
	require.Len(t, n.Nodes, 1)
	assert.Equal(t, "1", n.Nodes[0].ID)
	assert.Empty(t, n.Links)
}

func TestFindPath_MissingEndpoint(t *testing.T) {
	explorer := NewExplorer(pathFixture())

	n, err := explorer.FindPath(context.Background(), "Movie", 1, "User", 999, 10)
	require.NoError(t, err)
	assert.Equal(t, emptyNetwork(), n)
}

func TestFindPath_InvalidInput(t *testing.T) {
	explorer := NewExplorer(pathFixture())
	ctx := context.Background()

	_, err := explorer.FindPath(ctx, "Studio", 1, "Movie", 2, 3)
	var typeErr *apperrors.ErrInvalidNodeType
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "Studio", typeErr.NodeType)

	_, err = explorer.FindPath(ctx, "Movie", "abc", "Movie", 2, 3)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidIdentifier(err))

	_, err = explorer.FindPath(ctx, "Genre", "", "Movie", 2, 3)
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidIdentifier(err))
}

func assertConsecutive(t *testing.T, n *Network) {
	t.Helper()
	require.Len(t, n.Links, len(n.Nodes)-1)
	for i := 0; i+1 < len(n.Nodes); i++ {
		a, b := n.Nodes[i].ID, n.Nodes[i+1].ID
		matches := 0
		for _, link := range n.Links {
			if (link.Source == a && link.Target == b) || (link.Source == b && link.Target == a) {
				matches++
			}
		}
		assert.Equal(t, 1, matches, "nodes %s and %s", a, b)
	}
}

func nodeIDs(n *Network) []string {
	ids := make([]string, 0, len(n.Nodes))
	for _, node := range n.Nodes {
		ids = append(ids, node.ID)
	}
	return ids
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, clamp(0, 1, 3))
	assert.Equal(t, 2, clamp(2, 1, 3))
	assert.Equal(t, 3, clamp(7, 1, 3))
}

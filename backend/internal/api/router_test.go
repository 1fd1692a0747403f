package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"film-community/backend/internal/graph/graphtest"
	"film-community/backend/internal/network"
	"film-community/backend/internal/recommend"
)

func fixtureGraph() *graphtest.Graph {
	g := graphtest.New()
	g.AddMovie(1, "Toy Story", 1995, "Adventure", "Animation")
	g.AddMovie(2, "Jumanji", 1995, "Adventure")
	g.AddMovie(3, "Heat", 1995, "Action")
	g.AddMovie(4, "Toy Story 2", 0, "Animation")
	g.Rate(10, 1, 5.0)
	g.Rate(10, 3, 3.0)
	g.Rate(20, 3, 4.0)
	return g
}

func newTestRouter(g *graphtest.Graph) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(g, network.NewExplorer(g), recommend.NewSynthesizer(g))
	return NewRouter(h, "*")
}

func get(t *testing.T, router *gin.Engine, url string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthEndpoint(t *testing.T) {
	g := fixtureGraph()
	router := newTestRouter(g)

	w := get(t, router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	g.Err = errors.New("unreachable")
	w = get(t, router, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestIDPropagates(t *testing.T) {
	router := newTestRouter(fixtureGraph())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(fixtureGraph())
	get(t, router, "/api/movies/count")

	w := get(t, router, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "api_request_duration_seconds")
}

func TestListMovies(t *testing.T) {
	router := newTestRouter(fixtureGraph())

	w := get(t, router, "/api/movies?limit=2&skip=1")
	require.Equal(t, http.StatusOK, w.Code)
	movies := decode[[]MovieDTO](t, w)
	require.Len(t, movies, 2)
	assert.Equal(t, "2", movies[0].ID)
	assert.Equal(t, "Adventure", movies[0].Genres)

	w = get(t, router, "/api/movies")
	movies = decode[[]MovieDTO](t, w)
	require.Len(t, movies, 4)
	assert.Equal(t, "Adventure|Animation", movies[0].Genres)
	assert.Nil(t, movies[3].Year)

	w = get(t, router, "/api/movies?limit=0")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w), "error")
}

func TestCountMovies(t *testing.T) {
	w := get(t, newTestRouter(fixtureGraph()), "/api/movies/count")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(4), decode[map[string]any](t, w)["count"])
}

func TestSearchMovies(t *testing.T) {
	router := newTestRouter(fixtureGraph())

	w := get(t, router, "/api/movies/search?q=Toy")
	require.Equal(t, http.StatusOK, w.Code)
	movies := decode[[]MovieDTO](t, w)
	require.Len(t, movies, 2)
	assert.Equal(t, "Toy Story", movies[0].Title)
	assert.Equal(t, "Toy Story 2", movies[1].Title)

	w = get(t, router, "/api/movies/search")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchUsers(t *testing.T) {
	router := newTestRouter(fixtureGraph())

	w := get(t, router, "/api/users/search?q=10")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []UserDTO{{ID: "10", Name: "User 10", RatingCount: 2}}, decode[[]UserDTO](t, w))

	w = get(t, router, "/api/users/search?q=notanumber")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = get(t, router, "/api/users/search?q=999")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestMovieNetwork(t *testing.T) {
	router := newTestRouter(fixtureGraph())

	w := get(t, router, "/api/network/movie/3?depth=1")
	require.Equal(t, http.StatusOK, w.Code)
	n := decode[network.Network](t, w)
	assert.Len(t, n.Nodes, 4, "movie, genre and two raters")
	assert.Len(t, n.Links, 3)

	w = get(t, router, "/api/network/movie/404")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"nodes":[],"links":[]}`, w.Body.String())

	w = get(t, router, "/api/network/movie/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(t, router, "/api/network/movie/3?depth=4")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShortestPath(t *testing.T) {
	router := newTestRouter(fixtureGraph())

	w := get(t, router, "/api/network/path/Person/10/Movie/2?max_depth=3")
	require.Equal(t, http.StatusOK, w.Code)
	n := decode[network.Network](t, w)
	require.Len(t, n.Nodes, 4, "user, rated movie, shared genre, target movie")
	assert.Equal(t, "10", n.Nodes[0].ID)
	assert.Equal(t, network.NodeUser, n.Nodes[0].Type)
	assert.Equal(t, "2", n.Nodes[3].ID)
	assert.Len(t, n.Links, 3)

	w = get(t, router, "/api/network/path/User/10/Genre/Action")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[network.Network](t, w).Nodes, 3)

	w = get(t, router, "/api/network/path/Studio/1/Movie/2")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(t, router, "/api/network/path/Movie/1/Movie/2?max_depth=11")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecommendations(t *testing.T) {
	router := newTestRouter(fixtureGraph())

	w := get(t, router, "/api/recommendations/user/10")
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[recommend.Result](t, w)
	require.NotEmpty(t, res.Recommendations)
	assert.Equal(t, recommend.StrategyGenrePreference, res.Recommendations[0].Strategy)
	assert.Equal(t, len(res.Recommendations), res.Reasoning.TotalRecommendations)
	assert.NotNil(t, res.Reasoning.SimilarUsers)

	w = get(t, router, "/api/recommendations/user/notanumber")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "notanumber")

	w = get(t, router, "/api/recommendations/user/10?min_rating=6")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLikedMovies(t *testing.T) {
	router := newTestRouter(fixtureGraph())

	w := get(t, router, "/api/recommendations/user/10/liked")
	require.Equal(t, http.StatusOK, w.Code)
	liked := decode[[]LikedMovieDTO](t, w)
	require.Len(t, liked, 1)
	assert.Equal(t, "Toy Story", liked[0].Title)
	assert.Equal(t, 5.0, liked[0].Rating)

	w = get(t, router, "/api/recommendations/user/10/liked?min_rating=2.5")
	assert.Len(t, decode[[]LikedMovieDTO](t, w), 2)

	w = get(t, router, "/api/recommendations/user/x/liked")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStoreFailureIsHidden(t *testing.T) {
	g := fixtureGraph()
	g.Err = errors.New("bolt: connection reset")
	router := newTestRouter(g)

	for _, url := range []string{
		"/api/movies",
		"/api/movies/count",
		"/api/network/movie/1",
		"/api/recommendations/user/10",
	} {
		w := get(t, router, url)
		assert.Equal(t, http.StatusInternalServerError, w.Code, url)
		assert.Equal(t, map[string]string{"error": "internal error"}, decode[map[string]string](t, w), url)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(fixtureGraph())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/api/movies", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSConcreteOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	g := fixtureGraph()
	router := NewRouter(NewHandler(g, network.NewExplorer(g), recommend.NewSynthesizer(g)), "https://films.example.com")

	w := get(t, router, "/health")
	assert.Equal(t, "https://films.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"film-community/backend/internal/graph"
	"film-community/backend/internal/ident"
	"film-community/backend/internal/network"
	"film-community/backend/internal/recommend"
	"film-community/backend/pkg/logger"
)

// Catalog is the read surface behind the plain listing and search endpoints
type Catalog interface {
	Ping(ctx context.Context) error
	ListMovies(ctx context.Context, limit, skip int) ([]graph.Movie, error)
	CountMovies(ctx context.Context) (int64, error)
	SearchMovies(ctx context.Context, keyword string, limit int) ([]graph.Movie, error)
	FindUsers(ctx context.Context, userID int64, limit int) ([]graph.UserSummary, error)
	LikedMovies(ctx context.Context, userID int64, minRating float64, limit int) ([]graph.LikedMovie, error)
}

// Explorer answers network and path queries
type Explorer interface {
	Extract(ctx context.Context, movieID any, depth, maxNodes int) (*network.Network, error)
	FindPath(ctx context.Context, startType string, startID any, endType string, endID any, maxDepth int) (*network.Network, error)
}

// Recommender answers recommendation queries
type Recommender interface {
	Recommend(ctx context.Context, userID any, limit int, minRating float64) (*recommend.Result, error)
}

// Handler serves the film community API
type Handler struct {
	catalog     Catalog
	explorer    Explorer
	recommender Recommender
	logger      *zap.Logger
}

// NewHandler creates a handler over the given components
func NewHandler(catalog Catalog, explorer Explorer, recommender Recommender) *Handler {
	return &Handler{
		catalog:     catalog,
		explorer:    explorer,
		recommender: recommender,
		logger:      logger.Named("api"),
	}
}

// Person is accepted wherever a path endpoint type is expected
var typeAliases = map[string]string{
	"Person": graph.LabelUser,
}

type listMoviesQuery struct {
	Limit int `form:"limit,default=100" binding:"min=1,max=1000"`
	Skip  int `form:"skip,default=0" binding:"min=0"`
}

type searchQuery struct {
	Q     string `form:"q" binding:"required"`
	Limit int    `form:"limit,default=10" binding:"min=1,max=50"`
}

type networkQuery struct {
	Depth    int `form:"depth,default=2" binding:"min=1,max=3"`
	MaxNodes int `form:"max_nodes,default=100" binding:"min=10,max=500"`
}

type recommendQuery struct {
	Limit     int     `form:"limit,default=20" binding:"min=1,max=50"`
	MinRating float64 `form:"min_rating,default=4.0" binding:"min=0.5,max=5"`
}

type likedQuery struct {
	Limit     int     `form:"limit,default=10" binding:"min=1,max=50"`
	MinRating float64 `form:"min_rating,default=4.0" binding:"min=0.5,max=5"`
}

type pathParams struct {
	StartType string `uri:"startType" binding:"required"`
	StartID   string `uri:"startId" binding:"required"`
	EndType   string `uri:"endType" binding:"required"`
	EndID     string `uri:"endId" binding:"required"`
}

type pathQuery struct {
	MaxDepth int `form:"max_depth,default=6" binding:"min=1,max=10"`
}

func (h *Handler) health(c *gin.Context) {
	if err := h.catalog.Ping(c.Request.Context()); err != nil {
		h.logger.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) listMovies(c *gin.Context) {
	var q listMoviesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	movies, err := h.catalog.ListMovies(c.Request.Context(), q.Limit, q.Skip)
	if err != nil {
		h.fail(c, "list_movies", err)
		return
	}
	c.JSON(http.StatusOK, toMovieDTOs(movies))
}

func (h *Handler) countMovies(c *gin.Context) {
	count, err := h.catalog.CountMovies(c.Request.Context())
	if err != nil {
		h.fail(c, "count_movies", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *Handler) searchMovies(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	movies, err := h.catalog.SearchMovies(c.Request.Context(), q.Q, q.Limit)
	if err != nil {
		h.fail(c, "search_movies", err)
		return
	}
	c.JSON(http.StatusOK, toMovieDTOs(movies))
}

// searchUsers treats a query that is not a user id as matching nobody
func (h *Handler) searchUsers(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	userID, err := ident.Canonicalize(q.Q)
	if err != nil {
		c.JSON(http.StatusOK, []UserDTO{})
		return
	}

	users, err := h.catalog.FindUsers(c.Request.Context(), userID, q.Limit)
	if err != nil {
		h.fail(c, "search_users", err)
		return
	}
	c.JSON(http.StatusOK, toUserDTOs(users))
}

func (h *Handler) movieNetwork(c *gin.Context) {
	var q networkQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	n, err := h.explorer.Extract(c.Request.Context(), c.Param("movieId"), q.Depth, q.MaxNodes)
	if err != nil {
		h.fail(c, "movie_network", err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *Handler) recommendations(c *gin.Context) {
	var q recommendQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.recommender.Recommend(c.Request.Context(), c.Param("userId"), q.Limit, q.MinRating)
	if err != nil {
		h.fail(c, "recommendations", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) likedMovies(c *gin.Context) {
	var q likedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	userID, err := ident.Canonicalize(c.Param("userId"))
	if err != nil {
		h.fail(c, "liked_movies", err)
		return
	}

	movies, err := h.catalog.LikedMovies(c.Request.Context(), userID, q.MinRating, q.Limit)
	if err != nil {
		h.fail(c, "liked_movies", err)
		return
	}
	c.JSON(http.StatusOK, toLikedMovieDTOs(movies))
}

func (h *Handler) shortestPath(c *gin.Context) {
	var p pathParams
	if err := c.ShouldBindUri(&p); err != nil {
		badRequest(c, err)
		return
	}
	var q pathQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	n, err := h.explorer.FindPath(c.Request.Context(),
		resolveType(p.StartType), p.StartID,
		resolveType(p.EndType), p.EndID,
		q.MaxDepth,
	)
	if err != nil {
		h.fail(c, "shortest_path", err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func resolveType(nodeType string) string {
	if alias, ok := typeAliases[nodeType]; ok {
		return alias
	}
	return nodeType
}

// Package api exposes the film graph over HTTP.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"film-community/backend/pkg/logger"
)

// NewRouter builds the gin engine with middleware and every route
func NewRouter(h *Handler, corsOrigin string) *gin.Engine {
	router := gin.New()
	router.Use(requestID())
	router.Use(ginLogger(logger.Named("http")))
	router.Use(instrument())
	router.Use(gin.Recovery())
	router.Use(cors(corsOrigin))

	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/movies", h.listMovies)
		api.GET("/movies/count", h.countMovies)
		api.GET("/movies/search", h.searchMovies)
		api.GET("/users/search", h.searchUsers)

		api.GET("/network/movie/:movieId", h.movieNetwork)
		api.GET("/network/path/:startType/:startId/:endType/:endId", h.shortestPath)

		api.GET("/recommendations/user/:userId", h.recommendations)
		api.GET("/recommendations/user/:userId/liked", h.likedMovies)
	}

	return router
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "film-community/backend/pkg/errors"
)

// fail renders err as {"error": message}. Malformed identifiers and node
// types are the caller's fault; anything else is logged and hidden.
func (h *Handler) fail(c *gin.Context, operation string, err error) {
	_ = c.Error(err)

	if apperrors.IsInvalidIdentifier(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Error("Request failed",
		zap.String("operation", operation),
		zap.String("request_id", c.GetString("request_id")),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

// badRequest renders a parameter binding failure
func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

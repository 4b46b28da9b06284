package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/memeboard/memeboard/internal/board"
	"github.com/memeboard/memeboard/internal/store"
	"github.com/memeboard/memeboard/internal/uploads"
	"github.com/memeboard/memeboard/pkg/logger"
)

// writeError maps operation failures to HTTP statuses. Store failures are
// logged server-side and answered with a generic message.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, board.ErrInvalidInput), errors.Is(err, uploads.ErrBadKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, board.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, board.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, board.ErrNotFound), errors.Is(err, uploads.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, board.ErrDuplicateUser):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrUnavailable):
		logger.Errorf("document store failure: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		logger.Errorf("unhandled error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

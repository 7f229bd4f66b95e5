package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"laundry-coordinator/internal/engine"
	"laundry-coordinator/internal/log"
)

// writeError maps engine errors onto HTTP statuses.
func (h *Handler) writeError(c *gin.Context, err error) {
	var cooldown *engine.CooldownError
	switch {
	case errors.As(err, &cooldown):
		secs := int(math.Ceil(cooldown.Remaining.Seconds()))
		c.Header("Retry-After", strconv.Itoa(secs))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":               err.Error(),
			"code":                engine.Class(err),
			"retry_after_seconds": secs,
		})
		return
	case errors.Is(err, engine.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": engine.Class(err)})
	case errors.Is(err, engine.ErrConflict), errors.Is(err, engine.ErrInvalidState), errors.Is(err, engine.ErrNoPendingStop):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error(), "code": engine.Class(err)})
	case errors.Is(err, engine.ErrForbidden):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error(), "code": engine.Class(err)})
	case errors.Is(err, engine.ErrInvalidDuration):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": engine.Class(err)})
	default:
		l := log.WithContext(c.Request.Context(), h.logger)
		l.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

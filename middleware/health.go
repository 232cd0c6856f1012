package middleware

import (
	"context"
	"net/http"

	"pokedex_module/responses"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, responses.HealthResponse{Status: "healthy"})
}

// Ready answers 503 until the store responds to a ping.
func Ready(store Pinger, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			logger.Warn("readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, responses.HealthResponse{Status: "not_ready", Error: err.Error()})
			return
		}
		c.JSON(http.StatusOK, responses.HealthResponse{Status: "ready"})
	}
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dev.accord.negotiation/internal/cache"
)

// HealthHandler reports process liveness and dependency reachability.
type HealthHandler struct {
	redis   *cache.RedisClient
	started time.Time
	version string
}

// NewHealthHandler creates the handler. The Redis client may be nil when
// caching is disabled.
func NewHealthHandler(redis *cache.RedisClient, version string) *HealthHandler {
	return &HealthHandler{
		redis:   redis,
		started: time.Now(),
		version: version,
	}
}

// RegisterRoutes attaches the health endpoint to the router.
func (h *HealthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
}

// Health handles GET /health. Redis being down degrades the report but keeps
// the status 200: the negotiation core works without the cache.
func (h *HealthHandler) Health(c *gin.Context) {
	status := gin.H{
		"status":  "ok",
		"version": h.version,
		"uptime":  time.Since(h.started).String(),
	}

	if h.redis != nil {
		if err := h.redis.Ping(c.Request.Context()); err != nil {
			status["redis"] = "unreachable"
		} else {
			status["redis"] = "ok"
		}
	} else {
		status["redis"] = "disabled"
	}

	c.JSON(http.StatusOK, status)
}

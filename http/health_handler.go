package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is implemented by backends that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	cacheBackend string
	cache        Pinger
}

// NewHealthHandler creates a health handler. cache may be nil for backends
// that live in process.
func NewHealthHandler(cacheBackend string, cache Pinger) *HealthHandler {
	return &HealthHandler{cacheBackend: cacheBackend, cache: cache}
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := HealthStatus{Status: "healthy", Components: map[string]string{}}

	switch {
	case h.cache == nil:
		status.Components["cache"] = h.cacheBackend
	default:
		if err := h.cache.Ping(ctx); err != nil {
			status.Components["cache"] = "error: " + err.Error()
			status.Status = "unhealthy"
		} else {
			status.Components["cache"] = "ok"
		}
	}

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

package api

import (
	"net/http"
	"time"

	"socratic/internal/models"
	"socratic/pkg/logger"
	"socratic/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
)

// RequestLogMiddleware emits one structured access entry per request, in the
// unified LogEntry shape so downstream collection indexes it like every other
// component's output.
func RequestLogMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := models.LogEntry{
			ServiceName: "inquiry-api",
			SessionID:   c.Param("id"),
			RequestInfo: &models.RequestInfo{
				Method:     c.Request.Method,
				Path:       c.Request.URL.Path,
				RemoteAddr: c.ClientIP(),
				UserAgent:  c.Request.UserAgent(),
			},
			Payload: map[string]interface{}{
				"status":     c.Writer.Status(),
				"elapsed_ms": time.Since(start).Milliseconds(),
			},
		}
		log.WithSession(entry.SessionID).
			WithRequest(*entry.RequestInfo).
			WithPayload(entry.Payload).
			Info("request handled")
	}
}

// RateLimitMiddleware rejects requests once the shared bucket runs dry.
func RateLimitMiddleware(limiter ratelimiter.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RegisterRoutes registers the questioning-engine routes. limiter may be nil
// when rate limiting is disabled.
func RegisterRoutes(router *gin.Engine, a *API, limiter ratelimiter.RateLimiter) {
	v1 := router.Group("/api/v1")
	v1.Use(RequestLogMiddleware(a.logger))

	sessions := v1.Group("/sessions")
	if limiter != nil {
		sessions.Use(RateLimitMiddleware(limiter))
	}
	{
		sessions.POST("/:id/turns", a.TurnHandler)
		sessions.GET("/:id", a.GetSessionHandler)
		sessions.POST("/:id/complete", a.CompleteHandler)
	}
}

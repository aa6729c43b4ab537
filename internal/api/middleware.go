package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/redisclient"
	"storefront/internal/service"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
)

const (
	rateLimitWindow = time.Minute
	rateLimitCount  = 5
)

const userContextKey = "user"

// RequireAuth verifies the bearer token and attaches the user to the
// request context. Unauthenticated requests get a 401 envelope.
func RequireAuth(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if authHeader == "" || tokenString == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ActionResult{
				Success: false,
				Message: "You must be signed in",
			})
			return
		}

		user, err := authService.VerifyToken(c.Request.Context(), tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ActionResult{
				Success: false,
				Message: "You must be signed in",
			})
			return
		}

		c.Set(userContextKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	val, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := val.(*models.User)
	return user
}

// RequireAdmin guards the catalog management endpoints with a static
// token. An empty configured token rejects every request.
func RequireAdmin(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" || c.GetHeader("X-Admin-Token") != token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ActionResult{
				Success: false,
				Message: "Admin access required",
			})
			return
		}
		c.Next()
	}
}

// RateLimiter is a fixed-window per-IP limiter backed by Redis. With
// no Redis it lets everything through.
func RateLimiter(redis *redisclient.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redis == nil {
			c.Next()
			return
		}

		key := "rate_limit:" + c.ClientIP()
		count, err := redis.IncrWindow(c.Request.Context(), key, rateLimitWindow)
		if err != nil {
			// Redis trouble should not take auth down with it.
			c.Next()
			return
		}

		if count > rateLimitCount {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ActionResult{
				Success: false,
				Message: "Too many requests",
			})
			return
		}
		c.Next()
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/afterlife-xyz/afterlife/service/logger"
)

// corsHandler wraps an http.Handler with the permissive CORS policy the
// HTTP surface promises: any origin, GET/POST only, Authorization and
// Content-Type allowed.
func corsHandler(h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler(h)
}

// cacheControl sets a public, 60s cache header on every response,
// error responses included, matching the leaderboard's own refresh cadence.
func cacheControl() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=60")
		c.Next()
	}
}

// errLogger logs any error gin handlers attached to the context via
// c.Error, after the response has already been written.
func errLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if len(c.Errors) > 0 {
			logger.For(c).WithField("elapsed", time.Since(start)).Warnf("%s %s: %s", c.Request.Method, c.Request.URL.Path, c.Errors.String())
		}
	}
}

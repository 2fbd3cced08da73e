package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore marks responses as live state that must never be served from a
// cache. Interview snapshots change every countdown tick.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

// Package middleware provides gin middleware guarding the HTTP surface,
// following the teacher's handler middleware style (a constructor closing
// over config, returning a gin.HandlerFunc).
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Tencent/kgsearch/internal/config"
)

// Auth requires a valid Bearer JWT signed with cfg.Auth.JWTSecret before
// letting a request reach any /api/v1 route, following SPEC_FULL.md §C's
// "ambient surface concern, not excluded by any spec.md non-goal" note. A
// disabled AuthConfig is a no-op, so local/dev deployments need no token.
func Auth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Auth.Enabled {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "ConfigurationError", "message": "missing bearer token"},
			})
			return
		}

		_, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
			return []byte(cfg.Auth.JWTSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   gin.H{"code": "ConfigurationError", "message": "invalid token: " + err.Error()},
			})
			return
		}

		c.Next()
	}
}

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"tripweaver/pkg/utils"
)

// AuthMiddleware guards the API with a static bearer token. When no token is
// configured but a JWT secret is, a signed HS256 token is accepted instead.
// With neither configured, access requires ALLOW_UNAUTHENTICATED_API.
func AuthMiddleware(cfg *utils.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APIBearerToken == "" && cfg.JWTSecret == "" {
			if cfg.AllowUnauthed {
				c.Next()
				return
			}
			utils.RespondError(c, http.StatusForbidden, "API authentication is not configured")
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, "Authorization header missing or invalid")
			c.Abort()
			return
		}
		token := strings.TrimPrefix(authHeader, "Bearer ")

		if cfg.APIBearerToken != "" {
			if subtle.ConstantTimeCompare([]byte(token), []byte(cfg.APIBearerToken)) == 1 {
				c.Next()
				return
			}
			utils.RespondError(c, http.StatusForbidden, "Invalid token")
			c.Abort()
			return
		}

		parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !parsed.Valid {
			utils.RespondError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}
		c.Next()
	}
}

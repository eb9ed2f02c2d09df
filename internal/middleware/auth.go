package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/goalie-study/goalie-backend/internal/logger"
)

// ResearchAuthMiddleware protects the researcher API with an HMAC-signed
// bearer token. Participants never hit these routes.
type ResearchAuthMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewResearchAuthMiddleware(log *logger.Logger, secret string) *ResearchAuthMiddleware {
	middlewareLogger := log.With("Middleware", "ResearchAuthMiddleware")
	return &ResearchAuthMiddleware{log: middlewareLogger, secret: []byte(secret)}
}

func (am *ResearchAuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return am.secret, nil
		})
		if err != nil || !token.Valid {
			am.log.Debug("Research token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	if qToken := c.Query("token"); qToken != "" {
		return qToken
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}

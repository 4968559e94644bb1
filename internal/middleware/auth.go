package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/yourorg/trade-approval/internal/model"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID = "userID"
	ContextRole   = "userRole"
)

// authClaims are the token claims this service consumes. Identity is resolved
// upstream: the gateway verifies the signature before the request reaches us,
// so the claims are extracted without re-verification and trusted as given.
type authClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware extracts the acting user id and role from the bearer token
func AuthMiddleware(logger *zap.Logger) gin.HandlerFunc {
	parser := jwt.NewParser()

	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		headerParts := strings.Split(authHeader, " ")
		if len(headerParts) != 2 || headerParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization format"})
			c.Abort()
			return
		}

		claims := &authClaims{}
		if _, _, err := parser.ParseUnverified(headerParts[1], claims); err != nil {
			logger.Debug("failed to parse token claims", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		if claims.Subject == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has no subject"})
			c.Abort()
			return
		}

		role := model.Role(strings.ToUpper(claims.Role))
		if !role.IsValid() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token has no recognized role"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextRole, role)
		c.Next()
	}
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"tourguide/internal/service"
	"tourguide/internal/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	AuthUserKey   = "authUser"
	AuthRoleKey   = "authRole"
	AuthEmailKey  = "authEmail"
	AuthClaimsKey = "authClaims"
)

// RevocationChecker reports whether a token ID was signed out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// JWTAuthMiddleware rejects requests without a valid, unrevoked bearer token
func JWTAuthMiddleware(jwtUtil *utils.JWTUtil, revocations RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		tokenString, ok := bearerToken(authHeader)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		claims, err := jwtUtil.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			zap.L().Error("failed to check token revocation", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalJWTAuthMiddleware attaches the identity when a usable token is
// present and lets anonymous requests through otherwise.
func OptionalJWTAuthMiddleware(jwtUtil *utils.JWTUtil, revocations RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}
		claims, err := jwtUtil.ValidateToken(tokenString)
		if err != nil {
			c.Next()
			return
		}
		revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			zap.L().Warn("failed to check token revocation", zap.Error(err))
			c.Next()
			return
		}
		if !revoked {
			setClaims(c, claims)
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setClaims(c *gin.Context, claims *utils.JWTClaims) {
	c.Set(AuthUserKey, claims.UserID)
	c.Set(AuthRoleKey, claims.Role)
	c.Set(AuthEmailKey, claims.Email)
	c.Set(AuthClaimsKey, claims)
}

// ClaimsFromContext returns the claims set by the JWT middleware
func ClaimsFromContext(c *gin.Context) (*utils.JWTClaims, bool) {
	v, ok := c.Get(AuthClaimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*utils.JWTClaims)
	return claims, ok && claims != nil
}

// CallerFromContext returns the authenticated caller for service calls
func CallerFromContext(c *gin.Context) (service.Caller, bool) {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return service.Caller{}, false
	}
	return service.Caller{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, true
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pizza-service/auth"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// TokenValidator resolves a bearer token to the caller.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*auth.Identity, error)
}

// AuthMiddleware rejects requests without a valid bearer token.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		identity, err := tokens.Validate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		setIdentity(c, identity)
		c.Next()
	}
}

// OptionalAuthMiddleware attaches the caller when a valid token is present
// and lets anonymous requests through otherwise.
func OptionalAuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if identity, err := tokens.Validate(c.Request.Context(), token); err == nil {
				setIdentity(c, identity)
			}
		}
		c.Next()
	}
}

// CurrentIdentity returns the authenticated caller, or nil.
func CurrentIdentity(c *gin.Context) *auth.Identity {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil
	}
	identity, _ := value.(*auth.Identity)
	return identity
}

func setIdentity(c *gin.Context, identity *auth.Identity) {
	c.Set(identityKey, identity)
	c.Set("user_id", identity.UserID())
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

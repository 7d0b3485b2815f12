package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tradingnft/backend/internal/services"
	"github.com/tradingnft/backend/internal/utils"
	"github.com/tradingnft/backend/pkg/response"
)

const (
	ContextAccountID = "account_id"
	ContextEmail     = "email"
)

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*utils.Claims, error)
}

// AuthRequired is a middleware that checks for a valid JWT access token
func AuthRequired(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, services.ErrInvalidToken.WithMessage("Authorization header required"))
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			response.Abort(c, services.ErrInvalidToken.WithMessage("Invalid authorization header format"))
			return
		}

		claims, err := verifier.VerifyAccessToken(parts[1])
		if err != nil {
			response.Abort(c, services.ErrInvalidToken)
			return
		}

		c.Set(ContextAccountID, claims.AccountID())
		c.Set(ContextEmail, claims.Email)

		c.Next()
	}
}

// GetAccountID gets the current account ID from context
func GetAccountID(c *gin.Context) string {
	return c.GetString(ContextAccountID)
}

// GetEmail gets the current account email from context
func GetEmail(c *gin.Context) string {
	return c.GetString(ContextEmail)
}

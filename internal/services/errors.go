package services

import (
	"errors"

	"github.com/tradingnft/backend/pkg/response"
)

// Errors surfaced to HTTP callers. Compare with errors.Is; copies produced
// by WithMessage still match.
var (
	ErrInvalidCredentials  = response.NewUnauthorized("AUTH_INVALID_CREDENTIALS", "Invalid email or password")
	ErrAccountLocked       = response.NewTooManyRequests("AUTH_ACCOUNT_LOCKED", "Account is temporarily locked due to too many failed attempts")
	ErrInvalidToken        = response.NewUnauthorized("AUTH_INVALID_TOKEN", "Invalid or expired token")
	ErrRefreshTokenExpired = response.NewUnauthorized("AUTH_REFRESH_TOKEN_EXPIRED", "Refresh token has expired")
	ErrUserNotFound        = response.NewNotFound("USER_NOT_FOUND", "User not found")
	ErrEmailExists         = response.NewConflict("USER_EMAIL_EXISTS", "Email already exists")
)

// ErrTokenCollision means a freshly generated refresh token value already
// exists. It is an integrity failure and is never retried.
var ErrTokenCollision = errors.New("refresh token collision")

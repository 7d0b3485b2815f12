package middleware

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradingnft/backend/internal/services"
	"github.com/tradingnft/backend/pkg/logger"
	"github.com/tradingnft/backend/pkg/response"
)

// LoginThrottle limits sign-in attempts per submitted email before the
// handler runs. A successful sign-in clears the email's counter. If the
// counter store fails the request is let through.
func LoginThrottle(throttle *services.LoginThrottle) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, err := peekEmail(c)
		if err != nil {
			response.Abort(c, err)
			return
		}
		if email == "" {
			// Request validation rejects it downstream.
			c.Next()
			return
		}

		if err := throttle.Check(c.Request.Context(), email); err != nil {
			if errors.Is(err, services.ErrAccountLocked) {
				logger.Warn().Str("email", email).Str("ip", c.ClientIP()).Msg("[LoginThrottle] Sign-in locked")
				response.Abort(c, err)
				return
			}
			logger.Error().Err(err).Msg("[LoginThrottle] Counter unavailable, allowing request")
		}

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			if err := throttle.Reset(c.Request.Context(), email); err != nil {
				logger.Warn().Err(err).Msg("[LoginThrottle] Failed to reset counter")
			}
		}
	}
}

// peekEmail reads the email field from a JSON body and restores the body.
// Only an oversized body is an error.
func peekEmail(c *gin.Context) (string, error) {
	body, err := bufferBody(c)
	if errors.Is(err, errBodyTooLarge) {
		return "", err
	}
	if err != nil || len(body) == 0 {
		return "", nil
	}

	var payload struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil
	}
	return payload.Email, nil
}

package response

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tradingnft/backend/pkg/logger"
)

// ErrorBody is the JSON shape of every error answered by the API.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp"`
}

// MessageBody is used by endpoints that only acknowledge an action.
type MessageBody struct {
	Message string `json:"message"`
}

// AppError represents a structured application error with HTTP status and error code.
type AppError struct {
	HTTPStatus int    // HTTP status code (e.g. 400, 404, 500)
	Code       string // Application-level error code, e.g. AUTH_INVALID_TOKEN
	Message    string // Human-readable error message
}

func (e *AppError) Error() string {
	return e.Message
}

// Is matches any AppError carrying the same code, so a copy made by
// WithMessage still satisfies errors.Is against the original sentinel.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithMessage returns a copy of e with a different message.
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{HTTPStatus: e.HTTPStatus, Code: e.Code, Message: msg}
}

// Pre-defined error constructors

func NewBadRequest(code, msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusBadRequest, Code: code, Message: msg}
}

func NewUnauthorized(code, msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusUnauthorized, Code: code, Message: msg}
}

func NewNotFound(code, msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusNotFound, Code: code, Message: msg}
}

func NewConflict(code, msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusConflict, Code: code, Message: msg}
}

func NewTooManyRequests(code, msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusTooManyRequests, Code: code, Message: msg}
}

func NewPayloadTooLarge(code, msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusRequestEntityTooLarge, Code: code, Message: msg}
}

func NewServerError(msg string) *AppError {
	return &AppError{HTTPStatus: http.StatusInternalServerError, Code: CodeInternal, Message: msg}
}

const (
	CodeValidation = "VALIDATION_FAILED"
	CodeInternal   = "INTERNAL_ERROR"
	CodeTooMany    = "TOO_MANY_REQUESTS"
	CodeTooLarge   = "PAYLOAD_TOO_LARGE"
)

// --- Gin response helpers ---

// Success sends a 200 OK response with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 Created response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends a 204 with no body.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Message sends a 200 with a {message} body.
func Message(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, MessageBody{Message: msg})
}

// Error sends an error response. If err is an *AppError, its code and status
// are used; otherwise the error is logged and a generic 500 is returned.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		write(c, appErr)
		return
	}
	logger.Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("unhandled error")
	write(c, NewServerError("Internal server error"))
}

// Abort writes the error and stops the middleware chain.
func Abort(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}

// BadRequest sends a validation failure.
func BadRequest(c *gin.Context, msg string) {
	write(c, NewBadRequest(CodeValidation, msg))
}

func write(c *gin.Context, e *AppError) {
	c.JSON(e.HTTPStatus, ErrorBody{
		StatusCode: e.HTTPStatus,
		Code:       e.Code,
		Message:    e.Message,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

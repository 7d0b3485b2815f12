package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradingnft/backend/pkg/response"
)

// maxBufferedBody caps how much of a request body middleware will read.
const maxBufferedBody = 64 << 10

var errBodyTooLarge = response.NewPayloadTooLarge(response.CodeTooLarge, "Request body too large")

// bufferBody reads at most maxBufferedBody bytes of the request body and
// puts them back so the handler can bind them. A larger body yields
// errBodyTooLarge.
func bufferBody(c *gin.Context) ([]byte, error) {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBufferedBody))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, errBodyTooLarge
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	return body, err
}

package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tradingnft/backend/pkg/logger"
	"github.com/tradingnft/backend/pkg/response"
)

const maxAuditBody = 2000

// sensitiveKeys are JSON fields, lowercased, whose values never reach the
// audit log.
var sensitiveKeys = map[string]struct{}{
	"password":     {},
	"refreshtoken": {},
	"accesstoken":  {},
	"token":        {},
	"secret":       {},
}

// AuditLog records write operations (POST/PUT/PATCH/DELETE) with the acting
// account and a masked copy of the request body.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		// Only audit write operations
		if method != "POST" && method != "PUT" && method != "PATCH" && method != "DELETE" {
			c.Next()
			return
		}

		bodyBytes, err := bufferBody(c)
		if errors.Is(err, errBodyTooLarge) {
			response.Abort(c, err)
			return
		}
		bodySnippet := maskSensitiveFields(string(bodyBytes))
		if len(bodySnippet) > maxAuditBody {
			bodySnippet = bodySnippet[:maxAuditBody] + "...[truncated]"
		}

		c.Next()

		status := c.Writer.Status()
		module, action := parseRouteInfo(c.FullPath(), method)

		event := logger.Info()
		if status >= 400 {
			event = logger.Warn()
		}
		event.
			Bool("audit", true).
			Str("module", module).
			Str("action", action).
			Str("account_id", GetAccountID(c)).
			Str("method", method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("body", bodySnippet).
			Msg("[Audit] " + module + " " + action)
	}
}

// parseRouteInfo extracts module and action from a Gin route pattern.
// e.g. "/api/users/:id" + "PUT" → module="users", action="Update"
func parseRouteInfo(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/")
	path = strings.TrimPrefix(path, "api/")

	parts := strings.SplitN(path, "/", 3)
	module = parts[0]
	if module == "" {
		module = "unknown"
	}

	switch method {
	case "POST":
		action = "Create"
		// /auth/sign-in, /auth/logout: the second segment names the action.
		if module == "auth" && len(parts) > 1 {
			action = parts[1]
		}
	case "PUT", "PATCH":
		action = "Update"
	case "DELETE":
		action = "Delete"
	default:
		action = method
	}

	return module, action
}

const unparseableBody = "[unparseable body omitted]"

// maskSensitiveFields re-encodes a JSON body with the value of every
// sensitive key replaced, at any depth. Non-JSON bodies are not logged.
func maskSensitiveFields(body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil || dec.More() {
		return unparseableBody
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(maskValue(doc)); err != nil {
		return unparseableBody
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func maskValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for key, inner := range v {
			if _, ok := sensitiveKeys[strings.ToLower(key)]; ok {
				v[key] = "***"
				continue
			}
			v[key] = maskValue(inner)
		}
		return v
	case []any:
		for i := range v {
			v[i] = maskValue(v[i])
		}
		return v
	default:
		return v
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestParseRouteInfo(t *testing.T) {
	tests := []struct {
		path, method   string
		module, action string
	}{
		{"/api/users", "POST", "users", "Create"},
		{"/users/:id", "PATCH", "users", "Update"},
		{"/api/users/:id", "DELETE", "users", "Delete"},
		{"/auth/sign-in", "POST", "auth", "sign-in"},
		{"/api/auth/logout", "POST", "auth", "logout"},
		{"", "POST", "unknown", "Create"},
	}

	for _, tt := range tests {
		module, action := parseRouteInfo(tt.path, tt.method)
		if module != tt.module || action != tt.action {
			t.Errorf("parseRouteInfo(%q, %q) = (%q, %q), expected (%q, %q)",
				tt.path, tt.method, module, action, tt.module, tt.action)
		}
	}
}

func TestMaskSensitiveFields(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{
			name: "password",
			in:   `{"email":"a@x.com","password":"hunter22"}`,
			want: `{"email":"a@x.com","password":"***"}`,
		},
		{
			name: "escaped quote inside value",
			in:   `{"email":"a@x.com","password":"hun\"ter2"}`,
			want: `{"email":"a@x.com","password":"***"}`,
		},
		{
			name: "refresh token with spacing",
			in:   `{"refreshToken" : "abcDEF123"}`,
			want: `{"refreshToken":"***"}`,
		},
		{
			name: "case insensitive key",
			in:   `{"Password":"x"}`,
			want: `{"Password":"***"}`,
		},
		{
			name: "every occurrence",
			in:   `[{"password":"a"},{"password":"b"}]`,
			want: `[{"password":"***"},{"password":"***"}]`,
		},
		{
			name: "nested object",
			in:   `{"user":{"secret":"s","name":"n"}}`,
			want: `{"user":{"name":"n","secret":"***"}}`,
		},
		{
			name: "non string value",
			in:   `{"token":42}`,
			want: `{"token":"***"}`,
		},
		{
			name: "numbers and markup kept verbatim",
			in:   `{"page":1.50,"note":"<b>"}`,
			want: `{"note":"<b>","page":1.50}`,
		},
		{
			name: "no sensitive fields",
			in:   `{"firstName":"Ada"}`,
			want: `{"firstName":"Ada"}`,
		},
		{
			name: "not json",
			in:   `password=hunter22`,
			want: "[unparseable body omitted]",
		},
		{
			name: "trailing garbage",
			in:   `{"a":1} password`,
			want: "[unparseable body omitted]",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := maskSensitiveFields(tt.in)
			if got != tt.want {
				t.Errorf("maskSensitiveFields(%s) = %s, expected %s", tt.in, got, tt.want)
			}
			if strings.Contains(got, "ter2") || strings.Contains(got, "hunter22") {
				t.Errorf("secret leaked into %s", got)
			}
		})
	}
}

func TestAuditLog_PassesBodyThrough(t *testing.T) {
	router := gin.New()
	router.Use(AuditLog())
	router.POST("/users", func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.JSON(http.StatusCreated, body)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/users", strings.NewReader(`{"password":"secret-value"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected %d, got %d", http.StatusCreated, w.Code)
	}
	if !strings.Contains(w.Body.String(), "secret-value") {
		t.Errorf("handler should receive the unmasked body, got %s", w.Body.String())
	}
}

func TestAuditLog_RejectsOversizedBody(t *testing.T) {
	router := gin.New()
	router.Use(AuditLog())
	router.POST("/users", func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/users", strings.NewReader(strings.Repeat("a", maxBufferedBody+1)))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected status %d, got %d", http.StatusRequestEntityTooLarge, w.Code)
	}
}

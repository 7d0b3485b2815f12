package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/tradingnft/backend/internal/services"
)

func signInToken(t *testing.T, env *handlerEnv, email string) string {
	t.Helper()
	w := env.request("POST", "/auth/sign-in", `{"email":"`+email+`","password":"password123"}`, "")
	var result services.AuthResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return result.AccessToken
}

func TestCreateUser_Validation(t *testing.T) {
	env := newHandlerEnv(t)

	testCases := []string{
		`{"email":"a@x.com","password":"short","firstName":"A","lastName":"B"}`,
		`{"email":"a@x.com","password":"password123","lastName":"B"}`,
		`{"email":"bad","password":"password123","firstName":"A","lastName":"B"}`,
	}
	for _, body := range testCases {
		if w := env.request("POST", "/users", body, ""); w.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected status %d, got %d", body, http.StatusBadRequest, w.Code)
		}
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	env := newHandlerEnv(t)
	body := `{"email":"a@x.com","password":"password123","firstName":"A","lastName":"B"}`

	if w := env.request("POST", "/users", body, ""); w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	w := env.request("POST", "/users", body, "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected status %d, got %d", http.StatusConflict, w.Code)
	}
	if code := errorCode(t, w); code != "USER_EMAIL_EXISTS" {
		t.Errorf("expected USER_EMAIL_EXISTS, got %s", code)
	}
}

func TestListUsers_Defaults(t *testing.T) {
	env := newHandlerEnv(t)
	env.seed(t, "a@x.com")
	env.seed(t, "b@x.com")
	token := signInToken(t, env, "a@x.com")

	w := env.request("GET", "/users", "", token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var page services.UserPage
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if page.Meta.Page != 1 || page.Meta.Limit != 10 {
		t.Errorf("expected page 1 limit 10, got %d/%d", page.Meta.Page, page.Meta.Limit)
	}
	if page.Meta.TotalItems != 2 || len(page.Items) != 2 {
		t.Errorf("expected 2 items, got %d (total %d)", len(page.Items), page.Meta.TotalItems)
	}
	if page.Meta.HasNextPage || page.Meta.HasPreviousPage {
		t.Error("single page should have no neighbours")
	}
}

func TestListUsers_InvalidQuery(t *testing.T) {
	env := newHandlerEnv(t)
	env.seed(t, "a@x.com")
	token := signInToken(t, env, "a@x.com")

	for _, query := range []string{"?page=0", "?limit=101", "?order=sideways", "?sortBy=password"} {
		if w := env.request("GET", "/users"+query, "", token); w.Code != http.StatusBadRequest {
			t.Errorf("query %s: expected status %d, got %d", query, http.StatusBadRequest, w.Code)
		}
	}
}

func TestUpdateUser_NotFound(t *testing.T) {
	env := newHandlerEnv(t)
	env.seed(t, "a@x.com")
	token := signInToken(t, env, "a@x.com")

	w := env.request("PUT", "/users/missing", `{"firstName":"X"}`, token)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
	if code := errorCode(t, w); code != "USER_NOT_FOUND" {
		t.Errorf("expected USER_NOT_FOUND, got %s", code)
	}
}

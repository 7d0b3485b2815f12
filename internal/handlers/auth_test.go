package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tradingnft/backend/internal/middleware"
	"github.com/tradingnft/backend/internal/repository"
	"github.com/tradingnft/backend/internal/services"
	"github.com/tradingnft/backend/internal/utils"
	"github.com/tradingnft/backend/pkg/response"
)

type handlerEnv struct {
	router *gin.Engine
	users  *services.UserService
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	stores, err := repository.OpenMemory("handlers_" + uuid.NewString())
	if err != nil {
		t.Fatalf("OpenMemory() error = %v", err)
	}
	t.Cleanup(func() { _ = stores.Close(context.Background()) })

	signer := utils.NewJWTSigner("handlers-test-secret", time.Hour)
	store := services.NewRefreshTokenStore(stores.RefreshTokens, services.DefaultRefreshTokenTTL)
	engine := services.NewTokenRotationEngine(signer, store, stores.Accounts)
	auth := services.NewAuthService(services.NewCredentialVerifier(stores.Accounts), engine, nil)
	users := services.NewUserService(stores.Accounts, nil)

	authHandler := NewAuthHandler(auth, users)
	userHandler := NewUserHandler(users)

	router := gin.New()
	router.POST("/auth/sign-in", authHandler.SignIn)
	router.POST("/auth/refresh", authHandler.Refresh)
	router.POST("/auth/logout", authHandler.Logout)
	router.POST("/users", userHandler.Create)
	protected := router.Group("", middleware.AuthRequired(auth))
	protected.GET("/auth/me", authHandler.Me)
	protected.GET("/users", userHandler.List)
	protected.GET("/users/:id", userHandler.GetByID)
	protected.PUT("/users/:id", userHandler.Update)
	protected.DELETE("/users/:id", userHandler.Delete)

	return &handlerEnv{router: router, users: users}
}

func (e *handlerEnv) request(method, path, body, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	e.router.ServeHTTP(w, req)
	return w
}

func (e *handlerEnv) seed(t *testing.T, email string) string {
	t.Helper()
	account, err := e.users.Create(context.Background(), &services.CreateUserRequest{
		Email:     email,
		Password:  "password123",
		FirstName: "Test",
		LastName:  "User",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return account.ID
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body response.ErrorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return body.Code
}

func TestSignIn_BindingErrors(t *testing.T) {
	env := newHandlerEnv(t)

	testCases := []string{
		`{}`,
		`{"email":"not-an-email","password":"x"}`,
		`{"email":"a@x.com"}`,
		`not json`,
	}
	for _, body := range testCases {
		w := env.request("POST", "/auth/sign-in", body, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected status %d, got %d", body, http.StatusBadRequest, w.Code)
		}
		if code := errorCode(t, w); code != response.CodeValidation {
			t.Errorf("body %s: expected code %s, got %s", body, response.CodeValidation, code)
		}
	}
}

func TestSignIn_Success(t *testing.T) {
	env := newHandlerEnv(t)
	env.seed(t, "a@x.com")

	w := env.request("POST", "/auth/sign-in", `{"email":"a@x.com","password":"password123"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var result services.AuthResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("expected both tokens to be set")
	}
	if result.User == nil || result.User.Email != "a@x.com" {
		t.Errorf("unexpected user %+v", result.User)
	}
	if bytes.Contains(w.Body.Bytes(), []byte("password")) {
		t.Error("response must not expose the password hash")
	}
}

func TestRefresh_MissingToken(t *testing.T) {
	env := newHandlerEnv(t)

	for _, path := range []string{"/auth/refresh", "/auth/logout"} {
		w := env.request("POST", path, `{}`, "")
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusBadRequest, w.Code)
		}
	}
}

func TestLogout_UnknownToken(t *testing.T) {
	env := newHandlerEnv(t)

	w := env.request("POST", "/auth/logout", `{"refreshToken":"unknown"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var body response.MessageBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body.Message != "Successfully logged out" {
		t.Errorf("unexpected message %q", body.Message)
	}
}

func TestMe_DeletedAccount(t *testing.T) {
	env := newHandlerEnv(t)
	id := env.seed(t, "a@x.com")

	w := env.request("POST", "/auth/sign-in", `{"email":"a@x.com","password":"password123"}`, "")
	var result services.AuthResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if w := env.request("DELETE", "/users/"+id, "", result.AccessToken); w.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, w.Code)
	}

	w = env.request("GET", "/auth/me", "", result.AccessToken)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tradingnft/backend/internal/models"
	"github.com/tradingnft/backend/internal/repository"
	"github.com/tradingnft/backend/internal/utils"
)

const testSecret = "services-test-secret"

// recordingQueue collects enqueued events.
type recordingQueue struct {
	mu     sync.Mutex
	events []*AccountEvent
	err    error
}

func (q *recordingQueue) Enqueue(event *AccountEvent) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.events = append(q.events, event)
	return nil
}

func (q *recordingQueue) IsAsync() bool { return false }
func (q *recordingQueue) Close() error  { return nil }

func (q *recordingQueue) Events() []*AccountEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*AccountEvent(nil), q.events...)
}

type testEnv struct {
	stores   *repository.Stores
	signer   *utils.JWTSigner
	store    *RefreshTokenStore
	engine   *TokenRotationEngine
	verifier *CredentialVerifier
	auth     *AuthService
	users    *UserService
	queue    *recordingQueue
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	stores, err := repository.OpenMemory("svc_" + uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { _ = stores.Close(context.Background()) })

	return newTestEnvWithRepos(t, stores, stores.RefreshTokens)
}

func newTestEnvWithRepos(t *testing.T, stores *repository.Stores, tokens repository.RefreshTokenRepository) *testEnv {
	t.Helper()
	signer := utils.NewJWTSigner(testSecret, time.Hour)
	store := NewRefreshTokenStore(tokens, DefaultRefreshTokenTTL)
	engine := NewTokenRotationEngine(signer, store, stores.Accounts)
	verifier := NewCredentialVerifier(stores.Accounts)
	queue := &recordingQueue{}

	return &testEnv{
		stores:   stores,
		signer:   signer,
		store:    store,
		engine:   engine,
		verifier: verifier,
		auth:     NewAuthService(verifier, engine, queue),
		users:    NewUserService(stores.Accounts, queue),
		queue:    queue,
	}
}

// seedAccount stores an account whose password is password.
func (e *testEnv) seedAccount(t *testing.T, email, password string) *models.Account {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)

	account := &models.Account{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  hash,
	}
	require.NoError(t, e.stores.Accounts.Create(context.Background(), account))
	return account
}

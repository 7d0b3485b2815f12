package services

import (
	"context"
	"time"

	"github.com/tradingnft/backend/internal/utils"
	"github.com/tradingnft/backend/pkg/logger"
)

// AuthService implements sign-in, refresh and logout on top of the
// credential verifier and the token rotation engine.
type AuthService struct {
	verifier *CredentialVerifier
	engine   *TokenRotationEngine
	queue    TaskQueue
	now      func() time.Time
}

// NewAuthService wires the orchestrator. queue may be nil, in which case
// sign-ins are not recorded on the account.
func NewAuthService(verifier *CredentialVerifier, engine *TokenRotationEngine, queue TaskQueue) *AuthService {
	return &AuthService{
		verifier: verifier,
		engine:   engine,
		queue:    queue,
		now:      time.Now,
	}
}

// SignIn verifies credentials and issues a fresh token pair.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	account, err := s.verifier.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}

	result, err := s.engine.IssuePair(ctx, account)
	if err != nil {
		return nil, err
	}

	s.recordSignIn(account.ID, account.Email)
	return result, nil
}

func (s *AuthService) recordSignIn(accountID, email string) {
	if s.queue == nil {
		return
	}
	err := s.queue.Enqueue(&AccountEvent{
		Type:      TaskAccountSignedIn,
		AccountID: accountID,
		Email:     email,
		At:        s.now().UTC(),
	})
	if err != nil {
		logger.Warn().Err(err).Str("account_id", accountID).Msg("[Auth] Failed to enqueue sign-in event")
	}
}

// Refresh rotates the refresh token. Failures from the rotation engine are
// returned unchanged.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	return s.engine.Rotate(ctx, refreshToken)
}

// Logout revokes the refresh token. An unknown, expired or already revoked
// token is not an error.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.engine.RevokeByToken(ctx, refreshToken)
}

// VerifyAccessToken validates an access token and returns its claims.
func (s *AuthService) VerifyAccessToken(token string) (*utils.Claims, error) {
	return s.engine.VerifyAccessToken(token)
}

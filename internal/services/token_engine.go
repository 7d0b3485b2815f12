package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tradingnft/backend/internal/models"
	"github.com/tradingnft/backend/internal/repository"
	"github.com/tradingnft/backend/internal/utils"
)

// AuthResult is returned by sign-in and refresh.
type AuthResult struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	User         *models.Account `json:"user"`
}

// AccessTokenSigner mints and verifies short-lived access tokens.
type AccessTokenSigner interface {
	Sign(accountID, email string) (string, time.Time, error)
	Parse(token string) (*utils.Claims, error)
}

// TokenRotationEngine issues token pairs and rotates refresh tokens.
type TokenRotationEngine struct {
	signer   AccessTokenSigner
	store    *RefreshTokenStore
	accounts repository.AccountRepository
}

func NewTokenRotationEngine(signer AccessTokenSigner, store *RefreshTokenStore, accounts repository.AccountRepository) *TokenRotationEngine {
	return &TokenRotationEngine{signer: signer, store: store, accounts: accounts}
}

// IssuePair signs an access token for the account and stores a new refresh token.
func (e *TokenRotationEngine) IssuePair(ctx context.Context, account *models.Account) (*AuthResult, error) {
	accessToken, _, err := e.signer.Sign(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	record, err := e.store.Insert(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: record.Token,
		User:         account.Public(),
	}, nil
}

// Rotate exchanges a valid refresh token for a new pair. The new pair is
// issued before the old token is revoked, so both records briefly coexist;
// concurrent rotations of the same token may each succeed.
func (e *TokenRotationEngine) Rotate(ctx context.Context, oldToken string) (*AuthResult, error) {
	record, err := e.store.FindValid(ctx, oldToken)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrRefreshTokenExpired
	}

	account, err := e.accounts.FindByID(ctx, record.UserID)
	if err != nil {
		return nil, fmt.Errorf("load token owner: %w", err)
	}
	if account == nil {
		return nil, ErrInvalidToken.WithMessage("User not found for this token")
	}

	result, err := e.IssuePair(ctx, account)
	if err != nil {
		return nil, err
	}

	if err := e.store.Revoke(ctx, record); err != nil {
		return nil, err
	}
	return result, nil
}

// RevokeByToken revokes the token if it is still valid and does nothing otherwise.
func (e *TokenRotationEngine) RevokeByToken(ctx context.Context, token string) error {
	record, err := e.store.FindValid(ctx, token)
	if err != nil {
		return err
	}
	if record == nil {
		return nil
	}
	return e.store.Revoke(ctx, record)
}

// VerifyAccessToken checks signature and expiry of an access token.
func (e *TokenRotationEngine) VerifyAccessToken(token string) (*utils.Claims, error) {
	claims, err := e.signer.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

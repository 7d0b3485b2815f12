package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tradingnft/backend/internal/models"
	"github.com/tradingnft/backend/internal/repository"
	"github.com/tradingnft/backend/internal/utils"
)

// DefaultRefreshTokenTTL is how long a refresh token stays usable.
const DefaultRefreshTokenTTL = 7 * 24 * time.Hour

// RefreshTokenStore issues and looks up opaque refresh tokens.
type RefreshTokenStore struct {
	repo     repository.RefreshTokenRepository
	ttl      time.Duration
	now      func() time.Time
	generate func() (string, error)
}

func NewRefreshTokenStore(repo repository.RefreshTokenRepository, ttl time.Duration) *RefreshTokenStore {
	if ttl <= 0 {
		ttl = DefaultRefreshTokenTTL
	}
	return &RefreshTokenStore{
		repo:     repo,
		ttl:      ttl,
		now:      time.Now,
		generate: utils.NewRefreshToken,
	}
}

// clock returns the current time at the millisecond precision every backend
// can store, so comparisons behave the same on all of them.
func (s *RefreshTokenStore) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// Insert creates a fresh unrevoked token for the account.
func (s *RefreshTokenStore) Insert(ctx context.Context, accountID string) (*models.RefreshToken, error) {
	value, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	now := s.clock()
	record := &models.RefreshToken{
		Token:     value,
		UserID:    accountID,
		ExpiresAt: now.Add(s.ttl),
		IsRevoked: false,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrTokenCollision
		}
		return nil, err
	}
	return record, nil
}

// FindValid returns the record only if it exists, is not revoked and
// expires strictly after now. Otherwise it returns (nil, nil).
func (s *RefreshTokenStore) FindValid(ctx context.Context, token string) (*models.RefreshToken, error) {
	if token == "" {
		return nil, nil
	}
	now := s.clock()
	record, err := s.repo.FindActive(ctx, token, now)
	if err != nil || record == nil {
		return nil, err
	}
	if !record.IsValid(now) {
		return nil, nil
	}
	return record, nil
}

// Revoke marks the record revoked. Revoking twice is not an error.
func (s *RefreshTokenStore) Revoke(ctx context.Context, record *models.RefreshToken) error {
	if err := s.repo.MarkRevoked(ctx, record.ID, s.clock()); err != nil {
		return err
	}
	record.IsRevoked = true
	return nil
}

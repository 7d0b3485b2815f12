package repository

import (
	"context"
	"errors"
	"time"

	"github.com/tradingnft/backend/internal/models"
)

// ErrDuplicateKey is returned when a unique index (account email or
// refresh token value) rejects a write.
var ErrDuplicateKey = errors.New("duplicate key")

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// ListOptions selects one page of accounts. Page is 1-based.
type ListOptions struct {
	Page   int
	Limit  int
	SortBy string // createdAt, email, firstName, lastName, lastLoginAt
	Desc   bool
}

func (o ListOptions) normalize() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 {
		o.Limit = DefaultPageSize
	}
	if o.Limit > MaxPageSize {
		o.Limit = MaxPageSize
	}
	if _, ok := sortFields[o.SortBy]; !ok {
		o.SortBy = "createdAt"
	}
	return o
}

func (o ListOptions) offset() int {
	return (o.Page - 1) * o.Limit
}

// sortFields maps API sort keys to SQL columns.
var sortFields = map[string]string{
	"createdAt":   "created_at",
	"email":       "email",
	"firstName":   "first_name",
	"lastName":    "last_name",
	"lastLoginAt": "last_login_at",
}

// AccountUpdate holds the mutable profile fields; nil means unchanged.
type AccountUpdate struct {
	FirstName *string
	LastName  *string
	IsActive  *bool
}

func (u AccountUpdate) empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.IsActive == nil
}

// AccountRepository persists accounts. Lookups return (nil, nil) when
// nothing matches.
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context, opts ListOptions) ([]models.Account, int64, error)
	Update(ctx context.Context, id string, update AccountUpdate) (*models.Account, error)
	Delete(ctx context.Context, id string) (bool, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// RefreshTokenRepository persists refresh token records.
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	// FindActive returns the unrevoked record for token whose expiry is
	// strictly after now, or (nil, nil).
	FindActive(ctx context.Context, token string, now time.Time) (*models.RefreshToken, error)
	// MarkRevoked flags the record as revoked. Repeated calls are harmless.
	MarkRevoked(ctx context.Context, id string, at time.Time) error
	// DeleteExpired physically removes records with expiry at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

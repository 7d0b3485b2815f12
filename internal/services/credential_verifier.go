package services

import (
	"context"
	"fmt"

	"github.com/tradingnft/backend/internal/models"
	"github.com/tradingnft/backend/internal/repository"
	"github.com/tradingnft/backend/internal/utils"
)

// CredentialVerifier checks an email/password pair against the stored hash.
type CredentialVerifier struct {
	accounts repository.AccountRepository
	compare  func(password, hash string) bool
}

func NewCredentialVerifier(accounts repository.AccountRepository) *CredentialVerifier {
	return &CredentialVerifier{accounts: accounts, compare: utils.CheckPassword}
}

// Verify returns the account without its password hash when the password
// matches. An unknown email and a wrong password both yield (nil, nil); an
// error means the lookup itself failed.
func (v *CredentialVerifier) Verify(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := v.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	if account == nil {
		return nil, nil
	}
	if !v.compare(password, account.Password) {
		return nil, nil
	}
	return account.Public(), nil
}

package services

import (
	"context"

	"github.com/tradingnft/backend/internal/repository"
	"github.com/tradingnft/backend/pkg/logger"
)

// AccountEventProcessor applies side effects of account events.
type AccountEventProcessor struct {
	accounts repository.AccountRepository
}

func NewAccountEventProcessor(accounts repository.AccountRepository) *AccountEventProcessor {
	return &AccountEventProcessor{accounts: accounts}
}

// Process records the last login on sign-in and logs lifecycle changes.
func (p *AccountEventProcessor) Process(ctx context.Context, event *AccountEvent) error {
	switch event.Type {
	case TaskAccountSignedIn:
		return p.accounts.TouchLastLogin(ctx, event.AccountID, event.At)
	case TaskAccountCreated, TaskAccountUpdated, TaskAccountDeleted:
		logger.Info().
			Str("event", event.Type).
			Str("account_id", event.AccountID).
			Str("email", event.Email).
			Time("at", event.At).
			Msg("[AccountEvents] Account changed")
		return nil
	default:
		logger.Warnf("[AccountEvents] Unknown event type %q", event.Type)
		return nil
	}
}

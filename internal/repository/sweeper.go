package repository

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tradingnft/backend/pkg/logger"
)

// TokenSweeper purges expired refresh tokens on a cron schedule. SQL
// databases have no TTL index, so the storage layer runs this job in place
// of the document store's server-side expiry.
type TokenSweeper struct {
	repo    RefreshTokenRepository
	cron    *cron.Cron
	spec    string
	entryID cron.EntryID
	now     func() time.Time
}

func NewTokenSweeper(repo RefreshTokenRepository, spec string) (*TokenSweeper, error) {
	s := &TokenSweeper{
		repo: repo,
		cron: cron.New(),
		spec: spec,
		now:  time.Now,
	}

	entryID, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_, _ = s.Sweep(ctx)
	})
	if err != nil {
		return nil, err
	}
	s.entryID = entryID
	return s, nil
}

func (s *TokenSweeper) Start() {
	s.cron.Start()
	logger.Infof("[TokenSweeper] Scheduled expired refresh token cleanup (cron: %s)", s.spec)
}

// Stop waits for a running sweep to finish.
func (s *TokenSweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep deletes every refresh token whose expiry has passed.
func (s *TokenSweeper) Sweep(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		logger.Error().Err(err).Msg("[TokenSweeper] Cleanup failed")
		return 0, err
	}
	if deleted > 0 {
		logger.Info().Int64("deleted", deleted).Msg("[TokenSweeper] Removed expired refresh tokens")
	}
	return deleted, nil
}

// Next reports when the job will run again; zero before Start.
func (s *TokenSweeper) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

package repository

import (
	"context"
	"fmt"

	"github.com/tradingnft/backend/internal/config"
	"github.com/tradingnft/backend/internal/models"
	"github.com/tradingnft/backend/pkg/logger"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Stores bundles the repositories of one backend with its lifecycle.
type Stores struct {
	Accounts      AccountRepository
	RefreshTokens RefreshTokenRepository

	sweeper *TokenSweeper
	ping    func(ctx context.Context) error
	close   func(ctx context.Context) error
}

// Open connects the configured database and prepares its schema. SQL
// backends also start the expired token sweeper.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	if cfg.Database.Driver == "mongodb" {
		return openMongo(ctx, &cfg.Database)
	}

	db, err := models.InitDB(&cfg.Database, cfg.Server.Mode == "debug")
	if err != nil {
		return nil, err
	}
	stores, err := newGormStores(db)
	if err != nil {
		return nil, err
	}

	sweeper, err := NewTokenSweeper(stores.RefreshTokens, cfg.Auth.TokenSweepCron)
	if err != nil {
		_ = stores.Close(ctx)
		return nil, fmt.Errorf("schedule token sweeper: %w", err)
	}
	sweeper.Start()
	stores.sweeper = sweeper
	return stores, nil
}

// OpenMemory returns stores over a private in-memory sqlite database.
// Handy for tests and local tooling; no sweeper is scheduled.
func OpenMemory(name string) (*Stores, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// A single connection keeps the shared in-memory database alive and
	// serializes writers.
	sqlDB.SetMaxOpenConns(1)
	return newGormStores(db)
}

// newGormStores migrates the schema. The connection is closed when the
// migration fails.
func newGormStores(db *gorm.DB) (*Stores, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := models.AutoMigrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Stores{
		Accounts:      NewGormAccountRepository(db),
		RefreshTokens: NewGormRefreshTokenRepository(db),
		ping:          sqlDB.PingContext,
		close: func(context.Context) error {
			return sqlDB.Close()
		},
	}, nil
}

func openMongo(ctx context.Context, cfg *config.DatabaseConfig) (*Stores, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.DSN))
	if err != nil {
		return nil, fmt.Errorf("failed to connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(cfg.Name)
	if err := EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	logger.Infof("[Database] Connected to mongodb database %s", cfg.Name)

	return &Stores{
		Accounts:      NewMongoAccountRepository(db),
		RefreshTokens: NewMongoRefreshTokenRepository(db),
		ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		close: client.Disconnect,
	}, nil
}

func (s *Stores) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close stops the sweeper, if any, then releases the connection.
func (s *Stores) Close(ctx context.Context) error {
	if s.sweeper != nil {
		s.sweeper.Stop()
	}
	return s.close(ctx)
}

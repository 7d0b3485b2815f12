package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tradingnft/backend/internal/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	accountsCollection      = "users"
	refreshTokensCollection = "refreshtokens"
)

// mongoSortFields maps API sort keys to document fields.
var mongoSortFields = map[string]string{
	"createdAt":   "createdAt",
	"email":       "email",
	"firstName":   "firstName",
	"lastName":    "lastName",
	"lastLoginAt": "lastLoginAt",
}

// EnsureIndexes creates the unique, lookup and TTL indexes both collections
// rely on. The expiresAt TTL index lets the server purge expired tokens.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(accountsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("create account indexes: %w", err)
	}

	_, err = db.Collection(refreshTokensCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("token_unique"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetName("userId"),
		},
		{
			Keys:    bson.D{{Key: "expiresAt", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("expiresAt_ttl"),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "isRevoked", Value: 1}},
			Options: options.Index().SetName("userId_isRevoked"),
		},
	})
	if err != nil {
		return fmt.Errorf("create refresh token indexes: %w", err)
	}
	return nil
}

type MongoAccountRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoAccountRepository(db *mongo.Database) *MongoAccountRepository {
	return &MongoAccountRepository{coll: db.Collection(accountsCollection), now: time.Now}
}

func (r *MongoAccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := r.now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now

	if _, err := r.coll.InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *MongoAccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (r *MongoAccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *MongoAccountRepository) findOne(ctx context.Context, filter bson.D) (*models.Account, error) {
	var account models.Account
	if err := r.coll.FindOne(ctx, filter).Decode(&account); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &account, nil
}

func (r *MongoAccountRepository) List(ctx context.Context, opts ListOptions) ([]models.Account, int64, error) {
	opts = opts.normalize()

	total, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	dir := 1
	if opts.Desc {
		dir = -1
	}
	findOpts := options.Find().
		SetSort(bson.D{{Key: mongoSortFields[opts.SortBy], Value: dir}, {Key: "_id", Value: 1}}).
		SetSkip(int64(opts.offset())).
		SetLimit(int64(opts.Limit))

	cursor, err := r.coll.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	accounts := []models.Account{}
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, 0, fmt.Errorf("decode accounts: %w", err)
	}
	return accounts, total, nil
}

func (r *MongoAccountRepository) Update(ctx context.Context, id string, update AccountUpdate) (*models.Account, error) {
	if update.empty() {
		return r.FindByID(ctx, id)
	}

	set := bson.D{{Key: "updatedAt", Value: r.now().UTC()}}
	if update.FirstName != nil {
		set = append(set, bson.E{Key: "firstName", Value: *update.FirstName})
	}
	if update.LastName != nil {
		set = append(set, bson.E{Key: "lastName", Value: *update.LastName})
	}
	if update.IsActive != nil {
		set = append(set, bson.E{Key: "isActive", Value: *update.IsActive})
	}

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, nil
	}
	return r.FindByID(ctx, id)
}

func (r *MongoAccountRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return false, fmt.Errorf("delete account: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoAccountRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "lastLoginAt", Value: at.UTC()}}}},
	)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

type MongoRefreshTokenRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoRefreshTokenRepository(db *mongo.Database) *MongoRefreshTokenRepository {
	return &MongoRefreshTokenRepository{coll: db.Collection(refreshTokensCollection), now: time.Now}
}

func (r *MongoRefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	now := r.now().UTC()
	token.CreatedAt = now
	token.UpdatedAt = now
	token.ExpiresAt = token.ExpiresAt.UTC()

	if _, err := r.coll.InsertOne(ctx, token); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (r *MongoRefreshTokenRepository) FindActive(ctx context.Context, token string, now time.Time) (*models.RefreshToken, error) {
	filter := bson.D{
		{Key: "token", Value: token},
		{Key: "isRevoked", Value: false},
		{Key: "expiresAt", Value: bson.D{{Key: "$gt", Value: now.UTC()}}},
	}

	var record models.RefreshToken
	if err := r.coll.FindOne(ctx, filter).Decode(&record); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &record, nil
}

func (r *MongoRefreshTokenRepository) MarkRevoked(ctx context.Context, id string, at time.Time) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "isRevoked", Value: true},
			{Key: "updatedAt", Value: at.UTC()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// DeleteExpired is normally redundant with the TTL index but lets callers
// purge immediately instead of waiting for the server's TTL monitor.
func (r *MongoRefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{{Key: "expiresAt", Value: bson.D{{Key: "$lte", Value: now.UTC()}}}})
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return res.DeletedCount, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tradingnft/backend/internal/models"
	"gorm.io/gorm"
)

type GormAccountRepository struct {
	db *gorm.DB
}

func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

func (r *GormAccountRepository) Create(ctx context.Context, account *models.Account) error {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *GormAccountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *GormAccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.findOne(ctx, "email = ?", email)
}

func (r *GormAccountRepository) findOne(ctx context.Context, query string, arg interface{}) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where(query, arg).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &account, nil
}

func (r *GormAccountRepository) List(ctx context.Context, opts ListOptions) ([]models.Account, int64, error) {
	opts = opts.normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Account{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	order := sortFields[opts.SortBy]
	if opts.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	var accounts []models.Account
	err := r.db.WithContext(ctx).
		Order(order).
		Order("id ASC").
		Offset(opts.offset()).
		Limit(opts.Limit).
		Find(&accounts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, total, nil
}

func (r *GormAccountRepository) Update(ctx context.Context, id string, update AccountUpdate) (*models.Account, error) {
	account, err := r.FindByID(ctx, id)
	if err != nil || account == nil {
		return nil, err
	}
	if update.empty() {
		return account, nil
	}

	updates := map[string]interface{}{}
	if update.FirstName != nil {
		updates["first_name"] = *update.FirstName
	}
	if update.LastName != nil {
		updates["last_name"] = *update.LastName
	}
	if update.IsActive != nil {
		updates["is_active"] = *update.IsActive
	}

	if err := r.db.WithContext(ctx).Model(&models.Account{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *GormAccountRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Account{})
	if res.Error != nil {
		return false, fmt.Errorf("delete account: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *GormAccountRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		Update("last_login_at", at.UTC()).Error
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}

type GormRefreshTokenRepository struct {
	db *gorm.DB
}

func NewGormRefreshTokenRepository(db *gorm.DB) *GormRefreshTokenRepository {
	return &GormRefreshTokenRepository{db: db}
}

func (r *GormRefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	token.ExpiresAt = token.ExpiresAt.UTC()
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (r *GormRefreshTokenRepository) FindActive(ctx context.Context, token string, now time.Time) (*models.RefreshToken, error) {
	var record models.RefreshToken
	err := r.db.WithContext(ctx).
		Where("token = ? AND is_revoked = ? AND expires_at > ?", token, false, now.UTC()).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}
	return &record, nil
}

func (r *GormRefreshTokenRepository) MarkRevoked(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_revoked": true, "updated_at": at.UTC()}).Error
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *GormRefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now.UTC()).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}

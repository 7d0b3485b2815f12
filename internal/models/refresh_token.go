package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RefreshToken is one issued opaque refresh credential. Records are revoked,
// never deleted, by the auth flow; expired rows are purged by the storage layer.
type RefreshToken struct {
	ID        string    `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Token     string    `gorm:"uniqueIndex;size:64;not null" bson:"token" json:"-"`
	UserID    string    `gorm:"size:36;not null;index:idx_refresh_tokens_user_id;index:idx_refresh_tokens_user_revoked,priority:1" bson:"userId" json:"userId"`
	ExpiresAt time.Time `gorm:"index;not null" bson:"expiresAt" json:"expiresAt"`
	IsRevoked bool      `gorm:"not null;default:false;index:idx_refresh_tokens_user_revoked,priority:2" bson:"isRevoked" json:"isRevoked"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

func (t *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// IsValid reports whether the token may still be exchanged at now.
// A token expiring exactly at now is already expired.
func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.IsRevoked && t.ExpiresAt.After(now)
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is a person able to sign in. Emails are matched exactly as stored.
type Account struct {
	ID          string     `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	FirstName   string     `gorm:"size:100;not null" bson:"firstName" json:"firstName"`
	LastName    string     `gorm:"size:100;not null" bson:"lastName" json:"lastName"`
	Email       string     `gorm:"uniqueIndex;size:255;not null" bson:"email" json:"email"`
	Password    string     `gorm:"size:255;not null" bson:"password" json:"-"` // bcrypt hash
	IsActive    bool       `gorm:"not null;default:false" bson:"isActive" json:"isActive"`
	LastLoginAt *time.Time `bson:"lastLoginAt,omitempty" json:"lastLoginAt"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}

func (Account) TableName() string { return "users" }

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Public returns a copy without the password hash.
func (a *Account) Public() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.Password = ""
	return &out
}

package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// ShareCodeGroup is the set of clients that logged in with the same share code
// while it was live. Logging in with an expired code starts a new group.
type ShareCodeGroup struct {
	BaseModel
	Code      string    `json:"code" gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Expired reports whether the group is no longer joinable at now
func (g *ShareCodeGroup) Expired(now time.Time) bool {
	return now.After(g.ExpiresAt)
}

// EmailChallenge is a pending email login. Only a bcrypt hash of the code is kept.
type EmailChallenge struct {
	BaseModel
	Email     string    `json:"email" gorm:"index;not null"`
	CodeHash  string    `json:"-" gorm:"not null"`
	Attempts  int       `json:"attempts" gorm:"not null;default:0"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&ShareCodeGroup{}, &EmailChallenge{})
}

// Package emailcode issues and checks the six digit codes mailed for email login.
package emailcode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gcopy-dev/gcopy/internal/auth"
	"github.com/gcopy-dev/gcopy/internal/models"
)

const (
	// TTL is how long an issued code can be used
	TTL = 5 * time.Minute
	// MaxAttempts is how many wrong codes a challenge survives
	MaxAttempts = 5
)

// ErrInvalidCode is returned when no live challenge matches the email and code
var ErrInvalidCode = errors.New("invalid verification code")

// Store persists email challenges
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore creates a Store on db
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Issue replaces any pending challenge for email with a new one and returns the plain code
func (s *Store) Issue(ctx context.Context, email string) (string, error) {
	code, err := auth.GenerateCode()
	if err != nil {
		return "", err
	}
	hash, err := auth.HashCode(code)
	if err != nil {
		return "", err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&models.EmailChallenge{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.EmailChallenge{
			Email:     email,
			CodeHash:  hash,
			ExpiresAt: s.now().Add(TTL),
		}).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to store challenge: %w", err)
	}
	return code, nil
}

// Verify consumes the challenge for email if code matches and it has not
// expired. The challenge is also consumed after MaxAttempts wrong codes.
func (s *Store) Verify(ctx context.Context, email, code string) error {
	var challenge models.EmailChallenge
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&challenge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidCode
	}
	if err != nil {
		return fmt.Errorf("failed to load challenge: %w", err)
	}

	if s.now().After(challenge.ExpiresAt) {
		return ErrInvalidCode
	}

	if !auth.VerifyCode(code, challenge.CodeHash) {
		if err := s.recordFailure(ctx, &challenge); err != nil {
			return err
		}
		return ErrInvalidCode
	}

	if err := s.db.WithContext(ctx).Delete(&challenge).Error; err != nil {
		return fmt.Errorf("failed to consume challenge: %w", err)
	}
	return nil
}

// recordFailure counts a wrong code and drops the challenge once it runs out of attempts
func (s *Store) recordFailure(ctx context.Context, challenge *models.EmailChallenge) error {
	db := s.db.WithContext(ctx)
	if challenge.Attempts+1 >= MaxAttempts {
		if err := db.Delete(challenge).Error; err != nil {
			return fmt.Errorf("failed to consume challenge: %w", err)
		}
		return nil
	}

	err := db.Model(challenge).UpdateColumn("attempts", gorm.Expr("attempts + ?", 1)).Error
	if err != nil {
		return fmt.Errorf("failed to record attempt: %w", err)
	}
	return nil
}

// PurgeExpired deletes challenges that can no longer be used
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", s.now()).Delete(&models.EmailChallenge{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge challenges: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Package sharecode keeps the share-code groups clients join when they log in
// with a share code instead of an email address.
package sharecode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gcopy-dev/gcopy/internal/models"
)

// TTL is how long a share code stays joinable after it was last created or refreshed
const TTL = 5 * time.Minute

// ErrNotFound is returned when a share code has no group
var ErrNotFound = errors.New("share code not found")

// Store persists share-code groups
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// NewStore creates a Store on db
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Join admits a client to the group for code. A missing or expired group is
// (re)created with a fresh expiry; a live group is joined unchanged.
// created reports whether a new group was started.
func (s *Store) Join(ctx context.Context, code string) (group *models.ShareCodeGroup, created bool, err error) {
	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.ShareCodeGroup
		err := tx.Where("code = ?", code).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			group = &models.ShareCodeGroup{Code: code, ExpiresAt: now.Add(TTL)}
			created = true
			return tx.Create(group).Error
		case err != nil:
			return err
		}

		if existing.Expired(now) {
			existing.ExpiresAt = now.Add(TTL)
			created = true
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
		}
		group = &existing
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to join share code group: %w", err)
	}
	return group, created, nil
}

// Refresh pushes the expiry of code TTL into the future, creating the group if needed
func (s *Store) Refresh(ctx context.Context, code string) (*models.ShareCodeGroup, error) {
	expiresAt := s.now().Add(TTL)
	group := &models.ShareCodeGroup{Code: code, ExpiresAt: expiresAt}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"expires_at": expiresAt, "updated_at": s.now()}),
	}).Create(group).Error
	if err != nil {
		return nil, fmt.Errorf("failed to refresh share code: %w", err)
	}
	return s.Get(ctx, code)
}

// Get returns the group for code
func (s *Store) Get(ctx context.Context, code string) (*models.ShareCodeGroup, error) {
	var group models.ShareCodeGroup
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load share code: %w", err)
	}
	return &group, nil
}

// PurgeExpired deletes groups that expired before now and returns how many were removed
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", s.now()).Delete(&models.ShareCodeGroup{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to purge share codes: %w", res.Error)
	}
	return res.RowsAffected, nil
}

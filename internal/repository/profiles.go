package repository

import (
	"errors"

	"gorm.io/gorm"

	"studypulse/internal/models"
)

// Store is the gorm-backed persistence layer. It satisfies the storage
// contracts of the profile store, the tracker and the dispatcher.
type Store struct {
	db *gorm.DB
}

// New wraps an open database handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// LoadProfile fetches a student profile. A missing profile returns (nil, nil)
// so callers can distinguish absence from a storage failure.
func (s *Store) LoadProfile(userID string) (*models.StudentProfile, error) {
	var prof models.StudentProfile
	result := s.db.First(&prof, "user_id = ?", userID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &prof, nil
}

// SaveProfile upserts a student profile keyed by user ID.
func (s *Store) SaveProfile(prof *models.StudentProfile) error {
	return s.db.Save(prof).Error
}

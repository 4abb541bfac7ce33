// Package profile caches per-student personalization state and keeps it
// persisted write-behind through the storage contract.
package profile

import (
	"sync"

	"go.uber.org/zap"

	"studypulse/internal/models"
)

// Storage is the persistence contract for profiles. LoadProfile returns
// (nil, nil) when no profile exists for the user.
type Storage interface {
	LoadProfile(userID string) (*models.StudentProfile, error)
	SaveProfile(profile *models.StudentProfile) error
}

// Store holds the in-memory profile cache. Profiles are created lazily with
// defaults; storage failures never surface to the prediction path.
type Store struct {
	log     *zap.Logger
	storage Storage

	mu    sync.Mutex
	cache map[string]*models.StudentProfile
}

// NewStore creates a profile store. storage may be nil for a purely
// in-memory store (tests, ephemeral runs).
func NewStore(storage Storage, log *zap.Logger) *Store {
	return &Store{
		log:     log,
		storage: storage,
		cache:   make(map[string]*models.StudentProfile),
	}
}

// Get returns the student's profile, loading it on first use and creating a
// default profile when none exists or the load fails.
func (s *Store) Get(userID string) *models.StudentProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.cache[userID]; ok {
		return p
	}

	if s.storage != nil {
		p, err := s.storage.LoadProfile(userID)
		if err != nil {
			if s.log != nil {
				s.log.Warn("Profile load failed, using defaults",
					zap.String("userID", userID), zap.Error(err))
			}
		} else if p != nil {
			s.cache[userID] = p
			return p
		}
	}

	p := models.NewStudentProfile(userID)
	s.cache[userID] = p
	s.persist(p)
	return p
}

// Update replaces the cached profile and persists it best-effort.
func (s *Store) Update(p *models.StudentProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[p.UserID] = p
	s.persist(p)
}

// Evict drops a profile from the cache, forcing a reload on next access.
func (s *Store) Evict(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cache, userID)
}

func (s *Store) persist(p *models.StudentProfile) {
	if s.storage == nil {
		return
	}
	if err := s.storage.SaveProfile(p); err != nil && s.log != nil {
		s.log.Warn("Profile save failed",
			zap.String("userID", p.UserID), zap.Error(err))
	}
}

package repository

import (
	"gorm.io/gorm"

	"studypulse/internal/models"
)

// AppendBehaviorLog writes one derived-sample record. Append-only; callers
// treat failures as best-effort.
func (s *Store) AppendBehaviorLog(entry *models.BehaviorLogEntry) error {
	return s.db.Create(entry).Error
}

// SaveSessionSummary writes one session digest and prunes the student's
// oldest summaries beyond the retention count in the same transaction.
func (s *Store) SaveSessionSummary(summary *models.SessionSummary, keep int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(summary).Error; err != nil {
			return err
		}
		if keep <= 0 {
			return nil
		}
		prune := `DELETE FROM session_summaries
			WHERE user_id = ? AND id NOT IN (
				SELECT id FROM session_summaries
				WHERE user_id = ?
				ORDER BY ended_at DESC
				LIMIT ?
			);`
		return tx.Exec(prune, summary.UserID, summary.UserID, keep).Error
	})
}

// LoadSessionHistory returns the student's persisted session digests, newest
// first.
func (s *Store) LoadSessionHistory(userID string, limit int) ([]models.SessionSummary, error) {
	var out []models.SessionSummary
	q := s.db.Where("user_id = ?", userID).Order("ended_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// SaveIntervention appends one dispatched-intervention audit record.
func (s *Store) SaveIntervention(rec *models.InterventionRecord) error {
	return s.db.Create(rec).Error
}

// LoadInterventions returns the student's most recent interventions, newest
// first.
func (s *Store) LoadInterventions(userID string, limit int) ([]models.InterventionRecord, error) {
	var out []models.InterventionRecord
	q := s.db.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

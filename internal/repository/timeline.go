package repository

import (
	"context"
	"time"
)

// TimelineDataPoint is one plotted sample on the dashboard indicator chart.
type TimelineDataPoint struct {
	Date        time.Time `json:"date"`
	Frustration float64   `json:"frustration"`
	Confidence  float64   `json:"confidence"`
	Engagement  float64   `json:"engagement"`
}

// GetIndicatorTimeline returns the student's derived indicator levels over
// time, oldest first, for charting.
func (s *Store) GetIndicatorTimeline(ctx context.Context, userID string, since time.Time) ([]TimelineDataPoint, error) {
	var data []TimelineDataPoint

	query := `
		SELECT
			recorded_at AS date,
			frustration,
			confidence,
			engagement
		FROM behavior_log_entries
		WHERE user_id = ? AND recorded_at >= ?
		ORDER BY recorded_at;
	`

	err := s.db.WithContext(ctx).Raw(query, userID, since).Scan(&data).Error
	return data, err
}

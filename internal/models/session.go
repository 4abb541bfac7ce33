package models

import (
	"time"

	"github.com/lib/pq"
)

// SessionSummary is the persisted digest of one tracking session, written
// when tracking stops for a student.
type SessionSummary struct {
	ID               int            `gorm:"primaryKey" json:"id"`
	UserID           string         `gorm:"index" json:"userId"`
	SessionID        string         `json:"sessionId"`
	StartedAt        time.Time      `json:"startedAt"`
	EndedAt          time.Time      `json:"endedAt"`
	SampleCount      int            `json:"sampleCount"`
	QuestionAttempts int            `json:"questionAttempts"`
	CorrectAnswers   int            `json:"correctAnswers"`
	HelpRequests     int            `json:"helpRequests"`
	MeanFrustration  float64        `json:"meanFrustration"`
	MeanConfidence   float64        `json:"meanConfidence"`
	MeanEngagement   float64        `json:"meanEngagement"`
	StruggleEvents   int            `json:"struggleEvents"`
	StruggleTypes    pq.StringArray `gorm:"type:text[]" json:"struggleTypes"`
}

// BehaviorLogEntry is a best-effort append-only record of a derived sample,
// kept for offline profile learning.
type BehaviorLogEntry struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"index" json:"userId"`
	SessionID   string    `json:"sessionId"`
	RecordedAt  time.Time `json:"recordedAt"`
	Frustration float64   `json:"frustration"`
	Confidence  float64   `json:"confidence"`
	Engagement  float64   `json:"engagement"`
	TimeOnTask  float64   `json:"timeOnTask"`
	Attempts    int       `json:"attempts"`
	Correct     int       `json:"correct"`
}

// InterventionRecord is the audit entry for a dispatched intervention.
type InterventionRecord struct {
	ID          int            `gorm:"primaryKey" json:"id"`
	UserID      string         `gorm:"index" json:"userId"`
	CreatedAt   time.Time      `json:"createdAt"`
	Action      string         `json:"action"`
	Confidence  float64        `json:"confidence"`
	Probability float64        `json:"probability"`
	Reasoning   pq.StringArray `gorm:"type:text[]" json:"reasoning"`
}

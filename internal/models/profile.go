package models

import "time"

// LearningPattern is a named behavioral pattern observed for a student, used
// to adjust prediction scores multiplicatively.
type LearningPattern struct {
	Frequency     float64  `json:"frequency"`
	Effectiveness float64  `json:"effectiveness"`
	Triggers      []string `json:"triggers,omitempty"`
}

// StruggleIndicator weights the contribution of one computed indicator.
type StruggleIndicator struct {
	Threshold         float64 `json:"threshold"`
	Accuracy          float64 `json:"accuracy"`
	FalsePositiveRate float64 `json:"falsePositiveRate"`
}

// OptimalCondition describes a condition under which a student performs
// better. Currently descriptive only; preserved for forward compatibility.
type OptimalCondition struct {
	PerformanceBoost float64 `json:"performanceBoost"`
	Notes            string  `json:"notes,omitempty"`
}

// PersonalizedThresholds are the per-student tuning knobs for prediction.
type PersonalizedThresholds struct {
	FrustrationThreshold   float64 `json:"frustrationThreshold"`
	HelpOfferTiming        float64 `json:"helpOfferTiming"`        // seconds
	BreakSuggestionTiming  float64 `json:"breakSuggestionTiming"`  // seconds
	EncouragementFrequency float64 `json:"encouragementFrequency"` // 0..1
}

// StudentProfile holds long-lived personalization state for one student.
// Exactly one profile exists per user; it is created with defaults on first
// prediction and persisted write-behind.
type StudentProfile struct {
	UserID             string                       `gorm:"primaryKey" json:"userId"`
	LearningPatterns   map[string]LearningPattern   `gorm:"serializer:json" json:"learningPatterns"`
	StruggleIndicators map[string]StruggleIndicator `gorm:"serializer:json" json:"struggleIndicators"`
	OptimalConditions  map[string]OptimalCondition  `gorm:"serializer:json" json:"optimalConditions"`
	Thresholds         PersonalizedThresholds       `gorm:"embedded;embeddedPrefix:threshold_" json:"personalizedThresholds"`
	UpdatedAt          time.Time                    `json:"updatedAt"`
}

// Default profile values. A new profile starts here and diverges as the
// student's history accumulates.
const (
	DefaultFrustrationThreshold   = 0.6
	DefaultHelpOfferTiming        = 120.0
	DefaultBreakSuggestionTiming  = 600.0
	DefaultEncouragementFrequency = 0.3
)

// Learning pattern trigger names recognized by the predictor.
const (
	PatternNeedsEncouragement = "needs_frequent_encouragement"
	PatternWorksWithBreaks    = "works_better_with_breaks"
)

// Struggle indicator names computed by the predictor and seeded on new profiles.
const (
	IndicatorTimeStagnation     = "timeStagnation"
	IndicatorActivityLevel      = "activityLevel"
	IndicatorAttentionSpan      = "attentionSpan"
	IndicatorResponsePattern    = "responsePattern"
	IndicatorPerformanceDecline = "performanceDecline"
)

// NewStudentProfile builds a profile with the default thresholds and the
// baseline struggle indicator seeds.
func NewStudentProfile(userID string) *StudentProfile {
	return &StudentProfile{
		UserID:           userID,
		LearningPatterns: map[string]LearningPattern{},
		StruggleIndicators: map[string]StruggleIndicator{
			IndicatorTimeStagnation:     {Threshold: 2.0, Accuracy: 0.7, FalsePositiveRate: 0.2},
			IndicatorPerformanceDecline: {Threshold: 0.3, Accuracy: 0.8, FalsePositiveRate: 0.15},
			IndicatorAttentionSpan:      {Threshold: 0.5, Accuracy: 0.6, FalsePositiveRate: 0.3},
		},
		OptimalConditions: map[string]OptimalCondition{},
		Thresholds: PersonalizedThresholds{
			FrustrationThreshold:   DefaultFrustrationThreshold,
			HelpOfferTiming:        DefaultHelpOfferTiming,
			BreakSuggestionTiming:  DefaultBreakSuggestionTiming,
			EncouragementFrequency: DefaultEncouragementFrequency,
		},
		UpdatedAt: time.Now(),
	}
}

package models

import "time"

// Action is the canonical intervention action vocabulary. The probability
// bands map to exactly one action each; immediate help degrades to a break
// suggestion when frustration is already high.
type Action string

const (
	ActionWait          Action = "wait"
	ActionOfferHint     Action = "offer_hint"
	ActionEncourage     Action = "provide_encouragement"
	ActionSuggestBreak  Action = "suggest_break"
	ActionImmediateHelp Action = "immediate_help"
)

// PredictionResult is the immutable output of one prediction run.
type PredictionResult struct {
	UserID                string    `json:"userId"`
	GeneratedAt           time.Time `json:"generatedAt"`
	NeedsHelp             bool      `json:"needsHelp"`
	Confidence            float64   `json:"confidence"` // 0..1
	HelpProbability       float64   `json:"helpProbability"`
	SuggestedAction       Action    `json:"suggestedAction"`
	TimeUntilIntervention float64   `json:"timeUntilIntervention"` // seconds
	Reasoning             []string  `json:"reasoning"`
}

// TrendReport holds directional trends over a student's recent samples,
// computed as mean(recent window) - mean(older window).
type TrendReport struct {
	FrustrationTrend float64 `json:"frustrationTrend"`
	PerformanceTrend float64 `json:"performanceTrend"`
	EngagementTrend  float64 `json:"engagementTrend"`
}

// Package indicators derives emotional and engagement levels from raw
// telemetry samples. The weights are hand-tuned heuristics, not learned;
// they are exported as constants so tests can pin the breakpoints.
package indicators

import (
	"studypulse/internal/models"
)

// Frustration scoring weights and breakpoints.
const (
	SlowQuestionSeconds     = 120.0
	StuckQuestionSeconds    = 300.0
	SlowQuestionWeight      = 0.3
	StuckQuestionWeight     = 0.4
	FailedAttemptsWeight    = 0.4
	ErraticActivityWeight   = 0.2
	RepeatedHelpWeight      = 0.3
	FailedAttemptsThreshold = 3
	RepeatedHelpThreshold   = 2
	ActivityRateFloor       = 2.0
	ActivityRateCeiling     = 50.0
)

// Confidence scoring weights.
const (
	ConfidenceBase       = 0.5
	HighAccuracyWeight   = 0.3
	LowAccuracyPenalty   = 0.4
	QuickResponseWeight  = 0.2
	IndependenceWeight   = 0.2
	HighAccuracyRatio    = 0.8
	LowAccuracyRatio     = 0.3
	QuickResponseSeconds = 30.0
)

// Engagement scoring weights.
const (
	EngagementBase       = 0.5
	ActivityScaleWeight  = 0.3
	FocusStabilityWeight = 0.2
	ProgressWeight       = 0.3
	ActivityRateScale    = 20.0
	FocusChangeScale     = 10.0
)

// Compute derives frustration, confidence and engagement levels from the raw
// fields of a sample. It is pure: calling it twice on the same raw fields
// yields identical results, and it never mutates its input.
func Compute(s *models.TelemetrySample) models.Indicators {
	rate := activityRate(s)
	return models.Indicators{
		Frustration: frustration(s, rate),
		Confidence:  confidence(s),
		Engagement:  engagement(s, rate),
	}
}

// Apply computes the indicators and attaches them to the sample.
func Apply(s *models.TelemetrySample) {
	ind := Compute(s)
	s.Indicators = &ind
}

// activityRate normalizes input volume against time on question. The
// denominator is floored at 1 so short questions do not explode the rate.
func activityRate(s *models.TelemetrySample) float64 {
	denom := s.TimeOnQuestion / 10
	if denom < 1 {
		denom = 1
	}
	return float64(s.MouseMovements+s.Keystrokes) / denom
}

func frustration(s *models.TelemetrySample, rate float64) float64 {
	score := 0.0

	if s.TimeOnQuestion > SlowQuestionSeconds {
		score += SlowQuestionWeight
	}
	if s.TimeOnQuestion > StuckQuestionSeconds {
		score += StuckQuestionWeight
	}
	if s.QuestionAttempts > FailedAttemptsThreshold && s.CorrectAnswers == 0 {
		score += FailedAttemptsWeight
	}
	// Erratic activity only signals frustration once the sample shows any
	// question time or input; an all-zero sample carries no signal.
	if (s.TimeOnQuestion > 0 || s.MouseMovements+s.Keystrokes > 0) &&
		(rate < ActivityRateFloor || rate > ActivityRateCeiling) {
		score += ErraticActivityWeight
	}
	if s.HelpRequests > RepeatedHelpThreshold {
		score += RepeatedHelpWeight
	}

	return clamp01(score)
}

func confidence(s *models.TelemetrySample) float64 {
	score := ConfidenceBase

	attempts := float64(s.QuestionAttempts)
	correct := float64(s.CorrectAnswers)

	if correct > HighAccuracyRatio*attempts {
		score += HighAccuracyWeight
	}
	if correct < LowAccuracyRatio*attempts {
		score -= LowAccuracyPenalty
	}
	if s.AverageResponseTime < QuickResponseSeconds && s.CorrectAnswers > 0 {
		score += QuickResponseWeight
	}
	if s.HelpRequests == 0 && s.CorrectAnswers > 0 {
		score += IndependenceWeight
	}

	return clamp01(score)
}

func engagement(s *models.TelemetrySample, rate float64) float64 {
	score := EngagementBase

	scaled := rate / ActivityRateScale
	if scaled > 1 {
		scaled = 1
	}
	score += ActivityScaleWeight * scaled

	// Focus stability only counts while the student is producing input;
	// otherwise an idle sample would read as highly focused.
	if rate > 0 {
		stability := 1 - float64(s.WindowFocusChanges)/FocusChangeScale
		if stability < 0 {
			stability = 0
		}
		score += FocusStabilityWeight * stability
	}

	if s.CorrectAnswers > 0 {
		score += ProgressWeight
	}

	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

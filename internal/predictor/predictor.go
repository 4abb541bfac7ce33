// Package predictor combines indicator levels, trends and the student
// profile into a help-probability score and a suggested intervention.
package predictor

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"studypulse/internal/models"
	"studypulse/internal/profile"
	"studypulse/internal/trends"
)

// Additive probability contributions. Breakpoints are hand-tuned and pinned
// by tests.
const (
	ExtendedTimeWeight     = 0.3
	HighFrustrationWeight  = 0.4
	LowAccuracyWeight      = 0.2
	RepeatedHelpWeight     = 0.3
	LowEngagementWeight    = 0.2
	FrustrationTrendWeight = 0.15

	LowAccuracyCutoff      = 0.4
	LowEngagementCutoff    = 0.3
	FrustrationTrendCutoff = 0.2
	RepeatedHelpCount      = 2
	RepeatedHelpMinSeconds = 60.0

	// Probability bands for action mapping.
	ImmediateBand = 0.8
	EncourageBand = 0.6
	HintBand      = 0.4
	NeedsHelpBand = 0.5

	// Frustrated students get a break instead of more content.
	BreakFrustrationCutoff = 0.7

	// Personalization multiplier parameters.
	EncouragementBoost  = 1.2
	BreakPatternBoost   = 1.3
	MultiplierCap       = 2.0
	DeclineTriggerLevel = 0.2
	StagnationTrigger   = 2.0

	// Confidence shaping.
	FullConfidenceSamples = 10
	ConfidenceFloor       = 0.3
)

// Intervention delays per action band, in seconds.
const (
	DelayImmediate = 0.0
	DelayEncourage = 10.0
	DelayHint      = 30.0
	DelayWait      = 60.0
)

// Predictor computes help-need predictions over in-memory sample history.
type Predictor struct {
	log      *zap.Logger
	profiles *profile.Store
	now      func() time.Time
}

// New creates a predictor backed by the given profile store.
func New(profiles *profile.Store, log *zap.Logger) *Predictor {
	return &Predictor{log: log, profiles: profiles, now: time.Now}
}

// Predict runs one prediction over the student's recent samples (newest
// last; callers pass at most the last ten). It is total: missing fields read
// as zero and a failed profile load falls back to defaults inside the store.
func (p *Predictor) Predict(userID string, samples []*models.TelemetrySample) models.PredictionResult {
	if len(samples) == 0 {
		return models.PredictionResult{
			UserID:                userID,
			GeneratedAt:           p.now(),
			NeedsHelp:             false,
			Confidence:            0,
			SuggestedAction:       models.ActionWait,
			TimeUntilIntervention: DelayWait,
			Reasoning:             []string{"Insufficient data"},
		}
	}

	prof := p.profiles.Get(userID)
	current := samples[len(samples)-1]
	computed := struggleIndicators(samples)
	trend := trends.Analyze(samples)

	probability := 0.0
	var reasoning []string

	if current.TimeOnQuestion > prof.Thresholds.HelpOfferTiming {
		probability += ExtendedTimeWeight
		reasoning = append(reasoning, fmt.Sprintf("Extended time on question (%.0fs)", current.TimeOnQuestion))
	}
	if current.Frustration() > prof.Thresholds.FrustrationThreshold {
		probability += HighFrustrationWeight
		reasoning = append(reasoning, fmt.Sprintf("High frustration level (%.2f)", current.Frustration()))
	}
	recentAccuracy := aggregateAccuracy(tail(samples, trendWindow))
	if recentAccuracy < LowAccuracyCutoff {
		probability += LowAccuracyWeight
		reasoning = append(reasoning, fmt.Sprintf("Low recent accuracy (%.0f%%)", recentAccuracy*100))
	}
	if current.HelpRequests > RepeatedHelpCount && current.TimeOnQuestion > RepeatedHelpMinSeconds {
		probability += RepeatedHelpWeight
		reasoning = append(reasoning, "Multiple help requests on same question")
	}
	if current.Engagement() < LowEngagementCutoff {
		probability += LowEngagementWeight
		reasoning = append(reasoning, fmt.Sprintf("Low engagement level (%.2f)", current.Engagement()))
	}
	if trend.FrustrationTrend > FrustrationTrendCutoff {
		probability += FrustrationTrendWeight
		reasoning = append(reasoning, "Increasing frustration trend")
	}

	probability *= personalMultiplier(prof, computed)

	action, delay := mapAction(probability, current.Frustration())

	result := models.PredictionResult{
		UserID:                userID,
		GeneratedAt:           p.now(),
		NeedsHelp:             probability > NeedsHelpBand,
		Confidence:            confidence(len(samples), computed),
		HelpProbability:       probability,
		SuggestedAction:       action,
		TimeUntilIntervention: delay,
		Reasoning:             reasoning,
	}

	if p.log != nil {
		p.log.Debug("Prediction computed",
			zap.String("userID", userID),
			zap.Float64("probability", probability),
			zap.String("action", string(action)),
		)
	}
	return result
}

const trendWindow = 3

// struggleIndicators derives the named indicator metrics the profile weights
// against. All derivations are zero-safe.
func struggleIndicators(samples []*models.TelemetrySample) map[string]float64 {
	current := samples[len(samples)-1]

	// Stagnation compares the current question time against the worst of the
	// preceding samples; without history the ratio defaults to 1.
	maxTime := 0.0
	for _, s := range samples[:len(samples)-1] {
		if s.TimeOnQuestion > maxTime {
			maxTime = s.TimeOnQuestion
		}
	}
	stagnation := 1.0
	if maxTime > 0 {
		stagnation = current.TimeOnQuestion / maxTime
	}

	var responseSum float64
	for _, s := range samples {
		responseSum += s.AverageResponseTime
	}
	meanResponse := responseSum / float64(len(samples))

	attention := 0.0
	if minutes := current.TimeOnQuestion / 60; minutes > 0 {
		attention = float64(current.WindowFocusChanges) / minutes
	}

	responsePattern := 0.0
	if meanResponse > 0 {
		responsePattern = current.AverageResponseTime / meanResponse
	}

	recent := tail(samples, trendWindow)
	older := window(samples, 2*trendWindow, trendWindow)
	decline := aggregateAccuracy(older) - aggregateAccuracy(recent)
	if decline < 0 {
		decline = 0
	}

	return map[string]float64{
		models.IndicatorTimeStagnation:     stagnation,
		models.IndicatorActivityLevel:      float64(current.MouseMovements+current.Keystrokes) / float64(len(samples)),
		models.IndicatorAttentionSpan:      attention,
		models.IndicatorResponsePattern:    responsePattern,
		models.IndicatorPerformanceDecline: decline,
	}
}

// personalMultiplier folds the profile's learning patterns and weighted
// struggle indicators into a single factor, capped at MultiplierCap.
func personalMultiplier(prof *models.StudentProfile, computed map[string]float64) float64 {
	multiplier := 1.0

	if _, ok := prof.LearningPatterns[models.PatternNeedsEncouragement]; ok &&
		computed[models.IndicatorPerformanceDecline] > DeclineTriggerLevel {
		multiplier *= EncouragementBoost
	}
	if _, ok := prof.LearningPatterns[models.PatternWorksWithBreaks]; ok &&
		computed[models.IndicatorTimeStagnation] > StagnationTrigger {
		multiplier *= BreakPatternBoost
	}

	for name, si := range prof.StruggleIndicators {
		if v, ok := computed[name]; ok && v > si.Threshold {
			multiplier *= 1 + si.Accuracy
		}
	}

	if multiplier > MultiplierCap {
		multiplier = MultiplierCap
	}
	return multiplier
}

func mapAction(probability, frustration float64) (models.Action, float64) {
	switch {
	case probability > ImmediateBand:
		if frustration > BreakFrustrationCutoff {
			return models.ActionSuggestBreak, DelayImmediate
		}
		return models.ActionImmediateHelp, DelayImmediate
	case probability > EncourageBand:
		return models.ActionEncourage, DelayEncourage
	case probability > HintBand:
		return models.ActionOfferHint, DelayHint
	default:
		return models.ActionWait, DelayWait
	}
}

// confidence grows with data volume and shrinks with indicator variance:
// more samples and more internally consistent signals yield higher trust.
func confidence(sampleCount int, computed map[string]float64) float64 {
	volume := float64(sampleCount) / FullConfidenceSamples
	if volume > 1 {
		volume = 1
	}

	var sum float64
	for _, v := range computed {
		sum += v
	}
	mean := sum / float64(len(computed))

	var variance float64
	for _, v := range computed {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(computed))

	consistency := 1 - variance
	if consistency < ConfidenceFloor {
		consistency = ConfidenceFloor
	}
	return volume * consistency
}

// aggregateAccuracy sums attempts and correct answers over a window; zero
// attempts read as zero accuracy.
func aggregateAccuracy(samples []*models.TelemetrySample) float64 {
	var attempts, correct int
	for _, s := range samples {
		attempts += s.QuestionAttempts
		correct += s.CorrectAnswers
	}
	if attempts == 0 {
		return 0
	}
	return float64(correct) / float64(attempts)
}

func tail(samples []*models.TelemetrySample, n int) []*models.TelemetrySample {
	if len(samples) <= n {
		return samples
	}
	return samples[len(samples)-n:]
}

// window returns samples between `from` and `to` positions back from the
// end, e.g. window(s, 6, 3) is the three samples preceding the last three.
func window(samples []*models.TelemetrySample, from, to int) []*models.TelemetrySample {
	n := len(samples)
	lo := n - from
	hi := n - to
	if lo < 0 {
		lo = 0
	}
	if hi < 0 {
		hi = 0
	}
	return samples[lo:hi]
}

// Package trends compares recent and older sample windows to produce
// directional trends for frustration, performance and engagement.
package trends

import (
	"studypulse/internal/models"
)

// Window sizes for trend comparison: the last windowSize samples against the
// windowSize before those.
const windowSize = 3

// Analyze returns the mean difference (recent minus older) between the last
// three samples and the three before those. Without a full older window
// there is no signal and all trends are zero.
func Analyze(samples []*models.TelemetrySample) models.TrendReport {
	if len(samples) < 2*windowSize {
		return models.TrendReport{}
	}

	recent := samples[len(samples)-windowSize:]
	older := samples[len(samples)-2*windowSize : len(samples)-windowSize]

	return models.TrendReport{
		FrustrationTrend: mean(recent, frustrationOf) - mean(older, frustrationOf),
		PerformanceTrend: mean(recent, correctOf) - mean(older, correctOf),
		EngagementTrend:  mean(recent, engagementOf) - mean(older, engagementOf),
	}
}

func mean(samples []*models.TelemetrySample, value func(*models.TelemetrySample) float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += value(s)
	}
	return sum / float64(len(samples))
}

func frustrationOf(s *models.TelemetrySample) float64 { return s.Frustration() }
func engagementOf(s *models.TelemetrySample) float64  { return s.Engagement() }
func correctOf(s *models.TelemetrySample) float64     { return float64(s.CorrectAnswers) }

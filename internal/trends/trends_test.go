package trends

import (
	"math"
	"testing"

	"studypulse/internal/models"
)

func sampleWith(frustration, engagement float64, correct int) *models.TelemetrySample {
	return &models.TelemetrySample{
		CorrectAnswers: correct,
		Indicators: &models.Indicators{
			Frustration: frustration,
			Engagement:  engagement,
		},
	}
}

func TestAnalyzeInsufficientHistory(t *testing.T) {
	for n := 0; n < 6; n++ {
		samples := make([]*models.TelemetrySample, n)
		for i := range samples {
			samples[i] = sampleWith(0.9, 0.1, 0)
		}
		got := Analyze(samples)
		if got != (models.TrendReport{}) {
			t.Errorf("Analyze with %d samples = %+v, want zeros", n, got)
		}
	}
}

func TestAnalyzeDirectional(t *testing.T) {
	samples := []*models.TelemetrySample{
		sampleWith(0.1, 0.8, 2),
		sampleWith(0.2, 0.8, 2),
		sampleWith(0.3, 0.7, 2),
		sampleWith(0.5, 0.5, 1),
		sampleWith(0.6, 0.4, 0),
		sampleWith(0.7, 0.3, 0),
	}

	got := Analyze(samples)

	wantFrustration := (0.5+0.6+0.7)/3 - (0.1+0.2+0.3)/3
	if math.Abs(got.FrustrationTrend-wantFrustration) > 1e-9 {
		t.Errorf("frustrationTrend = %f, want %f", got.FrustrationTrend, wantFrustration)
	}

	wantPerformance := (1.0+0.0+0.0)/3 - 2.0
	if math.Abs(got.PerformanceTrend-wantPerformance) > 1e-9 {
		t.Errorf("performanceTrend = %f, want %f", got.PerformanceTrend, wantPerformance)
	}

	if got.EngagementTrend >= 0 {
		t.Errorf("engagementTrend = %f, want negative", got.EngagementTrend)
	}
}

func TestAnalyzeUnprocessedSamples(t *testing.T) {
	// Samples that never went through the indicator calculator read as zero
	// rather than panicking.
	samples := make([]*models.TelemetrySample, 6)
	for i := range samples {
		samples[i] = &models.TelemetrySample{CorrectAnswers: 1}
	}
	got := Analyze(samples)
	if got.FrustrationTrend != 0 || got.PerformanceTrend != 0 || got.EngagementTrend != 0 {
		t.Errorf("trends over flat unprocessed samples = %+v, want zeros", got)
	}
}

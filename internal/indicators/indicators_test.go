package indicators

import (
	"math"
	"math/rand"
	"testing"

	"studypulse/internal/models"
)

func TestComputeDefaults(t *testing.T) {
	// All-zero raw fields carry no signal.
	s := &models.TelemetrySample{}
	ind := Compute(s)

	if ind.Frustration != 0 {
		t.Errorf("frustration = %f, want 0", ind.Frustration)
	}
	if ind.Confidence != 0.5 {
		t.Errorf("confidence = %f, want 0.5", ind.Confidence)
	}
	if ind.Engagement != 0.5 {
		t.Errorf("engagement = %f, want 0.5", ind.Engagement)
	}
}

func TestFrustrationBreakpoints(t *testing.T) {
	tests := []struct {
		name   string
		sample models.TelemetrySample
		want   float64
	}{
		{
			name:   "slow question only",
			sample: models.TelemetrySample{TimeOnQuestion: 150, MouseMovements: 100, Keystrokes: 50},
			want:   0.3,
		},
		{
			name:   "stuck question stacks both time weights",
			sample: models.TelemetrySample{TimeOnQuestion: 400, MouseMovements: 400, Keystrokes: 100},
			want:   0.7,
		},
		{
			name:   "failed attempts",
			sample: models.TelemetrySample{QuestionAttempts: 4, CorrectAnswers: 0, MouseMovements: 30, Keystrokes: 10, TimeOnQuestion: 100},
			want:   0.4,
		},
		{
			name:   "erratic low activity",
			sample: models.TelemetrySample{TimeOnQuestion: 100, MouseMovements: 1},
			want:   0.2,
		},
		{
			// Heavy input with no question time still reads as erratic.
			name:   "erratic input burst without question time",
			sample: models.TelemetrySample{MouseMovements: 200, Keystrokes: 60},
			want:   0.2,
		},
		{
			name:   "repeated help requests",
			sample: models.TelemetrySample{HelpRequests: 3, TimeOnQuestion: 60, MouseMovements: 40, Keystrokes: 20},
			want:   0.3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(&tt.sample).Frustration
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("frustration = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestConfidenceScoring(t *testing.T) {
	// Strong performer: high accuracy, quick, independent.
	s := &models.TelemetrySample{QuestionAttempts: 5, CorrectAnswers: 5, AverageResponseTime: 20}
	got := Compute(s).Confidence
	// 0.5 + 0.3 + 0.2 + 0.2 clamps to 1.
	if got != 1.0 {
		t.Errorf("confidence = %f, want 1.0", got)
	}

	// Weak performer: low accuracy penalty dominates.
	s = &models.TelemetrySample{QuestionAttempts: 5, CorrectAnswers: 1, AverageResponseTime: 90, HelpRequests: 2}
	got = Compute(s).Confidence
	if math.Abs(got-0.1) > 1e-9 {
		t.Errorf("confidence = %f, want 0.1", got)
	}
}

func TestEngagementScoring(t *testing.T) {
	// Active, focused, progressing student maxes out.
	s := &models.TelemetrySample{TimeOnQuestion: 100, MouseMovements: 150, Keystrokes: 70, CorrectAnswers: 1}
	got := Compute(s).Engagement
	if got != 1.0 {
		t.Errorf("engagement = %f, want 1.0", got)
	}

	// Heavy window hopping cancels the focus bonus.
	s = &models.TelemetrySample{TimeOnQuestion: 100, MouseMovements: 150, Keystrokes: 70, WindowFocusChanges: 15}
	got = Compute(s).Engagement
	if math.Abs(got-0.8) > 1e-9 {
		t.Errorf("engagement = %f, want 0.8", got)
	}
}

func TestClampInvariant(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		s := &models.TelemetrySample{
			MouseMovements:      r.Intn(1_000_000),
			Keystrokes:          r.Intn(1_000_000),
			Scrolls:             r.Intn(100_000),
			Clicks:              r.Intn(100_000),
			TimeOnQuestion:      r.Float64() * 1e6,
			TimeInactive:        r.Float64() * 1e6,
			AverageResponseTime: r.Float64() * 1e5,
			WindowFocusChanges:  r.Intn(10_000),
			QuestionAttempts:    r.Intn(1000),
			CorrectAnswers:      r.Intn(1000),
			HelpRequests:        r.Intn(100),
		}
		ind := Compute(s)
		for name, v := range map[string]float64{
			"frustration": ind.Frustration,
			"confidence":  ind.Confidence,
			"engagement":  ind.Engagement,
		} {
			if v < 0 || v > 1 {
				t.Fatalf("iteration %d: %s = %f outside [0,1]", i, name, v)
			}
		}
	}
}

func TestComputeIdempotent(t *testing.T) {
	s := &models.TelemetrySample{
		TimeOnQuestion:   400,
		QuestionAttempts: 5,
		HelpRequests:     3,
		MouseMovements:   80,
		Keystrokes:       40,
	}

	first := Compute(s)
	Apply(s)
	second := Compute(s)

	if first != second {
		t.Errorf("recomputing changed indicators: %+v vs %+v", first, second)
	}
	if s.Indicators == nil || *s.Indicators != first {
		t.Errorf("Apply stored %+v, want %+v", s.Indicators, first)
	}
}

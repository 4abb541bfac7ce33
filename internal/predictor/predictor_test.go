package predictor

import (
	"math"
	"strings"
	"testing"

	"studypulse/internal/models"
	"studypulse/internal/profile"
)

func newTestPredictor() *Predictor {
	return New(profile.NewStore(nil, nil), nil)
}

func repeatSamples(n int, proto models.TelemetrySample) []*models.TelemetrySample {
	out := make([]*models.TelemetrySample, n)
	for i := range out {
		s := proto
		if proto.Indicators != nil {
			ind := *proto.Indicators
			s.Indicators = &ind
		}
		out[i] = &s
	}
	return out
}

func TestPredictEmptyHistory(t *testing.T) {
	p := newTestPredictor()
	got := p.Predict("u1", nil)

	if got.NeedsHelp {
		t.Error("needsHelp = true, want false")
	}
	if got.Confidence != 0 {
		t.Errorf("confidence = %f, want 0", got.Confidence)
	}
	if got.SuggestedAction != models.ActionWait {
		t.Errorf("action = %s, want wait", got.SuggestedAction)
	}
	if len(got.Reasoning) != 1 || got.Reasoning[0] != "Insufficient data" {
		t.Errorf("reasoning = %v, want [Insufficient data]", got.Reasoning)
	}
}

func TestPredictStrugglingStudent(t *testing.T) {
	p := newTestPredictor()
	samples := repeatSamples(10, models.TelemetrySample{
		TimeOnQuestion:   400,
		QuestionAttempts: 5,
		CorrectAnswers:   0,
		HelpRequests:     3,
		Indicators:       &models.Indicators{Frustration: 0.9},
	})

	got := p.Predict("u1", samples)

	// 0.3 time + 0.4 frustration + 0.2 accuracy + 0.3 help + 0.2 engagement.
	if got.HelpProbability < 1.4 {
		t.Errorf("helpProbability = %f, want >= 1.4", got.HelpProbability)
	}
	if !got.NeedsHelp {
		t.Error("needsHelp = false, want true")
	}
	// Frustration above 0.7 routes to a break instead of immediate help.
	if got.SuggestedAction != models.ActionSuggestBreak {
		t.Errorf("action = %s, want suggest_break", got.SuggestedAction)
	}
	if got.TimeUntilIntervention != 0 {
		t.Errorf("timeUntilIntervention = %f, want 0", got.TimeUntilIntervention)
	}
	if got.Confidence <= 0.6 {
		t.Errorf("confidence = %f, want > 0.6", got.Confidence)
	}

	joined := strings.Join(got.Reasoning, "; ")
	if !strings.Contains(joined, "Multiple help requests on same question") {
		t.Errorf("reasoning missing help-request note: %v", got.Reasoning)
	}
}

func TestPredictImmediateHelpBranch(t *testing.T) {
	p := newTestPredictor()
	samples := repeatSamples(10, models.TelemetrySample{
		TimeOnQuestion:   400,
		QuestionAttempts: 5,
		CorrectAnswers:   0,
		HelpRequests:     3,
		Indicators:       &models.Indicators{Frustration: 0.65, Engagement: 0.5},
	})

	got := p.Predict("u1", samples)

	// 0.3 + 0.4 + 0.2 + 0.3 = 1.2 with frustration at or below 0.7.
	if got.SuggestedAction != models.ActionImmediateHelp {
		t.Errorf("action = %s, want immediate_help", got.SuggestedAction)
	}
	if got.TimeUntilIntervention != 0 {
		t.Errorf("timeUntilIntervention = %f, want 0", got.TimeUntilIntervention)
	}
}

func TestPredictActionBands(t *testing.T) {
	tests := []struct {
		name       string
		proto      models.TelemetrySample
		wantAction models.Action
		wantDelay  float64
		wantProb   float64
	}{
		{
			// Frustration 0.4 + low accuracy 0.2 = 0.6 lands in the hint band.
			name: "hint band",
			proto: models.TelemetrySample{
				TimeOnQuestion:   100,
				QuestionAttempts: 5,
				CorrectAnswers:   1,
				Indicators:       &models.Indicators{Frustration: 0.65, Engagement: 0.5},
			},
			wantAction: models.ActionOfferHint,
			wantDelay:  30,
			wantProb:   0.6,
		},
		{
			// Extended time 0.3 + frustration 0.4 = 0.7 suggests encouragement.
			name: "encouragement band",
			proto: models.TelemetrySample{
				TimeOnQuestion:   130,
				QuestionAttempts: 5,
				CorrectAnswers:   4,
				Indicators:       &models.Indicators{Frustration: 0.65, Engagement: 0.5},
			},
			wantAction: models.ActionEncourage,
			wantDelay:  10,
			wantProb:   0.7,
		},
		{
			// A healthy student accumulates nothing and waits.
			name: "wait band",
			proto: models.TelemetrySample{
				TimeOnQuestion:   45,
				QuestionAttempts: 4,
				CorrectAnswers:   3,
				Indicators:       &models.Indicators{Frustration: 0.1, Engagement: 0.8},
			},
			wantAction: models.ActionWait,
			wantDelay:  60,
			wantProb:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPredictor()
			got := p.Predict("u1", repeatSamples(10, tt.proto))
			if got.SuggestedAction != tt.wantAction {
				t.Errorf("action = %s, want %s", got.SuggestedAction, tt.wantAction)
			}
			if got.TimeUntilIntervention != tt.wantDelay {
				t.Errorf("delay = %f, want %f", got.TimeUntilIntervention, tt.wantDelay)
			}
			if math.Abs(got.HelpProbability-tt.wantProb) > 1e-9 {
				t.Errorf("probability = %f, want %f", got.HelpProbability, tt.wantProb)
			}
			if got.NeedsHelp != (tt.wantProb > NeedsHelpBand) {
				t.Errorf("needsHelp = %v with probability %f", got.NeedsHelp, got.HelpProbability)
			}
		})
	}
}

func TestPredictPersonalizedMultiplier(t *testing.T) {
	store := profile.NewStore(nil, nil)
	prof := store.Get("u1")
	prof.LearningPatterns[models.PatternWorksWithBreaks] = models.LearningPattern{Frequency: 0.5}
	p := New(store, nil)

	// Current question time far above the history maximum trips the
	// stagnation trigger (400/100 = 4 > 2) and the matching seed indicator.
	samples := repeatSamples(9, models.TelemetrySample{
		TimeOnQuestion:   100,
		QuestionAttempts: 2,
		CorrectAnswers:   2,
		Indicators:       &models.Indicators{Frustration: 0.65, Engagement: 0.5},
	})
	current := models.TelemetrySample{
		TimeOnQuestion:   400,
		QuestionAttempts: 2,
		CorrectAnswers:   2,
		Indicators:       &models.Indicators{Frustration: 0.65, Engagement: 0.5},
	}
	samples = append(samples, &current)

	got := p.Predict("u1", samples)

	// Base 0.3 (time) + 0.4 (frustration) = 0.7, then x1.3 for the break
	// pattern and x1.7 for the timeStagnation seed, capped at x2.
	want := 0.7 * MultiplierCap
	if math.Abs(got.HelpProbability-want) > 1e-9 {
		t.Errorf("probability = %f, want %f", got.HelpProbability, want)
	}
}

func TestPredictConfidenceScalesWithData(t *testing.T) {
	p := newTestPredictor()
	proto := models.TelemetrySample{
		TimeOnQuestion:   100,
		QuestionAttempts: 2,
		CorrectAnswers:   1,
		Indicators:       &models.Indicators{Frustration: 0.2, Engagement: 0.6},
	}

	few := p.Predict("u1", repeatSamples(3, proto))
	full := p.Predict("u1", repeatSamples(10, proto))

	if few.Confidence >= full.Confidence {
		t.Errorf("confidence with 3 samples (%f) should be below 10 samples (%f)",
			few.Confidence, full.Confidence)
	}
	if full.Confidence > 1 {
		t.Errorf("confidence = %f, want <= 1", full.Confidence)
	}
}

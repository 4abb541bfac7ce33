package models

import "time"

// TelemetrySample is one slice of behavioral data for a student session.
// Raw counters are deltas since the previous sample; timing fields are
// absolute for the current question.
type TelemetrySample struct {
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`

	MouseMovements int `json:"mouseMovements"`
	Keystrokes     int `json:"keystrokes"`
	Scrolls        int `json:"scrolls"`
	Clicks         int `json:"clicks"`

	TimeOnQuestion      float64 `json:"timeOnQuestion"`      // seconds
	TimeInactive        float64 `json:"timeInactive"`        // seconds since last activity
	AverageResponseTime float64 `json:"averageResponseTime"` // seconds, rolling

	WindowFocusChanges int `json:"windowFocusChanges"`
	PlatformSwitches   int `json:"platformSwitches"`

	QuestionAttempts int `json:"questionAttempts"`
	CorrectAnswers   int `json:"correctAnswers"`
	HelpRequests     int `json:"helpRequests"`

	// Indicators is nil until the indicator calculator has processed the
	// sample; afterwards all three levels are present and clamped to [0,1].
	Indicators *Indicators `json:"indicators,omitempty"`
}

// Indicators holds the derived emotional/engagement levels for a sample.
type Indicators struct {
	Frustration float64 `json:"frustration"`
	Confidence  float64 `json:"confidence"`
	Engagement  float64 `json:"engagement"`
}

// Frustration returns the derived frustration level, or 0 if the sample has
// not been processed yet.
func (s *TelemetrySample) Frustration() float64 {
	if s.Indicators == nil {
		return 0
	}
	return s.Indicators.Frustration
}

// Confidence returns the derived confidence level, or 0 for an unprocessed sample.
func (s *TelemetrySample) Confidence() float64 {
	if s.Indicators == nil {
		return 0
	}
	return s.Indicators.Confidence
}

// Engagement returns the derived engagement level, or 0 for an unprocessed sample.
func (s *TelemetrySample) Engagement() float64 {
	if s.Indicators == nil {
		return 0
	}
	return s.Indicators.Engagement
}

// RawEventKind identifies a raw interaction event fed to the pattern detector.
type RawEventKind string

const (
	EventMouseMove   RawEventKind = "mouse_move"
	EventClick       RawEventKind = "click"
	EventKeystroke   RawEventKind = "keystroke"
	EventFocusChange RawEventKind = "focus_change"
)

// RawEvent is a single low-level interaction event from the desktop app or
// browser extension.
type RawEvent struct {
	Kind      RawEventKind `json:"kind"`
	X         float64      `json:"x,omitempty"`
	Y         float64      `json:"y,omitempty"`
	Key       string       `json:"key,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

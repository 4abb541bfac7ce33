// Package tracker owns the live per-student session state and drives the
// analytics pipeline: sample ingestion, pattern detection, periodic
// prediction and intervention dispatch.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"studypulse/internal/dispatch"
	"studypulse/internal/indicators"
	"studypulse/internal/models"
	"studypulse/internal/patterns"
	"studypulse/internal/predictor"
	"studypulse/internal/profile"
)

// Storage is the tracker-side persistence contract. All writes are
// best-effort; failures are logged and never interrupt the live path.
type Storage interface {
	AppendBehaviorLog(entry *models.BehaviorLogEntry) error
	SaveSessionSummary(summary *models.SessionSummary, keep int) error
	LoadSessionHistory(userID string, limit int) ([]models.SessionSummary, error)
}

// Options tunes the tracker. Zero values fall back to the defaults below.
type Options struct {
	BufferSize         int           // samples retained per student
	SessionRetention   int           // persisted session summaries per student
	FastTickInterval   time.Duration // idle checks
	PredictionInterval time.Duration // full prediction runs
	PredictionWindow   int           // samples handed to the predictor
}

const (
	DefaultBufferSize         = 100
	DefaultSessionRetention   = 10
	DefaultFastTickInterval   = time.Second
	DefaultPredictionInterval = 30 * time.Second
	DefaultPredictionWindow   = 10
)

func (o Options) withDefaults() Options {
	if o.BufferSize <= 0 {
		o.BufferSize = DefaultBufferSize
	}
	if o.SessionRetention <= 0 {
		o.SessionRetention = DefaultSessionRetention
	}
	if o.FastTickInterval <= 0 {
		o.FastTickInterval = DefaultFastTickInterval
	}
	if o.PredictionInterval <= 0 {
		o.PredictionInterval = DefaultPredictionInterval
	}
	if o.PredictionWindow <= 0 {
		o.PredictionWindow = DefaultPredictionWindow
	}
	return o
}

type session struct {
	sessionID    string
	startedAt    time.Time
	samples      []*models.TelemetrySample
	lastActivity time.Time
	idleFlagged  bool

	attempts     int
	correct      int
	helpRequests int
}

// Tracker coordinates the analytics components for all active students.
// Each student's state is independent; the session map is guarded so
// different students can be tracked from concurrent contexts.
type Tracker struct {
	log        *zap.Logger
	opts       Options
	storage    Storage
	detector   *patterns.Detector
	predictor  *predictor.Predictor
	profiles   *profile.Store
	dispatcher *dispatch.Dispatcher

	mu       sync.Mutex
	sessions map[string]*session

	now func() time.Time
}

// New wires the pipeline together. storage may be nil for ephemeral runs;
// detected struggle patterns are forwarded to the dispatcher's
// struggle-detected topic.
func New(catalog *models.PatternCatalog, profiles *profile.Store, dispatcher *dispatch.Dispatcher, storage Storage, opts Options, log *zap.Logger) *Tracker {
	t := &Tracker{
		log:        log,
		opts:       opts.withDefaults(),
		storage:    storage,
		profiles:   profiles,
		dispatcher: dispatcher,
		sessions:   make(map[string]*session),
		now:        time.Now,
	}
	t.detector = patterns.NewDetector(catalog, log, dispatcher.PublishStruggle)
	t.predictor = predictor.New(profiles, log)
	return t
}

// RecordSample ingests one telemetry sample: indicators are derived, the
// sample is appended to the student's bounded buffer, inactivity is checked
// against the longIdle pattern, and the derived values are logged
// best-effort for offline learning. A sample carrying a new session ID rolls
// the student over: the previous session is flushed exactly as StopSession
// would before the new one starts.
func (t *Tracker) RecordSample(userID, sessionID string, sample models.TelemetrySample) {
	sample.UserID = userID
	sample.SessionID = sessionID
	if sample.Timestamp.IsZero() {
		sample.Timestamp = t.now()
	}
	indicators.Apply(&sample)

	t.mu.Lock()
	prev, ok := t.sessions[userID]
	rollover := ok && sessionID != "" && prev.sessionID != sessionID && len(prev.samples) > 0
	t.mu.Unlock()
	if rollover {
		t.StopSession(userID)
	}

	t.mu.Lock()
	st := t.session(userID, sessionID)
	st.samples = append(st.samples, &sample)
	if len(st.samples) > t.opts.BufferSize {
		st.samples = st.samples[len(st.samples)-t.opts.BufferSize:]
	}
	st.attempts += sample.QuestionAttempts
	st.correct += sample.CorrectAnswers
	st.helpRequests += sample.HelpRequests
	if sample.MouseMovements+sample.Keystrokes+sample.Scrolls+sample.Clicks > 0 {
		st.lastActivity = sample.Timestamp
		st.idleFlagged = false
	}
	flagIdle := !st.idleFlagged && sample.TimeInactive > 0
	t.mu.Unlock()

	if flagIdle {
		if ev := t.detector.CheckIdle(userID, time.Duration(sample.TimeInactive*float64(time.Second))); ev != nil {
			t.mu.Lock()
			st.idleFlagged = true
			t.mu.Unlock()
		}
	}

	t.appendBehaviorLog(&sample)
}

// RecordRawEvent feeds one low-level interaction event into the struggle
// pattern detector.
func (t *Tracker) RecordRawEvent(userID string, ev models.RawEvent) {
	t.touch(userID)

	switch ev.Kind {
	case models.EventMouseMove:
		t.detector.RecordMouseMove(userID, ev.X, ev.Y)
	case models.EventClick:
		t.detector.RecordClick(userID, ev.X, ev.Y)
	case models.EventKeystroke:
		t.detector.RecordKeystroke(userID, ev.Key)
	case models.EventFocusChange:
		t.detector.RecordFocusChange(userID)
	default:
		if t.log != nil {
			t.log.Debug("Ignoring unknown raw event kind", zap.String("kind", string(ev.Kind)))
		}
	}
}

// NotifyQuestionDetected passes a question-detected notice from the external
// OCR collaborator through to subscribers.
func (t *Tracker) NotifyQuestionDetected(userID string, payload map[string]interface{}) {
	t.dispatcher.PublishQuestion(userID, payload)
}

// Predict runs one full prediction over the student's recent samples and
// dispatches the result. It is synchronous over in-memory state and never
// waits on storage.
func (t *Tracker) Predict(userID string) models.PredictionResult {
	t.mu.Lock()
	var recent []*models.TelemetrySample
	if st, ok := t.sessions[userID]; ok {
		from := len(st.samples) - t.opts.PredictionWindow
		if from < 0 {
			from = 0
		}
		recent = append(recent, st.samples[from:]...)
	}
	t.mu.Unlock()

	result := t.predictor.Predict(userID, recent)
	t.dispatcher.Dispatch(result)
	return result
}

// CurrentMetrics returns a copy of the student's most recent processed
// sample, or nil when nothing has been ingested.
func (t *Tracker) CurrentMetrics(userID string) *models.TelemetrySample {
	t.mu.Lock()
	defer t.mu.Unlock()

	st, ok := t.sessions[userID]
	if !ok || len(st.samples) == 0 {
		return nil
	}
	latest := *st.samples[len(st.samples)-1]
	if latest.Indicators != nil {
		ind := *latest.Indicators
		latest.Indicators = &ind
	}
	return &latest
}

// SessionHistory returns the student's persisted session summaries, newest
// first, bounded by the retention policy.
func (t *Tracker) SessionHistory(userID string) ([]models.SessionSummary, error) {
	if t.storage == nil {
		return nil, nil
	}
	return t.storage.LoadSessionHistory(userID, t.opts.SessionRetention)
}

// StruggleLog returns the student's cumulative struggle events.
func (t *Tracker) StruggleLog(userID string) []models.StrugglePatternEvent {
	return t.detector.StruggleLog(userID)
}

// StopSession synchronously halts tracking for a student: the live buffer is
// folded into a persisted session summary, detector windows are discarded,
// and a restarted session starts from clean counters.
func (t *Tracker) StopSession(userID string) *models.SessionSummary {
	struggles := t.detector.StruggleLog(userID)

	t.mu.Lock()
	st, ok := t.sessions[userID]
	if ok {
		delete(t.sessions, userID)
	}
	t.mu.Unlock()

	t.detector.Reset(userID)
	if !ok {
		return nil
	}

	summary := t.summarize(userID, st, struggles)
	if t.storage != nil {
		if err := t.storage.SaveSessionSummary(summary, t.opts.SessionRetention); err != nil && t.log != nil {
			t.log.Warn("Failed to persist session summary",
				zap.String("userID", userID), zap.Error(err))
		}
	}
	return summary
}

// Run drives the two tracking cadences until the context is canceled: a
// fast tick for inactivity checks and a slow tick for full predictions.
func (t *Tracker) Run(ctx context.Context) {
	fast := time.NewTicker(t.opts.FastTickInterval)
	slow := time.NewTicker(t.opts.PredictionInterval)
	defer fast.Stop()
	defer slow.Stop()

	if t.log != nil {
		t.log.Info("Behavior tracker started",
			zap.Duration("fastTick", t.opts.FastTickInterval),
			zap.Duration("predictionInterval", t.opts.PredictionInterval),
		)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-fast.C:
			t.checkIdleStudents()
		case <-slow.C:
			for _, userID := range t.activeStudents() {
				t.Predict(userID)
			}
		}
	}
}

func (t *Tracker) session(userID, sessionID string) *session {
	st, ok := t.sessions[userID]
	if !ok || (sessionID != "" && st.sessionID != sessionID) {
		st = &session{sessionID: sessionID, startedAt: t.now(), lastActivity: t.now()}
		t.sessions[userID] = st
	}
	return st
}

func (t *Tracker) touch(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := t.session(userID, "")
	st.lastActivity = t.now()
	st.idleFlagged = false
}

func (t *Tracker) activeStudents() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.sessions))
	for userID := range t.sessions {
		out = append(out, userID)
	}
	return out
}

func (t *Tracker) checkIdleStudents() {
	type idleCheck struct {
		userID string
		idle   time.Duration
	}
	t.mu.Lock()
	var checks []idleCheck
	for userID, st := range t.sessions {
		if !st.idleFlagged && !st.lastActivity.IsZero() {
			checks = append(checks, idleCheck{userID: userID, idle: t.now().Sub(st.lastActivity)})
		}
	}
	t.mu.Unlock()

	for _, c := range checks {
		if ev := t.detector.CheckIdle(c.userID, c.idle); ev != nil {
			t.mu.Lock()
			if st, ok := t.sessions[c.userID]; ok {
				st.idleFlagged = true
			}
			t.mu.Unlock()
		}
	}
}

func (t *Tracker) summarize(userID string, st *session, struggles []models.StrugglePatternEvent) *models.SessionSummary {
	summary := &models.SessionSummary{
		UserID:           userID,
		SessionID:        st.sessionID,
		StartedAt:        st.startedAt,
		EndedAt:          t.now(),
		SampleCount:      len(st.samples),
		QuestionAttempts: st.attempts,
		CorrectAnswers:   st.correct,
		HelpRequests:     st.helpRequests,
		StruggleEvents:   len(struggles),
	}

	seen := make(map[models.PatternType]bool)
	for _, ev := range struggles {
		if !seen[ev.PatternType] {
			seen[ev.PatternType] = true
			summary.StruggleTypes = append(summary.StruggleTypes, string(ev.PatternType))
		}
	}

	if len(st.samples) > 0 {
		var f, c, e float64
		for _, s := range st.samples {
			f += s.Frustration()
			c += s.Confidence()
			e += s.Engagement()
		}
		n := float64(len(st.samples))
		summary.MeanFrustration = f / n
		summary.MeanConfidence = c / n
		summary.MeanEngagement = e / n
	}
	return summary
}

func (t *Tracker) appendBehaviorLog(s *models.TelemetrySample) {
	if t.storage == nil {
		return
	}
	entry := &models.BehaviorLogEntry{
		UserID:      s.UserID,
		SessionID:   s.SessionID,
		RecordedAt:  s.Timestamp,
		Frustration: s.Frustration(),
		Confidence:  s.Confidence(),
		Engagement:  s.Engagement(),
		TimeOnTask:  s.TimeOnQuestion,
		Attempts:    s.QuestionAttempts,
		Correct:     s.CorrectAnswers,
	}
	if err := t.storage.AppendBehaviorLog(entry); err != nil && t.log != nil {
		t.log.Warn("Failed to append behavior log",
			zap.String("userID", s.UserID), zap.Error(err))
	}
}

// String implements a compact identity for logging/debug output.
func (t *Tracker) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fmt.Sprintf("tracker(%d active)", len(t.sessions))
}

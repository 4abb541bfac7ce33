// Package dispatch fans out analytics events to registered subscribers and
// gates which predictions become actionable interventions.
package dispatch

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"studypulse/internal/models"
)

// Topic names the event streams consumers can subscribe to.
type Topic string

const (
	TopicStruggleDetected Topic = "struggle-detected"
	TopicQuestionDetected Topic = "question-detected"
	TopicHelpNeeded       Topic = "help-needed"
)

// Event is one published occurrence. Exactly one of the payload fields is
// set, matching the topic.
type Event struct {
	Topic      Topic                        `json:"topic"`
	UserID     string                       `json:"userId"`
	At         time.Time                    `json:"at"`
	Struggle   *models.StrugglePatternEvent `json:"struggle,omitempty"`
	Question   map[string]interface{}       `json:"question,omitempty"`
	Prediction *models.PredictionResult     `json:"prediction,omitempty"`
}

// Subscriber receives published events. Delivery order across subscribers is
// unspecified.
type Subscriber func(Event)

// Sink optionally records dispatched interventions durably (best-effort).
type Sink interface {
	SaveIntervention(rec *models.InterventionRecord) error
}

// DispatchConfidence is the minimum prediction confidence that triggers an
// intervention.
const DispatchConfidence = 0.6

// Dispatcher gates predictions into intervention events and fans all event
// topics out to subscribers. Cooldown between interventions is a caller
// policy; the dispatcher only exposes the last proactive-help timestamp per
// student so callers can implement one.
type Dispatcher struct {
	log  *zap.Logger
	sink Sink

	mu                sync.Mutex
	subscribers       map[Topic][]Subscriber
	lastProactiveHelp map[string]time.Time

	now func() time.Time
}

// New creates a dispatcher. sink may be nil when no durable audit log is
// wanted.
func New(sink Sink, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		log:               log,
		sink:              sink,
		subscribers:       make(map[Topic][]Subscriber),
		lastProactiveHelp: make(map[string]time.Time),
		now:               time.Now,
	}
}

// Subscribe registers a callback for a topic. Any number of subscribers may
// listen on the same topic.
func (d *Dispatcher) Subscribe(topic Topic, fn Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers[topic] = append(d.subscribers[topic], fn)
}

// PublishStruggle forwards a struggle pattern event to subscribers.
func (d *Dispatcher) PublishStruggle(ev models.StrugglePatternEvent) {
	d.publish(Event{Topic: TopicStruggleDetected, UserID: ev.UserID, At: d.now(), Struggle: &ev})
}

// PublishQuestion passes through a question-detected notice from the
// external OCR collaborator.
func (d *Dispatcher) PublishQuestion(userID string, payload map[string]interface{}) {
	d.publish(Event{Topic: TopicQuestionDetected, UserID: userID, At: d.now(), Question: payload})
}

// Dispatch evaluates one prediction result. Predictions that need help with
// confidence above the threshold are emitted exactly once as a help-needed
// event and recorded through the sink. The return reports whether an
// intervention was emitted.
func (d *Dispatcher) Dispatch(result models.PredictionResult) bool {
	if !result.NeedsHelp || result.Confidence <= DispatchConfidence {
		return false
	}

	d.mu.Lock()
	d.lastProactiveHelp[result.UserID] = d.now()
	d.mu.Unlock()

	if d.sink != nil {
		rec := &models.InterventionRecord{
			UserID:      result.UserID,
			CreatedAt:   d.now(),
			Action:      string(result.SuggestedAction),
			Confidence:  result.Confidence,
			Probability: result.HelpProbability,
			Reasoning:   result.Reasoning,
		}
		if err := d.sink.SaveIntervention(rec); err != nil && d.log != nil {
			d.log.Warn("Failed to record intervention",
				zap.String("userID", result.UserID), zap.Error(err))
		}
	}

	if d.log != nil {
		d.log.Info("Intervention dispatched",
			zap.String("userID", result.UserID),
			zap.String("action", string(result.SuggestedAction)),
			zap.Float64("confidence", result.Confidence),
		)
	}

	d.publish(Event{Topic: TopicHelpNeeded, UserID: result.UserID, At: d.now(), Prediction: &result})
	return true
}

// LastProactiveHelp returns when the student last received a proactive
// intervention; callers use this to apply their own cooldown policy.
func (d *Dispatcher) LastProactiveHelp(userID string) (time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.lastProactiveHelp[userID]
	return t, ok
}

func (d *Dispatcher) publish(ev Event) {
	d.mu.Lock()
	subs := make([]Subscriber, len(d.subscribers[ev.Topic]))
	copy(subs, d.subscribers[ev.Topic])
	d.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

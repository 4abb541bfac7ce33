// Package patterns flags discrete struggle events (rapid clicking, long
// idle, repetitive scrolling, backspace spamming, window hopping) from the
// raw interaction stream using time-pruned count windows.
package patterns

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"studypulse/internal/models"
)

// Positional analysis parameters.
const (
	clusterRadiusPx     = 50.0
	clusterMinPoints    = 3 // a cluster counts as repeated clicking once it holds more than this
	positionRetention   = 10 * time.Second
	scrollMinVertical   = 10.0
	scrollMaxHorizontal = 5.0
)

type windowEntry struct {
	at   time.Time
	data map[string]interface{}
}

type point struct {
	x, y float64
	at   time.Time
}

// clickCluster groups clicks landing within clusterRadiusPx of its center.
// counted tracks how many of its points have been fed to the rapid-clicking
// window, so a cluster that crosses the activation size backfills its
// earlier clicks exactly once.
type clickCluster struct {
	centerX, centerY float64
	points           []point
	counted          int
}

type studentState struct {
	windows     map[models.PatternType][]windowEntry
	clusters    []*clickCluster
	lastMove    *point
	struggleLog []models.StrugglePatternEvent
}

// Detector is the stateful struggle pattern matcher. Each student's state is
// independent; the map is guarded so different students can be recorded from
// concurrent contexts.
type Detector struct {
	log     *zap.Logger
	catalog *models.PatternCatalog
	onEvent func(models.StrugglePatternEvent)

	mu       sync.Mutex
	students map[string]*studentState

	now func() time.Time
}

// NewDetector creates a detector using the given pattern catalog. onEvent, if
// non-nil, is invoked synchronously for every emitted struggle event.
func NewDetector(catalog *models.PatternCatalog, log *zap.Logger, onEvent func(models.StrugglePatternEvent)) *Detector {
	return &Detector{
		log:      log,
		catalog:  catalog,
		onEvent:  onEvent,
		students: make(map[string]*studentState),
		now:      time.Now,
	}
}

func (d *Detector) state(userID string) *studentState {
	st, ok := d.students[userID]
	if !ok {
		st = &studentState{windows: make(map[models.PatternType][]windowEntry)}
		d.students[userID] = st
	}
	return st
}

// Detect appends one occurrence of a count-based pattern for the student,
// prunes entries older than the pattern's window, and emits a struggle event
// when the pruned window reaches the configured threshold. The returned event
// is nil when the threshold was not reached.
func (d *Detector) Detect(userID string, pattern models.PatternType, data map[string]interface{}) *models.StrugglePatternEvent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.detect(userID, pattern, data)
}

func (d *Detector) detect(userID string, pattern models.PatternType, data map[string]interface{}) *models.StrugglePatternEvent {
	cfg := d.catalog.Config(pattern)
	if cfg.Threshold <= 0 {
		return nil
	}

	now := d.now()
	st := d.state(userID)

	window := append(st.windows[pattern], windowEntry{at: now, data: data})
	cutoff := now.Add(-time.Duration(cfg.WindowMs) * time.Millisecond)
	pruned := window[:0]
	for _, e := range window {
		if e.at.After(cutoff) {
			pruned = append(pruned, e)
		}
	}
	st.windows[pattern] = pruned

	if len(pruned) < cfg.Threshold {
		return nil
	}

	ev := models.StrugglePatternEvent{
		UserID:      userID,
		PatternType: pattern,
		Timestamp:   now,
		Intensity:   float64(len(pruned)) / float64(cfg.Threshold),
		Data:        data,
	}
	d.emit(st, ev)
	return &ev
}

// CheckIdle fires the longIdle pattern directly when the observed idle time
// exceeds the configured limit; it is not count-based.
func (d *Detector) CheckIdle(userID string, idle time.Duration) *models.StrugglePatternEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	cfg := d.catalog.Config(models.PatternLongIdle)
	idleMs := idle.Milliseconds()
	if cfg.IdleMs <= 0 || idleMs <= cfg.IdleMs {
		return nil
	}

	st := d.state(userID)
	ev := models.StrugglePatternEvent{
		UserID:      userID,
		PatternType: models.PatternLongIdle,
		Timestamp:   d.now(),
		Intensity:   float64(idleMs) / float64(cfg.IdleMs),
		Data:        map[string]interface{}{"idleMs": idleMs},
	}
	d.emit(st, ev)
	return &ev
}

// RecordClick feeds one click at screen coordinates into the spatial
// clustering pass. Clicks only count toward rapid clicking once their
// cluster has accumulated more than clusterMinPoints points; when a cluster
// activates, the clicks that formed it are counted retroactively.
func (d *Detector) RecordClick(userID string, x, y float64) *models.StrugglePatternEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	st := d.state(userID)
	d.pruneClusters(st, now)

	cluster := d.assignCluster(st, x, y, now)
	if len(cluster.points) <= clusterMinPoints {
		return nil
	}

	var last *models.StrugglePatternEvent
	for cluster.counted < len(cluster.points) {
		cluster.counted++
		if ev := d.detect(userID, models.PatternRapidClicking, map[string]interface{}{
			"x": cluster.centerX, "y": cluster.centerY, "clusterSize": len(cluster.points),
		}); ev != nil {
			last = ev
		}
	}
	return last
}

// RecordMouseMove feeds one cursor position. Vertical-dominant movement is
// counted as a scroll toward the repetitive scrolling pattern.
func (d *Detector) RecordMouseMove(userID string, x, y float64) *models.StrugglePatternEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	st := d.state(userID)

	prev := st.lastMove
	st.lastMove = &point{x: x, y: y, at: now}

	if prev == nil || now.Sub(prev.at) > positionRetention {
		return nil
	}

	dx := x - prev.x
	dy := y - prev.y
	if abs(dy) > scrollMinVertical && abs(dx) < scrollMaxHorizontal {
		return d.detect(userID, models.PatternRepetitiveScrolling, map[string]interface{}{"dy": dy})
	}
	return nil
}

// RecordKeystroke feeds one key press. Backspace and Delete count toward the
// backspace spamming pattern.
func (d *Detector) RecordKeystroke(userID, key string) *models.StrugglePatternEvent {
	if key != "Backspace" && key != "Delete" {
		return nil
	}
	return d.Detect(userID, models.PatternBackspaceSpamming, map[string]interface{}{"key": key})
}

// RecordFocusChange feeds one window focus change toward the window hopping
// pattern.
func (d *Detector) RecordFocusChange(userID string) *models.StrugglePatternEvent {
	return d.Detect(userID, models.PatternWindowHopping, nil)
}

// StruggleLog returns a copy of the student's cumulative struggle events.
func (d *Detector) StruggleLog(userID string) []models.StrugglePatternEvent {
	d.mu.Lock()
	defer d.mu.Unlock()

	st, ok := d.students[userID]
	if !ok {
		return nil
	}
	out := make([]models.StrugglePatternEvent, len(st.struggleLog))
	copy(out, st.struggleLog)
	return out
}

// Reset discards all accumulated state for a student. Called when tracking
// stops so a restarted session does not inherit stale windows.
func (d *Detector) Reset(userID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.students, userID)
}

func (d *Detector) emit(st *studentState, ev models.StrugglePatternEvent) {
	st.struggleLog = append(st.struggleLog, ev)
	if d.log != nil {
		d.log.Debug("Struggle pattern detected",
			zap.String("userID", ev.UserID),
			zap.String("pattern", string(ev.PatternType)),
			zap.Float64("intensity", ev.Intensity),
		)
	}
	if d.onEvent != nil {
		d.onEvent(ev)
	}
}

func (d *Detector) assignCluster(st *studentState, x, y float64, now time.Time) *clickCluster {
	for _, c := range st.clusters {
		dx := x - c.centerX
		dy := y - c.centerY
		if dx*dx+dy*dy <= clusterRadiusPx*clusterRadiusPx {
			c.points = append(c.points, point{x: x, y: y, at: now})
			c.recenter()
			return c
		}
	}
	c := &clickCluster{centerX: x, centerY: y, points: []point{{x: x, y: y, at: now}}}
	st.clusters = append(st.clusters, c)
	return c
}

func (d *Detector) pruneClusters(st *studentState, now time.Time) {
	cutoff := now.Add(-positionRetention)
	kept := st.clusters[:0]
	for _, c := range st.clusters {
		pts := c.points[:0]
		counted := c.counted
		for _, p := range c.points {
			if p.at.After(cutoff) {
				pts = append(pts, p)
			} else if counted > 0 {
				counted--
			}
		}
		c.points = pts
		c.counted = counted
		if len(c.points) > 0 {
			c.recenter()
			kept = append(kept, c)
		}
	}
	st.clusters = kept
}

func (c *clickCluster) recenter() {
	var sx, sy float64
	for _, p := range c.points {
		sx += p.x
		sy += p.y
	}
	c.centerX = sx / float64(len(c.points))
	c.centerY = sy / float64(len(c.points))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

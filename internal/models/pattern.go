package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PatternType names a struggle pattern the detector can flag.
type PatternType string

const (
	PatternRapidClicking       PatternType = "rapidClicking"
	PatternLongIdle            PatternType = "longIdle"
	PatternRepetitiveScrolling PatternType = "repetitiveScrolling"
	PatternBackspaceSpamming   PatternType = "backspaceSpamming"
	PatternWindowHopping       PatternType = "windowHopping"
)

// PatternConfig holds the detection parameters for one pattern type. Count
// patterns fire when Threshold events land inside WindowMs; longIdle instead
// fires directly when the observed idle time exceeds IdleMs.
type PatternConfig struct {
	Threshold int   `yaml:"threshold"`
	WindowMs  int64 `yaml:"window_ms"`
	IdleMs    int64 `yaml:"idle_ms"`
}

// PatternCatalog maps pattern types to their configured thresholds.
type PatternCatalog struct {
	Patterns map[PatternType]PatternConfig `yaml:"patterns"`
}

// DefaultPatternCatalog returns the baseline thresholds used when no catalog
// file overrides them.
func DefaultPatternCatalog() *PatternCatalog {
	return &PatternCatalog{
		Patterns: map[PatternType]PatternConfig{
			PatternRapidClicking:       {Threshold: 10, WindowMs: 5000},
			PatternLongIdle:            {IdleMs: 30000},
			PatternRepetitiveScrolling: {Threshold: 20, WindowMs: 10000},
			PatternBackspaceSpamming:   {Threshold: 15, WindowMs: 3000},
			PatternWindowHopping:       {Threshold: 5, WindowMs: 10000},
		},
	}
}

// LoadPatternCatalog reads and parses a patterns.yaml file. Patterns missing
// from the file keep their defaults, so a partial override is valid.
func LoadPatternCatalog(path string) (*PatternCatalog, error) {
	catalog := DefaultPatternCatalog()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return catalog, nil
		}
		return nil, fmt.Errorf("failed to read pattern catalog: %w", err)
	}

	var loaded PatternCatalog
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pattern catalog YAML: %w", err)
	}

	for name, cfg := range loaded.Patterns {
		catalog.Patterns[name] = cfg
	}
	return catalog, nil
}

// Config returns the configuration for a pattern type, falling back to the
// baked-in default for unknown types.
func (c *PatternCatalog) Config(pattern PatternType) PatternConfig {
	if cfg, ok := c.Patterns[pattern]; ok {
		return cfg
	}
	return DefaultPatternCatalog().Patterns[pattern]
}

// StrugglePatternEvent is one discrete struggle detection. Intensity is the
// ratio of the observed count (or idle time) to the configured threshold and
// is unbounded above 1.
type StrugglePatternEvent struct {
	UserID      string                 `json:"userId"`
	PatternType PatternType            `json:"patternType"`
	Timestamp   time.Time              `json:"timestamp"`
	Intensity   float64                `json:"intensity"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

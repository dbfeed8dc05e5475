// Package config loads the frameload daemon configuration.
//
// Config files are YAML (or JSON); YAML input is coerced to JSON so both
// formats share one strict decoder that rejects unknown fields.
// Durations are Go duration strings ("250ms", "1s", "2h30m").
package config

import (
	"errors"
	"fmt"
	"time"
)

type Config struct {
	Log     LogConfig     `json:"log"`
	Frame   FrameConfig   `json:"frame"`
	Watch   WatchConfig   `json:"watch"`
	Pulse   PulseConfig   `json:"pulse"`
	History HistoryConfig `json:"history"`
}

type LogConfig struct {
	Level      string     `json:"level"`
	Console    *bool      `json:"console"`
	File       FileConfig `json:"file"`
	RatePerSec int        `json:"rate_per_sec"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type FrameConfig struct {
	// Interval is the synthesized frame cadence; empty means ~60Hz.
	Interval string `json:"interval"`
}

type WatchConfig struct {
	Enabled  bool     `json:"enabled"`
	Paths    []string `json:"paths"`
	Debounce string   `json:"debounce"`  // quiet window; default 250ms
	LogEvery string   `json:"log_every"` // raw-event log throttle; default 1s
}

type PulseConfig struct {
	Enabled  bool   `json:"enabled"`
	Spec     string `json:"spec"`     // cron spec or "@every 2s"
	Burst    int    `json:"burst"`    // calls per burst; default 5
	Gap      string `json:"gap"`      // spacing inside a burst; default 10ms
	Throttle string `json:"throttle"` // throttle interval; default 500ms
}

type HistoryConfig struct {
	Driver string `json:"driver"` // "file", "sqlite", "" or "none"
	Path   string `json:"path"`
}

// ConsoleEnabled defaults to true when the field is omitted.
func (l LogConfig) ConsoleEnabled() bool {
	if l.Console == nil {
		return true
	}
	return *l.Console
}

func (f FrameConfig) IntervalOrDefault() (time.Duration, error) {
	return ParseDurationOrDefault("frame.interval", f.Interval, 16*time.Millisecond)
}

func (w WatchConfig) DebounceOrDefault() (time.Duration, error) {
	return ParseDurationOrDefault("watch.debounce", w.Debounce, 250*time.Millisecond)
}

func (w WatchConfig) LogEveryOrDefault() (time.Duration, error) {
	return ParseDurationOrDefault("watch.log_every", w.LogEvery, time.Second)
}

func (p PulseConfig) GapOrDefault() (time.Duration, error) {
	return ParseDurationOrDefault("pulse.gap", p.Gap, 10*time.Millisecond)
}

func (p PulseConfig) ThrottleOrDefault() (time.Duration, error) {
	return ParseDurationOrDefault("pulse.throttle", p.Throttle, 500*time.Millisecond)
}

func (p PulseConfig) BurstOrDefault() int {
	if p.Burst <= 0 {
		return 5
	}
	return p.Burst
}

// Validate checks cross-field requirements that the decoder cannot.
func (c *Config) Validate() error {
	if c.Watch.Enabled && len(c.Watch.Paths) == 0 {
		return errors.New("watch.paths is required when watch is enabled")
	}
	if c.Pulse.Enabled && c.Pulse.Spec == "" {
		return errors.New("pulse.spec is required when pulse is enabled")
	}
	for _, parse := range []func() (time.Duration, error){
		c.Frame.IntervalOrDefault,
		c.Watch.DebounceOrDefault,
		c.Watch.LogEveryOrDefault,
		c.Pulse.GapOrDefault,
		c.Pulse.ThrottleOrDefault,
	} {
		if _, err := parse(); err != nil {
			return err
		}
	}
	switch c.History.Driver {
	case "", "none", "file", "sqlite", "sqlite3":
	default:
		return fmt.Errorf("unknown history.driver %q", c.History.Driver)
	}
	return nil
}

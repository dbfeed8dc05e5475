// Package history persists a record of scheduling activity observed by
// the frameload daemon: settled watch bursts, pulse bursts, frame
// stats. It exists so a long-running daemon can be inspected after the
// fact without scraping logs.
package history

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("history disabled")

// Config configures the history store.
//
// Driver values:
//   - "file": dependency-free file backend (append-only JSON Lines)
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// RunEntry records one observed scheduling event.
// Keep it compact and schema-stable.
type RunEntry struct {
	At     time.Time `json:"at"`
	Source string    `json:"source"` // "watch", "pulse", "frame"
	Kind   string    `json:"kind"`   // event type constant from eventbus
	Count  int       `json:"count"`  // coalesced/sent/frame count
	Note   string    `json:"note,omitempty"`
}

// Package timing holds the small gating and telemetry primitives shared by
// the carving and submap packages: the "has my interval elapsed" check that
// guards carving and feature recomputation, and the rolling carve-timing
// report. Neither is big enough to deserve its own per-package copy, and
// both are pure bookkeeping around time.Time rather than domain logic.
package timing

import "time"

// GatingTimer answers "has at least this many seconds elapsed since I was
// last reset". A zero-value GatingTimer is already due, so the first call
// against a fresh one always proceeds.
type GatingTimer struct {
	lastReset time.Time
}

// Due reports whether intervalSec seconds have elapsed since the last
// Reset. A timer that has never been reset is always due.
func (g *GatingTimer) Due(intervalSec float64) bool {
	return time.Since(g.lastReset).Seconds() >= intervalSec
}

// Reset marks the timer as having just fired.
func (g *GatingTimer) Reset() {
	g.lastReset = time.Now()
}

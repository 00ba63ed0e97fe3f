package timing

import (
	"time"

	"github.com/edaniels/golog"
)

// reportIntervalSec is the accumulation window after which CarveStats
// reports the rolling average carve duration and resets, matching the
// 20-second window in the original carving telemetry.
const reportIntervalSec = 20.0

// CarveStats accumulates wall-clock carve execution durations and, once 20
// seconds of accumulated window time have elapsed, logs the average
// execution time and implied frequency, then resets. It is the Go shape of
// the sum/count accumulator the original carve-timing stopwatch kept,
// rather than a fixed-size ring buffer — the window is time-based, not
// sample-count-based.
type CarveStats struct {
	windowStart time.Time
	sumMsec     float64
	count       int
}

// NewCarveStats returns a stats accumulator with its window starting now.
func NewCarveStats() *CarveStats {
	return &CarveStats{windowStart: time.Now()}
}

// Record adds one carve-execution measurement (in milliseconds) and, if the
// accumulation window has elapsed, reports through logger and resets.
func (c *CarveStats) Record(elapsedMsec float64, logger golog.Logger) {
	c.sumMsec += elapsedMsec
	c.count++
	if time.Since(c.windowStart).Seconds() <= reportIntervalSec {
		return
	}
	avgMsec := c.sumMsec / float64(c.count)
	freqHz := 0.0
	if avgMsec > 0 {
		freqHz = 1000.0 / avgMsec
	}
	if logger != nil {
		logger.Infof("Space carving timing stats: Avg execution time: %.3f msec , frequency: %.3f Hz", avgMsec, freqHz)
	}
	c.sumMsec = 0
	c.count = 0
	c.windowStart = time.Now()
}

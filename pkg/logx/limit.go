package logx

import (
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// limitedWriter drops log lines once the per-second budget is spent.
// Error-level lines always pass; losing the line that explains a failure
// is worse than a noisy second.
type limitedWriter struct {
	next    zerolog.LevelWriter
	lim     *rate.Limiter
	dropped atomic.Uint64
}

func newLimitedWriter(next zerolog.LevelWriter, perSec int) *limitedWriter {
	return &limitedWriter{
		next: next,
		lim:  rate.NewLimiter(rate.Limit(perSec), perSec),
	}
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	return w.WriteLevel(zerolog.InfoLevel, p)
}

func (w *limitedWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < zerolog.ErrorLevel && !w.lim.Allow() {
		w.dropped.Add(1)
		return len(p), nil
	}
	return w.next.WriteLevel(level, p)
}

// Dropped reports how many lines the rate cap has discarded.
func (w *limitedWriter) Dropped() uint64 { return w.dropped.Load() }

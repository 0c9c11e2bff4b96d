package resilience

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Gate enforces a minimum interval between calls. Concurrent callers queue
// on the shared limiter and are released one interval apart.
type Gate struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// NewGate creates a gate with the given minimum interval. A non-positive
// interval disables the gate.
func NewGate(interval time.Duration) *Gate {
	if interval <= 0 {
		return &Gate{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Gate{interval: interval, limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the cooldown since the previous admitted call elapses.
func (g *Gate) Wait(ctx context.Context) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "gate: wait")
	}
	return nil
}

// Interval returns the configured minimum interval.
func (g *Gate) Interval() time.Duration {
	return g.interval
}

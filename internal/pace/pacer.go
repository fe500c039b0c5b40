// Package pace spaces out the exchanges of a bench run.
package pace

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Pacer schedules iterations at a fixed rate as a leaky bucket: a virtual
// drip time advances by one interval per iteration. An iteration that falls
// behind schedule starts at once and the schedule restarts from there, so
// a slow exchange is never followed by a burst.
//
// Pacer is safe for concurrent use.
type Pacer struct {
	interval time.Duration
	clock    clock.Clock

	mu         sync.Mutex
	next       time.Time
	iterations int64
	waited     time.Duration
}

// Stats summarizes the scheduling done so far.
type Stats struct {
	Interval   time.Duration `json:"interval" yaml:"interval"`
	Iterations int64         `json:"iterations" yaml:"iterations"`
	Waited     time.Duration `json:"waited" yaml:"waited"`
}

// New returns a pacer for rate iterations per second. A rate <= 0 disables
// pacing. A nil clk uses the wall clock.
func New(rate float64, clk clock.Clock) *Pacer {
	if clk == nil {
		clk = clock.New()
	}
	p := &Pacer{clock: clk}
	if rate > 0 {
		p.interval = time.Duration(float64(time.Second) / rate)
	}
	return p
}

// Next reserves the next slot and returns when it starts. The first slot
// starts immediately.
func (p *Pacer) Next() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.clock.Now()
	p.iterations++
	if p.interval == 0 {
		return now
	}

	at := p.next
	if at.Before(now) {
		at = now
	}
	p.next = at.Add(p.interval)
	p.waited += at.Sub(now)
	return at
}

// Wait blocks until the next slot starts or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	d := p.Next().Sub(p.clock.Now())
	if d <= 0 {
		return nil
	}

	timer := p.clock.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Stats returns the interval, the slots handed out and the total delay
// imposed on them.
func (p *Pacer) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{Interval: p.interval, Iterations: p.iterations, Waited: p.waited}
}

package simulation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FrameFunc runs after every sheet has ticked, outside the roster lock. dt is the same
// elapsed time the sheets were ticked with.
type FrameFunc func(dt float64)

// Driver ticks a roster once per interval, passing the real time elapsed since the
// previous frame.
type Driver struct {
	roster   *Roster
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	frames []FrameFunc
	count  int64
	now    func() time.Time
}

// NewDriver returns a stopped Driver.
//
// Precondition: interval must be > 0; roster and logger must be non-nil.
func NewDriver(roster *Roster, interval time.Duration, logger *zap.Logger) *Driver {
	if interval <= 0 {
		panic("simulation.NewDriver: interval must be > 0")
	}
	return &Driver{roster: roster, interval: interval, logger: logger, now: time.Now}
}

// OnFrame registers fn to run after each frame, in registration order.
func (d *Driver) OnFrame(fn FrameFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames = append(d.frames, fn)
}

// Frames returns the number of frames run so far.
func (d *Driver) Frames() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// Step runs one frame synchronously: every sheet ticks with dt, then the frame callbacks
// run.
//
// Precondition: dt >= 0.
func (d *Driver) Step(dt float64) {
	d.roster.Step(dt)

	d.mu.Lock()
	d.count++
	callbacks := append([]FrameFunc(nil), d.frames...)
	d.mu.Unlock()
	for _, fn := range callbacks {
		fn(dt)
	}
}

// Run steps the roster once per interval until ctx is cancelled. Each frame is ticked
// with the wall-clock seconds since the previous one, so a late tick carries the full
// elapsed time.
//
// Postcondition: returns nil once ctx is done.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("simulation started",
		zap.Duration("interval", d.interval),
		zap.Int("characters", d.roster.Len()),
	)
	last := d.now()
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("simulation stopped", zap.Int64("frames", d.Frames()))
			return nil
		case <-ticker.C:
			t := d.now()
			dt := t.Sub(last).Seconds()
			last = t
			d.Step(dt)
		}
	}
}

package effect

// Countdown is a single-value timer such as stun or vulnerability.
// The zero value is inactive.
type Countdown struct {
	remaining float64
}

// Extend sets the remaining time to max(current, d).
func (c *Countdown) Extend(d float64) {
	if d > c.remaining {
		c.remaining = d
	}
}

// Advance decays the countdown by dt, clamping at zero.
func (c *Countdown) Advance(dt float64) {
	if c.remaining <= 0 {
		return
	}
	c.remaining -= dt
	if c.remaining < 0 {
		c.remaining = 0
	}
}

// Active reports whether any time remains.
func (c *Countdown) Active() bool { return c.remaining > 0 }

// Remaining returns the seconds left; never negative.
func (c *Countdown) Remaining() float64 { return c.remaining }

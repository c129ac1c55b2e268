// Package effect tracks timed effects on a character: the generic map of periodic
// effects keyed by ID, and the single-value countdowns used for stun and vulnerability.
package effect

import "sort"

// Target is the entity an active effect is applied to on every tick.
type Target interface {
	ID() string
	DealDamage(amount int)
	Heal(amount int)
	RestoreMana(amount int)
}

// Effect is a periodic behavior identified by a stable ID.
type Effect interface {
	ID() string
	// Apply runs one tick of the effect against target; dt is elapsed seconds.
	Apply(target Target, dt float64)
}

// Func adapts a plain function into an Effect.
type Func struct {
	id string
	fn func(Target, float64)
}

// NewFunc returns an Effect with the given id whose Apply calls fn.
//
// Precondition: id must be non-empty; fn must not be nil.
func NewFunc(id string, fn func(target Target, dt float64)) Func {
	return Func{id: id, fn: fn}
}

// ID returns the effect identifier.
func (f Func) ID() string { return f.id }

// Apply calls the wrapped function.
func (f Func) Apply(target Target, dt float64) { f.fn(target, dt) }

// Active pairs an effect with its remaining duration in seconds.
type Active struct {
	Effect    Effect
	Remaining float64
}

// Timer tracks all periodic effects currently applied to one character.
// It is not safe for concurrent use; the caller must serialise access.
type Timer struct {
	active map[string]*Active
}

// NewTimer creates an empty Timer.
func NewTimer() *Timer {
	return &Timer{active: make(map[string]*Active)}
}

// Load applies e for duration seconds. If an effect with the same ID is already active
// its remaining duration becomes max(existing, duration); re-triggering never shortens
// an effect and never sums the durations.
//
// Precondition: e must not be nil.
// Postcondition: Has(e.ID()) is true until the next Tick prunes it.
func (t *Timer) Load(e Effect, duration float64) {
	if existing, ok := t.active[e.ID()]; ok {
		if duration > existing.Remaining {
			existing.Remaining = duration
		}
		return
	}
	t.active[e.ID()] = &Active{Effect: e, Remaining: duration}
}

// Tick applies every effect active at the start of the call to target exactly once,
// decrements each by dt, then removes every effect whose remaining duration is <= 0.
//
// The active set is snapshotted first, so an effect that loads or removes another effect
// during Apply neither skips nor doubles anything in this tick. Effects loaded during
// the tick start counting down on the next one. Application order is unspecified.
//
// Postcondition: returns the expired IDs in sorted order; Has(id) is false for each.
func (t *Timer) Tick(target Target, dt float64) []string {
	snapshot := make([]*Active, 0, len(t.active))
	for _, a := range t.active {
		snapshot = append(snapshot, a)
	}
	for _, a := range snapshot {
		a.Effect.Apply(target, dt)
		a.Remaining -= dt
	}

	var expired []string
	for id, a := range t.active {
		if a.Remaining <= 0 {
			expired = append(expired, id)
			delete(t.active, id)
		}
	}
	sort.Strings(expired)
	return expired
}

// Remove deletes the effect with id. Removing an absent effect is a no-op.
func (t *Timer) Remove(id string) {
	delete(t.active, id)
}

// Has reports whether the effect with id is active.
func (t *Timer) Has(id string) bool {
	_, ok := t.active[id]
	return ok
}

// Remaining returns the remaining seconds for id and whether it is active.
func (t *Timer) Remaining(id string) (float64, bool) {
	if a, ok := t.active[id]; ok {
		return a.Remaining, true
	}
	return 0, false
}

// Len returns the number of active effects.
func (t *Timer) Len() int { return len(t.active) }

// IDs returns the active effect IDs in sorted order.
func (t *Timer) IDs() []string {
	out := make([]string, 0, len(t.active))
	for id := range t.active {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

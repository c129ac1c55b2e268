package simulation

import (
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgsheet/internal/game/character"
)

// Skirmish is a minimal controller that makes every living character fight: each one
// acts once per action interval, picks the next living opponent as its target and casts
// the first technique in its bar it can afford. Stunned characters skip their action.
type Skirmish struct {
	roster   *Roster
	interval float64
	logger   *zap.Logger
	ready    map[string]float64
}

// NewSkirmish returns a Skirmish acting every interval seconds.
//
// Precondition: interval > 0.
func NewSkirmish(roster *Roster, interval float64, logger *zap.Logger) *Skirmish {
	return &Skirmish{roster: roster, interval: interval, logger: logger, ready: make(map[string]float64)}
}

// Frame advances every character's action timer by dt and acts for each one that is due.
// A character acts at most once per frame; time beyond a whole interval carries over
// only as the fractional remainder. Timers of characters no longer in the roster are
// dropped. It has the FrameFunc signature so it can be registered with Driver.OnFrame.
func (k *Skirmish) Frame(dt float64) {
	ids := k.roster.IDs()
	present := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		present[id] = struct{}{}
	}
	for id := range k.ready {
		if _, ok := present[id]; !ok {
			delete(k.ready, id)
		}
	}

	for _, id := range ids {
		k.ready[id] += dt
		if k.ready[id] < k.interval {
			continue
		}
		k.ready[id] = math.Mod(k.ready[id], k.interval)
		k.act(id, ids)
	}
}

func (k *Skirmish) act(id string, ids []string) {
	err := k.roster.Do(id, func(s *character.Sheet) {
		if !s.Alive() || s.IsStunned() {
			return
		}
		if t, ok := k.roster.lookup(s.Target()); !ok || !t.Alive() {
			s.SetTarget(k.nextOpponent(id, ids))
		}
		if s.Target() == "" {
			return
		}
		for pos := 0; pos < s.TechniquesLength(); pos++ {
			if ok, _ := s.CastAbility(pos); ok {
				return
			}
		}
	})
	if err != nil {
		k.logger.Debug("skirmish: character gone", zap.String("character", id), zap.Error(err))
	}
}

// nextOpponent returns the first living character after id in roster order, wrapping
// around, or "" if there is none.
//
// Precondition: the caller holds the roster lock.
func (k *Skirmish) nextOpponent(id string, ids []string) string {
	start := 0
	for i, v := range ids {
		if v == id {
			start = i
			break
		}
	}
	for n := 1; n < len(ids); n++ {
		candidate := ids[(start+n)%len(ids)]
		if s, ok := k.roster.lookup(candidate); ok && s.Alive() {
			return candidate
		}
	}
	return ""
}

// Over reports whether at most one character is still alive.
func (k *Skirmish) Over() bool {
	alive := 0
	for _, snap := range k.roster.Snapshots() {
		if snap.Alive {
			alive++
		}
	}
	return alive <= 1
}

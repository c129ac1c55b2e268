// Package character composes stats, equipment, timed effects and technique slots into a
// single character sheet driven one frame at a time.
package character

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgsheet/internal/game/effect"
	"github.com/cory-johannsen/rpgsheet/internal/game/inventory"
	"github.com/cory-johannsen/rpgsheet/internal/game/stats"
	"github.com/cory-johannsen/rpgsheet/internal/game/technique"
)

// ErrDead is returned by operations that a dead character can no longer perform.
var ErrDead = errors.New("character: character is dead")

// Sheet is one character's live state.
//
// Invariants: HP() <= MaxHP(); Alive() == (HP() > 0) and, once false, stays false.
// A Sheet is not safe for concurrent use; its single driving context must serialise
// Tick and every mutator.
type Sheet struct {
	id     string
	name   string
	level  int
	base   stats.BaseStats
	logger *zap.Logger

	alive   bool
	hp      int
	maxHP   int
	mana    int
	maxMana int
	atk     int
	speed   int

	equipment  *inventory.EquipmentSet
	effects    *effect.Timer
	vulnerable effect.Countdown
	stun       effect.Countdown
	techLen    int
	techniques *technique.Slots
	target     string
}

// New returns an initialised Sheet.
//
// Precondition: base passes Validate; level >= 1; techniqueSlots >= 0; logger non-nil.
// Postcondition: returns stats.ErrInvalidLevel (wrapped) for level <= 0.
func New(id, name string, base stats.BaseStats, level, techniqueSlots int, logger *zap.Logger) (*Sheet, error) {
	if err := base.Validate(); err != nil {
		return nil, fmt.Errorf("creating character %q: %w", id, err)
	}
	if techniqueSlots < 0 {
		return nil, fmt.Errorf("creating character %q: %w", id, technique.ErrNegativeLength)
	}
	s := &Sheet{
		id:      id,
		name:    name,
		level:   level,
		base:    base,
		techLen: techniqueSlots,
		logger:  logger.With(zap.String("character", id)),
	}
	if err := s.Initialize(); err != nil {
		return nil, err
	}
	return s, nil
}

// Initialize computes stats from the level and base stats, and resets equipment, effects,
// status timers and technique slots to empty. The driver calls it once before the first
// Tick; New already has.
func (s *Sheet) Initialize() error {
	if err := s.recomputeStats(); err != nil {
		return fmt.Errorf("initializing character %q: %w", s.id, err)
	}
	slots, err := technique.NewSlots(s.techLen)
	if err != nil {
		return fmt.Errorf("initializing character %q: %w", s.id, err)
	}
	s.equipment = inventory.NewEquipmentSet()
	s.effects = effect.NewTimer()
	s.vulnerable = effect.Countdown{}
	s.stun = effect.Countdown{}
	s.techniques = slots
	s.target = ""
	return nil
}

// recomputeStats derives current stats for the current level and refills hp and mana.
func (s *Sheet) recomputeStats() error {
	cur, err := stats.Compute(s.level, s.base)
	if err != nil {
		return err
	}
	s.maxHP, s.hp = cur.HP, cur.HP
	s.maxMana, s.mana = cur.Mana, cur.Mana
	s.atk = cur.Atk
	s.speed = cur.Speed
	s.alive = s.hp > 0
	return nil
}

// Tick advances the sheet by dt seconds: vulnerability and stun decay, then every active
// effect is applied to the sheet once and expired effects are dropped. dt must be the
// same elapsed time the rest of the frame uses; the sheet keeps no clock of its own.
// Negative dt is ignored.
func (s *Sheet) Tick(dt float64) {
	if dt < 0 {
		return
	}
	s.vulnerable.Advance(dt)
	s.stun.Advance(dt)
	if expired := s.effects.Tick(s, dt); len(expired) > 0 {
		s.logger.Debug("effects expired", zap.Strings("effects", expired))
	}
}

// DealDamage applies amount raw damage mitigated by defense:
//
//	final = floor(amount / (0.01*defense + 0.8))
//
// Defense counts as 0 while vulnerable. With no defense the multiplier is 1.25, not 1.
// The division is done as floor(100*amount / (defense + 80)) in integers, split into
// quotient and remainder so large amounts cannot overflow. Non-positive amounts are
// ignored. HP saturates at math.MinInt.
func (s *Sheet) DealDamage(amount int) {
	if amount <= 0 {
		return
	}
	def := s.equipment.Defense()
	if s.vulnerable.Active() {
		def = 0
	}
	final := mitigate(amount, def+80)
	if s.hp < math.MinInt+final {
		s.hp = math.MinInt
	} else {
		s.hp -= final
	}

	wasAlive := s.alive
	s.alive = s.alive && s.hp > 0
	if wasAlive && !s.alive {
		s.logger.Debug("character died", zap.Int("final_damage", final), zap.Int("hp", s.hp))
	}
}

// mitigate returns floor(amount*100/div), saturating at math.MaxInt.
//
// Precondition: amount > 0 and div > 0.
func mitigate(amount, div int) int {
	q, r := amount/div, amount%div
	extra := r * 100 / div
	if q > (math.MaxInt-extra)/100 {
		return math.MaxInt
	}
	return q*100 + extra
}

// Heal restores amount hp, capped at MaxHP. Dead characters cannot be healed.
func (s *Sheet) Heal(amount int) {
	if !s.alive || amount <= 0 {
		return
	}
	s.hp = min(s.hp+amount, s.maxHP)
}

// RestoreMana restores amount mana, capped at MaxMana.
func (s *Sheet) RestoreMana(amount int) {
	if !s.alive || amount <= 0 {
		return
	}
	s.mana = min(s.mana+amount, s.maxMana)
}

// SpendMana deducts cost from current mana.
func (s *Sheet) SpendMana(cost int) {
	s.mana -= cost
}

// SetLevel changes the level and recomputes every stat, refilling hp and mana to the new
// maxima.
//
// Postcondition: ErrDead for a dead sheet; stats.ErrInvalidLevel for level <= 0. Neither
// mutates the sheet.
func (s *Sheet) SetLevel(level int) error {
	if !s.alive {
		return fmt.Errorf("setting level of %q: %w", s.id, ErrDead)
	}
	if level <= 0 {
		return fmt.Errorf("setting level of %q to %d: %w", s.id, level, stats.ErrInvalidLevel)
	}
	s.level = level
	return s.recomputeStats()
}

// Equip stores item in its slot, replacing any prior occupant, and refreshes defense.
func (s *Sheet) Equip(item *inventory.Equipment) {
	s.equipment.Equip(item)
}

// LoadEffect applies e for duration seconds, extending it to max(remaining, duration)
// if already active.
func (s *Sheet) LoadEffect(e effect.Effect, duration float64) {
	s.effects.Load(e, duration)
}

// SetVulnerable zeroes effective defense for max(remaining, duration) seconds.
func (s *Sheet) SetVulnerable(duration float64) { s.vulnerable.Extend(duration) }

// SetStun stuns the character for max(remaining, duration) seconds.
func (s *Sheet) SetStun(duration float64) { s.stun.Extend(duration) }

// SetTechniquesLength resizes the technique bar; see technique.Slots.SetLength.
func (s *Sheet) SetTechniquesLength(n int) error {
	if err := s.techniques.SetLength(n); err != nil {
		return err
	}
	s.techLen = n
	return nil
}

// LoadTechnique slots t at pos. It returns false when t is already slotted.
func (s *Sheet) LoadTechnique(t *technique.Technique, pos int) (bool, error) {
	return s.techniques.Load(t, pos)
}

// RemoveTechnique clears the slot at pos.
func (s *Sheet) RemoveTechnique(pos int) error {
	return s.techniques.Remove(pos)
}

// CastAbility casts the technique at pos if mana strictly exceeds its cost.
func (s *Sheet) CastAbility(pos int) (bool, error) {
	ok, err := s.techniques.Cast(pos, s)
	if ok {
		t, _ := s.techniques.Get(pos)
		s.logger.Debug("technique cast",
			zap.String("technique", t.ID()),
			zap.String("target", s.target),
			zap.Int("mana", s.mana),
		)
	}
	return ok, err
}

// SetTarget sets the character ID targeted techniques land on; "" clears it.
func (s *Sheet) SetTarget(id string) { s.target = id }

// Target returns the current target ID, or "".
func (s *Sheet) Target() string { return s.target }

// Read-only accessors. Defense is the current equipment total and ignores vulnerability.

func (s *Sheet) ID() string   { return s.id }
func (s *Sheet) Name() string { return s.name }
func (s *Sheet) Level() int   { return s.level }
func (s *Sheet) Alive() bool  { return s.alive }
func (s *Sheet) HP() int      { return s.hp }
func (s *Sheet) MaxHP() int   { return s.maxHP }
func (s *Sheet) Mana() int    { return s.mana }
func (s *Sheet) MaxMana() int { return s.maxMana }
func (s *Sheet) Attack() int  { return s.atk }
func (s *Sheet) Speed() int   { return s.speed }
func (s *Sheet) Defense() int { return s.equipment.Defense() }

// IsVulnerable reports whether incoming damage currently ignores defense.
func (s *Sheet) IsVulnerable() bool { return s.vulnerable.Active() }

// IsStunned reports whether the character is stunned. The sheet does not act on it;
// controllers decide what a stun prevents.
func (s *Sheet) IsStunned() bool { return s.stun.Active() }

// VulnerableRemaining returns the seconds of vulnerability left.
func (s *Sheet) VulnerableRemaining() float64 { return s.vulnerable.Remaining() }

// StunRemaining returns the seconds of stun left.
func (s *Sheet) StunRemaining() float64 { return s.stun.Remaining() }

// EffectRemaining returns the seconds left on effect id and whether it is active.
func (s *Sheet) EffectRemaining(id string) (float64, bool) { return s.effects.Remaining(id) }

// Effects returns the active effect IDs in sorted order.
func (s *Sheet) Effects() []string { return s.effects.IDs() }

// Equipped returns the equipped items ordered by slot.
func (s *Sheet) Equipped() []*inventory.Equipment { return s.equipment.All() }

// Technique returns the technique at pos, or nil if the slot is empty.
func (s *Sheet) Technique(pos int) (*technique.Technique, error) { return s.techniques.Get(pos) }

// TechniquesLength returns the number of technique slots.
func (s *Sheet) TechniquesLength() int { return s.techniques.Len() }

// Snapshot is a read-only copy of a sheet's observable state.
type Snapshot struct {
	ID                  string
	Name                string
	Level               int
	Alive               bool
	HP                  int
	MaxHP               int
	Mana                int
	MaxMana             int
	Attack              int
	Speed               int
	Defense             int
	VulnerableRemaining float64
	StunRemaining       float64
	Effects             []string
	Target              string
}

// Snapshot copies the sheet's current state.
func (s *Sheet) Snapshot() Snapshot {
	return Snapshot{
		ID:                  s.id,
		Name:                s.name,
		Level:               s.level,
		Alive:               s.alive,
		HP:                  s.hp,
		MaxHP:               s.maxHP,
		Mana:                s.mana,
		MaxMana:             s.maxMana,
		Attack:              s.atk,
		Speed:               s.speed,
		Defense:             s.equipment.Defense(),
		VulnerableRemaining: s.vulnerable.Remaining(),
		StunRemaining:       s.stun.Remaining(),
		Effects:             s.effects.IDs(),
		Target:              s.target,
	}
}

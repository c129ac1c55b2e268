package technique

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexOutOfRange is returned when a slot position lies outside [0, Len()).
	ErrIndexOutOfRange = errors.New("technique: slot position out of range")
	// ErrNegativeLength is returned by SetLength for n < 0.
	ErrNegativeLength = errors.New("technique: slot length must be >= 0")
)

// Slots is an ordered bar of optional technique references with a settable length.
// It is not safe for concurrent use; the caller must serialise access.
type Slots struct {
	slots []*Technique
}

// NewSlots returns n empty slots.
//
// Postcondition: returns ErrNegativeLength when n < 0.
func NewSlots(n int) (*Slots, error) {
	s := &Slots{}
	if err := s.SetLength(n); err != nil {
		return nil, err
	}
	return s, nil
}

// Len returns the current number of slots.
func (s *Slots) Len() int { return len(s.slots) }

// SetLength grows the bar by appending empty slots or shrinks it by truncation. Techniques
// in truncated positions are dropped silently and do not reappear if the bar grows again.
//
// Postcondition: Len() == n, or ErrNegativeLength with no mutation.
func (s *Slots) SetLength(n int) error {
	if n < 0 {
		return fmt.Errorf("setting length %d: %w", n, ErrNegativeLength)
	}
	if n > len(s.slots) {
		s.slots = append(s.slots, make([]*Technique, n-len(s.slots))...)
		return nil
	}
	clear(s.slots[n:])
	s.slots = s.slots[:n]
	return nil
}

func (s *Slots) checkPosition(pos int) error {
	if pos < 0 || pos >= len(s.slots) {
		return fmt.Errorf("position %d of %d: %w", pos, len(s.slots), ErrIndexOutOfRange)
	}
	return nil
}

// Contains reports whether t occupies any slot.
func (s *Slots) Contains(t *Technique) bool {
	for _, held := range s.slots {
		if held == t {
			return true
		}
	}
	return false
}

// Load places t at pos, overwriting any previous occupant. It returns false without
// mutating anything when t already occupies a slot, including pos itself.
//
// Precondition: t must not be nil.
// Postcondition: ErrIndexOutOfRange when pos is outside [0, Len()).
func (s *Slots) Load(t *Technique, pos int) (bool, error) {
	if err := s.checkPosition(pos); err != nil {
		return false, err
	}
	if s.Contains(t) {
		return false, nil
	}
	s.slots[pos] = t
	return true, nil
}

// Remove clears pos. Clearing an empty slot is a no-op.
func (s *Slots) Remove(pos int) error {
	if err := s.checkPosition(pos); err != nil {
		return err
	}
	s.slots[pos] = nil
	return nil
}

// Get returns the technique at pos, or nil when the slot is empty.
func (s *Slots) Get(pos int) (*Technique, error) {
	if err := s.checkPosition(pos); err != nil {
		return nil, err
	}
	return s.slots[pos], nil
}

// Cast casts the technique at pos for caster. It does nothing and returns false when the
// slot is empty or caster.Mana() <= cost: mana exactly equal to the cost is not enough.
// On success the cast behavior runs first, then the cost is deducted.
func (s *Slots) Cast(pos int, caster Caster) (bool, error) {
	if err := s.checkPosition(pos); err != nil {
		return false, err
	}
	t := s.slots[pos]
	if t == nil || caster.Mana() <= t.ManaCost() {
		return false, nil
	}
	t.Cast(caster)
	caster.SpendMana(t.ManaCost())
	return true, nil
}

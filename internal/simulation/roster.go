// Package simulation owns the live characters and drives them one frame at a time.
package simulation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgsheet/internal/game/character"
	"github.com/cory-johannsen/rpgsheet/internal/game/effect"
	"github.com/cory-johannsen/rpgsheet/internal/game/technique"
	"github.com/cory-johannsen/rpgsheet/internal/scripting"
)

// ErrUnknownCharacter is returned when an ID names no character in the roster.
var ErrUnknownCharacter = errors.New("simulation: unknown character")

// Roster holds every live character sheet.
//
// Sheets are not safe for concurrent use, so the roster serialises every access: a frame
// (Step) and an external command (Do) never interleave. Callbacks that run from inside a
// frame or a Do, such as technique resolvers and script hooks, use the unlocked lookup.
type Roster struct {
	mu     sync.Mutex
	sheets map[string]*character.Sheet
	order  []string
	logger *zap.Logger
}

// NewRoster returns an empty Roster.
//
// Precondition: logger must be non-nil.
func NewRoster(logger *zap.Logger) *Roster {
	return &Roster{sheets: make(map[string]*character.Sheet), logger: logger}
}

// NewID returns a fresh character ID.
func (r *Roster) NewID() string { return uuid.NewString() }

// Add registers s. Sheets tick in the order they were added.
//
// Postcondition: returns an error if a sheet with the same ID is already present.
func (r *Roster) Add(s *character.Sheet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.sheets[s.ID()]; dup {
		return fmt.Errorf("adding character %q: duplicate ID", s.ID())
	}
	r.sheets[s.ID()] = s
	r.order = append(r.order, s.ID())
	r.logger.Debug("character added", zap.String("character", s.ID()), zap.String("name", s.Name()))
	return nil
}

// Remove drops the sheet with id and reports whether it was present.
func (r *Roster) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sheets[id]; !ok {
		return false
	}
	delete(r.sheets, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of sheets.
func (r *Roster) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.order)
}

// IDs returns every character ID in tick order.
func (r *Roster) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// Do runs fn with exclusive access to the sheet with id.
//
// Precondition: fn must not call back into the Roster's locking methods.
// Postcondition: returns ErrUnknownCharacter (wrapped) if id is absent; fn is not called.
func (r *Roster) Do(id string, fn func(s *character.Sheet)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sheets[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCharacter, id)
	}
	fn(s)
	return nil
}

// Snapshot returns a copy of the state of the sheet with id.
func (r *Roster) Snapshot(id string) (character.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sheets[id]
	if !ok {
		return character.Snapshot{}, false
	}
	return s.Snapshot(), true
}

// Snapshots returns the state of every sheet in tick order.
func (r *Roster) Snapshots() []character.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]character.Snapshot, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.sheets[id].Snapshot())
	}
	return out
}

// Step ticks every sheet once with dt, in insertion order.
func (r *Roster) Step(dt float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		r.sheets[id].Tick(dt)
	}
}

// lookup returns the sheet with id without locking.
//
// Precondition: the caller is running inside Step or Do.
func (r *Roster) lookup(id string) (*character.Sheet, bool) {
	s, ok := r.sheets[id]
	return s, ok
}

// Recipient resolves id for technique casts. Casts only happen inside Do, so it does not
// lock.
func (r *Roster) Recipient(id string) (technique.Recipient, bool) {
	s, ok := r.lookup(id)
	if !ok {
		return nil, false
	}
	return s, true
}

// BindScripting wires the engine.character callbacks of mgr to this roster. Script hooks
// only run from effect ticks and technique casts, both of which hold the roster lock,
// so the callbacks use the unlocked lookup.
//
// Precondition: mgr and effects must be non-nil.
func (r *Roster) BindScripting(mgr *scripting.Manager, effects *effect.Registry) {
	with := func(id string, fn func(s *character.Sheet)) error {
		s, ok := r.lookup(id)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCharacter, id)
		}
		fn(s)
		return nil
	}
	mgr.GetCharacter = func(id string) *scripting.CharacterInfo {
		s, ok := r.lookup(id)
		if !ok {
			return nil
		}
		snap := s.Snapshot()
		return &scripting.CharacterInfo{
			ID:         snap.ID,
			Name:       snap.Name,
			Level:      snap.Level,
			HP:         snap.HP,
			MaxHP:      snap.MaxHP,
			Mana:       snap.Mana,
			Defense:    snap.Defense,
			Alive:      snap.Alive,
			Stunned:    snap.StunRemaining > 0,
			Vulnerable: snap.VulnerableRemaining > 0,
			Effects:    snap.Effects,
		}
	}
	mgr.ApplyDamage = func(id string, amount int) error {
		return with(id, func(s *character.Sheet) { s.DealDamage(amount) })
	}
	mgr.ApplyHeal = func(id string, amount int) error {
		return with(id, func(s *character.Sheet) { s.Heal(amount) })
	}
	mgr.ApplyStun = func(id string, seconds float64) error {
		return with(id, func(s *character.Sheet) { s.SetStun(seconds) })
	}
	mgr.ApplyVuln = func(id string, seconds float64) error {
		return with(id, func(s *character.Sheet) { s.SetVulnerable(seconds) })
	}
	mgr.ApplyEffect = func(id, effectID string, seconds float64) error {
		def, ok := effects.Get(effectID)
		if !ok {
			return fmt.Errorf("unknown effect %q", effectID)
		}
		return with(id, func(s *character.Sheet) { s.LoadEffect(def.Instantiate(mgr), seconds) })
	}
}

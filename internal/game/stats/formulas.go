// Package stats maps a character level and designer-configured base stats onto the
// current stat values used in gameplay.
package stats

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidLevel is returned when a level outside the natural-log domain (L <= 0) is
// passed to Compute.
var ErrInvalidLevel = errors.New("stats: level must be >= 1")

// BaseStats holds the per-archetype constants that feed the level-scaling formulas.
type BaseStats struct {
	HP    int `yaml:"hp"`
	Mana  int `yaml:"mana"`
	Atk   int `yaml:"attack"`
	Speed int `yaml:"speed"`
}

// Validate reports an error if any base stat is not positive.
//
// Postcondition: Returns nil iff every field is > 0.
func (b BaseStats) Validate() error {
	var errs []error
	if b.HP <= 0 {
		errs = append(errs, fmt.Errorf("hp must be > 0, got %d", b.HP))
	}
	if b.Mana <= 0 {
		errs = append(errs, fmt.Errorf("mana must be > 0, got %d", b.Mana))
	}
	if b.Atk <= 0 {
		errs = append(errs, fmt.Errorf("attack must be > 0, got %d", b.Atk))
	}
	if b.Speed <= 0 {
		errs = append(errs, fmt.Errorf("speed must be > 0, got %d", b.Speed))
	}
	return errors.Join(errs...)
}

// Current holds the derived stat values for one level.
type Current struct {
	HP    int
	Mana  int
	Atk   int
	Speed int
}

// Compute derives the current stats for level from base.
//
// At level 1 ln(L) is 0, so HP, Atk and Speed collapse to their additive constants
// (10, 0 and 5) whatever the base stats are.
//
// Precondition: level >= 1.
// Postcondition: Returns ErrInvalidLevel (wrapped) when level <= 0.
func Compute(level int, base BaseStats) (Current, error) {
	if level <= 0 {
		return Current{}, fmt.Errorf("computing stats for level %d: %w", level, ErrInvalidLevel)
	}
	return Current{
		HP:    MaxHP(level, base.HP),
		Mana:  MaxMana(level, base.Mana),
		Atk:   Attack(level, base.Atk),
		Speed: Speed(level, base.Speed),
	}, nil
}

// MaxHP returns floor(1.8 * ln(level) * base) + 10.
//
// Precondition: level >= 1.
func MaxHP(level, base int) int {
	return int(math.Floor(1.8*math.Log(float64(level))*float64(base))) + 10
}

// MaxMana returns 50 * floor(ln(level + 0.5) * base) + 50.
//
// Precondition: level >= 1.
func MaxMana(level, base int) int {
	return 50*int(math.Floor(math.Log(float64(level)+0.5)*float64(base))) + 50
}

// Attack returns floor(ln(level) * base).
//
// Precondition: level >= 1.
func Attack(level, base int) int {
	return int(math.Floor(math.Log(float64(level)) * float64(base)))
}

// Speed returns floor(1.05 * ln(level) * base) + 5.
//
// Precondition: level >= 1.
func Speed(level, base int) int {
	return int(math.Floor(1.05*math.Log(float64(level))*float64(base))) + 5
}

// Package technique defines castable abilities and the fixed-length slot bar a
// character casts them from.
package technique

// Caster is the character paying for and resolving a cast.
type Caster interface {
	ID() string
	Mana() int
	SpendMana(cost int)
	// Target returns the ID of the caster's current target, or "" when none is set.
	Target() string
}

// CastFunc resolves a technique's effect for caster.
type CastFunc func(caster Caster)

// Technique is an immutable castable ability. Techniques are owned by a Catalog (or
// whatever built them) and referenced, never copied, by the slots that hold them;
// identity is the pointer.
type Technique struct {
	id       string
	name     string
	manaCost int
	icon     string
	cast     CastFunc
}

// New returns a Technique.
//
// Precondition: manaCost >= 0; cast must not be nil.
func New(id, name string, manaCost int, icon string, cast CastFunc) *Technique {
	return &Technique{id: id, name: name, manaCost: manaCost, icon: icon, cast: cast}
}

// ID returns the technique identifier.
func (t *Technique) ID() string { return t.id }

// Name returns the display name.
func (t *Technique) Name() string { return t.name }

// ManaCost returns the mana deducted by a successful cast.
func (t *Technique) ManaCost() int { return t.manaCost }

// IconPath returns the display-icon reference.
func (t *Technique) IconPath() string { return t.icon }

// Cast runs the cast behavior. It does not check or deduct mana; Slots.Cast does.
func (t *Technique) Cast(caster Caster) { t.cast(caster) }

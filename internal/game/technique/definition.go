package technique

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/rpgsheet/internal/game/dice"
	"github.com/cory-johannsen/rpgsheet/internal/game/effect"
)

// Kind constants for Definition.Kind.
const (
	KindEffect     = "effect"     // loads Effect on the recipient for Duration seconds
	KindDamage     = "damage"     // deals Damage (a dice expression) to the recipient
	KindStun       = "stun"       // stuns the recipient for Duration seconds
	KindVulnerable = "vulnerable" // makes the recipient vulnerable for Duration seconds
	KindScript     = "script"     // behavior comes only from LuaOnCast
)

// Definition is the static definition of a technique, loaded from YAML.
type Definition struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Icon        string  `yaml:"icon"`
	ManaCost    int     `yaml:"mana_cost"`
	Kind        string  `yaml:"kind"`
	Effect      string  `yaml:"effect"`
	Duration    float64 `yaml:"duration"`
	Damage      string  `yaml:"damage"`
	Self        bool    `yaml:"self"` // true targets the caster instead of the caster's target
	LuaOnCast   string  `yaml:"lua_on_cast"`
}

// Validate reports an error if the definition is malformed.
func (d *Definition) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if d.ManaCost < 0 {
		errs = append(errs, errors.New("mana_cost must be >= 0"))
	}
	switch d.Kind {
	case KindEffect:
		if d.Effect == "" {
			errs = append(errs, errors.New("effect is required for kind \"effect\""))
		}
		if d.Duration <= 0 {
			errs = append(errs, errors.New("duration must be > 0"))
		}
	case KindStun, KindVulnerable:
		if d.Duration <= 0 {
			errs = append(errs, errors.New("duration must be > 0"))
		}
	case KindDamage:
		if _, err := dice.Parse(d.Damage); err != nil {
			errs = append(errs, fmt.Errorf("damage: %w", err))
		}
	case KindScript:
		if d.LuaOnCast == "" {
			errs = append(errs, errors.New("lua_on_cast is required for kind \"script\""))
		}
	default:
		errs = append(errs, fmt.Errorf("kind must be one of effect, damage, stun, vulnerable, script; got %q", d.Kind))
	}
	return errors.Join(errs...)
}

// LoadDirectory reads every *.yaml file in dir and returns the validated definitions
// sorted by ID.
//
// Precondition: dir must be a readable directory.
func LoadDirectory(dir string) ([]*Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading technique dir %q: %w", dir, err)
	}
	defs := []*Definition{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Definition
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		defs = append(defs, &def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs, nil
}

// Recipient is the character a technique lands on.
type Recipient interface {
	effect.Target
	LoadEffect(e effect.Effect, duration float64)
	SetStun(duration float64)
	SetVulnerable(duration float64)
}

// ScriptRunner invokes a named cast hook.
type ScriptRunner interface {
	RunCast(hook, casterID, targetID string)
}

// Scripts is the script runner for both cast hooks and the tick hooks of effects the
// techniques apply.
type Scripts interface {
	ScriptRunner
	effect.ScriptRunner
}

// Builder turns Definitions into Techniques.
type Builder struct {
	effects *effect.Registry
	roller  *dice.Roller
	resolve func(id string) (Recipient, bool)
	scripts Scripts
	logger  *zap.Logger
}

// NewBuilder returns a Builder. resolve maps a character ID to its Recipient at cast time.
// scripts may be nil, in which case Lua hooks are skipped.
//
// Precondition: effects, roller, resolve and logger must be non-nil.
func NewBuilder(effects *effect.Registry, roller *dice.Roller, resolve func(id string) (Recipient, bool), scripts Scripts, logger *zap.Logger) *Builder {
	return &Builder{effects: effects, roller: roller, resolve: resolve, scripts: scripts, logger: logger}
}

// Build returns the Technique described by def.
//
// Postcondition: returns an error if def is invalid or names an unknown effect.
func (b *Builder) Build(def *Definition) (*Technique, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("building technique %q: %w", def.ID, err)
	}

	var land func(r Recipient)
	switch def.Kind {
	case KindEffect:
		effDef, ok := b.effects.Get(def.Effect)
		if !ok {
			return nil, fmt.Errorf("building technique %q: unknown effect %q", def.ID, def.Effect)
		}
		land = func(r Recipient) { r.LoadEffect(effDef.Instantiate(b.scripts), def.Duration) }
	case KindDamage:
		expr, _ := dice.Parse(def.Damage)
		land = func(r Recipient) { r.DealDamage(b.roller.Roll(expr).Total()) }
	case KindStun:
		land = func(r Recipient) { r.SetStun(def.Duration) }
	case KindVulnerable:
		land = func(r Recipient) { r.SetVulnerable(def.Duration) }
	}

	cast := func(caster Caster) {
		recipientID := caster.Target()
		if def.Self {
			recipientID = caster.ID()
		}
		if land != nil {
			if r, ok := b.resolve(recipientID); ok {
				land(r)
			} else {
				b.logger.Debug("technique fizzled: no recipient",
					zap.String("technique", def.ID),
					zap.String("caster", caster.ID()),
					zap.String("recipient", recipientID),
				)
			}
		}
		if def.LuaOnCast != "" && b.scripts != nil {
			b.scripts.RunCast(def.LuaOnCast, caster.ID(), recipientID)
		}
	}
	return New(def.ID, def.Name, def.ManaCost, def.Icon, cast), nil
}

// Catalog owns the built techniques, keyed by ID.
type Catalog struct {
	techniques map[string]*Technique
}

// BuildCatalog builds every definition.
//
// Postcondition: returns the first build error, or a Catalog holding one Technique per def.
func (b *Builder) BuildCatalog(defs []*Definition) (*Catalog, error) {
	c := &Catalog{techniques: make(map[string]*Technique, len(defs))}
	for _, def := range defs {
		t, err := b.Build(def)
		if err != nil {
			return nil, err
		}
		if _, dup := c.techniques[t.ID()]; dup {
			return nil, fmt.Errorf("building catalog: duplicate technique ID %q", t.ID())
		}
		c.techniques[t.ID()] = t
	}
	return c, nil
}

// Get returns the technique with id.
func (c *Catalog) Get(id string) (*Technique, bool) {
	t, ok := c.techniques[id]
	return t, ok
}

// Len returns the number of techniques.
func (c *Catalog) Len() int { return len(c.techniques) }

package effect

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind constants for Definition.Kind.
const (
	KindDamage = "damage" // deals Rate points per second through DealDamage
	KindHeal   = "heal"   // restores Rate hit points per second
	KindMana   = "mana"   // restores Rate mana per second
	KindScript = "script" // behavior comes only from LuaOnTick
)

// ScriptRunner invokes a named script hook once per tick for a target.
type ScriptRunner interface {
	RunTick(hook, targetID string, dt float64)
}

// Definition is the static definition of a periodic effect, loaded from YAML.
type Definition struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Kind        string  `yaml:"kind"`
	Rate        float64 `yaml:"rate"` // points per second
	LuaOnTick   string  `yaml:"lua_on_tick"`
}

// Validate reports an error if the definition is malformed.
//
// Postcondition: Returns nil iff the definition can be instantiated.
func (d *Definition) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	switch d.Kind {
	case KindDamage, KindHeal, KindMana:
		if d.Rate <= 0 {
			errs = append(errs, fmt.Errorf("rate must be > 0 for kind %q", d.Kind))
		}
	case KindScript:
		if d.LuaOnTick == "" {
			errs = append(errs, errors.New("lua_on_tick is required for kind \"script\""))
		}
	default:
		errs = append(errs, fmt.Errorf("kind must be one of damage, heal, mana, script; got %q", d.Kind))
	}
	return errors.Join(errs...)
}

// Instantiate returns a fresh Effect for one target. Each instance carries its own
// fractional remainder so a rate of 3/s at 60 frames per second still lands 3 points a
// second. scripts may be nil, in which case LuaOnTick is ignored.
//
// Precondition: d passes Validate.
func (d *Definition) Instantiate(scripts ScriptRunner) Effect {
	return &periodic{def: d, scripts: scripts}
}

type periodic struct {
	def     *Definition
	scripts ScriptRunner
	carry   float64
}

func (p *periodic) ID() string { return p.def.ID }

func (p *periodic) Apply(target Target, dt float64) {
	if p.def.Kind != KindScript {
		p.carry += p.def.Rate * dt
		if whole := math.Floor(p.carry); whole >= 1 {
			p.carry -= whole
			switch p.def.Kind {
			case KindDamage:
				target.DealDamage(int(whole))
			case KindHeal:
				target.Heal(int(whole))
			case KindMana:
				target.RestoreMana(int(whole))
			}
		}
	}
	if p.def.LuaOnTick != "" && p.scripts != nil {
		p.scripts.RunTick(p.def.LuaOnTick, target.ID(), dt)
	}
}

// Registry holds all known Definitions keyed by ID.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds def to the registry, overwriting any existing entry with the same ID.
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) Register(def *Definition) {
	r.defs[def.ID] = def
}

// Get returns the Definition for id, or (nil, false) if not found.
func (r *Registry) Get(id string) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

// All returns a snapshot slice of all registered Definitions sorted by ID.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Definition,
// and returns a populated Registry.
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Registry, or an error if any file fails to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading effect dir %q: %w", dir, err)
	}
	reg := NewRegistry()
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
		reg.Register(&def)
	}
	return reg, nil
}

// Package inventory provides equipment definitions, their YAML loader, and the per-character
// set of equipped items that determines defense.
package inventory

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Kind tags an Equipment variant.
type Kind string

const (
	// KindArmor contributes its Defense to the wearer.
	KindArmor Kind = "armor"
	// KindGear is any non-armor equipment; it contributes no defense.
	KindGear Kind = "gear"
)

// Equipment is a tagged variant {Armor{Defense}, Gear} occupying one slot.
// Equipment values are handed to a character by reference and never copied into it.
type Equipment struct {
	ID      string
	Name    string
	Slot    string
	Kind    Kind
	Defense int // meaningful only when Kind == KindArmor
}

// NewArmor returns an armor piece for slot contributing defense.
func NewArmor(id, slot string, defense int) *Equipment {
	return &Equipment{ID: id, Name: id, Slot: slot, Kind: KindArmor, Defense: defense}
}

// NewGear returns a non-armor item for slot.
func NewGear(id, slot string) *Equipment {
	return &Equipment{ID: id, Name: id, Slot: slot, Kind: KindGear}
}

// DefenseContribution returns the defense this item adds while equipped.
//
// Postcondition: Returns 0 for every non-armor item.
func (e *Equipment) DefenseContribution() int {
	switch e.Kind {
	case KindArmor:
		return e.Defense
	default:
		return 0
	}
}

// ItemDef defines the static properties of a piece of equipment loaded from YAML.
type ItemDef struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Slot        string `yaml:"slot"`
	Kind        Kind   `yaml:"kind"`
	Defense     int    `yaml:"defense"`
}

// Validate checks that the ItemDef satisfies its invariants.
//
// Postcondition: returns nil iff all fields are valid.
func (d *ItemDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if d.Slot == "" {
		errs = append(errs, errors.New("slot must not be empty"))
	}
	switch d.Kind {
	case KindArmor:
		if d.Defense < 0 {
			errs = append(errs, errors.New("defense must be >= 0"))
		}
	case KindGear:
		if d.Defense != 0 {
			errs = append(errs, errors.New("defense is only allowed on armor"))
		}
	default:
		errs = append(errs, fmt.Errorf("kind must be one of armor, gear; got %q", d.Kind))
	}
	if len(errs) > 0 {
		return fmt.Errorf("item validation failed: %v", errs)
	}
	return nil
}

// Equipment builds a fresh Equipment value from the definition.
//
// Precondition: d passes Validate.
func (d *ItemDef) Equipment() *Equipment {
	return &Equipment{ID: d.ID, Name: d.Name, Slot: d.Slot, Kind: d.Kind, Defense: d.Defense}
}

// LoadItems reads all *.yaml and *.yml files from dir, parses each as an
// ItemDef, validates it, and returns the collected slice sorted by ID.
//
// Precondition: dir is a readable directory path.
// Postcondition: returns all valid ItemDefs or the first encountered error.
func LoadItems(dir string) ([]*ItemDef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("LoadItems: cannot read directory %q: %w", dir, err)
	}

	items := []*ItemDef{}
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("LoadItems: cannot read file %q: %w", path, err)
		}
		var d ItemDef
		if err := yaml.Unmarshal(data, &d); err != nil {
			return nil, fmt.Errorf("LoadItems: cannot parse file %q: %w", path, err)
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("LoadItems: invalid item in %q: %w", path, err)
		}
		items = append(items, &d)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

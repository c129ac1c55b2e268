// Package ruleset loads the role-specific configuration that turns the shared character
// sheet into a concrete character type.
package ruleset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/rpgsheet/internal/game/stats"
)

// Archetype is a concrete character type: its base stats plus starting kit.
//
// Precondition: ID, Name and Base must be set after loading.
type Archetype struct {
	ID                 string          `yaml:"id"`
	Name               string          `yaml:"name"`
	Description        string          `yaml:"description"`
	Base               stats.BaseStats `yaml:"base_stats"`
	StartingLevel      int             `yaml:"starting_level"`
	TechniqueSlots     int             `yaml:"technique_slots"`
	StartingEquipment  []string        `yaml:"starting_equipment"`
	StartingTechniques []string        `yaml:"starting_techniques"`
}

// Validate reports every invariant violation in a.
func (a *Archetype) Validate() error {
	var errs []error
	if a.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if a.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if err := a.Base.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("base_stats: %w", err))
	}
	if a.StartingLevel < 1 {
		errs = append(errs, fmt.Errorf("starting_level must be >= 1, got %d", a.StartingLevel))
	}
	if a.TechniqueSlots < 0 {
		errs = append(errs, fmt.Errorf("technique_slots must be >= 0, got %d", a.TechniqueSlots))
	}
	if len(a.StartingTechniques) > a.TechniqueSlots {
		errs = append(errs, fmt.Errorf("%d starting techniques do not fit in %d slots", len(a.StartingTechniques), a.TechniqueSlots))
	}
	return errors.Join(errs...)
}

// LoadArchetypes reads all .yaml/.yml files in dir and parses each as an Archetype.
// A missing starting_level defaults to 1.
//
// Precondition: dir must be a readable directory path.
// Postcondition: Returns all parsed archetypes sorted by ID (may be empty) or a non-nil error.
func LoadArchetypes(dir string) ([]*Archetype, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}
	archetypes := make([]*Archetype, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		a := Archetype{StartingLevel: 1}
		if err := yaml.Unmarshal(data, &a); err != nil {
			return nil, fmt.Errorf("parsing archetype file %s: %w", path, err)
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("invalid archetype in %s: %w", path, err)
		}
		archetypes = append(archetypes, &a)
	}
	sort.Slice(archetypes, func(i, j int) bool { return archetypes[i].ID < archetypes[j].ID })
	return archetypes, nil
}

func yamlFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
			paths = append(paths, filepath.Join(dir, name))
		}
	}
	return paths, nil
}

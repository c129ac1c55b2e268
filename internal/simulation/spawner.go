package simulation

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgsheet/internal/game/character"
	"github.com/cory-johannsen/rpgsheet/internal/game/inventory"
	"github.com/cory-johannsen/rpgsheet/internal/game/ruleset"
	"github.com/cory-johannsen/rpgsheet/internal/game/technique"
)

// Spawner creates characters from archetypes and registers them in a roster.
type Spawner struct {
	roster     *Roster
	items      *inventory.Registry
	techniques *technique.Catalog
	logger     *zap.Logger
}

// NewSpawner returns a Spawner.
//
// Precondition: every argument must be non-nil.
func NewSpawner(roster *Roster, items *inventory.Registry, techniques *technique.Catalog, logger *zap.Logger) *Spawner {
	return &Spawner{roster: roster, items: items, techniques: techniques, logger: logger}
}

// Spawn builds a sheet for a at its starting level, equips its starting equipment, slots
// its starting techniques in order and adds it to the roster.
//
// Postcondition: returns the new character ID, or an error naming the first unknown item
// or technique. Nothing is added to the roster on error.
func (sp *Spawner) Spawn(a *ruleset.Archetype, name string) (string, error) {
	id := sp.roster.NewID()
	s, err := character.New(id, name, a.Base, a.StartingLevel, a.TechniqueSlots, sp.logger)
	if err != nil {
		return "", fmt.Errorf("spawning %q: %w", a.ID, err)
	}
	for _, itemID := range a.StartingEquipment {
		def, ok := sp.items.Item(itemID)
		if !ok {
			return "", fmt.Errorf("spawning %q: unknown item %q", a.ID, itemID)
		}
		s.Equip(def.Equipment())
	}
	for pos, techID := range a.StartingTechniques {
		t, ok := sp.techniques.Get(techID)
		if !ok {
			return "", fmt.Errorf("spawning %q: unknown technique %q", a.ID, techID)
		}
		if _, err := s.LoadTechnique(t, pos); err != nil {
			return "", fmt.Errorf("spawning %q: slotting %q: %w", a.ID, techID, err)
		}
	}
	if err := sp.roster.Add(s); err != nil {
		return "", err
	}
	sp.logger.Info("character spawned",
		zap.String("character", id),
		zap.String("name", name),
		zap.String("archetype", a.ID),
		zap.Int("level", s.Level()),
		zap.Int("hp", s.HP()),
		zap.Int("defense", s.Defense()),
	)
	return id, nil
}

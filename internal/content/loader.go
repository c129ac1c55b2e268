// Package content loads every content directory the simulation needs and checks the
// references between them.
package content

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/rpgsheet/internal/config"
	"github.com/cory-johannsen/rpgsheet/internal/game/effect"
	"github.com/cory-johannsen/rpgsheet/internal/game/inventory"
	"github.com/cory-johannsen/rpgsheet/internal/game/ruleset"
	"github.com/cory-johannsen/rpgsheet/internal/game/technique"
)

// Bundle is the loaded content.
type Bundle struct {
	Archetypes []*ruleset.Archetype
	Items      *inventory.Registry
	Effects    *effect.Registry
	Techniques []*technique.Definition
}

// Load reads the archetype, item, effect and technique directories concurrently, then
// checks cross references.
//
// Postcondition: returns a Bundle whose references all resolve, or the first load error
// or every dangling reference.
func Load(ctx context.Context, cfg config.ContentConfig) (*Bundle, error) {
	var b Bundle
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		archetypes, err := ruleset.LoadArchetypes(cfg.ArchetypesDir)
		if err != nil {
			return fmt.Errorf("loading archetypes: %w", err)
		}
		b.Archetypes = archetypes
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		defs, err := inventory.LoadItems(cfg.ItemsDir)
		if err != nil {
			return fmt.Errorf("loading items: %w", err)
		}
		items, err := inventory.NewRegistryFrom(defs)
		if err != nil {
			return fmt.Errorf("registering items: %w", err)
		}
		b.Items = items
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		effects, err := effect.LoadDirectory(cfg.EffectsDir)
		if err != nil {
			return fmt.Errorf("loading effects: %w", err)
		}
		b.Effects = effects
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		defs, err := technique.LoadDirectory(cfg.TechniquesDir)
		if err != nil {
			return fmt.Errorf("loading techniques: %w", err)
		}
		b.Techniques = defs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// Validate reports every reference in b that names no loaded definition: archetype
// starting equipment and techniques, and the effects techniques apply.
func (b *Bundle) Validate() error {
	var errs []error
	techniques := make(map[string]bool, len(b.Techniques))
	for _, t := range b.Techniques {
		techniques[t.ID] = true
		if t.Kind == technique.KindEffect {
			if _, ok := b.Effects.Get(t.Effect); !ok {
				errs = append(errs, fmt.Errorf("technique %q: unknown effect %q", t.ID, t.Effect))
			}
		}
	}
	for _, a := range b.Archetypes {
		for _, id := range a.StartingEquipment {
			if _, ok := b.Items.Item(id); !ok {
				errs = append(errs, fmt.Errorf("archetype %q: unknown item %q", a.ID, id))
			}
		}
		for _, id := range a.StartingTechniques {
			if !techniques[id] {
				errs = append(errs, fmt.Errorf("archetype %q: unknown technique %q", a.ID, id))
			}
		}
	}
	return errors.Join(errs...)
}

package simulation_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgsheet/internal/game/character"
	"github.com/cory-johannsen/rpgsheet/internal/game/dice"
	"github.com/cory-johannsen/rpgsheet/internal/game/effect"
	"github.com/cory-johannsen/rpgsheet/internal/game/inventory"
	"github.com/cory-johannsen/rpgsheet/internal/game/ruleset"
	"github.com/cory-johannsen/rpgsheet/internal/game/stats"
	"github.com/cory-johannsen/rpgsheet/internal/game/technique"
	"github.com/cory-johannsen/rpgsheet/internal/scripting"
	"github.com/cory-johannsen/rpgsheet/internal/simulation"
)

var testBase = stats.BaseStats{HP: 100, Mana: 10, Atk: 10, Speed: 10}

type world struct {
	roster  *simulation.Roster
	spawner *simulation.Spawner
	scripts *scripting.Manager
}

// newWorld wires a roster with a small content set. luaSrc may be empty.
func newWorld(t *testing.T, luaSrc string) *world {
	t.Helper()
	logger := zap.NewNop()
	roster := simulation.NewRoster(logger)
	roller := dice.NewLoggedRoller(dice.NewSeededSource(1), logger)

	effects := effect.NewRegistry()
	effects.Register(&effect.Definition{ID: "burn", Name: "Burn", Kind: effect.KindDamage, Rate: 8})
	effects.Register(&effect.Definition{ID: "hex", Name: "Hex", Kind: effect.KindScript, LuaOnTick: "hex_tick"})

	mgr := scripting.NewManager(roller, logger)
	t.Cleanup(mgr.Close)
	if luaSrc != "" {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "hooks.lua"), []byte(luaSrc), 0o644))
		require.NoError(t, mgr.Load(dir, 0))
	}
	roster.BindScripting(mgr, effects)

	builder := technique.NewBuilder(effects, roller, roster.Recipient, mgr, logger)
	catalog, err := builder.BuildCatalog([]*technique.Definition{
		{ID: "strike", Name: "Strike", ManaCost: 10, Kind: technique.KindDamage, Damage: "10"},
		{ID: "ignite", Name: "Ignite", ManaCost: 10, Kind: technique.KindEffect, Effect: "burn", Duration: 2},
		{ID: "daze", Name: "Daze", ManaCost: 10, Kind: technique.KindScript, LuaOnCast: "daze_cast"},
	})
	require.NoError(t, err)

	items, err := inventory.NewRegistryFrom([]*inventory.ItemDef{
		{ID: "mail", Name: "Mail", Slot: "chest", Kind: inventory.KindArmor, Defense: 20},
		{ID: "torch", Name: "Torch", Slot: "hand", Kind: inventory.KindGear},
	})
	require.NoError(t, err)

	return &world{
		roster:  roster,
		spawner: simulation.NewSpawner(roster, items, catalog, logger),
		scripts: mgr,
	}
}

func archetype(techs ...string) *ruleset.Archetype {
	return &ruleset.Archetype{
		ID:                 "fighter",
		Name:               "Fighter",
		Base:               testBase,
		StartingLevel:      5,
		TechniqueSlots:     3,
		StartingTechniques: techs,
	}
}

func (w *world) spawn(t *testing.T, a *ruleset.Archetype, name string) string {
	t.Helper()
	id, err := w.spawner.Spawn(a, name)
	require.NoError(t, err)
	return id
}

func (w *world) snap(t *testing.T, id string) character.Snapshot {
	t.Helper()
	s, ok := w.roster.Snapshot(id)
	require.True(t, ok)
	return s
}

func (w *world) cast(t *testing.T, casterID, targetID string, pos int) bool {
	t.Helper()
	var ok bool
	require.NoError(t, w.roster.Do(casterID, func(s *character.Sheet) {
		s.SetTarget(targetID)
		var err error
		ok, err = s.CastAbility(pos)
		require.NoError(t, err)
	}))
	return ok
}

func TestRoster_AddRemoveOrder(t *testing.T) {
	r := simulation.NewRoster(zap.NewNop())
	a, err := character.New("a", "A", testBase, 1, 0, zap.NewNop())
	require.NoError(t, err)
	b, err := character.New("b", "B", testBase, 1, 0, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, r.Add(a))
	require.NoError(t, r.Add(b))
	assert.Error(t, r.Add(a))
	assert.Equal(t, []string{"a", "b"}, r.IDs())

	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"))
	assert.Equal(t, []string{"b"}, r.IDs())
	assert.Equal(t, 1, r.Len())
}

func TestRoster_DoUnknown(t *testing.T) {
	r := simulation.NewRoster(zap.NewNop())
	called := false
	err := r.Do("missing", func(*character.Sheet) { called = true })
	assert.ErrorIs(t, err, simulation.ErrUnknownCharacter)
	assert.False(t, called)
}

func TestRoster_NewIDUnique(t *testing.T) {
	r := simulation.NewRoster(zap.NewNop())
	assert.NotEqual(t, r.NewID(), r.NewID())
}

func TestSpawner_EquipsAndSlots(t *testing.T) {
	w := newWorld(t, "")
	a := archetype("strike", "ignite")
	a.StartingEquipment = []string{"mail", "torch"}
	id := w.spawn(t, a, "Ayla")

	snap := w.snap(t, id)
	assert.Equal(t, 20, snap.Defense)
	assert.Equal(t, 299, snap.HP)
	require.NoError(t, w.roster.Do(id, func(s *character.Sheet) {
		tech, err := s.Technique(1)
		require.NoError(t, err)
		require.NotNil(t, tech)
		assert.Equal(t, "ignite", tech.ID())
		assert.Len(t, s.Equipped(), 2)
	}))
}

func TestSpawner_UnknownContent(t *testing.T) {
	w := newWorld(t, "")
	a := archetype("nope")
	_, err := w.spawner.Spawn(a, "x")
	assert.ErrorContains(t, err, `unknown technique "nope"`)

	a = archetype()
	a.StartingEquipment = []string{"cape"}
	_, err = w.spawner.Spawn(a, "x")
	assert.ErrorContains(t, err, `unknown item "cape"`)
	assert.Equal(t, 0, w.roster.Len())
}

func TestTechnique_DamageLandsOnTarget(t *testing.T) {
	w := newWorld(t, "")
	a := w.spawn(t, archetype("strike"), "A")
	b := w.spawn(t, archetype(), "B")

	assert.True(t, w.cast(t, a, b, 0))
	assert.Equal(t, 299-12, w.snap(t, b).HP)
	assert.Equal(t, 890, w.snap(t, a).Mana)
}

func TestTechnique_NoTargetStillSpendsMana(t *testing.T) {
	w := newWorld(t, "")
	a := w.spawn(t, archetype("strike"), "A")

	assert.True(t, w.cast(t, a, "", 0))
	assert.Equal(t, 890, w.snap(t, a).Mana)
}

func TestTechnique_EffectTicksThroughDriver(t *testing.T) {
	w := newWorld(t, "")
	a := w.spawn(t, archetype("ignite"), "A")
	b := w.spawn(t, archetype(), "B")
	require.True(t, w.cast(t, a, b, 0))
	assert.Equal(t, []string{"burn"}, w.snap(t, b).Effects)

	d := simulation.NewDriver(w.roster, time.Second, zap.NewNop())
	d.Step(1)
	d.Step(1)
	// 8 points per second through no armor is 10 damage per tick.
	assert.Equal(t, 299-20, w.snap(t, b).HP)
	assert.Empty(t, w.snap(t, b).Effects)
	d.Step(1)
	assert.Equal(t, 299-20, w.snap(t, b).HP)
	assert.Equal(t, int64(3), d.Frames())
}

func TestBindScripting_CastAndTickHooks(t *testing.T) {
	w := newWorld(t, `
		function daze_cast(caster, target)
			engine.character.stun(target, 2)
			engine.character.effect(target, "hex", 1)
		end
		function hex_tick(target, dt)
			local c = engine.character.get(target)
			if c.stunned then
				engine.character.damage(target, 40)
			end
		end
	`)
	a := w.spawn(t, archetype("daze"), "A")
	b := w.spawn(t, archetype(), "B")

	require.True(t, w.cast(t, a, b, 0))
	snap := w.snap(t, b)
	assert.Equal(t, 2.0, snap.StunRemaining)
	assert.Equal(t, []string{"hex"}, snap.Effects)

	w.roster.Step(1)
	snap = w.snap(t, b)
	assert.Equal(t, 299-50, snap.HP)
	assert.Empty(t, snap.Effects)
}

func TestBindScripting_UnknownCharacter(t *testing.T) {
	w := newWorld(t, "")
	assert.ErrorIs(t, w.scripts.ApplyDamage("ghost", 5), simulation.ErrUnknownCharacter)
	assert.Nil(t, w.scripts.GetCharacter("ghost"))
	assert.Error(t, w.scripts.ApplyEffect("ghost", "nope", 1))
}

func TestDriver_FrameCallbacksSeeDt(t *testing.T) {
	w := newWorld(t, "")
	d := simulation.NewDriver(w.roster, time.Second, zap.NewNop())
	var got []float64
	d.OnFrame(func(dt float64) { got = append(got, dt) })
	d.Step(0.25)
	d.Step(0.5)
	assert.Equal(t, []float64{0.25, 0.5}, got)
}

func TestDriver_RunStopsOnCancel(t *testing.T) {
	w := newWorld(t, "")
	w.spawn(t, archetype(), "A")
	d := simulation.NewDriver(w.roster, 5*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	assert.Positive(t, d.Frames())
}

func TestNewDriver_PanicsOnZeroInterval(t *testing.T) {
	assert.Panics(t, func() { simulation.NewDriver(simulation.NewRoster(zap.NewNop()), 0, zap.NewNop()) })
}

func TestSkirmish_FightsToTheEnd(t *testing.T) {
	w := newWorld(t, "")
	a := w.spawn(t, archetype("strike"), "A")
	b := w.spawn(t, archetype("strike"), "B")
	k := simulation.NewSkirmish(w.roster, 1, zap.NewNop())

	k.Frame(0.5)
	assert.Equal(t, 299, w.snap(t, a).HP)
	k.Frame(0.5)
	assert.Equal(t, 299-12, w.snap(t, a).HP)
	assert.Equal(t, 299-12, w.snap(t, b).HP)
	assert.Equal(t, b, w.snap(t, a).Target)
	assert.Equal(t, a, w.snap(t, b).Target)

	for i := 0; i < 100 && !k.Over(); i++ {
		k.Frame(1)
	}
	assert.True(t, k.Over())
	// A acts first each round, so B dies first.
	assert.True(t, w.snap(t, a).Alive)
	assert.False(t, w.snap(t, b).Alive)
}

func TestSkirmish_StunnedSkipsAction(t *testing.T) {
	w := newWorld(t, "")
	a := w.spawn(t, archetype("strike"), "A")
	b := w.spawn(t, archetype("strike"), "B")
	require.NoError(t, w.roster.Do(a, func(s *character.Sheet) { s.SetStun(5) }))

	k := simulation.NewSkirmish(w.roster, 1, zap.NewNop())
	k.Frame(1)
	assert.Equal(t, 299, w.snap(t, b).HP)
	assert.Equal(t, 299-12, w.snap(t, a).HP)
}

func TestSkirmish_LongFrameActsOnce(t *testing.T) {
	w := newWorld(t, "")
	a := w.spawn(t, archetype("strike"), "A")
	b := w.spawn(t, archetype("strike"), "B")
	k := simulation.NewSkirmish(w.roster, 1, zap.NewNop())

	k.Frame(5)
	assert.Equal(t, 299-12, w.snap(t, a).HP)
	assert.Equal(t, 299-12, w.snap(t, b).HP)

	k.Frame(0.5)
	assert.Equal(t, 299-12, w.snap(t, b).HP)
	k.Frame(0.5)
	assert.Equal(t, 299-24, w.snap(t, b).HP)
}

func TestSkirmish_RemovedCharacterTimerReset(t *testing.T) {
	w := newWorld(t, "")
	a := w.spawn(t, archetype("strike"), "A")
	b := w.spawn(t, archetype("strike"), "B")
	k := simulation.NewSkirmish(w.roster, 1, zap.NewNop())

	k.Frame(0.5)
	var sheetA *character.Sheet
	require.NoError(t, w.roster.Do(a, func(s *character.Sheet) { sheetA = s }))
	require.True(t, w.roster.Remove(a))
	k.Frame(0.5)

	require.NoError(t, w.roster.Add(sheetA))
	k.Frame(0.5)
	assert.Equal(t, 299, w.snap(t, b).HP)
}

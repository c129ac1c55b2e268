package inventory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/rpgsheet/internal/game/inventory"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestItemDef_Validate(t *testing.T) {
	valid := &inventory.ItemDef{ID: "helm", Name: "Helm", Slot: "head", Kind: inventory.KindArmor, Defense: 3}
	assert.NoError(t, valid.Validate())

	assert.ErrorContains(t, (&inventory.ItemDef{Name: "x", Slot: "head", Kind: inventory.KindGear}).Validate(), "id")
	assert.ErrorContains(t, (&inventory.ItemDef{ID: "x", Name: "x", Kind: inventory.KindGear}).Validate(), "slot")
	assert.ErrorContains(t, (&inventory.ItemDef{ID: "x", Name: "x", Slot: "s", Kind: "weapon"}).Validate(), "kind")
	assert.ErrorContains(t, (&inventory.ItemDef{ID: "x", Name: "x", Slot: "s", Kind: inventory.KindArmor, Defense: -1}).Validate(), "defense")
	assert.ErrorContains(t, (&inventory.ItemDef{ID: "x", Name: "x", Slot: "s", Kind: inventory.KindGear, Defense: 2}).Validate(), "defense")
}

func TestItemDef_Equipment(t *testing.T) {
	d := &inventory.ItemDef{ID: "helm", Name: "Iron Helm", Slot: "head", Kind: inventory.KindArmor, Defense: 3}
	e := d.Equipment()
	assert.Equal(t, "head", e.Slot)
	assert.Equal(t, 3, e.DefenseContribution())
	assert.Equal(t, 0, inventory.NewGear("ring", "finger").DefenseContribution())
}

func TestLoadItems_ParsesYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "helm.yaml"), `
id: iron_helm
name: Iron Helm
slot: head
kind: armor
defense: 4
`)
	writeFile(t, filepath.Join(dir, "ring.yml"), `
id: copper_ring
name: Copper Ring
slot: finger
kind: gear
`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	items, err := inventory.LoadItems(dir)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "copper_ring", items[0].ID)
	assert.Equal(t, "iron_helm", items[1].ID)
	assert.Equal(t, 4, items[1].Defense)

	reg, err := inventory.NewRegistryFrom(items)
	require.NoError(t, err)
	got, ok := reg.Item("iron_helm")
	require.True(t, ok)
	assert.Equal(t, "Iron Helm", got.Name)
	assert.Equal(t, 2, reg.Len())
}

func TestLoadItems_InvalidItem(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.yaml"), "id: bad\nname: Bad\nslot: head\nkind: potion\n")
	_, err := inventory.LoadItems(dir)
	assert.ErrorContains(t, err, "invalid item")
}

func TestLoadItems_MissingDir(t *testing.T) {
	_, err := inventory.LoadItems(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rpgsheet/internal/game/dice"
)

type fixedSource struct{ v int }

func (f fixedSource) Intn(n int) int { return f.v % n }

func TestParse_Forms(t *testing.T) {
	cases := []struct {
		in                     string
		count, sides, modifier int
	}{
		{"d20", 1, 20, 0},
		{"2d6", 2, 6, 0},
		{"2d6+3", 2, 6, 3},
		{"4D8-2", 4, 8, -2},
		{"7", 0, 0, 7},
	}
	for _, c := range cases {
		e, err := dice.Parse(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.count, e.Count, c.in)
		assert.Equal(t, c.sides, e.Sides, c.in)
		assert.Equal(t, c.modifier, e.Modifier, c.in)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{"", "0d6", "2d1", "2dx", "2d6+y", "abc", "101d6", "20000000d6", "1d1001"} {
		_, err := dice.Parse(in)
		assert.Error(t, err, in)
	}
}

func TestParse_Bounds(t *testing.T) {
	e, err := dice.Parse("100d1000")
	require.NoError(t, err)
	assert.Equal(t, dice.MaxCount, e.Count)
	assert.Equal(t, dice.MaxSides, e.Sides)

	_, err = dice.Parse("20000000d6")
	assert.ErrorContains(t, err, "must be <= 100")
}

func TestRoll_Fixed(t *testing.T) {
	e, err := dice.Parse("3d6+2")
	require.NoError(t, err)
	r := dice.Roll(e, fixedSource{v: 3})
	assert.Equal(t, []int{4, 4, 4}, r.Dice)
	assert.Equal(t, 14, r.Total())
}

func TestRoll_Constant(t *testing.T) {
	e, err := dice.Parse("7")
	require.NoError(t, err)
	assert.Equal(t, 7, dice.Roll(e, dice.NewCryptoSource()).Total())
}

func TestRoller_LogsAtDebug(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := dice.NewLoggedRoller(fixedSource{v: 0}, zap.New(core))
	r.Roll(dice.Expression{Raw: "1d4", Count: 1, Sides: 4})
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "dice roll", logs.All()[0].Message)
}

func TestSeededSource_Deterministic(t *testing.T) {
	a, b := dice.NewSeededSource(42), dice.NewSeededSource(42)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Intn(100), b.Intn(100))
	}
}

func TestPropertyRoll_WithinBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		count := rapid.IntRange(1, 10).Draw(t, "count")
		sides := rapid.IntRange(2, 20).Draw(t, "sides")
		mod := rapid.IntRange(-10, 10).Draw(t, "mod")
		e := dice.Expression{Raw: "x", Count: count, Sides: sides, Modifier: mod}
		total := dice.Roll(e, dice.NewCryptoSource()).Total()
		assert.GreaterOrEqual(t, total, count+mod)
		assert.LessOrEqual(t, total, count*sides+mod)
	})
}

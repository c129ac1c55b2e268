package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/rpgsheet/internal/scripting"
)

func newState(t testing.TB) *lua.LState {
	t.Helper()
	L := scripting.NewSandboxedState()
	require.NotNil(t, L)
	t.Cleanup(L.Close)
	return L
}

func TestSandbox_HostLibrariesAbsent(t *testing.T) {
	L := newState(t)
	for _, name := range []string{"os", "io", "debug", "package", "dofile", "loadfile", "load", "loadstring", "require", "collectgarbage"} {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), "expected %s to be nil", name)
	}
}

func TestSandbox_SafeLibrariesAvailable(t *testing.T) {
	L := newState(t)
	err := scripting.RunWithin(L, 0, func() error {
		return L.DoString(`
			assert(math.floor(2.7) == 2)
			assert(string.rep("ab", 2) == "abab")
			local t = {3, 1, 2}
			table.sort(t)
			assert(t[1] == 1)
		`)
	})
	assert.NoError(t, err)
}

func TestRunWithin_StopsRunawayLoop(t *testing.T) {
	L := newState(t)
	err := scripting.RunWithin(L, 10, func() error { return L.DoString(`while true do end`) })
	assert.Error(t, err)
}

func TestRunWithin_BudgetIsPerCall(t *testing.T) {
	L := newState(t)
	script := `local n = 0 for i = 1, 50 do n = n + i end`
	for i := 0; i < 20; i++ {
		require.NoError(t, scripting.RunWithin(L, 1000, func() error { return L.DoString(script) }), "call %d", i)
	}
}

func TestRunWithin_StateUsableAfterExhaustion(t *testing.T) {
	L := newState(t)
	require.Error(t, scripting.RunWithin(L, 5, func() error { return L.DoString(`while true do end`) }))
	assert.NoError(t, scripting.RunWithin(L, 0, func() error { return L.DoString(`x = 1 + 1`) }))
	assert.Equal(t, lua.LNumber(2), L.GetGlobal("x"))
}

func TestProperty_RunawayAlwaysStopped(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		limit := rapid.IntRange(1, 200).Draw(rt, "limit")
		L := scripting.NewSandboxedState()
		defer L.Close()
		if err := scripting.RunWithin(L, limit, func() error { return L.DoString(`while true do end`) }); err == nil {
			rt.Fatalf("runaway loop finished with limit=%d", limit)
		}
	})
}

package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgsheet/internal/game/dice"
)

// CharacterInfo is a snapshot of a character's state passed to Lua callbacks.
type CharacterInfo struct {
	ID         string
	Name       string
	Level      int
	HP         int
	MaxHP      int
	Mana       int
	Defense    int
	Alive      bool
	Stunned    bool
	Vulnerable bool
	Effects    []string
}

// Manager owns one sandboxed LState holding every loaded effect and technique script.
//
// The LState is single-threaded; mu serialises every entry into the VM.
type Manager struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int
	roller    *dice.Roller
	logger    *zap.Logger

	// Injected after construction. nil = no-op in engine.* modules.
	GetCharacter func(id string) *CharacterInfo
	ApplyDamage  func(id string, amount int) error
	ApplyHeal    func(id string, amount int) error
	ApplyStun    func(id string, seconds float64) error
	ApplyVuln    func(id string, seconds float64) error
	ApplyEffect  func(id, effectID string, seconds float64) error
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: roller and logger must be non-nil.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting.NewManager: roller must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{roller: roller, logger: logger}
}

// Load creates a fresh sandboxed VM, registers the engine.* modules, then executes every
// *.lua file in scriptDir in lexicographic order. A previously loaded VM is replaced
// only once the new one loads cleanly.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: returns an error on read or Lua load failure and keeps the old VM.
func (m *Manager) Load(scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState()
	m.RegisterModules(L)
	for _, path := range luaFiles {
		if err := RunWithin(L, instLimit, func() error { return L.DoFile(path) }); err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	old := m.L
	m.L = L
	m.instLimit = instLimit
	m.mu.Unlock()
	if old != nil {
		old.Close()
	}
	m.logger.Info("scripts loaded",
		zap.String("dir", scriptDir),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// CallHook calls the named Lua global function. Returns (LNil, nil) if no VM is loaded
// or the hook is not defined. Lua runtime errors, including an exhausted instruction
// budget, are logged at Warn level and never propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.L == nil {
		m.logger.Info("scripting: no VM loaded", zap.String("hook", hook))
		return lua.LNil, nil
	}
	fn := m.L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	release := armBudget(m.L, m.instLimit)
	defer release()
	if err := m.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := m.L.Get(-1)
	m.L.Pop(1)
	return ret, nil
}

// RunTick calls hook(target_id, dt) for a scripted effect.
func (m *Manager) RunTick(hook, targetID string, dt float64) {
	m.CallHook(hook, lua.LString(targetID), lua.LNumber(dt)) //nolint:errcheck
}

// RunCast calls hook(caster_id, target_id) for a scripted technique. targetID may be
// empty, in which case the hook receives nil.
func (m *Manager) RunCast(hook, casterID, targetID string) {
	var target lua.LValue = lua.LNil
	if targetID != "" {
		target = lua.LString(targetID)
	}
	m.CallHook(hook, lua.LString(casterID), target) //nolint:errcheck
}

// Close releases the VM. Later hook calls return LNil.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.L != nil {
		m.L.Close()
		m.L = nil
	}
}

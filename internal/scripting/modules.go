package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rpgsheet/internal/game/dice"
)

// RegisterModules registers the engine.log, engine.dice and engine.character tables into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L))
	L.SetField(engine, "character", m.characterModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, logFn := range levels {
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			logFn(L.CheckString(1), zap.String("source", "lua"))
			return 0
		}))
	}
	return mod
}

// diceModule exposes engine.dice.roll(expr) -> {total, dice, modifier}, where dice is
// the sum of the individual dice.
func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "roll", L.NewFunction(func(L *lua.LState) int {
		expr, err := dice.Parse(L.CheckString(1))
		if err != nil {
			L.RaiseError("engine.dice.roll: %s", err.Error())
			return 0
		}
		res := m.roller.Roll(expr)
		t := L.NewTable()
		L.SetField(t, "total", lua.LNumber(res.Total()))
		L.SetField(t, "dice", lua.LNumber(res.Total()-res.Modifier))
		L.SetField(t, "modifier", lua.LNumber(res.Modifier))
		L.Push(t)
		return 1
	}))
	return mod
}

// characterModule exposes engine.character.* backed by the injected callbacks.
// Mutators return true on success and false when the callback is unset or fails.
func (m *Manager) characterModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()

	L.SetField(mod, "get", L.NewFunction(func(L *lua.LState) int {
		if m.GetCharacter == nil {
			L.Push(lua.LNil)
			return 1
		}
		info := m.GetCharacter(L.CheckString(1))
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(characterTable(L, info))
		return 1
	}))

	L.SetField(mod, "damage", L.NewFunction(func(L *lua.LState) int {
		id, amount := L.CheckString(1), L.CheckInt(2)
		if m.ApplyDamage == nil {
			L.Push(lua.LFalse)
			return 1
		}
		L.Push(m.result("damage", id, m.ApplyDamage(id, amount)))
		return 1
	}))

	L.SetField(mod, "heal", L.NewFunction(func(L *lua.LState) int {
		id, amount := L.CheckString(1), L.CheckInt(2)
		if m.ApplyHeal == nil {
			L.Push(lua.LFalse)
			return 1
		}
		L.Push(m.result("heal", id, m.ApplyHeal(id, amount)))
		return 1
	}))

	L.SetField(mod, "stun", L.NewFunction(func(L *lua.LState) int {
		id, secs := L.CheckString(1), float64(L.CheckNumber(2))
		if m.ApplyStun == nil {
			L.Push(lua.LFalse)
			return 1
		}
		L.Push(m.result("stun", id, m.ApplyStun(id, secs)))
		return 1
	}))

	L.SetField(mod, "vulnerable", L.NewFunction(func(L *lua.LState) int {
		id, secs := L.CheckString(1), float64(L.CheckNumber(2))
		if m.ApplyVuln == nil {
			L.Push(lua.LFalse)
			return 1
		}
		L.Push(m.result("vulnerable", id, m.ApplyVuln(id, secs)))
		return 1
	}))

	L.SetField(mod, "effect", L.NewFunction(func(L *lua.LState) int {
		id, effectID, secs := L.CheckString(1), L.CheckString(2), float64(L.CheckNumber(3))
		if m.ApplyEffect == nil {
			L.Push(lua.LFalse)
			return 1
		}
		L.Push(m.result("effect", id, m.ApplyEffect(id, effectID, secs)))
		return 1
	}))

	return mod
}

// result converts a callback error into the Lua boolean result, logging failures at Warn.
func (m *Manager) result(name, id string, err error) lua.LBool {
	if err != nil {
		m.logger.Warn("scripting: engine.character call failed",
			zap.String("call", name),
			zap.String("id", id),
			zap.Error(err),
		)
		return lua.LFalse
	}
	return lua.LTrue
}

func characterTable(L *lua.LState, info *CharacterInfo) *lua.LTable {
	t := L.NewTable()
	L.SetField(t, "id", lua.LString(info.ID))
	L.SetField(t, "name", lua.LString(info.Name))
	L.SetField(t, "level", lua.LNumber(info.Level))
	L.SetField(t, "hp", lua.LNumber(info.HP))
	L.SetField(t, "max_hp", lua.LNumber(info.MaxHP))
	L.SetField(t, "mana", lua.LNumber(info.Mana))
	L.SetField(t, "defense", lua.LNumber(info.Defense))
	L.SetField(t, "alive", lua.LBool(info.Alive))
	L.SetField(t, "stunned", lua.LBool(info.Stunned))
	L.SetField(t, "vulnerable", lua.LBool(info.Vulnerable))
	effects := L.NewTable()
	for _, e := range info.Effects {
		effects.Append(lua.LString(e))
	}
	L.SetField(t, "effects", effects)
	return t
}

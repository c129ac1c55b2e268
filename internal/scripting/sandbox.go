// Package scripting provides a sandboxed GopherLua execution environment for
// effect and technique scripts. It has no dependency on game domain packages;
// all game interactions are injected via Manager callback fields.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the opcode budget of a single script entry when no limit
// is configured.
const DefaultInstructionLimit = 100_000

// blockedGlobals are removed from every sandboxed state. Scripts reach the engine only
// through the engine table.
var blockedGlobals = []string{
	"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require", "module",
	"setfenv", "getfenv",
}

// budget is a context that cancels itself on the limit-th call to Done. GopherLua's
// context-aware main loop polls Done once per opcode, which makes it an instruction
// counter.
type budget struct {
	context.Context
	cancel    context.CancelFunc
	remaining atomic.Int64
}

func (b *budget) Done() <-chan struct{} {
	if b.remaining.Add(-1) <= 0 {
		b.cancel()
	}
	return b.Context.Done()
}

func newBudget(instLimit int) *budget {
	if instLimit <= 0 {
		instLimit = DefaultInstructionLimit
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &budget{Context: ctx, cancel: cancel}
	b.remaining.Store(int64(instLimit))
	return b
}

// armBudget installs a fresh budget on L and returns the function that removes it.
// Every file load and hook call gets its own budget, so a long-lived VM never runs out
// of a lifetime allowance.
func armBudget(L *lua.LState, instLimit int) func() {
	b := newBudget(instLimit)
	L.SetContext(b)
	return func() {
		b.cancel()
		L.RemoveContext()
	}
}

// RunWithin runs fn with at most instLimit opcodes available to L; 0 means
// DefaultInstructionLimit. An exhausted budget surfaces as the error fn returns.
func RunWithin(L *lua.LState, instLimit int, fn func() error) error {
	release := armBudget(L, instLimit)
	defer release()
	return fn()
}

// NewSandboxedState creates a GopherLua LState with only the base, table, string and
// math libraries, and without any global that loads code or touches the host.
//
// Postcondition: Returns a non-nil LState with no budget installed; run code through
// RunWithin. The caller owns the LState and must call L.Close().
func NewSandboxedState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// Package lua provides a sandboxed Lua runtime for plugin execution.
package lua

import (
	"context"
	"fmt"
	"io"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// safeLibrary represents a Lua library that is safe to load in sandboxed state.
type safeLibrary struct {
	name string
	fn   lua.LGFunction
}

// defaultSafeLibraries returns the list of libraries safe to load.
// Safe: base, table, string, math.
// Blocked: os, io, debug, package.
func defaultSafeLibraries() []safeLibrary {
	return []safeLibrary{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
}

// StateFactory creates sandboxed Lua states with only safe libraries.
type StateFactory struct {
	// libraries allows overriding the default safe libraries for testing.
	libraries []safeLibrary
}

// NewStateFactory creates a new state factory.
func NewStateFactory() *StateFactory {
	return &StateFactory{
		libraries: defaultSafeLibraries(),
	}
}

// unsafeBaseFunctions lists base library functions that must be blocked for security.
// These functions allow filesystem access which would break sandboxing.
var unsafeBaseFunctions = []string{"dofile", "loadfile", "loadstring", "load"}

// outputKey is the registry slot holding the writer print() goes to.
const outputKey = "hookhost.output"

// NewState creates a fresh Lua state with only safe libraries loaded.
// Safe libraries: base, table, string, math.
// Blocked libraries: os, io, debug, package.
// Blocked base functions: dofile, loadfile, loadstring, load (filesystem access).
//
// print is replaced with a version that writes to the writer installed by
// SetOutput, and discards output until one is set.
//
// The ctx parameter is reserved for future cancellation/timeout support.
func (f *StateFactory) NewState(_ context.Context) (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // Don't load any libraries by default
	})
	for _, lib := range f.libraries {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("failed to open library %s: %w", lib.name, err)
		}
	}

	for _, fn := range unsafeBaseFunctions {
		L.SetGlobal(fn, lua.LNil)
	}

	L.SetGlobal("print", L.NewFunction(luaPrint))
	return L, nil
}

// SetOutput directs print() in L to w.
func SetOutput(L *lua.LState, w io.Writer) {
	ud := L.NewUserData()
	ud.Value = w
	L.G.Registry.RawSetString(outputKey, ud)
}

func output(L *lua.LState) io.Writer {
	if ud, ok := L.G.Registry.RawGetString(outputKey).(*lua.LUserData); ok {
		if w, ok := ud.Value.(io.Writer); ok {
			return w
		}
	}
	return io.Discard
}

// luaPrint mirrors the stock print: tab-separated tostring() of each
// argument followed by a newline.
func luaPrint(L *lua.LState) int {
	top := L.GetTop()
	parts := make([]string, 0, top)
	for i := 1; i <= top; i++ {
		parts = append(parts, L.ToStringMeta(L.Get(i)).String())
	}
	if _, err := fmt.Fprintln(output(L), strings.Join(parts, "\t")); err != nil {
		L.RaiseError("print: %s", err.Error())
	}
	return 0
}

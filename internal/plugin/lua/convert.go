// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package lua

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/hookhost/pkg/argspec"
)

// argsTable builds the value passed to a subcommand's Lua action. Without
// a signature it is the list of raw tokens. With one it is a table of
// typed values keyed by parameter name plus the raw tokens under argv.
func argsTable(L *lua.LState, args []string, spec *argspec.Spec, values argspec.Values) *lua.LTable {
	argv := L.NewTable()
	for _, a := range args {
		argv.Append(lua.LString(a))
	}
	if spec == nil {
		return argv
	}

	t := L.NewTable()
	t.RawSetString("argv", argv)
	for _, p := range spec.Params() {
		if v, ok := values[p.Name]; ok {
			t.RawSetString(p.Name, toLValue(L, v))
		}
	}
	return t
}

// toLValue converts a bound argspec value to Lua.
func toLValue(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []int64:
		t := L.NewTable()
		for _, x := range val {
			t.Append(lua.LNumber(x))
		}
		return t
	case []float64:
		t := L.NewTable()
		for _, x := range val {
			t.Append(lua.LNumber(x))
		}
		return t
	case []string:
		t := L.NewTable()
		for _, x := range val {
			t.Append(lua.LString(x))
		}
		return t
	default:
		return lua.LNil
	}
}

// stringField returns t[key] if it is a string, else "".
func stringField(t *lua.LTable, key string) string {
	if s, ok := t.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// stringList returns the string elements of the array part of t[key].
func stringList(t *lua.LTable, key string) []string {
	list, ok := t.RawGetString(key).(*lua.LTable)
	if !ok {
		return nil
	}
	out := make([]string, 0, list.Len())
	for i := 1; i <= list.Len(); i++ {
		if s, ok := list.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

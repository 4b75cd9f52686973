// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package lua_test

import (
	"bytes"
	"context"
	"testing"

	pluginlua "github.com/holomush/hookhost/internal/plugin/lua"
)

func TestStateFactory_NewState_LoadsSafeLibraries(t *testing.T) {
	factory := pluginlua.NewStateFactory()
	L, err := factory.NewState(context.Background())
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	defer L.Close()

	safeLibs := []string{"table", "string", "math"}
	for _, lib := range safeLibs {
		if L.GetGlobal(lib).Type().String() == "nil" {
			t.Errorf("library %q not loaded", lib)
		}
	}
}

func TestStateFactory_NewState_BlocksUnsafeLibraries(t *testing.T) {
	factory := pluginlua.NewStateFactory()
	L, err := factory.NewState(context.Background())
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	defer L.Close()

	unsafeLibs := []string{"os", "io", "debug", "package"}
	for _, lib := range unsafeLibs {
		if L.GetGlobal(lib).Type().String() != "nil" {
			t.Errorf("unsafe library %q should not be loaded", lib)
		}
	}
}

func TestStateFactory_NewState_BlocksUnsafeBaseFunctions(t *testing.T) {
	factory := pluginlua.NewStateFactory()
	L, err := factory.NewState(context.Background())
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	defer L.Close()

	for _, fn := range []string{"dofile", "loadfile", "loadstring", "load"} {
		if L.GetGlobal(fn).Type().String() != "nil" {
			t.Errorf("unsafe function %q should not be available", fn)
		}
	}
}

func TestStateFactory_NewState_CanExecuteLua(t *testing.T) {
	factory := pluginlua.NewStateFactory()
	L, err := factory.NewState(context.Background())
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	defer L.Close()

	err = L.DoString(`
		t = {3, 1, 2}
		table.sort(t)
		result = string.upper("x") .. t[1] .. math.abs(-42)
	`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	result := L.GetGlobal("result")
	if result.String() != "X142" {
		t.Errorf("result = %v, want X142", result)
	}
}

func TestStateFactory_NewState_MultipleStates(t *testing.T) {
	factory := pluginlua.NewStateFactory()

	L1, err := factory.NewState(context.Background())
	if err != nil {
		t.Fatalf("NewState() L1 error = %v", err)
	}
	defer L1.Close()

	L2, err := factory.NewState(context.Background())
	if err != nil {
		t.Fatalf("NewState() L2 error = %v", err)
	}
	defer L2.Close()

	if err := L1.DoString(`shared = "one"`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}
	if L2.GetGlobal("shared").Type().String() != "nil" {
		t.Error("globals leaked between states")
	}
}

func TestPrint_WritesToOutput(t *testing.T) {
	factory := pluginlua.NewStateFactory()
	L, err := factory.NewState(context.Background())
	if err != nil {
		t.Fatalf("NewState() error = %v", err)
	}
	defer L.Close()

	// Before SetOutput, print is discarded rather than hitting stdout.
	if err := L.DoString(`print("dropped")`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	var out bytes.Buffer
	pluginlua.SetOutput(L, &out)
	if err := L.DoString(`print("a", 1, true)`); err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	if got := out.String(); got != "a\t1\ttrue\n" {
		t.Errorf("print output = %q, want %q", got, "a\t1\ttrue\n")
	}
}

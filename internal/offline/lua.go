// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Ghostloop Contributors

package offline

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// safeLibrary is a Lua library safe to load in the sandboxed reward state.
// Safe: base, table, string, math. Blocked: os, io, debug, package.
type safeLibrary struct {
	name string
	fn   lua.LGFunction
}

func safeLibraries() []safeLibrary {
	return []safeLibrary{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
}

// unsafeBaseFunctions are base-library functions with filesystem access
// that must be blocked even though base itself is loaded.
var unsafeBaseFunctions = []string{"dofile", "loadfile", "loadstring", "load"}

// LuaReward compiles a sandboxed Lua reward script into a RewardFunc. The
// script must define a global function:
//
//	function reward(cycles, roster_count)
//	    return xp, gold
//	end
//
// Designers tune payout curves without recompiling the engine; the sandbox
// keeps scripts pure so offline estimation stays deterministic.
func LuaReward(script string) (RewardFunc, error) {
	// Compile once against a throwaway state to fail fast on bad scripts.
	probe, err := newRewardState(script)
	if err != nil {
		return nil, err
	}
	probe.Close()

	return func(cycles int64, rosterCount uint32) Reward {
		L, err := newRewardState(script)
		if err != nil {
			return Reward{}
		}
		defer L.Close()

		fn := L.GetGlobal("reward")
		if fn.Type() != lua.LTFunction {
			return Reward{}
		}
		if err := L.CallByParam(lua.P{Fn: fn, NRet: 2, Protect: true},
			lua.LNumber(cycles), lua.LNumber(rosterCount)); err != nil {
			return Reward{}
		}
		gold := L.Get(-1)
		xp := L.Get(-2)
		L.Pop(2)

		return Reward{XP: toInt64(xp), Gold: toInt64(gold)}
	}, nil
}

// newRewardState creates a fresh sandboxed state with the script loaded.
func newRewardState(script string) (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	for _, lib := range safeLibraries() {
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

	if err := L.DoString(script); err != nil {
		L.Close()
		return nil, fmt.Errorf("reward script failed to load: %w", err)
	}
	if L.GetGlobal("reward").Type() != lua.LTFunction {
		L.Close()
		return nil, fmt.Errorf("reward script does not define a reward function")
	}
	return L, nil
}

func toInt64(v lua.LValue) int64 {
	if n, ok := v.(lua.LNumber); ok {
		return int64(n)
	}
	return 0
}

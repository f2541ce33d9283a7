package config

import (
	lua "github.com/yuin/gopher-lua"
)

// safeLibs are the only standard libraries opened in a config VM.
var safeLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// blockedGlobals are base-library functions a declarative config never
// needs: code loading, metatable access and GC control.
var blockedGlobals = []string{
	"require", "module", "dofile", "loadfile", "load", "loadstring",
	"getfenv", "setfenv", "getmetatable", "setmetatable",
	"rawget", "rawset", "rawequal", "collectgarbage",
	"os", "io", "debug", "package",
}

// newSandboxedVM creates a Lua VM that can evaluate a config but cannot
// reach the filesystem, the process or other Lua code.
func newSandboxedVM() *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:  true,
		CallStackSize: 256,
		RegistrySize:  1024 * 8,
	})

	for _, lib := range safeLibs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

package platform

import (
	lua "github.com/yuin/gopher-lua"
)

// LuaGlobal is the name the platform table is published under.
const LuaGlobal = "platform"

// InjectPlatformTable publishes info to L as the read-only global table
// `platform`. It must run before any config code is loaded.
//
// Fields: os, arch, arch_raw, version, distro (nil outside Linux), bits
// ("32" or "64"), is_linux, is_macos, is_windows, is_64bit, and the helper
// when(cond, value) which yields value or nil.
func InjectPlatformTable(L *lua.LState, info *Info) error {
	fields := L.NewTable()

	for name, value := range map[string]lua.LValue{
		"os":         lua.LString(info.OS),
		"arch":       lua.LString(info.Arch),
		"arch_raw":   lua.LString(info.ArchRaw),
		"version":    lua.LString(info.Version),
		"bits":       lua.LString(info.Bits()),
		"is_linux":   lua.LBool(info.IsLinux()),
		"is_macos":   lua.LBool(info.IsMacOS()),
		"is_windows": lua.LBool(info.IsWindows()),
		"is_64bit":   lua.LBool(info.Is64Bit()),
		"when":       L.NewFunction(luaWhen),
	} {
		fields.RawSetString(name, value)
	}
	if info.Distro != "" {
		fields.RawSetString("distro", lua.LString(info.Distro))
	}

	L.SetGlobal(LuaGlobal, readOnly(L, fields))
	return nil
}

func luaWhen(L *lua.LState) int {
	if L.CheckBool(1) {
		L.Push(L.Get(2))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

// readOnly wraps fields in an empty proxy whose metatable forwards reads
// and rejects writes. The metatable itself is hidden from getmetatable.
func readOnly(L *lua.LState, fields *lua.LTable) *lua.LTable {
	mt := L.NewTable()
	mt.RawSetString("__index", fields)
	mt.RawSetString("__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("%s table is read-only", LuaGlobal)
		return 0
	}))
	mt.RawSetString("__metatable", lua.LString("protected"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)
	return proxy
}

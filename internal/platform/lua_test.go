package platform

import (
	"strings"
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func newLuaState(t *testing.T, info *Info) *lua.LState {
	t.Helper()
	L := lua.NewState()
	t.Cleanup(L.Close)
	if err := InjectPlatformTable(L, info); err != nil {
		t.Fatalf("InjectPlatformTable() error = %v", err)
	}
	return L
}

// eval runs a Lua expression and returns its value rendered with tostring.
func eval(t *testing.T, L *lua.LState, expr string) string {
	t.Helper()
	if err := L.DoString("return tostring(" + expr + ")"); err != nil {
		t.Fatalf("%s: %v", expr, err)
	}
	v := L.Get(-1)
	L.Pop(1)
	return v.String()
}

func TestInjectPlatformTable(t *testing.T) {
	L := newLuaState(t, &Info{
		OS:      "linux",
		Arch:    "arm",
		ArchRaw: "arm",
		Version: "22.04",
		Distro:  "ubuntu",
	})

	tests := map[string]string{
		"platform.os":                             "linux",
		"platform.arch":                           "arm",
		"platform.arch_raw":                       "arm",
		"platform.version":                        "22.04",
		"platform.distro":                         "ubuntu",
		"platform.bits":                           "32",
		"platform.is_linux":                       "true",
		"platform.is_macos":                       "false",
		"platform.is_windows":                     "false",
		"platform.is_64bit":                       "false",
		`platform.when(platform.is_linux, "x")`:   "x",
		`platform.when(platform.is_windows, "x")`: "nil",
	}
	for expr, want := range tests {
		if got := eval(t, L, expr); got != want {
			t.Errorf("%s = %s, want %s", expr, got, want)
		}
	}
}

func TestInjectPlatformTable_NoDistro(t *testing.T) {
	L := newLuaState(t, &Info{OS: "windows", Arch: "amd64"})

	if got := eval(t, L, "platform.distro"); got != "nil" {
		t.Errorf("distro = %s, want nil on Windows", got)
	}
	if got := eval(t, L, "platform.bits"); got != "64" {
		t.Errorf("bits = %s, want 64", got)
	}
}

func TestInjectPlatformTable_ReadOnly(t *testing.T) {
	L := newLuaState(t, &Info{OS: "linux", Arch: "amd64"})

	err := L.DoString(`platform.os = "windows"`)
	if err == nil {
		t.Fatal("expected error writing to read-only platform table")
	}
	if !strings.Contains(err.Error(), "read-only") {
		t.Errorf("unexpected error: %v", err)
	}
	if got := eval(t, L, "platform.os"); got != "linux" {
		t.Errorf("platform.os = %s after rejected write", got)
	}

	if err := L.DoString(`setmetatable(platform, {})`); err == nil {
		t.Error("expected error replacing protected metatable")
	}
}

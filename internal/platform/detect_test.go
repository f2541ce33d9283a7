package platform

import (
	"context"
	"runtime"
	"testing"
)

func TestRealDetector_Detect(t *testing.T) {
	info, err := NewDetector().Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if info.OS != runtime.GOOS {
		t.Errorf("OS = %v, want %v", info.OS, runtime.GOOS)
	}
	if info.ArchRaw != runtime.GOARCH {
		t.Errorf("ArchRaw = %v, want %v", info.ArchRaw, runtime.GOARCH)
	}
	if info.Arch == "" {
		t.Error("Arch should not be empty")
	}
	if runtime.GOOS != "linux" && info.Distro != "" {
		t.Errorf("Distro should be empty on non-Linux, got %v", info.Distro)
	}
}

func TestRealDetector_UnsupportedArch(t *testing.T) {
	d := &RealDetector{goos: "linux", goarch: "mips"}
	if _, err := d.Detect(context.Background()); err == nil {
		t.Error("expected error for unsupported architecture")
	}
}

func TestRealDetector_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A cancelled context either fails fast or, if gopsutil never consults
	// it, still returns OS and arch.
	info, err := NewDetector().Detect(ctx)
	if err == nil && info.OS != runtime.GOOS {
		t.Errorf("OS = %v, want %v", info.OS, runtime.GOOS)
	}
}

func TestInfo_Predicates(t *testing.T) {
	tests := []struct {
		name    string
		info    Info
		linux   bool
		macos   bool
		windows bool
		is64    bool
		bits    string
	}{
		{name: "linux_amd64", info: Info{OS: "linux", Arch: "amd64"}, linux: true, is64: true, bits: "64"},
		{name: "macos_arm64", info: Info{OS: "darwin", Arch: "arm64"}, macos: true, is64: true, bits: "64"},
		{name: "windows_386", info: Info{OS: "windows", Arch: "386"}, windows: true, bits: "32"},
		{name: "linux_arm", info: Info{OS: "linux", Arch: "arm"}, linux: true, bits: "32"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.IsLinux(); got != tt.linux {
				t.Errorf("IsLinux() = %v, want %v", got, tt.linux)
			}
			if got := tt.info.IsMacOS(); got != tt.macos {
				t.Errorf("IsMacOS() = %v, want %v", got, tt.macos)
			}
			if got := tt.info.IsWindows(); got != tt.windows {
				t.Errorf("IsWindows() = %v, want %v", got, tt.windows)
			}
			if got := tt.info.Is64Bit(); got != tt.is64 {
				t.Errorf("Is64Bit() = %v, want %v", got, tt.is64)
			}
			if got := tt.info.Bits(); got != tt.bits {
				t.Errorf("Bits() = %v, want %v", got, tt.bits)
			}
		})
	}
}

func TestStatic(t *testing.T) {
	want := &Info{OS: "windows", Arch: "amd64", Version: "10.0.19045"}
	got, err := Static{Info: want}.Detect(context.Background())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if got != want {
		t.Errorf("Detect() = %+v, want %+v", got, want)
	}
}

// Package platform detects the operating system, CPU architecture and OS
// version of the machine the client runs on.
//
// The result feeds rule evaluation (which libraries and launch arguments
// apply to this machine) and is exposed to the Lua launcher configuration
// as a read-only table.
package platform

import "context"

// Info contains platform detection information.
type Info struct {
	OS      string // runtime.GOOS: "linux", "darwin", "windows"
	Arch    string // normalized: "amd64", "386", "arm64", "arm"
	ArchRaw string // original GOARCH
	Version string // OS version as reported by the host, may be empty
	Distro  string // Linux distribution ID (e.g. "ubuntu"), empty elsewhere
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.OS == "linux"
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.OS == "darwin"
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.OS == "windows"
}

// Is64Bit returns true on 64-bit architectures.
func (i *Info) Is64Bit() bool {
	return i.Arch == "amd64" || i.Arch == "arm64"
}

// Bits returns "64" or "32", the value native classifiers substitute for
// ${arch}.
func (i *Info) Bits() string {
	if i.Is64Bit() {
		return "64"
	}
	return "32"
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// Static is a Detector that always returns the same Info.
type Static struct {
	Info *Info
}

// Detect returns the fixed Info.
func (s Static) Detect(ctx context.Context) (*Info, error) {
	return s.Info, nil
}

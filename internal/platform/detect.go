package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct {
	goos   string
	goarch string
}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{goos: runtime.GOOS, goarch: runtime.GOARCH}
}

// Detect performs platform detection and returns platform information.
// OS and architecture come from the Go runtime; the OS version (and the
// distribution on Linux) come from gopsutil.
//
// If gopsutil cannot determine the version the fields stay empty and
// detection still succeeds: version-conditional rules then simply do not
// match.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:      d.goos,
		ArchRaw: d.goarch,
	}

	arch, err := normalizeArch(d.goarch)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}
	info.Arch = arch

	platform, _, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	info.Version = normalizeVersion(version)
	if info.IsLinux() {
		info.Distro = normalizeID(platform)
	}

	return info, nil
}

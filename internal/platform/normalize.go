package platform

import (
	"fmt"
	"strings"
)

// normalizeArch converts GOARCH (or uname-style) values to the names used
// throughout cairn.
func normalizeArch(arch string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(arch)) {
	case "amd64", "x86_64":
		return "amd64", nil
	case "386", "i386", "i686", "x86":
		return "386", nil
	case "arm64", "aarch64":
		return "arm64", nil
	case "arm", "armv7", "armv7l":
		return "arm", nil
	default:
		return "", fmt.Errorf("unsupported architecture: %q", arch)
	}
}

// normalizeID lowercases and trims a distribution ID.
func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// normalizeVersion trims a version string. Case is kept; rule patterns
// match against it verbatim.
func normalizeVersion(version string) string {
	return strings.TrimSpace(version)
}

package platform

import (
	"testing"
)

func TestNormalizeArch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"amd64", "amd64", "amd64", false},
		{"x86_64", "x86_64", "amd64", false},
		{"386", "386", "386", false},
		{"i686", "i686", "386", false},
		{"arm64", "arm64", "arm64", false},
		{"aarch64 uppercase", "AARCH64", "arm64", false},
		{"arm", "arm", "arm", false},
		{"armv7l", "armv7l", "arm", false},
		{"unknown", "riscv64", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeArch(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("normalizeArch() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("normalizeArch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeID(t *testing.T) {
	if got := normalizeID("  Ubuntu "); got != "ubuntu" {
		t.Errorf("normalizeID() = %q, want ubuntu", got)
	}
	if got := normalizeVersion(" 10.0.19045 Build 19045 "); got != "10.0.19045 Build 19045" {
		t.Errorf("normalizeVersion() = %q", got)
	}
}

package digest

import (
	"crypto/sha1" //nolint:gosec
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zeebo/blake3"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "artifact.bin")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

func TestFile(t *testing.T) {
	content := "hello artifact"
	path := writeFile(t, content)

	s1 := sha1.Sum([]byte(content)) //nolint:gosec
	s256 := sha256.Sum256([]byte(content))
	s512 := sha512.Sum512([]byte(content))
	b3 := blake3.Sum256([]byte(content))

	tests := []struct {
		alg  Algorithm
		want string
	}{
		{SHA1, hex.EncodeToString(s1[:])},
		{SHA256, hex.EncodeToString(s256[:])},
		{SHA512, hex.EncodeToString(s512[:])},
		{BLAKE3, hex.EncodeToString(b3[:])},
	}

	for _, tt := range tests {
		t.Run(tt.alg.String(), func(t *testing.T) {
			got, err := File(path, tt.alg)
			if err != nil {
				t.Fatalf("File() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("File() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFile_LargerThanChunk(t *testing.T) {
	content := strings.Repeat("x", ChunkSize*3+17)
	path := writeFile(t, content)

	want := sha256.Sum256([]byte(content))
	got, err := File(path, SHA256)
	if err != nil {
		t.Fatalf("File() error = %v", err)
	}
	if got != hex.EncodeToString(want[:]) {
		t.Errorf("digest mismatch for multi-chunk file")
	}
}

func TestFile_Missing(t *testing.T) {
	if _, err := File(filepath.Join(t.TempDir(), "nope"), SHA1); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseSum(t *testing.T) {
	sha1Hex := strings.Repeat("a", 40)
	sha256Hex := strings.Repeat("b", 64)
	sha512Hex := strings.Repeat("c", 128)

	tests := []struct {
		name    string
		input   string
		want    Sum
		wantErr bool
	}{
		{name: "bare_sha1", input: sha1Hex, want: Sum{SHA1, sha1Hex}},
		{name: "bare_sha256", input: sha256Hex, want: Sum{SHA256, sha256Hex}},
		{name: "bare_sha512", input: sha512Hex, want: Sum{SHA512, sha512Hex}},
		{name: "prefixed_blake3", input: "blake3:" + sha256Hex, want: Sum{BLAKE3, sha256Hex}},
		{name: "uppercase_normalized", input: "SHA1:" + strings.ToUpper(sha1Hex), want: Sum{SHA1, sha1Hex}},
		{name: "empty", input: "", wantErr: true},
		{name: "unknown_length", input: "abcd", wantErr: true},
		{name: "wrong_length_for_prefix", input: "sha512:" + sha1Hex, wantErr: true},
		{name: "unknown_algorithm", input: "md5:" + strings.Repeat("d", 32), wantErr: true},
		{name: "not_hex", input: strings.Repeat("z", 40), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSum(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSum() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseSum() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatches(t *testing.T) {
	path := writeFile(t, "payload")
	sum := sha512.Sum512([]byte("payload"))
	want := Sum{Algorithm: SHA512, Hex: hex.EncodeToString(sum[:])}

	ok, err := Matches(path, want)
	if err != nil || !ok {
		t.Fatalf("Matches() = %v, %v; want true, nil", ok, err)
	}

	want.Hex = strings.Repeat("0", 128)
	ok, err = Matches(path, want)
	if err != nil || ok {
		t.Errorf("Matches() with wrong digest = %v, %v; want false, nil", ok, err)
	}
}

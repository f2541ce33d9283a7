package service

import (
	"context"
	"encoding/json"
	"os"
	"testing"
)

func TestCurateService_Update(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, `{"main": [{"path": "a.txt", "url": "http://x/a.txt", "sha1": "`+sha1Hex(aContent)+`"}]}`)
	writeFile(t, f.local("a.txt"), aContent)
	writeFile(t, f.local("mods/Cool Mod.jar"), modContent)

	svc := NewCurateService(f.s)

	dry, err := svc.Update(ctx, CurateRequest{DryRun: true})
	if err != nil {
		t.Fatalf("dry run error = %v", err)
	}
	if dry.Written {
		t.Error("dry run wrote the manifest")
	}
	if len(dry.Added) != 1 || dry.Added[0] != "mods/Cool_Mod.jar" {
		t.Errorf("dry run Added = %v", dry.Added)
	}
	if _, err := os.Stat(f.local("mods/Cool Mod.jar")); err != nil {
		t.Error("dry run renamed a file")
	}

	res, err := svc.Update(ctx, CurateRequest{})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !res.Written {
		t.Error("manifest not written")
	}
	if _, err := os.Stat(f.local("mods/Cool_Mod.jar")); err != nil {
		t.Errorf("file not renamed: %v", err)
	}

	m, err := f.s.Manifest()
	if err != nil {
		t.Fatalf("Manifest() error = %v", err)
	}
	if len(m.Main) != 2 || m.Main[1].Path != "mods/Cool_Mod.jar" {
		t.Errorf("manifest main = %d entries", len(m.Main))
	}

	again, err := svc.Update(ctx, CurateRequest{})
	if err != nil {
		t.Fatalf("second Update() error = %v", err)
	}
	if again.Written || len(again.Added) != 0 {
		t.Errorf("second update = %+v, want no change", again)
	}
}

func TestCurateService_CreatesManifest(t *testing.T) {
	f := newFixture(t, "")
	writeFile(t, f.local("one.txt"), []byte("1"))

	res, err := NewCurateService(f.s).Update(context.Background(), CurateRequest{})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !res.Written {
		t.Fatal("manifest not created")
	}

	data, err := os.ReadFile(f.s.ManifestPath())
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Main []struct {
			Path string `json:"path"`
		} `json:"main"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Main) != 1 || doc.Main[0].Path != "one.txt" {
		t.Errorf("manifest = %s", data)
	}
}

func TestWithin(t *testing.T) {
	tests := []struct {
		root, target string
		want         string
		wantOK       bool
	}{
		{"/games/cairn", "/games/cairn/manifest.json", "manifest.json", true},
		{"/games/cairn", "/games/cairn/meta/m.json", "meta/m.json", true},
		{"/games/cairn", "/etc/m.json", "", false},
		{"/games/cairn", "/games/cairn", "", false},
	}
	for _, tt := range tests {
		got, ok := within(tt.root, tt.target)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("within(%q, %q) = %q, %v", tt.root, tt.target, got, ok)
		}
	}
}

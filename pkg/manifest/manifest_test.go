package manifest_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/o3de-mps/mpsexport/pkg/manifest"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestReadProject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "project.json", `{
		"project_name": "MultiplayerSample",
		"engine": "o3de",
		"gem_names": ["Atom", {"name": "MPSGameLift", "optional": true}, "Multiplayer"]
	}`)

	p, err := manifest.ReadProject(dir)
	if err != nil {
		t.Fatalf("ReadProject() error = %v", err)
	}
	if p.Name != "MultiplayerSample" || p.Path != dir {
		t.Errorf("unexpected project %+v", p)
	}
	want := []string{"Atom", "MPSGameLift", "Multiplayer"}
	if !reflect.DeepEqual(p.GemNames(), want) {
		t.Errorf("GemNames() = %v, want %v", p.GemNames(), want)
	}
	if !p.HasGem("MPSGameLift") || p.HasGem("AWSGameLift") {
		t.Error("HasGem mismatch")
	}
	if !p.Gems[1].Optional {
		t.Error("expected optional flag from object entry")
	}
}

func TestReadProject_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{"no gems", `{"project_name": "P", "gem_names": []}`, manifest.ErrNoGems},
		{"no name", `{"gem_names": ["Atom"]}`, nil},
		{"bad gem", `{"project_name": "P", "gem_names": [42]}`, nil},
		{"not json", `project_name = P`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "project.json", tt.content)
			_, err := manifest.ReadProject(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestReadProject_Missing(t *testing.T) {
	_, err := manifest.ReadProject(t.TempDir())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want not-exist", err)
	}
}

func TestReadEngine(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "engine.json", `{"engine_name": "o3de", "version": "2.3.0"}`)

	e, err := manifest.Reader{}.ReadEngine(dir)
	if err != nil {
		t.Fatal(err)
	}
	if e.Name != "o3de" || e.Version != "2.3.0" {
		t.Errorf("unexpected engine %+v", e)
	}
}

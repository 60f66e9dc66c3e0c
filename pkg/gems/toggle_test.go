package gems_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/o3de-mps/mpsexport/pkg/gems"
	"github.com/o3de-mps/mpsexport/pkg/manifest"
)

const projectJSON = `{
    "project_name": "MultiplayerSample",
    "restricted": "MultiplayerSample",
    "gem_names": ["Atom", {"name": "MPSGameLift", "optional": false}, "Multiplayer"]
}`

func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "project.json"), []byte(projectJSON), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func gemNames(t *testing.T, dir string) []string {
	t.Helper()
	p, err := manifest.ReadProject(dir)
	if err != nil {
		t.Fatal(err)
	}
	return p.GemNames()
}

func TestDisableThenEnable(t *testing.T) {
	dir := setupProject(t)
	toggler := gems.NewToggler(nil)
	ctx := context.Background()

	if err := toggler.DisableGem(ctx, dir, "MPSGameLift"); err != nil {
		t.Fatalf("DisableGem() error = %v", err)
	}
	if got, want := gemNames(t, dir), []string{"Atom", "Multiplayer"}; !reflect.DeepEqual(got, want) {
		t.Errorf("after disable gems = %v, want %v", got, want)
	}

	if err := toggler.EnableGem(ctx, dir, "MPSGameLift"); err != nil {
		t.Fatalf("EnableGem() error = %v", err)
	}
	if got, want := gemNames(t, dir), []string{"Atom", "Multiplayer", "MPSGameLift"}; !reflect.DeepEqual(got, want) {
		t.Errorf("after enable gems = %v, want %v", got, want)
	}

	data, err := os.ReadFile(filepath.Join(dir, "project.json"))
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["restricted"] != "MultiplayerSample" {
		t.Error("unrelated manifest keys must be preserved")
	}
}

func TestToggle_NoOpWhenAlreadyInState(t *testing.T) {
	dir := setupProject(t)
	file := filepath.Join(dir, "project.json")
	before, _ := os.ReadFile(file)

	toggler := gems.NewToggler(nil)
	if err := toggler.EnableGem(context.Background(), dir, "Atom"); err != nil {
		t.Fatal(err)
	}
	if err := toggler.DisableGem(context.Background(), dir, "AWSGameLift"); err != nil {
		t.Fatal(err)
	}

	after, _ := os.ReadFile(file)
	if string(before) != string(after) {
		t.Error("manifest should not be rewritten for a no-op toggle")
	}
}

func TestToggle_Errors(t *testing.T) {
	toggler := gems.NewToggler(nil)
	ctx := context.Background()

	if err := toggler.EnableGem(ctx, t.TempDir(), "MPSGameLift"); err == nil {
		t.Error("expected error for missing manifest")
	}
	if err := toggler.EnableGem(ctx, setupProject(t), ""); err == nil {
		t.Error("expected error for empty gem name")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := toggler.DisableGem(cancelled, setupProject(t), "Atom"); err == nil {
		t.Error("expected error for cancelled context")
	}
}

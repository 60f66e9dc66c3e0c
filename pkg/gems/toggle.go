// Package gems enables and disables gems in a project's manifest.
package gems

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/o3de-mps/mpsexport/pkg/logger"
	"github.com/o3de-mps/mpsexport/pkg/manifest"
)

// Toggler edits the gem_names list of project.json in place. Every other key
// in the manifest is carried over untouched.
type Toggler struct {
	logger logger.Logger
}

// NewToggler creates a Toggler
func NewToggler(log logger.Logger) *Toggler {
	return &Toggler{logger: logger.OrNop(log)}
}

// EnableGem adds gem to the project. Enabling a gem that is already listed
// is a no-op.
func (t *Toggler) EnableGem(ctx context.Context, projectPath, gem string) error {
	return t.update(ctx, projectPath, gem, func(entries []json.RawMessage, idx []int) ([]json.RawMessage, bool, error) {
		if len(idx) > 0 {
			return entries, false, nil
		}
		raw, err := json.Marshal(gem)
		if err != nil {
			return nil, false, err
		}
		return append(entries, raw), true, nil
	}, "Enabled")
}

// DisableGem removes every entry for gem. Disabling a gem that is not listed
// is a no-op.
func (t *Toggler) DisableGem(ctx context.Context, projectPath, gem string) error {
	return t.update(ctx, projectPath, gem, func(entries []json.RawMessage, idx []int) ([]json.RawMessage, bool, error) {
		if len(idx) == 0 {
			return entries, false, nil
		}
		drop := make(map[int]bool, len(idx))
		for _, i := range idx {
			drop[i] = true
		}
		kept := make([]json.RawMessage, 0, len(entries)-len(idx))
		for i, e := range entries {
			if !drop[i] {
				kept = append(kept, e)
			}
		}
		return kept, true, nil
	}, "Disabled")
}

type editFunc func(entries []json.RawMessage, matches []int) ([]json.RawMessage, bool, error)

func (t *Toggler) update(ctx context.Context, projectPath, gem string, edit editFunc, verb string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if gem == "" {
		return fmt.Errorf("gem name is required")
	}

	file := filepath.Join(projectPath, manifest.ProjectFile)
	info, err := os.Stat(file)
	if err != nil {
		return fmt.Errorf("reading project manifest: %w", err)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading project manifest: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid project manifest %s: %w", file, err)
	}

	var entries []json.RawMessage
	if raw, ok := doc["gem_names"]; ok {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("invalid gem_names in %s: %w", file, err)
		}
	}

	var matches []int
	for i, raw := range entries {
		var ref manifest.GemRef
		if err := json.Unmarshal(raw, &ref); err != nil {
			return fmt.Errorf("invalid gem_names in %s: %w", file, err)
		}
		if ref.Name == gem {
			matches = append(matches, i)
		}
	}

	entries, changed, err := edit(entries, matches)
	if err != nil {
		return err
	}
	if !changed {
		t.logger.Debug(fmt.Sprintf("Gem '%s' already in requested state", gem))
		return nil
	}

	if entries == nil {
		entries = []json.RawMessage{}
	}
	gemsRaw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	doc["gem_names"] = gemsRaw

	out, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("encoding project manifest: %w", err)
	}
	if err := writeAtomic(file, append(out, '\n'), info.Mode().Perm()); err != nil {
		return err
	}

	t.logger.Info(fmt.Sprintf("%s gem '%s' in project %s", verb, gem, projectPath))
	return nil
}

func writeAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("writing project manifest: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing project manifest: %w", err)
	}
	return nil
}

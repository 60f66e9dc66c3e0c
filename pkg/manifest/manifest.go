// Package manifest reads O3DE project.json and engine.json files.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	ProjectFile = "project.json"
	EngineFile  = "engine.json"
)

// ErrNoGems is returned for a project manifest without a gem list.
var ErrNoGems = errors.New("project manifest has no gem_names")

// GemRef is one gem_names entry. The manifest allows either a bare name or an
// object with a name and an optional flag.
type GemRef struct {
	Name     string `json:"name"`
	Optional bool   `json:"optional,omitempty"`
}

// UnmarshalJSON accepts "Name" as well as {"name": "Name", ...}.
func (g *GemRef) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*g = GemRef{Name: name}
		return nil
	}
	type plain GemRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("gem entry must be a string or an object with a name: %w", err)
	}
	if p.Name == "" {
		return errors.New("gem entry object has no name")
	}
	*g = GemRef(p)
	return nil
}

// Project holds the parts of project.json the exporter cares about.
type Project struct {
	Path         string   `json:"-"`
	Name         string   `json:"project_name"`
	DisplayName  string   `json:"display_name,omitempty"`
	Engine       string   `json:"engine,omitempty"`
	Gems         []GemRef `json:"gem_names"`
	ExternalDirs []string `json:"external_subdirectories,omitempty"`
}

// HasGem reports whether name is listed in gem_names.
func (p *Project) HasGem(name string) bool {
	for _, g := range p.Gems {
		if g.Name == name {
			return true
		}
	}
	return false
}

// GemNames returns the gem names in manifest order.
func (p *Project) GemNames() []string {
	names := make([]string, len(p.Gems))
	for i, g := range p.Gems {
		names[i] = g.Name
	}
	return names
}

// Engine holds the parts of engine.json the exporter cares about.
type Engine struct {
	Path    string `json:"-"`
	Name    string `json:"engine_name"`
	Version string `json:"version,omitempty"`
}

// ReadProject loads <projectPath>/project.json. A manifest without a project
// name or gem list is rejected.
func ReadProject(projectPath string) (*Project, error) {
	file := filepath.Join(projectPath, ProjectFile)
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading project manifest: %w", err)
	}

	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid project manifest %s: %w", file, err)
	}
	if p.Name == "" {
		return nil, fmt.Errorf("invalid project manifest %s: missing project_name", file)
	}
	if len(p.Gems) == 0 {
		return nil, fmt.Errorf("invalid project manifest %s: %w", file, ErrNoGems)
	}
	p.Path = projectPath
	return &p, nil
}

// ReadEngine loads <enginePath>/engine.json.
func ReadEngine(enginePath string) (*Engine, error) {
	file := filepath.Join(enginePath, EngineFile)
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading engine manifest: %w", err)
	}

	var e Engine
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("invalid engine manifest %s: %w", file, err)
	}
	e.Path = enginePath
	return &e, nil
}

// Reader adapts the package functions to an interface-friendly value.
type Reader struct{}

// ReadProject implements the pipeline's manifest reader.
func (Reader) ReadProject(projectPath string) (*Project, error) {
	return ReadProject(projectPath)
}

// ReadEngine implements the pipeline's manifest reader.
func (Reader) ReadEngine(enginePath string) (*Engine, error) {
	return ReadEngine(enginePath)
}

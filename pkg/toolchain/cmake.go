// Package toolchain builds CMake command lines and locates the O3DE asset
// tools produced by a tools build.
package toolchain

import (
	"sort"
	"strings"
)

// CMake assembles configure and build invocations with chainable setters.
// It only produces argument lists; running them is the caller's business.
type CMake struct {
	Program    string
	SourceDir  string
	BuildDir   string
	generator  string
	config     string
	defines    map[string]string
	targets    []string
	nativeArgs []string
}

// New creates a CMake helper for the given source and build directories.
func New(sourceDir, buildDir string) *CMake {
	return &CMake{
		Program:   "cmake",
		SourceDir: sourceDir,
		BuildDir:  buildDir,
		defines:   map[string]string{},
	}
}

func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

// Config sets the multi-config build configuration passed to --config.
func (c *CMake) Config(name string) *CMake {
	c.config = name
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	c.defines[key] = value
	return c
}

// DefineBool sets key to 1 or 0, the form O3DE's cache variables expect.
func (c *CMake) DefineBool(key string, value bool) *CMake {
	if value {
		return c.Define(key, "1")
	}
	return c.Define(key, "0")
}

// Targets appends build targets, skipping duplicates.
func (c *CMake) Targets(names ...string) *CMake {
	for _, n := range names {
		if n == "" || contains(c.targets, n) {
			continue
		}
		c.targets = append(c.targets, n)
	}
	return c
}

// NativeArgs are passed to the underlying build tool after "--".
func (c *CMake) NativeArgs(args ...string) *CMake {
	c.nativeArgs = append(c.nativeArgs, args...)
	return c
}

// ConfigureArgs returns: cmake -B <build> -S <source> [-G gen] [-DKEY=VALUE...]
func (c *CMake) ConfigureArgs() []string {
	args := []string{c.Program, "-B", c.BuildDir, "-S", c.SourceDir}
	if c.generator != "" {
		args = append(args, "-G", c.generator)
	}
	return append(args, c.definesArgs()...)
}

// BuildArgs returns: cmake --build <build> [--target t...] [--config c] [-- native...]
func (c *CMake) BuildArgs() []string {
	args := []string{c.Program, "--build", c.BuildDir}
	if len(c.targets) > 0 {
		args = append(args, "--target")
		args = append(args, c.targets...)
	}
	if c.config != "" {
		args = append(args, "--config", c.config)
	}
	if len(c.nativeArgs) > 0 {
		args = append(args, "--")
		args = append(args, c.nativeArgs...)
	}
	return args
}

func (c *CMake) definesArgs() []string {
	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, "-D"+k+"="+c.defines[k])
	}
	return args
}

func (c *CMake) String() string {
	return strings.Join(c.BuildArgs(), " ")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

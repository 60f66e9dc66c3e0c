package toolchain

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// CacheFile is the name of the cache CMake writes into a build directory.
const CacheFile = "CMakeCache.txt"

var cacheEntry = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.\-]*)(?::[A-Z]+)?=(.*)$`)

// Cache holds the variables of an existing build directory.
type Cache map[string]string

// ReadCache parses <buildDir>/CMakeCache.txt. A directory that was never
// configured yields an error wrapping os.ErrNotExist.
func ReadCache(buildDir string) (Cache, error) {
	file, err := os.Open(filepath.Join(buildDir, CacheFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	cache := Cache{}
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}
		if m := cacheEntry.FindStringSubmatch(line); m != nil {
			cache[m[1]] = m[2]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", CacheFile, err)
	}
	return cache, nil
}

// Generator returns the generator the directory was configured with.
func (c Cache) Generator() string {
	return c["CMAKE_GENERATOR"]
}

// Monolithic reports the LY_MONOLITHIC_GAME setting and whether it was set.
func (c Cache) Monolithic() (bool, bool) {
	v, ok := c["LY_MONOLITHIC_GAME"]
	if !ok {
		return false, false
	}
	switch strings.ToUpper(v) {
	case "1", "ON", "TRUE", "YES":
		return true, true
	}
	return false, true
}

var knownGenerators = []string{
	"Unix Makefiles",
	"Ninja",
	"Xcode",
	"Visual Studio",
}

// ValidateGenerator rejects generators O3DE cannot build with. Empty means
// CMake's default and is accepted.
func ValidateGenerator(generator string) error {
	if generator == "" {
		return nil
	}
	for _, valid := range knownGenerators {
		if strings.Contains(generator, valid) {
			return nil
		}
	}
	return fmt.Errorf("unsupported generator: %s", generator)
}

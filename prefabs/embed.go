package prefabs

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed levels/*.yaml
var LevelsFS embed.FS

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

// DiskRoot is where on-disk overrides are looked up, relative to the
// working directory.
var DiskRoot = "prefabs"

// Load returns a level file. An existing path on disk wins, then an override
// under DiskRoot/levels, then the embedded copy.
func Load(name string) ([]byte, error) {
	if isExplicitPath(name) {
		return os.ReadFile(name)
	}
	clean := cleanLevelPath(name)
	if data, err := os.ReadFile(diskPath(clean)); err == nil {
		return data, nil
	}
	data, err := LevelsFS.ReadFile(clean)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("level %q not found: %w", name, err)
	}
	return data, err
}

// LoadScript returns a script by name with the same override order as Load.
func LoadScript(name string) ([]byte, error) {
	if isExplicitPath(name) {
		return os.ReadFile(name)
	}
	clean := cleanScriptPath(name)
	if data, err := os.ReadFile(diskPath(clean)); err == nil {
		return data, nil
	}
	return ScriptsFS.ReadFile(clean)
}

// ModTime reports the modification time of a disk override.
func ModTime(name string) (time.Time, bool) {
	path := name
	if !isExplicitPath(name) {
		path = diskPath(cleanLevelPath(name))
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

// Levels lists the embedded level names.
func Levels() []string {
	entries, err := LevelsFS.ReadDir("levels")
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}

func isExplicitPath(name string) bool {
	if name == "" || !strings.ContainsRune(filepath.ToSlash(name), '/') {
		return false
	}
	if strings.HasPrefix(filepath.ToSlash(name), "levels/") || strings.HasPrefix(filepath.ToSlash(name), "scripts/") {
		return false
	}
	_, err := os.Stat(name)
	return err == nil
}

func cleanLevelPath(path string) string {
	s := filepath.ToSlash(path)
	s = strings.TrimPrefix(s, "prefabs/")
	s = strings.TrimPrefix(s, "levels/")
	if filepath.Ext(s) == "" {
		s += ".yaml"
	}
	return "levels/" + s
}

func cleanScriptPath(path string) string {
	s := filepath.ToSlash(path)
	s = strings.TrimPrefix(s, "prefabs/")
	s = strings.TrimPrefix(s, "scripts/")
	return "scripts/" + s
}

func diskPath(clean string) string {
	return filepath.Join(DiskRoot, filepath.FromSlash(clean))
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

package datadriven

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// ProjectFile is the name of the optional configuration file of a fixture directory.
const ProjectFile = "datadriven.toml"

// ProjectConfig holds the fixture discovery settings of a directory.
type ProjectConfig struct {
	// Pattern is matched against base names; empty selects every file.
	Pattern string `toml:"pattern"`
	// Recursive descends into sub-directories.
	Recursive bool `toml:"recursive"`
	// Skip lists directory names that are never descended into.
	Skip []string `toml:"skip"`
	// UniqueNames requires fixture base names (without extension) to be unique.
	UniqueNames bool `toml:"unique_names"`

	dir string // resolved absolute base directory
}

// LoadProjectConfig loads the fixture configuration of a directory.
// It reads datadriven.toml if present; a missing file yields the defaults.
func LoadProjectConfig(dir string) (*ProjectConfig, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve dir: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	cfg := &ProjectConfig{}
	data, err := os.ReadFile(filepath.Join(absDir, ProjectFile))
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", ProjectFile, err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", ProjectFile, err)
	}
	cfg.dir = absDir

	if cfg.Pattern != "" {
		if _, err := filepath.Match(cfg.Pattern, ""); err != nil {
			return nil, fmt.Errorf("%s: pattern %q: %w", ProjectFile, cfg.Pattern, err)
		}
	}
	return cfg, nil
}

// Dir returns the absolute directory the configuration applies to.
func (cfg *ProjectConfig) Dir() string { return cfg.dir }

// Files returns the fixture files of the directory in lexical order.
// Hidden files and directories and the configuration file itself are ignored.
func (cfg *ProjectConfig) Files() ([]string, error) {
	skip := make(map[string]bool, len(cfg.Skip))
	for _, name := range cfg.Skip {
		skip[name] = true
	}

	var files []string
	err := filepath.WalkDir(cfg.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path == cfg.dir {
				return nil
			}
			if !cfg.Recursive || strings.HasPrefix(name, ".") || skip[name] {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || name == ProjectFile || !d.Type().IsRegular() {
			return nil
		}
		if cfg.Pattern != "" {
			if ok, _ := filepath.Match(cfg.Pattern, name); !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

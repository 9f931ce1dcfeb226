package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
)

// Loader retrieves the persisted Config. Config-file parsing and path
// defaulting live here as a small injectable seam (per spec.md §1, path
// defaults are an external collaborator concern); Manager only depends on
// this interface so tests can substitute MemLoader.
type Loader interface {
	Load() (Config, error)
}

// Saver persists a Config. FileLoader implements it; a test double can omit
// it (Manager's Put and Replace skip persistence for a non-Saver loader).
type Saver interface {
	Save(Config) error
}

// FileLoader reads and writes Config as indented JSON at a fixed path,
// creating a default document on first Load if none exists. Grounded on
// internal/config/fs.go's filesystem loader shape in the teacher, stripped
// of the fsnotify watch loop and the xDS Instance/Version machinery: the
// control surface is this repo's config-change notification path, not a
// background watcher.
type FileLoader struct {
	path string
	log  logr.Logger
}

// NewFileLoader constructs a FileLoader rooted at path. An empty path uses
// DefaultPath().
func NewFileLoader(path string, log logr.Logger) *FileLoader {
	if path == "" {
		path = DefaultPath()
	}
	return &FileLoader{path: path, log: log.WithName("config-fs")}
}

// DefaultPath follows the XDG base directory spec:
// $XDG_CONFIG_HOME/khord/config.json, falling back to
// $HOME/.config/khord/config.json. khord is a single-user desktop daemon,
// not a host agent, so there is no fixed /etc path.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "khord", "config.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "khord-config.json")
	}
	return filepath.Join(home, ".config", "khord", "config.json")
}

// Load reads and validates the config file, writing a default document in
// its place if the file does not exist yet.
func (f *FileLoader) Load() (Config, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		def := Default()
		if saveErr := f.Save(def); saveErr != nil {
			f.log.Error(saveErr, "failed to write default config", "path", f.path)
		}
		return def, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", f.path, err)
	}
	return Parse(data)
}

// Save writes c as indented JSON, creating parent directories as needed.
func (f *FileLoader) Save(c Config) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir %s: %w", filepath.Dir(f.path), err)
	}
	b, err := Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(f.path, b, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", f.path, err)
	}
	return nil
}

// MemLoader is an in-memory Loader/Saver used by tests in place of
// FileLoader, mirroring the teacher's pattern of accepting an injected
// Loader rather than hardcoding file IO.
type MemLoader struct {
	Config Config
}

func (m *MemLoader) Load() (Config, error) { return m.Config, nil }
func (m *MemLoader) Save(c Config) error   { m.Config = c; return nil }

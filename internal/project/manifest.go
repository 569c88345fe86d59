package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// ManifestName is the project manifest file looked up from the working
// directory upwards.
const ManifestName = "scriptc.toml"

// Manifest is a decoded scriptc.toml.
type Manifest struct {
	Path   string `toml:"-"`
	Root   string `toml:"-"`
	Config Config `toml:"-"`
}

type Config struct {
	Project  ProjectConfig  `toml:"project"`
	Analysis AnalysisConfig `toml:"analysis"`
	Trace    TraceConfig    `toml:"trace"`
}

type ProjectConfig struct {
	Name    string   `toml:"name"`
	Scripts []string `toml:"scripts"` // glob patterns relative to the manifest
}

type AnalysisConfig struct {
	Jobs  int    `toml:"jobs"`
	Cache string `toml:"cache"` // bbolt file for exported summaries, relative to the manifest
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

// FindManifest walks up from startDir to locate scriptc.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest decodes and validates the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}
	if !meta.IsDefined("project") {
		return nil, fmt.Errorf("%s: missing [project]", path)
	}
	if !meta.IsDefined("project", "name") || strings.TrimSpace(cfg.Project.Name) == "" {
		return nil, fmt.Errorf("%s: missing [project].name", path)
	}
	if len(cfg.Project.Scripts) == 0 {
		cfg.Project.Scripts = []string{"*.toml", "*.yaml", "*.yml"}
	}
	if cfg.Analysis.Jobs < 0 {
		return nil, fmt.Errorf("%s: [analysis].jobs must not be negative", path)
	}
	return &Manifest{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, nil
}

// ScriptFiles expands the [project].scripts globs into a sorted, de-duplicated
// list of files. The manifest itself is never included.
func (m *Manifest) ScriptFiles() ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	for _, pattern := range m.Config.Project.Scripts {
		matches, err := filepath.Glob(filepath.Join(m.Root, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, fmt.Errorf("%s: bad script pattern %q: %w", m.Path, pattern, err)
		}
		for _, match := range matches {
			if filepath.Base(match) == ManifestName {
				continue
			}
			if _, dup := seen[match]; dup {
				continue
			}
			seen[match] = struct{}{}
			files = append(files, match)
		}
	}
	sort.Strings(files)
	return files, nil
}

// ScriptDirs returns the manifest directory and the literal directory prefix
// of every [project].scripts pattern. New matches for the globs can only
// appear under one of them. Directories that do not exist yet are included.
func (m *Manifest) ScriptDirs() []string {
	dirs := []string{m.Root}
	seen := map[string]bool{m.Root: true}
	for _, pattern := range m.Config.Project.Scripts {
		dir := m.Root
		parts := strings.Split(filepath.ToSlash(pattern), "/")
		for _, part := range parts[:len(parts)-1] {
			if strings.ContainsAny(part, "*?[\\") {
				break
			}
			dir = filepath.Join(dir, part)
		}
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// CachePath resolves [analysis].cache against the manifest directory.
func (m *Manifest) CachePath() string {
	if m.Config.Analysis.Cache == "" {
		return ""
	}
	if filepath.IsAbs(m.Config.Analysis.Cache) {
		return m.Config.Analysis.Cache
	}
	return filepath.Join(m.Root, m.Config.Analysis.Cache)
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"scriptc/internal/project"
)

// loadManifest finds scriptc.toml above the working directory. A missing
// manifest is not an error.
func loadManifest() (*project.Manifest, error) {
	path, ok, err := project.FindManifest(".")
	if err != nil || !ok {
		return nil, err
	}
	return project.LoadManifest(path)
}

// collectScriptFiles expands args into script files. Directories contribute
// their .toml/.yaml/.yml files; with no args the manifest globs are used.
func collectScriptFiles(args []string, manifest *project.Manifest) ([]string, error) {
	if len(args) == 0 {
		if manifest == nil {
			return nil, fmt.Errorf("no %s found\nplease pass script files explicitly, e.g.:\n  scriptc resolve path/to/scripts.toml", project.ManifestName)
		}
		return manifest.ScriptFiles()
	}
	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %q: %w", arg, err)
		}
		if !info.IsDir() {
			add(arg)
			continue
		}
		listed, err := listScriptFiles(arg)
		if err != nil {
			return nil, err
		}
		for _, f := range listed {
			add(f)
		}
	}
	sort.Strings(files)
	return files, nil
}

func listScriptFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == project.ManifestName {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".toml", ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

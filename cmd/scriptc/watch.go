package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"scriptc/internal/driver"
	"scriptc/internal/project"
)

const watchDebounce = 150 * time.Millisecond

// watchSet tracks the script files selected by args (or the manifest globs)
// and keeps the watcher on every directory where a selected file can appear.
// Parent directories are watched because editors often replace files instead
// of writing them in place.
type watchSet struct {
	watcher  *fsnotify.Watcher
	args     []string
	manifest *project.Manifest

	paths []string
	files map[string]bool
	dirs  map[string]bool
}

func newWatchSet(watcher *fsnotify.Watcher, args []string, manifest *project.Manifest) (*watchSet, error) {
	w := &watchSet{
		watcher:  watcher,
		args:     args,
		manifest: manifest,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
	}
	if _, err := w.refresh(); err != nil {
		return nil, err
	}
	return w, nil
}

// refresh re-expands args or the manifest globs and starts watching any new
// directory. It reports whether the selected files changed.
func (w *watchSet) refresh() (bool, error) {
	paths, err := collectScriptFiles(w.args, w.manifest)
	if err != nil {
		return false, err
	}
	files := make(map[string]bool, len(paths))
	var dirs []string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return false, err
		}
		files[abs] = true
		dirs = append(dirs, filepath.Dir(abs))
	}
	if len(w.args) == 0 && w.manifest != nil {
		dirs = append(dirs, w.manifest.ScriptDirs()...)
	}
	for _, arg := range w.args {
		if info, err := os.Stat(arg); err == nil && info.IsDir() {
			dirs = append(dirs, arg)
		}
	}
	for _, dir := range dirs {
		if err := w.watchDir(dir); err != nil {
			return false, err
		}
	}
	changed := !maps.Equal(files, w.files)
	w.paths, w.files = paths, files
	return changed, nil
}

// watchDir adds dir to the watcher once. A glob directory that does not exist
// yet is skipped; its parent sees it being created.
func (w *watchSet) watchDir(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if w.dirs[abs] {
		return nil
	}
	if err := w.watcher.Add(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to watch %s: %w", abs, err)
	}
	w.dirs[abs] = true
	return nil
}

// handle applies one event to the set and reports whether it calls for a
// new resolve run.
func (w *watchSet) handle(event fsnotify.Event) (bool, error) {
	name := filepath.Clean(event.Name)
	if abs, err := filepath.Abs(name); err == nil {
		name = abs
	}
	touched := w.files[name] && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
	if event.Op&(fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return touched, nil
	}
	changed, err := w.refresh()
	return touched || changed, err
}

// watchAndResolve resolves the selected scripts, then again after every
// change to them or to the set of files matching args or the manifest, until
// ctx is done.
func watchAndResolve(ctx context.Context, cmd *cobra.Command, args []string, manifest *project.Manifest, cache *driver.SummaryCache, opts resolveOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer watcher.Close()

	set, err := newWatchSet(watcher, args, manifest)
	if err != nil {
		return err
	}

	run := func() {
		if _, err := resolveOnce(ctx, cmd, set.paths, cache, opts); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "resolve: %v\n", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "watching for changes...")
	}
	run()

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			rerun, err := set.handle(event)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "watch: %v\n", err)
			}
			if rerun {
				timer = time.After(watchDebounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch: %v\n", err)
		case <-timer:
			timer = nil
			run()
		}
	}
}

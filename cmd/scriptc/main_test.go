package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"

	"scriptc/internal/diag"
	"scriptc/internal/driver"
	"scriptc/internal/project"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestCollectScriptFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.yaml"), "")
	writeFile(t, filepath.Join(dir, "a.toml"), "")
	writeFile(t, filepath.Join(dir, "notes.txt"), "")
	writeFile(t, filepath.Join(dir, project.ManifestName), "")
	writeFile(t, filepath.Join(dir, "nested", "c.toml"), "")

	got, err := collectScriptFiles([]string{dir, filepath.Join(dir, "a.toml")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.toml"), filepath.Join(dir, "b.yaml")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("files (-want +got):\n%s", diff)
	}
}

func TestCollectScriptFilesNeedsArgsOrManifest(t *testing.T) {
	if _, err := collectScriptFiles(nil, nil); err == nil {
		t.Fatalf("expected error without args and manifest")
	}
	if _, err := collectScriptFiles([]string{filepath.Join(t.TempDir(), "missing.toml")}, nil); err == nil {
		t.Fatalf("expected error for missing path")
	}
}

func TestLoadScriptFilesReportsErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.toml")
	writeFile(t, bad, "[[script]]\nname = 1\n")
	bag := diag.NewBag(10)
	files := loadScriptFiles([]string{bad, filepath.Join(dir, "missing.toml")}, bag)
	if len(files) != 0 {
		t.Fatalf("loaded %d files", len(files))
	}
	var codes []diag.Code
	for _, d := range bag.Items() {
		codes = append(codes, d.Code)
	}
	if diff := cmp.Diff([]diag.Code{diag.LoadBadScriptFile, diag.IOLoadFileError}, codes); diff != "" {
		t.Errorf("codes (-want +got):\n%s", diff)
	}
}

func TestMemberLine(t *testing.T) {
	plain := func(_ lipgloss.Style, s string) string { return s }
	cases := []struct {
		kind string
		m    driver.MemberSummary
		want string
	}{
		{"val", driver.MemberSummary{Name: "x", Type: "Int", Owner: "demo.file", Modality: "final", Visibility: "public"}, "val x: Int owner demo.file"},
		{"val", driver.MemberSummary{Name: "y", Type: "String", Owner: "demo.file", Modality: "final", Visibility: "public", Mutable: true}, "var y: String owner demo.file"},
		{"fun", driver.MemberSummary{Name: "g", Type: "Unit", Owner: "demo", Modality: "open", Visibility: "private", Override: true}, "private open override fun g: Unit owner demo"},
	}
	for _, tc := range cases {
		if got := memberLine(tc.kind, tc.m, plain); got != tc.want {
			t.Errorf("memberLine(%s) = %q, want %q", tc.m.Name, got, tc.want)
		}
	}
}

func TestBuildReportSplitsFailures(t *testing.T) {
	results := []driver.Result{
		{Unit: &driver.Unit{Name: "ok"}, Summary: &driver.Summary{Script: "ok", ResultType: "Int"}},
		{Unit: &driver.Unit{Name: "bad"}, Err: errors.New("invariant violated")},
	}
	items := []diag.Diagnostic{{Severity: diag.SevError, Code: diag.SemaInvariantViolation, Script: "bad", Message: "invariant violated"}}
	report := buildReport(results, items, 10)
	if len(report.Scripts) != 1 || report.Scripts[0].Script != "ok" {
		t.Errorf("scripts = %+v", report.Scripts)
	}
	if diff := cmp.Diff([]scriptFailure{{Script: "bad", Error: "invariant violated"}}, report.Failures); diff != "" {
		t.Errorf("failures (-want +got):\n%s", diff)
	}
	if report.Diagnostics.Count != 1 || !strings.HasPrefix(report.Diagnostics.Diagnostics[0].Code, "E3") {
		t.Errorf("diagnostics = %+v", report.Diagnostics)
	}
}

func TestReadUIMode(t *testing.T) {
	for value, want := range map[string]uiMode{"": uiModeAuto, " Auto ": uiModeAuto, "on": uiModeOn, "false": uiModeOff} {
		got, err := readUIMode(value)
		if err != nil || got != want {
			t.Errorf("readUIMode(%q) = %v, %v; want %v", value, got, err, want)
		}
	}
	_, err := readUIMode("sometimes")
	if err == nil || !strings.Contains(err.Error(), "resolve: invalid --ui") {
		t.Errorf("unexpected error for bad value: %v", err)
	}
	if progressViewEnabled(uiModeOn, os.Stdout, 0) {
		t.Errorf("an empty batch must not draw the progress view")
	}
	if !progressViewEnabled(uiModeOn, os.Stdout, 1) || progressViewEnabled(uiModeOff, os.Stdout, 1) {
		t.Errorf("explicit --ui must win over terminal detection")
	}
}

func TestWatchSetPicksUpNewGlobMatches(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.toml"), "")
	manifest := &project.Manifest{Root: root}
	manifest.Config.Project.Scripts = []string{"*.toml", "scripts/*.toml"}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	defer watcher.Close()
	set, err := newWatchSet(watcher, nil, manifest)
	if err != nil {
		t.Fatalf("newWatchSet: %v", err)
	}
	if diff := cmp.Diff([]string{filepath.Join(root, "a.toml")}, set.paths); diff != "" {
		t.Fatalf("initial paths (-want +got):\n%s", diff)
	}

	// The scripts directory does not exist at startup.
	created := filepath.Join(root, "scripts", "b.toml")
	writeFile(t, created, "")
	rerun, err := set.handle(fsnotify.Event{Name: filepath.Join(root, "scripts"), Op: fsnotify.Create})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !rerun {
		t.Fatalf("a new matching file must trigger a run")
	}
	want := []string{filepath.Join(root, "a.toml"), created}
	if diff := cmp.Diff(want, set.paths); diff != "" {
		t.Errorf("paths after create (-want +got):\n%s", diff)
	}
	if !set.dirs[filepath.Join(root, "scripts")] {
		t.Errorf("new glob directory is not watched")
	}

	rerun, err = set.handle(fsnotify.Event{Name: filepath.Join(root, "notes.txt"), Op: fsnotify.Create})
	if err != nil || rerun {
		t.Errorf("unrelated file: rerun=%v err=%v", rerun, err)
	}
	rerun, err = set.handle(fsnotify.Event{Name: created, Op: fsnotify.Write})
	if err != nil || !rerun {
		t.Errorf("write to a selected file: rerun=%v err=%v", rerun, err)
	}
}

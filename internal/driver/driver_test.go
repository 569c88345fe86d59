package driver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"scriptc/internal/diag"
	"scriptc/internal/progress"
	"scriptc/internal/project"
	"scriptc/internal/sema"
	"scriptc/internal/testkit"
	"scriptc/internal/trace"
	"scriptc/internal/types"
)

const scenarioMembers = `
[[script]]
name = "members"
body = { kind = "name", name = "x" }

  [[script.decl]]
  kind = "val"
  name = "x"
  type = "Int"
  init = { kind = "int", value = "1" }

  [[script.decl]]
  kind = "fun"
  name = "f"
  type = "String"
  body = "expr"
  body_expr = { kind = "string", value = "a" }

  [[script.decl]]
  kind = "fun"
  name = "g"
  body = "block"
  body_expr = { kind = "block" }
`

const scenarioExprBody = `
[[script]]
name = "exprbody"
body = { kind = "unit" }

  [[script.decl]]
  kind = "fun"
  name = "h"
  body = "expr"
  body_expr = { kind = "int", value = "5" }
`

func parse(t *testing.T, name, content string) *project.ScriptFile {
	t.Helper()
	f, err := project.ParseScriptFile(name, []byte(content))
	if err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	return f
}

func resolve(t *testing.T, opts Options, files ...*project.ScriptFile) (*Batch, []Result) {
	t.Helper()
	if opts.Bag == nil {
		opts.Bag = diag.NewBag(100)
	}
	batch := Bind(files, opts.Bag)
	results, err := ResolveBatch(context.Background(), batch, opts)
	if err != nil {
		t.Fatalf("ResolveBatch: %v", err)
	}
	return batch, results
}

func memberNames(ms []MemberSummary) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Name)
	}
	return out
}

func TestResolveBatchScenarioAnnotatedMembers(t *testing.T) {
	bag := diag.NewBag(10)
	_, results := resolve(t, Options{Bag: bag}, parse(t, "members.toml", scenarioMembers))
	if len(results) != 1 {
		t.Fatalf("got %d results", len(results))
	}
	res := results[0]
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Summary.ResultType != "Int" {
		t.Errorf("result type = %q, want Int", res.Summary.ResultType)
	}
	if diff := cmp.Diff([]string{"x"}, memberNames(res.Summary.Properties)); diff != "" {
		t.Errorf("properties (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"f", "g"}, memberNames(res.Summary.Functions)); diff != "" {
		t.Errorf("functions (-want +got):\n%s", diff)
	}
	if bag.Len() != 0 {
		t.Errorf("unexpected diagnostics: %+v", bag.Items())
	}
}

func TestResolveBatchScenarioExpressionBody(t *testing.T) {
	_, results := resolve(t, Options{}, parse(t, "exprbody.toml", scenarioExprBody))
	res := results[0]
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Summary.ResultType != "Unit" {
		t.Errorf("result type = %q, want Unit", res.Summary.ResultType)
	}
	if len(res.Summary.Properties) != 0 || len(res.Summary.Functions) != 0 {
		t.Errorf("expected no members, got %+v / %+v", res.Summary.Properties, res.Summary.Functions)
	}
}

func TestResolveBatchReparentsFunctionsOnly(t *testing.T) {
	batch, results := resolve(t, Options{}, parse(t, "members.toml", scenarioMembers))
	u := batch.Units[0]
	if err := testkit.CheckDescriptor(batch.Env, u.Descriptor); err != nil {
		t.Fatal(err)
	}
	want := []MemberSummary{
		{Name: "f", Type: "String", Owner: "members", Modality: "final", Visibility: "public"},
		{Name: "g", Type: "Unit", Owner: "members", Modality: "final", Visibility: "public"},
	}
	if diff := cmp.Diff(want, results[0].Summary.Functions); diff != "" {
		t.Errorf("functions (-want +got):\n%s", diff)
	}
	if got := results[0].Summary.Properties[0].Owner; got != "members.file" {
		t.Errorf("property owner = %q, want members.file", got)
	}
	for _, id := range u.Descriptor.Functions() {
		sym, _ := batch.Env.Table.Symbols.Get(id)
		orig, ok := batch.Env.Table.Symbols.Get(sym.CopiedFrom)
		if !ok {
			t.Fatalf("re-parented symbol has no origin")
		}
		if orig.Owner != u.FileOwner {
			t.Errorf("original symbol owner changed to %s", batch.Env.Types.Label(orig.Owner))
		}
	}
}

func TestResolveBatchModifiersSurviveReparenting(t *testing.T) {
	src := `
[[script]]
name = "mods"
body = { kind = "unit" }

  [[script.decl]]
  kind = "fun"
  name = "k"
  type = "Int"
  body = "none"
  modifiers = ["private", "open", "override"]
`
	_, results := resolve(t, Options{}, parse(t, "mods.toml", src))
	want := []MemberSummary{{Name: "k", Type: "Int", Owner: "mods", Modality: "open", Visibility: "private"}}
	if diff := cmp.Diff(want, results[0].Summary.Functions); diff != "" {
		t.Errorf("functions (-want +got):\n%s", diff)
	}
}

func TestResolveBatchUnknownResultIsWarning(t *testing.T) {
	src := `
[[script]]
name = "unknown"
body = { kind = "call", name = "h" }

  [[script.decl]]
  kind = "fun"
  name = "h"
  body = "expr"
  body_expr = { kind = "int", value = "5" }
`
	bag := diag.NewBag(10)
	_, results := resolve(t, Options{Bag: bag}, parse(t, "unknown.toml", src))
	res := results[0]
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if !res.Summary.ResultUnknown || !strings.Contains(res.Summary.ResultType, sema.ScriptResultUnknown) {
		t.Errorf("expected sentinel result, got %+v", res.Summary)
	}
	items := bag.Items()
	if len(items) != 1 || items[0].Code != diag.SemaScriptResultUnknown || items[0].Severity != diag.SevWarning {
		t.Fatalf("diagnostics = %+v", items)
	}
	if bag.HasErrors() {
		t.Errorf("warning must not count as error")
	}
}

func TestResolveBatchIsolatesInvariantViolations(t *testing.T) {
	files := []*project.ScriptFile{
		parse(t, "members.toml", scenarioMembers),
		parse(t, "exprbody.toml", scenarioExprBody),
	}
	bag := diag.NewBag(10)
	batch := Bind(files, bag)
	broken, _ := batch.Unit("members")
	broken.Descriptor.Initialize(batch.Env.Types.Builtins().Unit, sema.Members{})

	results, err := ResolveBatch(context.Background(), batch, Options{Bag: bag, Jobs: 2})
	if err != nil {
		t.Fatalf("ResolveBatch: %v", err)
	}
	if !errors.Is(results[0].Err, sema.ErrInvariant) {
		t.Fatalf("expected invariant error, got %v", results[0].Err)
	}
	if results[1].Err != nil || results[1].Summary == nil {
		t.Fatalf("healthy script failed: %v", results[1].Err)
	}
	if n := FailedCount(results); n != 1 {
		t.Errorf("FailedCount() = %d, want 1", n)
	}
	items := bag.Items()
	if len(items) != 1 || items[0].Code != diag.SemaInvariantViolation || items[0].Script != "members" {
		t.Errorf("diagnostics = %+v", items)
	}
}

func TestResolveBatchParallel(t *testing.T) {
	var sb strings.Builder
	const n = 64
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, `
[[script]]
name = "s%d"
body = { kind = "name", name = "v" }
  [[script.decl]]
  kind = "val"
  name = "v"
  init = { kind = "string", value = "%d" }
  [[script.decl]]
  kind = "fun"
  name = "f"
  body = "block"
`, i, i)
	}
	batch, results := resolve(t, Options{Jobs: 8}, parse(t, "many.toml", sb.String()))
	if len(results) != n {
		t.Fatalf("got %d results", len(results))
	}
	for i, res := range results {
		if res.Err != nil {
			t.Fatalf("script %d: %v", i, res.Err)
		}
		if res.Unit.Name != fmt.Sprintf("s%d", i) {
			t.Errorf("result %d belongs to %s", i, res.Unit.Name)
		}
		// v has no annotation, so it is not a member, but it still types the body.
		if res.Summary.ResultType != "String" || len(res.Summary.Properties) != 0 || len(res.Summary.Functions) != 1 {
			t.Errorf("script %d: %+v", i, res.Summary)
		}
		if err := testkit.CheckDescriptor(batch.Env, res.Unit.Descriptor); err != nil {
			t.Errorf("script %d: %v", i, err)
		}
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []progress.Event
}

func (s *recordingSink) OnEvent(evt progress.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
}

func TestResolveBatchProgressAndTrace(t *testing.T) {
	sink := &recordingSink{}
	ring := trace.NewRingTracer(256, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)
	batch := Bind([]*project.ScriptFile{parse(t, "members.toml", scenarioMembers)}, nil)
	results, err := ResolveBatch(ctx, batch, Options{Sink: sink, Jobs: 1})
	if err != nil || results[0].Err != nil {
		t.Fatalf("resolve failed: %v %v", err, results[0].Err)
	}

	var stages []progress.Stage
	for _, ev := range sink.events {
		if ev.Status == progress.StatusWorking {
			stages = append(stages, ev.Stage)
		}
	}
	want := []progress.Stage{progress.StageFreeze, progress.StageInfer, progress.StageCollect, progress.StageFinalize}
	if diff := cmp.Diff(want, stages); diff != "" {
		t.Errorf("stages (-want +got):\n%s", diff)
	}
	if last := sink.events[len(sink.events)-1]; last.Status != progress.StatusDone {
		t.Errorf("last event = %+v", last)
	}

	var steps []string
	for _, ev := range ring.Snapshot() {
		if ev.Scope == trace.ScopeStep && ev.Detail == "begin" {
			steps = append(steps, ev.Name)
		}
	}
	if diff := cmp.Diff([]string{"freeze", "infer", "collect", "finalize"}, steps); diff != "" {
		t.Errorf("trace steps (-want +got):\n%s", diff)
	}
	if got := len(results[0].Timings.Phases); got != 4 {
		t.Errorf("timed %d phases, want 4", got)
	}
}

func TestResolveBatchCache(t *testing.T) {
	cache, err := OpenSummaryCache(filepath.Join(t.TempDir(), "cache", "summaries.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	file := parse(t, "members.toml", scenarioMembers)
	_, first := resolve(t, Options{Cache: cache}, file)
	if first[0].Cached {
		t.Fatalf("first run must not be cached")
	}
	if n, err := cache.Len(); err != nil || n != 1 {
		t.Fatalf("cache len = %d, %v", n, err)
	}

	batch, second := resolve(t, Options{Cache: cache}, file)
	if !second[0].Cached {
		t.Fatalf("second run should match the cached summary")
	}
	// A cache hit still runs every step on the descriptor.
	if err := testkit.CheckDescriptor(batch.Env, second[0].Unit.Descriptor); err != nil {
		t.Fatalf("descriptor after cache hit: %v", err)
	}
	if len(second[0].Timings.Phases) == 0 {
		t.Errorf("cache hit skipped the resolution steps")
	}
	ignore := cmpopts.IgnoreFields(Summary{}, "Timings")
	if diff := cmp.Diff(first[0].Summary, second[0].Summary, ignore); diff != "" {
		t.Errorf("cached summary differs (-first +second):\n%s", diff)
	}

	changed := parse(t, "members.toml", strings.Replace(scenarioMembers, `value = "1"`, `value = "2"`, 1))
	_, third := resolve(t, Options{Cache: cache}, changed)
	if third[0].Cached {
		t.Errorf("changed content must miss the cache")
	}
}

func TestResolveBatchCacheFollowsMovedFile(t *testing.T) {
	cache, err := OpenSummaryCache(filepath.Join(t.TempDir(), "summaries.db"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer cache.Close()

	resolve(t, Options{Cache: cache}, parse(t, "old/members.toml", scenarioMembers))
	moved := parse(t, "new/members.toml", scenarioMembers)
	_, results := resolve(t, Options{Cache: cache}, moved)
	if !results[0].Cached {
		t.Fatalf("same content under a new path should match the cache")
	}
	if got := results[0].Summary.Path; got != "new/members.toml" {
		t.Errorf("summary path = %q, want new/members.toml", got)
	}
	stored, ok, err := cache.Get(results[0].Unit.Digest)
	if err != nil || !ok {
		t.Fatalf("cache get: ok=%v err=%v", ok, err)
	}
	if stored.Path != "new/members.toml" {
		t.Errorf("stored path = %q, want new/members.toml", stored.Path)
	}
}

func TestDecodeSummaryRejectsOtherSchema(t *testing.T) {
	data, err := EncodeSummary(&Summary{Schema: summarySchemaVersion + 1, Script: "s"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeSummary(data); err == nil {
		t.Fatalf("expected schema mismatch")
	}
}

func TestBindReportsLoadProblems(t *testing.T) {
	src := `
[[script]]
name = "dup"
body = { kind = "unit" }
  [[script.decl]]
  kind = "val"
  name = "p"
  type = "Widget"
`
	bag := diag.NewBag(10)
	batch := Bind([]*project.ScriptFile{parse(t, "a.toml", src), parse(t, "b.toml", src)}, bag)
	if len(batch.Units) != 1 {
		t.Fatalf("duplicate script was bound: %d units", len(batch.Units))
	}
	var codes []diag.Code
	for _, d := range bag.Items() {
		codes = append(codes, d.Code)
	}
	if diff := cmp.Diff([]diag.Code{diag.LoadUnknownType, diag.LoadDuplicateName}, codes); diff != "" {
		t.Errorf("codes (-want +got):\n%s", diff)
	}

	// The unknown annotation still makes p a member, typed by an error type.
	results, err := ResolveBatch(context.Background(), batch, Options{})
	if err != nil || results[0].Err != nil {
		t.Fatalf("resolve: %v %v", err, results[0].Err)
	}
	props := results[0].Summary.Properties
	if len(props) != 1 || !strings.HasPrefix(props[0].Type, "<error") {
		t.Errorf("properties = %+v", props)
	}
}

func TestBindPropertyTypeFromInitializer(t *testing.T) {
	src := `
[[script]]
name = "infer"
body = { kind = "name", name = "b" }
  [[script.decl]]
  kind = "val"
  name = "a"
  init = { kind = "bool", value = "true" }
  [[script.decl]]
  kind = "var"
  name = "b"
  init = { kind = "name", name = "a" }
`
	batch := Bind([]*project.ScriptFile{parse(t, "infer.toml", src)}, nil)
	b, _ := batch.Env.Table.Resolve(batch.Units[0].Descriptor.Scope, batch.Env.Builder.Strings.Intern("b"))
	sym, _ := batch.Env.Table.Symbols.Get(b)
	if sym.Type != batch.Env.Types.Builtins().Bool || !sym.Mutable {
		t.Errorf("b = %+v, want mutable Boolean", sym)
	}
	if sym.Type == types.NoTypeID {
		t.Errorf("initializer type was not inferred")
	}
}

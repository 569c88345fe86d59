package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"scriptc/internal/diag"
	"scriptc/internal/observ"
	"scriptc/internal/progress"
	"scriptc/internal/sema"
	"scriptc/internal/trace"
)

// Options control ResolveBatch.
type Options struct {
	Jobs  int           // <= 0 means GOMAXPROCS
	Bag   *diag.Bag     // receives resolution diagnostics; may be nil
	Sink  progress.Sink // progress events; may be nil
	Cache *SummaryCache // remembers summaries across runs; may be nil
}

// Result is the outcome for one unit.
type Result struct {
	Unit    *Unit
	Summary *Summary // nil when Err is set
	Err     error    // wraps sema.ErrInvariant on a violated invariant
	Cached  bool     // the cache already held an identical summary
	Timings observ.Report
}

// ResolveBatch resolves every unit of batch. Scripts are independent and run
// in parallel; the steps of one script run in order. A violated invariant
// fails only its own script. The returned error is reserved for context
// cancellation; per-script failures are in the results.
func ResolveBatch(ctx context.Context, batch *Batch, opts Options) ([]Result, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "resolve_batch", 0)
	defer span.End("")

	results := make([]Result, len(batch.Units))
	if len(batch.Units) == 0 {
		return results, nil
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	for _, u := range batch.Units {
		progress.Emit(opts.Sink, progress.Event{Script: u.Name, Stage: progress.StageBind, Status: progress.StatusQueued})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(batch.Units)))
	for i, u := range batch.Units {
		i, u := i, u
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = resolveUnit(batch.Env, u, opts, tracer, span.ID())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	span.WithExtra("scripts", fmt.Sprint(len(results)))
	return results, nil
}

func resolveUnit(env *sema.Env, u *Unit, opts Options, tracer trace.Tracer, parent uint64) (res Result) {
	res.Unit = u
	start := time.Now()
	span := trace.Begin(tracer, trace.ScopeScript, u.Name, parent)
	defer func() {
		span.End(resultDetail(res))
	}()

	obs := &stepObserver{
		timer:  observ.NewTimer(),
		tracer: tracer,
		parent: span.ID(),
		sink:   opts.Sink,
		start:  start,
	}
	scoped := *env
	scoped.Observer = obs

	res.Err = runGuarded(func() { sema.ResolveScript(&scoped, u.Descriptor) })
	res.Timings = obs.timer.Report()
	if res.Err != nil {
		report(opts.Bag, diag.SemaInvariantViolation.Severity(), diag.SemaInvariantViolation, u.Name, res.Err.Error())
		progress.Emit(opts.Sink, progress.Event{Script: u.Name, Stage: obs.current, Status: progress.StatusError, Err: res.Err, Elapsed: time.Since(start)})
		return res
	}

	res.Summary = Summarize(env, u)
	if res.Summary.ResultUnknown {
		report(opts.Bag, diag.SemaScriptResultUnknown.Severity(), diag.SemaScriptResultUnknown, u.Name, sema.ScriptResultUnknown)
	}
	res.Summary.Timings = res.Timings
	if opts.Cache != nil {
		res.Cached = syncCache(opts.Cache, u, res.Summary, tracer, span.ID())
	}
	progress.Emit(opts.Sink, progress.Event{Script: u.Name, Stage: progress.StageFinalize, Status: progress.StatusDone, Elapsed: time.Since(start)})
	return res
}

// runGuarded converts an invariant panic into an error. Any other panic is
// not ours to swallow and is re-raised.
func runGuarded(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		inv, ok := sema.AsInvariant(r)
		if !ok {
			panic(r)
		}
		err = inv
	}()
	fn()
	return nil
}

func resultDetail(res Result) string {
	switch {
	case res.Err != nil:
		return "error"
	case res.Cached:
		return "cached"
	default:
		return "ok"
	}
}

// syncCache compares the fresh summary with the stored one and stores it
// when they differ. It reports whether the stored summary was still current.
// Path and timings are not part of the comparison: the key is the content
// digest, so a moved or copied file still counts as unchanged.
func syncCache(cache *SummaryCache, u *Unit, fresh *Summary, tracer trace.Tracer, parent uint64) bool {
	stored, ok, err := cache.Get(u.Digest)
	if err != nil {
		trace.Point(tracer, trace.ScopeScript, "cache_get_failed", parent, err.Error())
	}
	unchanged := ok && sameSummary(stored, fresh)
	if unchanged && stored.Path == fresh.Path {
		return true
	}
	if err := cache.Put(u.Digest, fresh); err != nil {
		trace.Point(tracer, trace.ScopeScript, "cache_put_failed", parent, err.Error())
	}
	return unchanged
}

func sameSummary(a, b *Summary) bool {
	return a.Schema == b.Schema &&
		a.Script == b.Script &&
		a.ResultType == b.ResultType &&
		a.ResultUnknown == b.ResultUnknown &&
		slices.Equal(a.Properties, b.Properties) &&
		slices.Equal(a.Functions, b.Functions)
}

// FailedCount returns how many results carry an invariant violation.
func FailedCount(results []Result) int {
	n := 0
	for i := range results {
		if errors.Is(results[i].Err, sema.ErrInvariant) {
			n++
		}
	}
	return n
}

var stageOf = map[sema.Step]progress.Stage{
	sema.StepFreeze:   progress.StageFreeze,
	sema.StepInfer:    progress.StageInfer,
	sema.StepCollect:  progress.StageCollect,
	sema.StepFinalize: progress.StageFinalize,
}

// stepObserver feeds one script's steps into its timer, the tracer and the
// progress sink. Each script has its own observer.
type stepObserver struct {
	mu      sync.Mutex
	timer   *observ.Timer
	tracer  trace.Tracer
	parent  uint64
	sink    progress.Sink
	start   time.Time
	current progress.Stage
	open    int
}

func (o *stepObserver) StepBegin(d *sema.ScriptDescriptor, step sema.Step) {
	o.mu.Lock()
	o.current = stageOf[step]
	o.open = o.timer.Begin(step.String())
	o.mu.Unlock()
	trace.Point(o.tracer, trace.ScopeStep, step.String(), o.parent, "begin")
	progress.Emit(o.sink, progress.Event{Script: d.Name, Stage: stageOf[step], Status: progress.StatusWorking, Elapsed: time.Since(o.start)})
}

func (o *stepObserver) StepEnd(d *sema.ScriptDescriptor, step sema.Step) {
	o.mu.Lock()
	o.timer.End(o.open, d.State().String())
	o.mu.Unlock()
	trace.Point(o.tracer, trace.ScopeStep, step.String(), o.parent, "end")
}

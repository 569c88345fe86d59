package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"scriptc/internal/diag"
	"scriptc/internal/driver"
	"scriptc/internal/observ"
	"scriptc/internal/project"
	"scriptc/internal/trace"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [paths...]",
	Short: "Resolve script members and infer script result types",
	Long: `Resolve loads script files (or the scripts listed in scriptc.toml), binds
their declarations and resolves every script in parallel. The exit status is 1
when any script violated a resolution invariant.`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("format", "pretty", "output format (pretty|json|msgpack)")
	resolveCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	resolveCmd.Flags().String("ui", "auto", "progress interface (auto|on|off)")
	resolveCmd.Flags().String("cache", "", "summary cache file (bbolt)")
	resolveCmd.Flags().Bool("watch", false, "re-resolve when script files change")
}

type resolveOptions struct {
	format         string
	jobs           int
	ui             uiMode
	cachePath      string
	watch          bool
	color          bool
	quiet          bool
	timings        bool
	maxDiagnostics int
}

func readResolveOptions(cmd *cobra.Command, manifest *project.Manifest) (resolveOptions, error) {
	var opts resolveOptions
	var err error
	if opts.format, err = cmd.Flags().GetString("format"); err != nil {
		return opts, fmt.Errorf("failed to get format flag: %w", err)
	}
	opts.format = strings.ToLower(strings.TrimSpace(opts.format))
	switch opts.format {
	case "pretty", "json", "msgpack":
	default:
		return opts, fmt.Errorf("unsupported format %q (must be pretty, json or msgpack)", opts.format)
	}
	if opts.jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return opts, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return opts, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if opts.ui, err = readUIMode(uiValue); err != nil {
		return opts, err
	}
	if opts.cachePath, err = cmd.Flags().GetString("cache"); err != nil {
		return opts, fmt.Errorf("failed to get cache flag: %w", err)
	}
	if opts.watch, err = cmd.Flags().GetBool("watch"); err != nil {
		return opts, fmt.Errorf("failed to get watch flag: %w", err)
	}
	root := cmd.Root().PersistentFlags()
	if opts.quiet, err = root.GetBool("quiet"); err != nil {
		return opts, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	if opts.timings, err = root.GetBool("timings"); err != nil {
		return opts, fmt.Errorf("failed to get timings flag: %w", err)
	}
	if opts.maxDiagnostics, err = root.GetInt("max-diagnostics"); err != nil {
		return opts, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if opts.color, err = readColor(cmd); err != nil {
		return opts, err
	}

	if manifest != nil {
		if !cmd.Flags().Changed("jobs") && manifest.Config.Analysis.Jobs > 0 {
			opts.jobs = manifest.Config.Analysis.Jobs
		}
		if !cmd.Flags().Changed("cache") {
			opts.cachePath = manifest.CachePath()
		}
	}
	// The progress UI owns stdout; machine formats and watch mode keep it plain.
	if opts.format != "pretty" || opts.watch || opts.quiet {
		opts.ui = uiModeOff
	}
	return opts, nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	manifest, err := loadManifest()
	if err != nil {
		return err
	}
	opts, err := readResolveOptions(cmd, manifest)
	if err != nil {
		return err
	}
	cleanup, err := setupTracing(cmd, manifest)
	if err != nil {
		return err
	}
	defer cleanup()
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	paths, err := collectScriptFiles(args, manifest)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no script files to resolve")
	}

	var cache *driver.SummaryCache
	if opts.cachePath != "" {
		if cache, err = driver.OpenSummaryCache(opts.cachePath); err != nil {
			return err
		}
		defer cache.Close()
	}

	ctx := cmd.Context()
	if opts.watch {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		return watchAndResolve(ctx, cmd, args, manifest, cache, opts)
	}

	failed, err := resolveOnce(ctx, cmd, paths, cache, opts)
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d script(s) failed", failed)
	}
	return nil
}

// resolveOnce loads, binds, resolves and reports paths. It returns the number
// of scripts that failed with an invariant violation.
func resolveOnce(ctx context.Context, cmd *cobra.Command, paths []string, cache *driver.SummaryCache, opts resolveOptions) (int, error) {
	tracer := trace.FromContext(ctx)
	bag := diag.NewBag(opts.maxDiagnostics)

	loadSpan := trace.Begin(tracer, trace.ScopePass, "load", 0)
	files := loadScriptFiles(paths, bag)
	loadSpan.WithExtra("files", fmt.Sprint(len(files))).End("")

	bindSpan := trace.Begin(tracer, trace.ScopePass, "bind", 0)
	batch := driver.Bind(files, bag)
	bindSpan.WithExtra("scripts", fmt.Sprint(len(batch.Units))).End("")

	driverOpts := driver.Options{Jobs: opts.jobs, Bag: bag, Cache: cache}
	var results []driver.Result
	var err error
	if progressViewEnabled(opts.ui, os.Stdout, len(batch.Units)) {
		results, err = runResolveWithUI(ctx, "resolving scripts", batch, driverOpts)
	} else {
		results, err = driver.ResolveBatch(ctx, batch, driverOpts)
	}
	if err != nil {
		return 0, err
	}

	bag.Sort()
	if err := renderReport(cmd.OutOrStdout(), cmd.ErrOrStderr(), results, bag.Items(), opts); err != nil {
		return 0, err
	}
	if opts.timings {
		reports := make([]observ.Report, 0, len(results))
		for i := range results {
			reports = append(reports, results[i].Timings)
		}
		fmt.Fprint(cmd.ErrOrStderr(), observ.Sum(reports...).Summary())
	}

	return driver.FailedCount(results), nil
}

// loadScriptFiles parses every path, reporting unreadable or malformed files
// to bag instead of aborting the batch.
func loadScriptFiles(paths []string, bag *diag.Bag) []*project.ScriptFile {
	files := make([]*project.ScriptFile, 0, len(paths))
	for _, path := range paths {
		f, err := project.LoadScriptFile(path)
		if err != nil {
			code := diag.LoadBadScriptFile
			var pathErr *fs.PathError
			if errors.As(err, &pathErr) {
				code = diag.IOLoadFileError
			}
			bag.Add(diag.Diagnostic{Severity: code.Severity(), Code: code, Message: err.Error()})
			continue
		}
		files = append(files, f)
	}
	return files
}

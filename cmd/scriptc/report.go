package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vmihailenco/msgpack/v5"

	"scriptc/internal/diag"
	"scriptc/internal/diagfmt"
	"scriptc/internal/driver"
)

// resolveReport is the machine-readable output of `scriptc resolve`.
type resolveReport struct {
	Scripts     []*driver.Summary         `json:"scripts" msgpack:"scripts"`
	Failures    []scriptFailure           `json:"failures,omitempty" msgpack:"failures"`
	Diagnostics diagfmt.DiagnosticsOutput `json:"diagnostics" msgpack:"diagnostics"`
}

type scriptFailure struct {
	Script string `json:"script" msgpack:"script"`
	Error  string `json:"error" msgpack:"error"`
}

func buildReport(results []driver.Result, items []diag.Diagnostic, maxDiagnostics int) resolveReport {
	report := resolveReport{
		Scripts:     make([]*driver.Summary, 0, len(results)),
		Diagnostics: diagfmt.BuildDiagnosticsOutput(items, diagfmt.JSONOpts{Max: maxDiagnostics, IncludeNotes: true}),
	}
	for i := range results {
		res := &results[i]
		if res.Err != nil {
			report.Failures = append(report.Failures, scriptFailure{Script: res.Unit.Name, Error: res.Err.Error()})
			continue
		}
		report.Scripts = append(report.Scripts, res.Summary)
	}
	return report
}

func renderReport(out, errOut io.Writer, results []driver.Result, items []diag.Diagnostic, opts resolveOptions) error {
	switch opts.format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(buildReport(results, items, opts.maxDiagnostics))
	case "msgpack":
		return msgpack.NewEncoder(out).Encode(buildReport(results, items, opts.maxDiagnostics))
	}
	if !opts.quiet {
		renderPretty(out, results, opts.color)
	}
	return diagfmt.Pretty(errOut, items, diagfmt.PrettyOpts{
		Color:     opts.color,
		ShowNotes: true,
		Max:       opts.maxDiagnostics,
	})
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	typeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

func renderPretty(out io.Writer, results []driver.Result, useColor bool) {
	style := func(s lipgloss.Style, text string) string {
		if !useColor {
			return text
		}
		return s.Render(text)
	}
	for i := range results {
		res := &results[i]
		if res.Err != nil {
			fmt.Fprintf(out, "%s %s\n  %s\n", style(failStyle, "failed"), style(headerStyle, res.Unit.Name), res.Err)
			continue
		}
		s := res.Summary
		line := fmt.Sprintf("%s: %s", style(headerStyle, "script "+s.Script), style(typeStyle, s.ResultType))
		if res.Cached {
			line += " " + style(mutedStyle, "(cached)")
		}
		fmt.Fprintln(out, line)
		for _, m := range s.Properties {
			fmt.Fprintf(out, "  %s\n", memberLine("val", m, style))
		}
		for _, m := range s.Functions {
			fmt.Fprintf(out, "  %s\n", memberLine("fun", m, style))
		}
	}
}

func memberLine(kind string, m driver.MemberSummary, style func(lipgloss.Style, string) string) string {
	if kind == "val" && m.Mutable {
		kind = "var"
	}
	var mods []string
	if m.Visibility != "public" {
		mods = append(mods, m.Visibility)
	}
	if m.Modality != "final" {
		mods = append(mods, m.Modality)
	}
	if m.Override {
		mods = append(mods, "override")
	}
	prefix := kind
	if len(mods) > 0 {
		prefix = strings.Join(mods, " ") + " " + kind
	}
	return fmt.Sprintf("%s %s: %s %s", prefix, m.Name, style(typeStyle, m.Type), style(mutedStyle, "owner "+m.Owner))
}

package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"scriptc/internal/diag"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	scriptColor  = color.New(color.Bold)
	noteColor    = color.New(color.Faint)
)

// Pretty writes one line per diagnostic:
//
//	<script>: <SEV> <CODE>: <message>
//
// followed by indented notes. Items are expected to be sorted.
func Pretty(w io.Writer, items []diag.Diagnostic, opts PrettyOpts) error {
	for i, d := range items {
		if opts.Max > 0 && i >= opts.Max {
			_, err := fmt.Fprintf(w, "... %d more diagnostics\n", len(items)-i)
			return err
		}
		script := d.Script
		if script == "" {
			script = "<batch>"
		}
		_, err := fmt.Fprintf(w, "%s: %s %s: %s\n",
			paint(opts.Color, scriptColor, script),
			paint(opts.Color, severityColor(d.Severity), d.Severity.String()),
			d.Code.ID(),
			d.Message)
		if err != nil {
			return err
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			if _, err := fmt.Fprintf(w, "  %s %s\n", paint(opts.Color, noteColor, "note:"), n.Msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return errorColor
	case diag.SevWarning:
		return warningColor
	default:
		return infoColor
	}
}

// paint applies c only when enabled, independent of color.NoColor.
func paint(enabled bool, c *color.Color, s string) string {
	if !enabled {
		return s
	}
	styled := *c
	styled.EnableColor()
	return styled.Sprint(s)
}

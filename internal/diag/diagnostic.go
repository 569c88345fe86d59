package diag

import "scriptc/internal/source"

type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Script   string // script the diagnostic belongs to, empty for batch-level ones
	Primary  source.Span
	Notes    []Note
}

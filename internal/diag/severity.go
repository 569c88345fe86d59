package diag

// Severity orders diagnostics. A bag sorts the most severe first, and only
// errors make a resolve run fail.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]string{
	SevInfo:    "INFO",
	SevWarning: "WARNING",
	SevError:   "ERROR",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}

// Fails reports whether a diagnostic at s fails the run.
func (s Severity) Fails() bool {
	return s >= SevError
}

// Severity is the level c is normally reported at. LoadDuplicateName is the
// exception: a repeated member inside one script is only a warning.
func (c Code) Severity() Severity {
	switch c {
	case UnknownCode:
		return SevInfo
	case SemaScriptResultUnknown:
		return SevWarning
	default:
		return SevError
	}
}

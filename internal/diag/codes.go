package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// loading
	IOLoadFileError   Code = 1001
	LoadBadScriptFile Code = 1002
	LoadUnknownType   Code = 1003
	LoadDuplicateName Code = 1004

	// script resolution
	SemaScriptResultUnknown Code = 3001
	SemaInvariantViolation  Code = 3002
)

var codeNames = map[Code]string{
	UnknownCode:             "unknown",
	IOLoadFileError:         "io-load-file",
	LoadBadScriptFile:       "load-bad-script",
	LoadUnknownType:         "load-unknown-type",
	LoadDuplicateName:       "load-duplicate-name",
	SemaScriptResultUnknown: "sema-script-result-unknown",
	SemaInvariantViolation:  "sema-invariant-violation",
}

func (c Code) ID() string {
	return fmt.Sprintf("E%04d", uint16(c))
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return c.ID()
}

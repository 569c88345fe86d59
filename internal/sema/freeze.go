package sema

import "scriptc/internal/symbols"

// FreezeScope moves the script scope from Building to Frozen. Any other
// starting state is an invariant violation.
func FreezeScope(script string, scope *symbols.Scope) {
	if scope == nil {
		invariantf("freeze", script, "script has no scope")
	}
	if err := scope.Freeze(); err != nil {
		invariantf("freeze", script, "%v", err)
	}
}

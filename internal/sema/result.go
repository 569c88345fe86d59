package sema

import (
	"scriptc/internal/ast"
	"scriptc/internal/symbols"
	"scriptc/internal/types"
)

// ScriptResultUnknown is the message carried by the sentinel type used when
// the inference service returns nothing for a script body.
const ScriptResultUnknown = "script result: inference service returned no type for the script body"

// InferScriptResult asks inf for the type of the script body with no expected
// type, empty flow facts and no coercion, so a trailing block value keeps its
// own type. An absent answer becomes a sentinel error type.
func InferScriptResult(inf Inferrer, in *types.Interner, name string, script *ast.Script, scope *symbols.Scope) types.TypeID {
	if scope == nil || scope.State() != symbols.LockFrozen {
		state := symbols.LockInvalid
		if scope != nil {
			state = scope.State()
		}
		invariantf("infer", name, "scope must be frozen before inference, got %s", state)
	}
	if inf == nil {
		invariantf("infer", name, "no inference service")
	}
	result := inf.InferBlockType(script.Body, scope, EmptyFlowFacts(), types.NoTypeID, CoercionNone)
	if result == types.NoTypeID {
		return in.ErrorType(ScriptResultUnknown)
	}
	return result
}

package sema

import (
	"scriptc/internal/ast"
	"scriptc/internal/symbols"
	"scriptc/internal/types"
)

// Step names one stage of script resolution.
type Step uint8

const (
	StepFreeze Step = iota + 1
	StepInfer
	StepCollect
	StepFinalize
)

func (s Step) String() string {
	switch s {
	case StepFreeze:
		return "freeze"
	case StepInfer:
		return "infer"
	case StepCollect:
		return "collect"
	case StepFinalize:
		return "finalize"
	default:
		return "unknown"
	}
}

// StepObserver is notified around each step. Implementations must be safe
// for concurrent use when scripts are resolved in parallel.
type StepObserver interface {
	StepBegin(d *ScriptDescriptor, step Step)
	StepEnd(d *ScriptDescriptor, step Step)
}

// Env is everything a script resolution reads.
type Env struct {
	Builder  *ast.Builder
	Table    *symbols.Table
	Bindings *symbols.Bindings
	Types    *types.Interner
	Inferrer Inferrer
	Observer StepObserver
}

// ResolveScript runs freeze → infer → collect → finalize for one script.
// Contract violations panic with *InvariantError.
func ResolveScript(env *Env, d *ScriptDescriptor) {
	script := env.Builder.Scripts.Get(d.Script)
	if script == nil {
		invariantf("freeze", d.Name, "unknown script %d", d.Script)
	}
	scope := env.Table.Scopes.Get(d.Scope)

	var result types.TypeID
	var members Members

	env.step(d, StepFreeze, func() {
		d.beginInitializing()
		FreezeScope(d.Name, scope)
	})
	env.step(d, StepInfer, func() {
		result = InferScriptResult(env.Inferrer, env.Types, d.Name, script, scope)
	})
	env.step(d, StepCollect, func() {
		members = CollectMembers(env.Builder, env.Table, env.Bindings, d.Name, script, d.Class)
	})
	env.step(d, StepFinalize, func() {
		d.Initialize(result, members)
	})
}

func (env *Env) step(d *ScriptDescriptor, step Step, fn func()) {
	if env.Observer != nil {
		env.Observer.StepBegin(d, step)
		defer env.Observer.StepEnd(d, step)
	}
	fn()
}

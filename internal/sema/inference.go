package sema

import (
	"maps"

	"scriptc/internal/ast"
	"scriptc/internal/symbols"
	"scriptc/internal/types"
)

// Coercion decides what happens to the trailing value of a block.
type Coercion uint8

const (
	// CoercionNone keeps the tail value's type verbatim.
	CoercionNone Coercion = iota
	// CoercionToUnit discards the tail value; the block has type Unit.
	CoercionToUnit
)

func (c Coercion) String() string {
	if c == CoercionToUnit {
		return "to-unit"
	}
	return "none"
}

// FlowFacts holds flow-sensitive refinements: symbols known to have a
// narrower type at the current program point. The zero value is empty.
type FlowFacts struct {
	narrowed map[symbols.SymbolID]types.TypeID
}

// EmptyFlowFacts returns a fact set with no refinements.
func EmptyFlowFacts() FlowFacts { return FlowFacts{} }

// With returns a copy of f where sym is narrowed to t.
func (f FlowFacts) With(sym symbols.SymbolID, t types.TypeID) FlowFacts {
	next := make(map[symbols.SymbolID]types.TypeID, len(f.narrowed)+1)
	maps.Copy(next, f.narrowed)
	next[sym] = t
	return FlowFacts{narrowed: next}
}

// Lookup returns the refined type of sym, if any.
func (f FlowFacts) Lookup(sym symbols.SymbolID) (types.TypeID, bool) {
	t, ok := f.narrowed[sym]
	return t, ok
}

func (f FlowFacts) Len() int { return len(f.narrowed) }

// Inferrer is the expression type-inference service. InferBlockType returns
// types.NoTypeID when it cannot produce a type.
type Inferrer interface {
	InferBlockType(expr ast.ExprID, scope *symbols.Scope, facts FlowFacts, expected types.TypeID, coercion Coercion) types.TypeID
}

// InferrerFunc adapts a function to Inferrer.
type InferrerFunc func(expr ast.ExprID, scope *symbols.Scope, facts FlowFacts, expected types.TypeID, coercion Coercion) types.TypeID

func (f InferrerFunc) InferBlockType(expr ast.ExprID, scope *symbols.Scope, facts FlowFacts, expected types.TypeID, coercion Coercion) types.TypeID {
	return f(expr, scope, facts, expected, coercion)
}

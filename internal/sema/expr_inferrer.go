package sema

import (
	"scriptc/internal/ast"
	"scriptc/internal/source"
	"scriptc/internal/symbols"
	"scriptc/internal/types"
)

// ExprInferrer is a small reference implementation of Inferrer. It knows
// literals, names, calls of named functions and blocks; anything it cannot
// type yields NoTypeID.
type ExprInferrer struct {
	Builder *ast.Builder
	Table   *symbols.Table
	Types   *types.Interner
}

var _ Inferrer = (*ExprInferrer)(nil)

func (ei *ExprInferrer) InferBlockType(expr ast.ExprID, scope *symbols.Scope, facts FlowFacts, expected types.TypeID, coercion Coercion) types.TypeID {
	if ei == nil || ei.Builder == nil || scope == nil {
		return types.NoTypeID
	}
	if block, ok := ei.Builder.Exprs.Block(expr); ok {
		return ei.block(block, scope.ID, facts, expected, coercion)
	}
	return ei.infer(expr, scope.ID, facts, expected)
}

func (ei *ExprInferrer) infer(expr ast.ExprID, scope symbols.ScopeID, facts FlowFacts, expected types.TypeID) types.TypeID {
	node := ei.Builder.Exprs.Get(expr)
	if node == nil {
		return types.NoTypeID
	}
	switch node.Kind {
	case ast.ExprLit:
		lit, _ := ei.Builder.Exprs.Literal(expr)
		return ei.literal(lit, expected)
	case ast.ExprIdent:
		ident, _ := ei.Builder.Exprs.Ident(expr)
		return ei.name(ident.Name, scope, facts)
	case ast.ExprCall:
		call, _ := ei.Builder.Exprs.Call(expr)
		for _, arg := range call.Args {
			if ei.infer(arg, scope, facts, types.NoTypeID) == types.NoTypeID {
				return types.NoTypeID
			}
		}
		sym, ok := ei.resolve(call.Callee, scope)
		if !ok || sym.Kind != symbols.SymbolFunction {
			return types.NoTypeID
		}
		// Expression-bodied functions without a written type stay unknown.
		return sym.Type
	case ast.ExprBlock:
		block, _ := ei.Builder.Exprs.Block(expr)
		return ei.block(block, scope, facts, expected, CoercionNone)
	}
	return types.NoTypeID
}

func (ei *ExprInferrer) block(block *ast.ExprBlockData, scope symbols.ScopeID, facts FlowFacts, expected types.TypeID, coercion Coercion) types.TypeID {
	unit := ei.Types.Builtins().Unit
	for _, stmt := range block.Stmts {
		if ei.infer(stmt, scope, facts, types.NoTypeID) == types.NoTypeID {
			return types.NoTypeID
		}
	}
	if !block.Tail.IsValid() {
		return unit
	}
	tail := ei.infer(block.Tail, scope, facts, expected)
	if tail == types.NoTypeID {
		return types.NoTypeID
	}
	if coercion == CoercionToUnit {
		return unit
	}
	return tail
}

func (ei *ExprInferrer) literal(lit *ast.ExprLiteralData, expected types.TypeID) types.TypeID {
	b := ei.Types.Builtins()
	switch lit.Kind {
	case ast.LitInt:
		if expected != types.NoTypeID {
			if tt, ok := ei.Types.Lookup(expected); ok && tt.Kind == types.KindInt {
				return expected
			}
		}
		return b.Int
	case ast.LitString:
		return b.String
	case ast.LitBool:
		return b.Bool
	case ast.LitUnit:
		return b.Unit
	}
	return types.NoTypeID
}

func (ei *ExprInferrer) name(name source.StringID, scope symbols.ScopeID, facts FlowFacts) types.TypeID {
	id, ok := ei.Table.Resolve(scope, name)
	if !ok {
		return types.NoTypeID
	}
	if narrowed, ok := facts.Lookup(id); ok {
		return narrowed
	}
	sym, ok := ei.Table.Symbols.Get(id)
	if !ok || sym.Kind != symbols.SymbolProperty {
		return types.NoTypeID
	}
	return sym.Type
}

func (ei *ExprInferrer) resolve(name source.StringID, scope symbols.ScopeID) (symbols.Symbol, bool) {
	id, ok := ei.Table.Resolve(scope, name)
	if !ok {
		return symbols.Symbol{}, false
	}
	return ei.Table.Symbols.Get(id)
}

package sema

import (
	"testing"

	"scriptc/internal/ast"
	"scriptc/internal/source"
	"scriptc/internal/symbols"
	"scriptc/internal/types"
)

// fixture plays the role of the declaration phase: it builds one script with
// a building scope and binds every declaration it adds.
type fixture struct {
	t        *testing.T
	env      *Env
	script   ast.ScriptID
	scope    symbols.ScopeID
	fileType types.TypeID
	desc     *ScriptDescriptor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	builder := ast.NewBuilder(ast.Hints{}, nil)
	table := symbols.NewTable(symbols.Hints{}, builder.Strings)
	in := types.NewInterner()
	env := &Env{
		Builder:  builder,
		Table:    table,
		Bindings: symbols.NewBindings(),
		Types:    in,
	}
	env.Inferrer = &ExprInferrer{Builder: builder, Table: table, Types: in}

	script := builder.Scripts.New(ast.Script{Name: builder.Strings.Intern("demo")})
	scope := table.Scopes.New(symbols.ScopeScript, symbols.NoScopeID)
	class := in.RegisterClass("Demo", true)
	return &fixture{
		t:        t,
		env:      env,
		script:   script,
		scope:    scope,
		fileType: in.RegisterClass("DemoFile", false),
		desc:     NewScriptDescriptor(script, "demo", class, scope),
	}
}

func (f *fixture) str(s string) source.StringID { return f.env.Builder.Strings.Intern(s) }

func (f *fixture) lit(kind ast.ExprLitKind, value string) ast.ExprID {
	return f.env.Builder.Exprs.NewLiteral(source.Span{}, kind, f.str(value))
}

func (f *fixture) ident(name string) ast.ExprID {
	return f.env.Builder.Exprs.NewIdent(source.Span{}, f.str(name))
}

func (f *fixture) block(tail ast.ExprID, stmts ...ast.ExprID) ast.ExprID {
	return f.env.Builder.Exprs.NewBlock(source.Span{}, stmts, tail)
}

func (f *fixture) typeOf(annotation string) types.TypeID {
	if annotation == "" {
		return types.NoTypeID
	}
	id, ok := f.env.Types.Named(annotation)
	if !ok {
		f.t.Fatalf("unknown type %q", annotation)
	}
	return id
}

// val declares `val name: annotation = init`.
func (f *fixture) val(name, annotation string, init ast.ExprID) ast.DeclID {
	decl := ast.Decl{Kind: ast.DeclProperty, Name: f.str(name), Init: init}
	if annotation != "" {
		decl.Type = f.str(annotation)
	}
	t := f.typeOf(annotation)
	if t == types.NoTypeID && init.IsValid() {
		t = f.env.Inferrer.InferBlockType(init, f.env.Table.Scopes.Get(f.scope), EmptyFlowFacts(), types.NoTypeID, CoercionNone)
	}
	return f.add(decl, symbols.Symbol{Kind: symbols.SymbolProperty, Type: t})
}

// fun declares a function with the given body kind and optional annotation.
func (f *fixture) fun(name, annotation string, body ast.BodyKind, bodyExpr ast.ExprID, sym symbols.Symbol) ast.DeclID {
	decl := ast.Decl{Kind: ast.DeclFunction, Name: f.str(name), Body: body, BodyExpr: bodyExpr}
	if annotation != "" {
		decl.Type = f.str(annotation)
	}
	sym.Kind = symbols.SymbolFunction
	sym.Type = f.typeOf(annotation)
	if sym.Type == types.NoTypeID && body == ast.BodyBlock {
		sym.Type = f.env.Types.Builtins().Unit
	}
	return f.add(decl, sym)
}

func (f *fixture) add(decl ast.Decl, sym symbols.Symbol) ast.DeclID {
	f.t.Helper()
	id := f.env.Builder.Decls.New(decl)
	f.env.Builder.PushDecl(f.script, id)
	sym.Name = decl.Name
	sym.Decl = id
	if sym.Owner == types.NoTypeID {
		sym.Owner = f.fileType
	}
	symID, err := f.env.Table.Declare(f.scope, sym)
	if err != nil {
		f.t.Fatalf("declare %s: %v", f.env.Builder.Name(decl.Name), err)
	}
	f.env.Bindings.Bind(id, symID)
	return id
}

// addUnbound appends a declaration without binding it.
func (f *fixture) addUnbound(decl ast.Decl) ast.DeclID {
	id := f.env.Builder.Decls.New(decl)
	f.env.Builder.PushDecl(f.script, id)
	return id
}

func (f *fixture) setBody(body ast.ExprID) {
	f.env.Builder.Scripts.Get(f.script).Body = body
}

func (f *fixture) names(ids []symbols.SymbolID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		sym, ok := f.env.Table.Symbols.Get(id)
		if !ok {
			f.t.Fatalf("unknown symbol %d", id)
		}
		out = append(out, f.env.Builder.Name(sym.Name))
	}
	return out
}

func (f *fixture) resolve() {
	f.t.Helper()
	ResolveScript(f.env, f.desc)
}

// expectInvariant runs fn and returns the *InvariantError it panics with.
func expectInvariant(t *testing.T, fn func()) *InvariantError {
	t.Helper()
	var inv *InvariantError
	func() {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			var ok bool
			inv, ok = AsInvariant(r)
			if !ok {
				panic(r)
			}
		}()
		fn()
	}()
	if inv == nil {
		t.Fatalf("expected invariant violation")
	}
	return inv
}

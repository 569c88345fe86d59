package driver

import (
	"fmt"
	"strings"

	"scriptc/internal/ast"
	"scriptc/internal/diag"
	"scriptc/internal/project"
	"scriptc/internal/sema"
	"scriptc/internal/source"
	"scriptc/internal/symbols"
	"scriptc/internal/types"
)

// Unit is one bound script waiting for resolution.
type Unit struct {
	Name       string
	Path       string
	Digest     project.Digest
	FileOwner  types.TypeID // owner of the symbols before re-parenting
	Descriptor *sema.ScriptDescriptor
}

// Batch is the output of Bind: shared arenas plus one unit per script.
type Batch struct {
	Env   *sema.Env
	Units []*Unit
}

// Unit returns the unit named name.
func (b *Batch) Unit(name string) (*Unit, bool) {
	for _, u := range b.Units {
		if u.Name == name {
			return u, true
		}
	}
	return nil, false
}

// Bind builds declarations, scopes and symbol bindings for every script in
// files. Scopes are left in the building state; ResolveScript freezes them.
// Problems with the input are reported to bag and the offending script or
// declaration is skipped.
func Bind(files []*project.ScriptFile, bag *diag.Bag) *Batch {
	var hints ast.Hints
	for _, f := range files {
		hints.Scripts += uint(len(f.Scripts))
		for i := range f.Scripts {
			hints.Decls += uint(len(f.Scripts[i].Decls))
		}
	}
	builder := ast.NewBuilder(hints, nil)
	table := symbols.NewTable(symbols.Hints{Scopes: hints.Scripts, Symbols: hints.Decls * 2}, builder.Strings)
	in := types.NewInterner()
	env := &sema.Env{
		Builder:  builder,
		Table:    table,
		Bindings: symbols.NewBindings(),
		Types:    in,
	}
	env.Inferrer = &sema.ExprInferrer{Builder: builder, Table: table, Types: in}

	batch := &Batch{Env: env}
	seen := make(map[string]string)
	for _, f := range files {
		for i := range f.Scripts {
			src := &f.Scripts[i]
			if prev, dup := seen[src.Name]; dup {
				report(bag, diag.SevError, diag.LoadDuplicateName, src.Name,
					fmt.Sprintf("script %q in %s is already defined in %s", src.Name, f.Path, prev))
				continue
			}
			seen[src.Name] = f.Path
			b := &binder{env: env, bag: bag, script: src.Name}
			batch.Units = append(batch.Units, b.bindScript(f, src))
		}
	}
	return batch
}

type binder struct {
	env    *sema.Env
	bag    *diag.Bag
	script string
	scope  symbols.ScopeID
}

func (b *binder) bindScript(f *project.ScriptFile, src *project.ScriptSource) *Unit {
	builder := b.env.Builder
	b.scope = b.env.Table.Scopes.New(symbols.ScopeScript, symbols.NoScopeID)
	id := builder.Scripts.New(ast.Script{
		Name: builder.Strings.Intern(src.Name),
		Path: f.Path,
	})
	class := b.env.Types.RegisterClass(src.Name, true)
	owner := b.env.Types.RegisterClass(src.Name+".file", true)

	properties := make(map[string]bool)
	for i := range src.Decls {
		d := &src.Decls[i]
		if d.Kind != "fun" {
			if properties[d.Name] {
				report(b.bag, diag.SevWarning, diag.LoadDuplicateName, src.Name,
					fmt.Sprintf("property %q redeclared; the last declaration wins", d.Name))
			}
			properties[d.Name] = true
		}
		b.bindDecl(id, owner, d)
	}
	builder.Scripts.Get(id).Body = b.expr(src.Body)

	return &Unit{
		Name:       src.Name,
		Path:       f.Path,
		Digest:     project.Combine(f.Digest, []byte(src.Name)),
		FileOwner:  owner,
		Descriptor: sema.NewScriptDescriptor(id, src.Name, class, b.scope),
	}
}

func (b *binder) bindDecl(script ast.ScriptID, owner types.TypeID, src *project.DeclSource) {
	builder := b.env.Builder
	mods := modifiers(src.Modifiers)
	decl := ast.Decl{
		Name:      builder.Strings.Intern(src.Name),
		Modifiers: mods,
	}
	if src.Type != "" {
		decl.Type = builder.Strings.Intern(src.Type)
	}
	sym := symbols.Symbol{
		Name:       decl.Name,
		Owner:      owner,
		Modality:   modality(mods),
		Visibility: visibility(mods),
		Override:   mods&ast.ModOverride != 0,
	}

	annotated := b.annotation(src)
	switch src.Kind {
	case "val", "var":
		decl.Kind = ast.DeclProperty
		decl.Mutable = src.Kind == "var"
		decl.Init = b.expr(src.Init)
		sym.Kind = symbols.SymbolProperty
		sym.Mutable = decl.Mutable
		sym.Type = annotated
		if sym.Type == types.NoTypeID && decl.Init.IsValid() {
			scope := b.env.Table.Scopes.Get(b.scope)
			sym.Type = b.env.Inferrer.InferBlockType(decl.Init, scope, sema.EmptyFlowFacts(), types.NoTypeID, sema.CoercionNone)
		}
	case "fun":
		decl.Kind = ast.DeclFunction
		sym.Kind = symbols.SymbolFunction
		switch src.Body {
		case "block":
			decl.Body = ast.BodyBlock
			decl.BodyExpr = b.expr(src.BodyExpr)
		case "expr":
			decl.Body = ast.BodyExpr
			decl.BodyExpr = b.expr(src.BodyExpr)
		default:
			decl.Body = ast.BodyNone
		}
		sym.Type = annotated
		if sym.Type == types.NoTypeID && decl.Body == ast.BodyBlock {
			sym.Type = b.env.Types.Builtins().Unit
		}
	}

	id := builder.Decls.New(decl)
	builder.PushDecl(script, id)
	sym.Decl = id
	symID, err := b.env.Table.Declare(b.scope, sym)
	if err != nil {
		report(b.bag, diag.LoadBadScriptFile.Severity(), diag.LoadBadScriptFile, b.script,
			fmt.Sprintf("cannot declare %q: %v", src.Name, err))
		return
	}
	b.env.Bindings.Bind(id, symID)
}

// annotation resolves a written type. Unknown names are reported and bound to
// an error type so the declaration still counts as annotated.
func (b *binder) annotation(src *project.DeclSource) types.TypeID {
	if src.Type == "" {
		return types.NoTypeID
	}
	if id, ok := b.env.Types.Named(src.Type); ok {
		return id
	}
	report(b.bag, diag.LoadUnknownType.Severity(), diag.LoadUnknownType, b.script,
		fmt.Sprintf("%s %q: unknown type %q", src.Kind, src.Name, src.Type))
	return b.env.Types.ErrorType("unknown type " + src.Type)
}

func (b *binder) expr(src *project.ExprSource) ast.ExprID {
	if src == nil {
		return ast.NoExprID
	}
	exprs := b.env.Builder.Exprs
	strs := b.env.Builder.Strings
	switch src.Kind {
	case "int":
		return exprs.NewLiteral(source.Span{}, ast.LitInt, strs.Intern(src.Value))
	case "string":
		return exprs.NewLiteral(source.Span{}, ast.LitString, strs.Intern(src.Value))
	case "bool":
		return exprs.NewLiteral(source.Span{}, ast.LitBool, strs.Intern(strings.ToLower(src.Value)))
	case "unit":
		return exprs.NewLiteral(source.Span{}, ast.LitUnit, source.NoStringID)
	case "name":
		return exprs.NewIdent(source.Span{}, strs.Intern(src.Name))
	case "call":
		args := make([]ast.ExprID, 0, len(src.Args))
		for i := range src.Args {
			args = append(args, b.expr(&src.Args[i]))
		}
		return exprs.NewCall(source.Span{}, strs.Intern(src.Name), args)
	case "block":
		stmts := make([]ast.ExprID, 0, len(src.Stmts))
		for i := range src.Stmts {
			stmts = append(stmts, b.expr(&src.Stmts[i]))
		}
		return exprs.NewBlock(source.Span{}, stmts, b.expr(src.Tail))
	}
	return ast.NoExprID
}

func modifiers(names []string) ast.Modifiers {
	var mods ast.Modifiers
	for _, name := range names {
		switch name {
		case "private":
			mods |= ast.ModPrivate
		case "internal":
			mods |= ast.ModInternal
		case "public":
			mods |= ast.ModPublic
		case "open":
			mods |= ast.ModOpen
		case "abstract":
			mods |= ast.ModAbstract
		case "final":
			mods |= ast.ModFinal
		case "override":
			mods |= ast.ModOverride
		}
	}
	return mods
}

func modality(mods ast.Modifiers) symbols.Modality {
	switch {
	case mods&ast.ModAbstract != 0:
		return symbols.ModalityAbstract
	case mods&ast.ModOpen != 0:
		return symbols.ModalityOpen
	default:
		return symbols.ModalityFinal
	}
}

func visibility(mods ast.Modifiers) symbols.Visibility {
	switch {
	case mods&ast.ModPrivate != 0:
		return symbols.VisibilityPrivate
	case mods&ast.ModInternal != 0:
		return symbols.VisibilityInternal
	default:
		return symbols.VisibilityPublic
	}
}

func report(bag *diag.Bag, sev diag.Severity, code diag.Code, script, msg string) {
	if bag == nil {
		return
	}
	bag.Add(diag.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  msg,
		Script:   script,
	})
}

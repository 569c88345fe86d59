package sema

import (
	"scriptc/internal/ast"
	"scriptc/internal/symbols"
	"scriptc/internal/types"
)

// IsMemberEligible reports whether decl becomes a member of the script class
// without inferring any bodies: declarations with a written type, and
// functions with a block body (whose result is Unit). Expression-bodied
// functions without a written type are skipped.
func IsMemberEligible(decl *ast.Decl) bool {
	if decl == nil {
		return false
	}
	switch decl.Kind {
	case ast.DeclProperty:
		return decl.HasTypeAnnotation()
	case ast.DeclFunction:
		return decl.HasTypeAnnotation() || decl.Body == ast.BodyBlock
	}
	return false
}

// CollectMembers walks the script declarations in source order and returns
// the bound symbols of eligible ones. Functions are copied into owner with
// the override marker cleared.
func CollectMembers(b *ast.Builder, table *symbols.Table, bindings *symbols.Bindings, name string, script *ast.Script, owner types.TypeID) Members {
	var members Members
	for _, declID := range script.Decls {
		decl := b.Decls.Get(declID)
		if !IsMemberEligible(decl) {
			continue
		}
		symID, ok := bindings.Lookup(declID)
		if !ok {
			invariantf("collect", name, "%s %q has no bound symbol", decl.Kind, b.Name(decl.Name))
		}
		sym, ok := table.Symbols.Get(symID)
		if !ok {
			invariantf("collect", name, "%s %q bound to unknown symbol %d", decl.Kind, b.Name(decl.Name), symID)
		}
		switch decl.Kind {
		case ast.DeclProperty:
			members.Properties = append(members.Properties, symID)
		case ast.DeclFunction:
			if sym.Kind != symbols.SymbolFunction {
				invariantf("collect", name, "function %q bound to %s symbol", b.Name(decl.Name), sym.Kind)
			}
			copied := symbols.CopyFunction(symID, sym).
				WithOwner(owner).
				NotOverride().
				Build()
			members.Functions = append(members.Functions, table.Symbols.New(copied))
		}
	}
	return members
}

package testkit

import (
	"fmt"

	"scriptc/internal/sema"
	"scriptc/internal/symbols"
	"scriptc/internal/types"
)

// CheckDescriptor verifies the post-conditions of a resolved script:
//  1. the descriptor is initialized with a concrete result type
//  2. the script scope is frozen
//  3. every member comes from an eligible declaration, in source order
//  4. function members are fresh copies owned by the script class with
//     override cleared; their originals keep their owner
//  5. property members are the bound symbols themselves
func CheckDescriptor(env *sema.Env, d *sema.ScriptDescriptor) error {
	if env == nil || d == nil {
		return fmt.Errorf("nil env or descriptor")
	}
	if !d.Initialized() {
		return fmt.Errorf("%s: descriptor is %s", d.Name, d.State())
	}
	if d.ReturnType() == types.NoTypeID {
		return fmt.Errorf("%s: initialized without a result type", d.Name)
	}
	scope := env.Table.Scopes.Get(d.Scope)
	if scope == nil {
		return fmt.Errorf("%s: unknown scope %d", d.Name, d.Scope)
	}
	if scope.State() != symbols.LockFrozen {
		return fmt.Errorf("%s: scope is %s after resolution", d.Name, scope.State())
	}
	script := env.Builder.Scripts.Get(d.Script)
	if script == nil {
		return fmt.Errorf("%s: unknown script %d", d.Name, d.Script)
	}

	position := make(map[symbols.SymbolID]int, len(script.Decls))
	for i, declID := range script.Decls {
		if sym, ok := env.Bindings.Lookup(declID); ok {
			position[sym] = i
		}
	}
	checkOrder := func(kind string, origins []symbols.SymbolID) error {
		last := -1
		for _, id := range origins {
			pos, ok := position[id]
			if !ok {
				return fmt.Errorf("%s: %s member %d is not bound to a declaration", d.Name, kind, id)
			}
			decl := env.Builder.Decls.Get(script.Decls[pos])
			if !sema.IsMemberEligible(decl) {
				return fmt.Errorf("%s: ineligible %s %q became a member", d.Name, kind, env.Builder.Name(decl.Name))
			}
			if pos <= last {
				return fmt.Errorf("%s: %s members out of source order", d.Name, kind)
			}
			last = pos
		}
		return nil
	}

	props := d.Properties()
	for _, id := range props {
		sym, ok := env.Table.Symbols.Get(id)
		if !ok || sym.Kind != symbols.SymbolProperty {
			return fmt.Errorf("%s: property member %d is not a property", d.Name, id)
		}
		if sym.CopiedFrom.IsValid() {
			return fmt.Errorf("%s: property %q was copied", d.Name, env.Builder.Name(sym.Name))
		}
	}
	if err := checkOrder("property", props); err != nil {
		return err
	}

	funcs := d.Functions()
	origins := make([]symbols.SymbolID, 0, len(funcs))
	for _, id := range funcs {
		sym, ok := env.Table.Symbols.Get(id)
		if !ok || sym.Kind != symbols.SymbolFunction {
			return fmt.Errorf("%s: function member %d is not a function", d.Name, id)
		}
		name := env.Builder.Name(sym.Name)
		if sym.Owner != d.Class {
			return fmt.Errorf("%s: function %q owned by %s, want the script class", d.Name, name, env.Types.Label(sym.Owner))
		}
		if sym.Override {
			return fmt.Errorf("%s: function %q still marked override", d.Name, name)
		}
		orig, ok := env.Table.Symbols.Get(sym.CopiedFrom)
		if !ok {
			return fmt.Errorf("%s: function %q is not a copy", d.Name, name)
		}
		if orig.Owner == d.Class {
			return fmt.Errorf("%s: original of %q was re-parented in place", d.Name, name)
		}
		if orig.Modality != sym.Modality || orig.Visibility != sym.Visibility || orig.DeclKind != sym.DeclKind {
			return fmt.Errorf("%s: copy of %q changed modality, visibility or kind", d.Name, name)
		}
		origins = append(origins, sym.CopiedFrom)
	}
	return checkOrder("function", origins)
}

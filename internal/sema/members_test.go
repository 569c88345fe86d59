package sema

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"scriptc/internal/ast"
	"scriptc/internal/source"
	"scriptc/internal/symbols"
)

func TestIsMemberEligible(t *testing.T) {
	annotated := source.StringID(1)
	cases := []struct {
		name string
		decl *ast.Decl
		want bool
	}{
		{"nil", nil, false},
		{"val with type", &ast.Decl{Kind: ast.DeclProperty, Type: annotated}, true},
		{"val without type", &ast.Decl{Kind: ast.DeclProperty}, false},
		{"fun expr with type", &ast.Decl{Kind: ast.DeclFunction, Type: annotated, Body: ast.BodyExpr}, true},
		{"fun expr without type", &ast.Decl{Kind: ast.DeclFunction, Body: ast.BodyExpr}, false},
		{"fun block without type", &ast.Decl{Kind: ast.DeclFunction, Body: ast.BodyBlock}, true},
		{"fun block with type", &ast.Decl{Kind: ast.DeclFunction, Type: annotated, Body: ast.BodyBlock}, true},
		{"abstract fun with type", &ast.Decl{Kind: ast.DeclFunction, Type: annotated, Body: ast.BodyNone}, true},
		{"abstract fun without type", &ast.Decl{Kind: ast.DeclFunction, Body: ast.BodyNone}, false},
		{"invalid kind", &ast.Decl{Type: annotated}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsMemberEligible(tc.decl); got != tc.want {
				t.Fatalf("IsMemberEligible = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCollectMembersReparentsFunctions(t *testing.T) {
	f := newFixture(t)
	f.fun("run", "Int", ast.BodyExpr, f.lit(ast.LitInt, "1"), symbols.Symbol{
		Modality:   symbols.ModalityOpen,
		Visibility: symbols.VisibilityInternal,
		DeclKind:   symbols.FakeOverride,
		Override:   true,
	})
	f.fun("stop", "", ast.BodyBlock, f.block(ast.NoExprID), symbols.Symbol{
		Modality:   symbols.ModalityAbstract,
		Visibility: symbols.VisibilityPrivate,
	})

	script := f.env.Builder.Scripts.Get(f.script)
	members := CollectMembers(f.env.Builder, f.env.Table, f.env.Bindings, "demo", script, f.desc.Class)

	if len(members.Functions) != 2 {
		t.Fatalf("expected 2 functions, got %d", len(members.Functions))
	}
	for i, id := range members.Functions {
		got, _ := f.env.Table.Symbols.Get(id)
		if got.Owner != f.desc.Class {
			t.Errorf("function %d owner = %s, want script class", i, f.env.Types.Label(got.Owner))
		}
		if got.Override {
			t.Errorf("function %d still marked override", i)
		}
		orig, _ := f.env.Table.Symbols.Get(got.CopiedFrom)
		if orig.Owner != f.fileType {
			t.Errorf("original of function %d was re-parented", i)
		}
		if orig.Modality != got.Modality || orig.Visibility != got.Visibility || orig.DeclKind != got.DeclKind {
			t.Errorf("function %d lost attributes: orig=%+v copy=%+v", i, orig, got)
		}
	}
	first, _ := f.env.Table.Symbols.Get(members.Functions[0])
	orig, _ := f.env.Table.Symbols.Get(first.CopiedFrom)
	if !orig.Override {
		t.Fatalf("original override flag must be preserved")
	}
}

func TestCollectMembersKeepsSourceOrder(t *testing.T) {
	f := newFixture(t)
	f.val("a", "Int", f.lit(ast.LitInt, "1"))
	f.fun("b", "", ast.BodyBlock, f.block(ast.NoExprID), symbols.Symbol{})
	f.val("c", "", f.lit(ast.LitInt, "2"))
	f.val("d", "String", f.lit(ast.LitString, "s"))
	f.fun("e", "", ast.BodyExpr, f.lit(ast.LitInt, "3"), symbols.Symbol{})
	f.fun("g", "Boolean", ast.BodyExpr, f.lit(ast.LitBool, "true"), symbols.Symbol{})

	script := f.env.Builder.Scripts.Get(f.script)
	members := CollectMembers(f.env.Builder, f.env.Table, f.env.Bindings, "demo", script, f.desc.Class)

	if diff := cmp.Diff([]string{"a", "d"}, f.names(members.Properties)); diff != "" {
		t.Errorf("properties (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"b", "g"}, f.names(members.Functions)); diff != "" {
		t.Errorf("functions (-want +got):\n%s", diff)
	}
}

func TestCollectMembersMissingBinding(t *testing.T) {
	f := newFixture(t)
	f.addUnbound(ast.Decl{Kind: ast.DeclProperty, Name: f.str("ghost"), Type: f.str("Int")})
	script := f.env.Builder.Scripts.Get(f.script)

	inv := expectInvariant(t, func() {
		CollectMembers(f.env.Builder, f.env.Table, f.env.Bindings, "demo", script, f.desc.Class)
	})
	if inv.Op != "collect" || !strings.Contains(inv.Msg, "ghost") {
		t.Fatalf("unexpected violation %v", inv)
	}
}

func TestCollectMembersIgnoresUnboundIneligible(t *testing.T) {
	f := newFixture(t)
	// An expression-bodied function without a type is never looked up, so a
	// missing binding for it is not an error.
	f.addUnbound(ast.Decl{Kind: ast.DeclFunction, Name: f.str("lazy"), Body: ast.BodyExpr})
	script := f.env.Builder.Scripts.Get(f.script)

	members := CollectMembers(f.env.Builder, f.env.Table, f.env.Bindings, "demo", script, f.desc.Class)
	if len(members.Functions) != 0 || len(members.Properties) != 0 {
		t.Fatalf("expected no members, got %+v", members)
	}
}

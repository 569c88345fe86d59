package ast

import "scriptc/internal/source"

// DeclKind separates the two kinds of top-level script declarations.
type DeclKind uint8

const (
	DeclInvalid DeclKind = iota
	DeclProperty
	DeclFunction
)

func (k DeclKind) String() string {
	switch k {
	case DeclProperty:
		return "property"
	case DeclFunction:
		return "function"
	default:
		return "invalid"
	}
}

// BodyKind describes how a function body is written.
type BodyKind uint8

const (
	BodyNone  BodyKind = iota // abstract or external
	BodyBlock                 // fun f() { ... }
	BodyExpr                  // fun f() = expr
)

func (k BodyKind) String() string {
	switch k {
	case BodyBlock:
		return "block"
	case BodyExpr:
		return "expr"
	default:
		return "none"
	}
}

// Modifiers are the written declaration modifiers.
type Modifiers uint16

const (
	ModPrivate Modifiers = 1 << iota
	ModInternal
	ModPublic
	ModOpen
	ModAbstract
	ModFinal
	ModOverride
)

// Decl is a top-level property or function of a script.
type Decl struct {
	Kind      DeclKind
	Name      source.StringID
	Span      source.Span
	Type      source.StringID // written type annotation, NoStringID when omitted
	Mutable   bool            // var rather than val
	Init      ExprID          // property initializer
	Body      BodyKind
	BodyExpr  ExprID // block or expression body
	Modifiers Modifiers
}

// HasTypeAnnotation reports whether the declaration spells out its type.
func (d *Decl) HasTypeAnnotation() bool {
	return d != nil && d.Type != source.NoStringID
}

type Decls struct {
	Arena *Arena[Decl]
}

func NewDecls(capHint uint) *Decls {
	if capHint == 0 {
		capHint = 1 << 5
	}
	return &Decls{Arena: NewArena[Decl](capHint)}
}

func (d *Decls) New(decl Decl) DeclID {
	return DeclID(d.Arena.Allocate(decl))
}

func (d *Decls) Get(id DeclID) *Decl {
	return d.Arena.Get(uint32(id))
}

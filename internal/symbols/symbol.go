package symbols

import (
	"scriptc/internal/ast"
	"scriptc/internal/source"
	"scriptc/internal/types"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolProperty
	SymbolFunction
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolProperty:
		return "property"
	case SymbolFunction:
		return "function"
	default:
		return "invalid"
	}
}

// Modality controls whether a member may be overridden.
type Modality uint8

const (
	ModalityFinal Modality = iota
	ModalityOpen
	ModalityAbstract
)

func (m Modality) String() string {
	switch m {
	case ModalityOpen:
		return "open"
	case ModalityAbstract:
		return "abstract"
	default:
		return "final"
	}
}

// Visibility is the declared access level.
type Visibility uint8

const (
	VisibilityPublic Visibility = iota
	VisibilityInternal
	VisibilityPrivate
)

func (v Visibility) String() string {
	switch v {
	case VisibilityInternal:
		return "internal"
	case VisibilityPrivate:
		return "private"
	default:
		return "public"
	}
}

// DeclarationKind records how a symbol came into existence.
type DeclarationKind uint8

const (
	DeclaredInSource DeclarationKind = iota
	FakeOverride
	Delegation
	Synthesized
)

func (k DeclarationKind) String() string {
	switch k {
	case FakeOverride:
		return "fake_override"
	case Delegation:
		return "delegation"
	case Synthesized:
		return "synthesized"
	default:
		return "declaration"
	}
}

// Symbol describes a named entity available in a scope. Symbols are values:
// the table hands out copies and never edits a stored symbol in place.
type Symbol struct {
	Name       source.StringID
	Kind       SymbolKind
	Scope      ScopeID
	Span       source.Span
	Decl       ast.DeclID
	Owner      types.TypeID // enclosing class
	Type       types.TypeID // property type or function result; NoTypeID when not yet known
	Modality   Modality
	Visibility Visibility
	DeclKind   DeclarationKind
	Override   bool // declared with the override modifier
	Mutable    bool
	CopiedFrom SymbolID // set on re-parented copies
}

package ast

import "scriptc/internal/source"

type Hints struct{ Scripts, Decls, Exprs uint }

// Builder owns every arena of a batch. It is filled by the loader and only
// read afterwards.
type Builder struct {
	Scripts *Scripts
	Decls   *Decls
	Exprs   *Exprs
	Strings *source.Interner
}

// NewBuilder allocates arenas; a nil strings interner gets a fresh one.
func NewBuilder(hints Hints, strings *source.Interner) *Builder {
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Builder{
		Scripts: NewScripts(hints.Scripts),
		Decls:   NewDecls(hints.Decls),
		Exprs:   NewExprs(hints.Exprs),
		Strings: strings,
	}
}

// PushDecl appends decl to the script's declaration list.
func (b *Builder) PushDecl(script ScriptID, decl DeclID) {
	if s := b.Scripts.Get(script); s != nil {
		s.Decls = append(s.Decls, decl)
	}
}

// Name returns the interned text of id.
func (b *Builder) Name(id source.StringID) string {
	s, _ := b.Strings.Lookup(id)
	return s
}

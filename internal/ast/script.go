package ast

import "scriptc/internal/source"

// Script is a top-level script unit: declarations in source order plus the
// body expression evaluated as the script's result.
type Script struct {
	Name  source.StringID
	Path  string
	Span  source.Span
	Decls []DeclID
	Body  ExprID
}

type Scripts struct {
	Arena *Arena[Script]
}

func NewScripts(capHint uint) *Scripts {
	if capHint == 0 {
		capHint = 1 << 3
	}
	return &Scripts{Arena: NewArena[Script](capHint)}
}

func (s *Scripts) New(script Script) ScriptID {
	return ScriptID(s.Arena.Allocate(script))
}

func (s *Scripts) Get(id ScriptID) *Script {
	return s.Arena.Get(uint32(id))
}

package symbols

import "scriptc/internal/types"

// FunctionCopy builds a structural copy of a function symbol. The source
// symbol is taken by value, so the original stays untouched wherever it is
// still referenced.
type FunctionCopy struct {
	sym Symbol
}

// CopyFunction starts a copy of orig. orig must be a function symbol.
func CopyFunction(id SymbolID, orig Symbol) *FunctionCopy {
	if orig.Kind != SymbolFunction {
		panic("symbols.CopyFunction: " + orig.Kind.String() + " is not a function")
	}
	orig.CopiedFrom = id
	return &FunctionCopy{sym: orig}
}

// WithOwner re-parents the copy into owner.
func (c *FunctionCopy) WithOwner(owner types.TypeID) *FunctionCopy {
	c.sym.Owner = owner
	return c
}

// NotOverride clears the override marker.
func (c *FunctionCopy) NotOverride() *FunctionCopy {
	c.sym.Override = false
	return c
}

// Build returns the finished symbol value.
func (c *FunctionCopy) Build() Symbol {
	return c.sym
}

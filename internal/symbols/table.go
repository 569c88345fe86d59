package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"scriptc/internal/source"
)

// Hints provide optional capacity suggestions for the symbol table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table aggregates symbol-related arenas and shared resources.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols
	Strings *source.Interner
}

// NewTable builds a fresh table with optional capacity hints.
// If strings is nil, a fresh interner is allocated.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Table{
		Scopes:  NewScopes(scopeCap),
		Symbols: NewSymbols(symCap),
		Strings: strings,
	}
}

// Declare allocates sym and records it in scope under its name.
func (t *Table) Declare(scope ScopeID, sym Symbol) (SymbolID, error) {
	s := t.Scopes.Get(scope)
	if s == nil {
		return NoSymbolID, fmt.Errorf("declare %q: unknown scope %d", t.name(sym.Name), scope)
	}
	if s.State() != LockBuilding {
		return NoSymbolID, fmt.Errorf("declare %q in scope %d: %w", t.name(sym.Name), scope, ErrScopeFrozen)
	}
	sym.Scope = scope
	id := t.Symbols.New(sym)
	if err := s.Declare(sym.Name, id); err != nil {
		return NoSymbolID, err
	}
	return id, nil
}

// Resolve walks the scope chain starting at scope and returns the most recent
// declaration of name.
func (t *Table) Resolve(scope ScopeID, name source.StringID) (SymbolID, bool) {
	for id := scope; id.IsValid(); {
		s := t.Scopes.Get(id)
		if s == nil {
			return NoSymbolID, false
		}
		if found := s.Lookup(name); len(found) > 0 {
			return found[len(found)-1], true
		}
		id = s.Parent
	}
	return NoSymbolID, false
}

func (t *Table) name(id source.StringID) string {
	s, _ := t.Strings.Lookup(id)
	return s
}

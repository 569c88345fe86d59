package symbols

import (
	"fmt"
	"sync"

	"scriptc/internal/ast"
)

// Bindings maps source declarations to the symbols bound for them by the
// declaration phase.
type Bindings struct {
	mu     sync.RWMutex
	byDecl map[ast.DeclID]SymbolID
}

func NewBindings() *Bindings {
	return &Bindings{byDecl: make(map[ast.DeclID]SymbolID)}
}

// Bind records sym for decl. Rebinding a declaration is a bug in the caller.
func (b *Bindings) Bind(decl ast.DeclID, sym SymbolID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if prev, ok := b.byDecl[decl]; ok {
		panic(fmt.Sprintf("symbols: decl %d already bound to symbol %d", decl, prev))
	}
	b.byDecl[decl] = sym
}

// Lookup returns the symbol bound for decl.
func (b *Bindings) Lookup(decl ast.DeclID) (SymbolID, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	sym, ok := b.byDecl[decl]
	return sym, ok
}

func (b *Bindings) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.byDecl)
}

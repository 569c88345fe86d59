package symbols

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// Symbols stores declared symbols in a compact arena. Scripts of one batch
// append re-parented copies concurrently, so access is guarded.
type Symbols struct {
	mu   sync.RWMutex
	data []Symbol
}

// NewSymbols creates a symbol arena with optional capacity hint.
func NewSymbols(capacity uint32) *Symbols {
	if capacity == 0 {
		capacity = 64
	}
	return &Symbols{
		data: make([]Symbol, 1, capacity+1), // index 0 reserved for NoSymbolID
	}
}

// New stores a copy of sym and returns its ID.
func (s *Symbols) New(sym Symbol) SymbolID {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("symbols arena overflow: %w", err))
	}
	s.data = append(s.data, sym)
	return SymbolID(value)
}

// Get returns a copy of the symbol.
func (s *Symbols) Get(id SymbolID) (Symbol, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !id.IsValid() || int(id) >= len(s.data) {
		return Symbol{}, false
	}
	return s.data[id], true
}

// Len reports number of stored symbols excluding sentinel.
func (s *Symbols) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data) - 1
}

// Scopes stores scopes by pointer so a *Scope stays valid while new scopes
// are allocated.
type Scopes struct {
	mu   sync.RWMutex
	data []*Scope
}

// NewScopes creates an arena with optional capacity hint.
func NewScopes(capacity uint32) *Scopes {
	if capacity == 0 {
		capacity = 8
	}
	return &Scopes{
		data: make([]*Scope, 1, capacity+1), // index 0 reserved for NoScopeID
	}
}

// New allocates a scope in the Building state.
func (s *Scopes) New(kind ScopeKind, parent ScopeID) ScopeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("scopes arena overflow: %w", err))
	}
	id := ScopeID(value)
	s.data = append(s.data, newScope(id, kind, parent))
	return id
}

// Get returns the scope or nil if ID is invalid.
func (s *Scopes) Get(id ScopeID) *Scope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return s.data[id]
}

// Len reports total number of scopes excluding the sentinel.
func (s *Scopes) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data) - 1
}

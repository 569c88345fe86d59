package symbols

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"scriptc/internal/source"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	ScopeBuiltin           // predeclared names shared by all scripts
	ScopeScript            // top-level declarations of one script
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeBuiltin:
		return "builtin"
	case ScopeScript:
		return "script"
	default:
		return "invalid"
	}
}

// LockState is the mutability state of a scope.
type LockState uint32

const (
	LockInvalid  LockState = iota
	LockBuilding           // insertions allowed
	LockFrozen             // read-only
)

func (s LockState) String() string {
	switch s {
	case LockBuilding:
		return "building"
	case LockFrozen:
		return "frozen"
	default:
		return "invalid"
	}
}

// Next returns the only state reachable from s. Frozen and Invalid have no
// successor.
func (s LockState) Next() (LockState, bool) {
	switch s {
	case LockBuilding:
		return LockFrozen, true
	case LockFrozen, LockInvalid:
		return s, false
	}
	return LockInvalid, false
}

var (
	// ErrScopeFrozen is returned when declaring into a frozen scope.
	ErrScopeFrozen = errors.New("scope is frozen")
	// ErrIllegalTransition is returned by Freeze outside the Building state.
	ErrIllegalTransition = errors.New("illegal scope lock transition")
)

// Scope is a lexical scope with a Building → Frozen lifecycle. Until it is
// frozen every access takes the mutex; once frozen the maps are never written
// again and lookups read them directly.
type Scope struct {
	ID     ScopeID
	Kind   ScopeKind
	Parent ScopeID

	state     atomic.Uint32
	mu        sync.RWMutex
	nameIndex map[source.StringID][]SymbolID
	symbols   []SymbolID
}

func newScope(id ScopeID, kind ScopeKind, parent ScopeID) *Scope {
	s := &Scope{
		ID:        id,
		Kind:      kind,
		Parent:    parent,
		nameIndex: make(map[source.StringID][]SymbolID),
	}
	s.state.Store(uint32(LockBuilding))
	return s
}

// State reports the current lock state.
func (s *Scope) State() LockState {
	return LockState(s.state.Load())
}

// Declare records sym under name.
func (s *Scope) Declare(name source.StringID, sym SymbolID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.State() != LockBuilding {
		return fmt.Errorf("declare in scope %d: %w", s.ID, ErrScopeFrozen)
	}
	s.nameIndex[name] = append(s.nameIndex[name], sym)
	s.symbols = append(s.symbols, sym)
	return nil
}

// Freeze moves the scope from Building to Frozen.
func (s *Scope) Freeze() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.State()
	next, ok := cur.Next()
	if !ok || next != LockFrozen {
		return fmt.Errorf("freeze scope %d in state %s: %w", s.ID, cur, ErrIllegalTransition)
	}
	s.state.Store(uint32(next))
	return nil
}

// Lookup returns the symbols declared under name in this scope only, in
// declaration order. The result is the caller's to modify.
func (s *Scope) Lookup(name source.StringID) []SymbolID {
	if s.State() == LockFrozen {
		return slices.Clone(s.nameIndex[name])
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.nameIndex[name])
}

// Symbols returns every symbol declared in the scope in declaration order.
func (s *Scope) Symbols() []SymbolID {
	if s.State() == LockFrozen {
		return slices.Clone(s.symbols)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.symbols)
}

package types

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Unit    TypeID
	Nothing TypeID
	Bool    TypeID
	String  TypeID
	Byte    TypeID
	Short   TypeID
	Int     TypeID
	Long    TypeID
	Float   TypeID
	Double  TypeID
}

// ClassInfo describes a nominal class type.
type ClassInfo struct {
	Name      string
	Synthetic bool // generated for a script unit
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// Scripts of one batch share an interner, so every method takes the lock.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[Type]TypeID
	names    map[string]TypeID
	classes  []ClassInfo
	errors   []string
	builtins Builtins
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		types: []Type{{Kind: KindInvalid}}, // reserve 0 for NoTypeID
		index: make(map[Type]TypeID, 32),
		names: make(map[string]TypeID, 16),
	}
	in.classes = append(in.classes, ClassInfo{})
	in.errors = append(in.errors, "")
	in.builtins.Unit = in.builtin("Unit", Type{Kind: KindUnit})
	in.builtins.Nothing = in.builtin("Nothing", Type{Kind: KindNothing})
	in.builtins.Bool = in.builtin("Boolean", Type{Kind: KindBool})
	in.builtins.String = in.builtin("String", Type{Kind: KindString})
	in.builtins.Byte = in.builtin("Byte", MakeInt(Width8))
	in.builtins.Short = in.builtin("Short", MakeInt(Width16))
	in.builtins.Int = in.builtin("Int", MakeInt(Width32))
	in.builtins.Long = in.builtin("Long", MakeInt(Width64))
	in.builtins.Float = in.builtin("Float", MakeFloat(Width32))
	in.builtins.Double = in.builtin("Double", MakeFloat(Width64))
	return in
}

func (in *Interner) builtin(name string, t Type) TypeID {
	id := in.internLocked(t)
	in.names[name] = id
	return id
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	in.mu.RLock()
	id, ok := in.index[t]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.internLocked(t)
}

func (in *Interner) internLocked(t Type) TypeID {
	if id, ok := in.index[t]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(n)
	in.types = append(in.types, t)
	in.index[t] = id
	return id
}

// Named resolves a written type name (a type annotation) to its TypeID.
func (in *Interner) Named(name string) (TypeID, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	id, ok := in.names[name]
	return id, ok
}

// RegisterClass allocates a fresh nominal class. Classes are never
// deduplicated: two scripts with the same name still get distinct types.
func (in *Interner) RegisterClass(name string, synthetic bool) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	slot := in.appendSlot(len(in.classes))
	in.classes = append(in.classes, ClassInfo{Name: name, Synthetic: synthetic})
	id := in.internLocked(Type{Kind: KindClass, Payload: slot})
	if !synthetic {
		in.names[name] = id
	}
	return id
}

// ClassInfo returns metadata for a class type.
func (in *Interner) ClassInfo(id TypeID) (ClassInfo, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindClass {
		return ClassInfo{}, false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.classes[tt.Payload], true
}

// ErrorType returns a sentinel error type carrying msg.
func (in *Interner) ErrorType(msg string) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	for slot := 1; slot < len(in.errors); slot++ {
		if in.errors[slot] == msg {
			return in.index[Type{Kind: KindError, Payload: in.appendSlot(slot)}]
		}
	}
	slot := in.appendSlot(len(in.errors))
	in.errors = append(in.errors, msg)
	return in.internLocked(Type{Kind: KindError, Payload: slot})
}

// ErrorMessage reports the diagnostic carried by a sentinel error type.
func (in *Interner) ErrorMessage(id TypeID) (string, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindError {
		return "", false
	}
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.errors[tt.Payload], true
}

// IsError reports whether id is a sentinel error type.
func (in *Interner) IsError(id TypeID) bool {
	tt, ok := in.Lookup(id)
	return ok && tt.Kind == KindError
}

func (in *Interner) appendSlot(n int) uint32 {
	slot, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("type side table overflow: %w", err))
	}
	return slot
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

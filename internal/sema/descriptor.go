package sema

import (
	"fmt"
	"slices"
	"sync"

	"scriptc/internal/ast"
	"scriptc/internal/symbols"
	"scriptc/internal/types"
)

// DescriptorState tracks a script descriptor through resolution.
type DescriptorState uint8

const (
	DescriptorUninitialized DescriptorState = iota
	DescriptorInitializing                  // scope frozen, inference running
	DescriptorInitialized
)

func (s DescriptorState) String() string {
	switch s {
	case DescriptorUninitialized:
		return "uninitialized"
	case DescriptorInitializing:
		return "initializing"
	case DescriptorInitialized:
		return "initialized"
	default:
		return fmt.Sprintf("DescriptorState(%d)", s)
	}
}

// Members are the symbols that become members of the script class, in source
// order.
type Members struct {
	Properties []symbols.SymbolID
	Functions  []symbols.SymbolID
}

// ScriptDescriptor describes the synthetic class of one script. It is created
// empty by the binding phase and initialized exactly once by ResolveScript.
type ScriptDescriptor struct {
	Script ast.ScriptID
	Name   string
	Class  types.TypeID    // synthetic script class
	Scope  symbols.ScopeID // script scope, owned by the descriptor

	mu         sync.RWMutex
	state      DescriptorState
	returnType types.TypeID
	members    Members
}

// NewScriptDescriptor returns an uninitialized descriptor.
func NewScriptDescriptor(script ast.ScriptID, name string, class types.TypeID, scope symbols.ScopeID) *ScriptDescriptor {
	return &ScriptDescriptor{
		Script: script,
		Name:   name,
		Class:  class,
		Scope:  scope,
	}
}

func (d *ScriptDescriptor) State() DescriptorState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Initialized reports whether Initialize has run.
func (d *ScriptDescriptor) Initialized() bool {
	return d.State() == DescriptorInitialized
}

// beginInitializing marks the start of resolution.
func (d *ScriptDescriptor) beginInitializing() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != DescriptorUninitialized {
		invariantf("freeze", d.Name, "descriptor is already %s", d.state)
	}
	d.state = DescriptorInitializing
}

// Initialize stores the result type and members. It may run once; a second
// call panics with an *InvariantError.
func (d *ScriptDescriptor) Initialize(returnType types.TypeID, members Members) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == DescriptorInitialized {
		invariantf("finalize", d.Name, "descriptor initialized twice")
	}
	if returnType == types.NoTypeID {
		invariantf("finalize", d.Name, "missing return type")
	}
	d.returnType = returnType
	d.members = Members{
		Properties: slices.Clip(members.Properties),
		Functions:  slices.Clip(members.Functions),
	}
	d.state = DescriptorInitialized
}

// ReturnType is the inferred script result, possibly a sentinel error type.
func (d *ScriptDescriptor) ReturnType() types.TypeID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	d.mustBeInitialized()
	return d.returnType
}

// Properties returns the property members in source order.
func (d *ScriptDescriptor) Properties() []symbols.SymbolID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	d.mustBeInitialized()
	return slices.Clone(d.members.Properties)
}

// Functions returns the re-parented function members in source order.
func (d *ScriptDescriptor) Functions() []symbols.SymbolID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	d.mustBeInitialized()
	return slices.Clone(d.members.Functions)
}

func (d *ScriptDescriptor) mustBeInitialized() {
	if d.state != DescriptorInitialized {
		invariantf("query", d.Name, "descriptor read while %s", d.state)
	}
}

// Package linearlogic implements the execution core of a functional-logic
// programming runtime with linear-logic resource semantics: an interned
// term model, first-order unification with occurs check, a linear-logic
// knowledge base, and a goal-directed resolution engine.
package linearlogic

import (
	"fmt"
	"sync"
)

// SymbolId identifies an interned atom/functor name. The zero value is
// reserved as "null" and is never returned by Intern.
type SymbolId uint16

// VarId identifies a logic variable. Identity is the VarId; any name
// attached to it is informational only.
type VarId uint16

// MaxSymbols bounds the symbol table; exceeding it is a fatal
// CapacityExceeded error, not a branch failure.
const MaxSymbols = 65535

// MaxVarIds bounds the VarId space for the same reason.
const MaxVarIds = 65535

// Built-in symbols, pre-interned by NewInterner.
const (
	SymNull  SymbolId = 0
	SymTrue  SymbolId = 1
	SymFalse SymbolId = 2
	SymNil   SymbolId = 3
)

// Interner assigns compact, canonical SymbolIds to atom/functor names and
// fresh VarIds to logic variables. Two symbols are equal iff their IDs are
// equal; interning is idempotent.
//
// An Interner is scoped to a single KnowledgeBase (and the Engine that
// operates on it) rather than shared process-wide, so that VarId
// allocation stays deterministic per KnowledgeBase regardless of what
// else is running in the process.
type Interner struct {
	mu sync.RWMutex

	names  []string
	byName map[string]SymbolId

	nextVar   VarId
	varNames  map[string]VarId
	varNameOf map[VarId]string
}

// NewInterner creates an interner with the fixed built-in table already
// present.
func NewInterner() *Interner {
	in := &Interner{
		names:     make([]string, 1, 16),
		byName:    make(map[string]SymbolId, 16),
		varNames:  make(map[string]VarId),
		varNameOf: make(map[VarId]string),
	}
	in.names[0] = "" // SymNull
	for _, name := range []string{"true", "false", "nil"} {
		if _, err := in.Intern(name); err != nil {
			// Unreachable: the table starts empty, well under MaxSymbols.
			panic(fmt.Sprintf("linearlogic: failed to seed built-in symbol %q: %v", name, err))
		}
	}
	return in
}

// Intern returns the canonical SymbolId for name, assigning a fresh one
// the first time name is seen.
func (in *Interner) Intern(name string) (SymbolId, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if id, ok := in.byName[name]; ok {
		return id, nil
	}
	if len(in.names) >= MaxSymbols {
		return SymNull, fmt.Errorf("%w: symbol table exhausted at %d entries", ErrCapacityExceeded, MaxSymbols)
	}
	id := SymbolId(len(in.names))
	in.names = append(in.names, name)
	in.byName[name] = id
	return id, nil
}

// Resolve returns the name for id. ok is false for an id that was never
// interned.
func (in *Interner) Resolve(id SymbolId) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(id) >= len(in.names) {
		return "", false
	}
	return in.names[id], true
}

// FreshVar returns a previously unused VarId. If name is non-empty and
// already interned as a variable name, the existing VarId is returned
// instead of allocating a new one.
func (in *Interner) FreshVar(name string) (VarId, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if name != "" {
		if id, ok := in.varNames[name]; ok {
			return id, nil
		}
	}
	if int(in.nextVar) >= MaxVarIds {
		return 0, fmt.Errorf("%w: variable id space exhausted at %d entries", ErrCapacityExceeded, MaxVarIds)
	}
	id := in.nextVar
	in.nextVar++
	if name != "" {
		in.varNames[name] = id
		in.varNameOf[id] = name
	}
	return id, nil
}

// ResolveVar returns the debugging name attached to id, if any.
func (in *Interner) ResolveVar(id VarId) (string, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	name, ok := in.varNameOf[id]
	return name, ok
}

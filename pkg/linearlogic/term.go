package linearlogic

import (
	"fmt"
	"strings"
)

// TermTag identifies which of the five term shapes a Term value holds.
type TermTag int

const (
	TagAtom TermTag = iota
	TagVar
	TagInteger
	TagCompound
	TagClone
)

// Term is the tagged union at the center of the data model: an atom, a
// variable, an integer, a compound, or a CLONE wrapper. Terms are value
// types — every term-returning operation here produces an independent
// tree; nothing in the contract requires sharing.
type Term interface {
	Tag() TermTag

	// Clone returns a deep, independent copy of the term.
	Clone() Term

	// Equal is strict structural equality: same tag, same payload,
	// recursively. It does not look through CLONE (Apply is the only
	// operation authorized to do that).
	Equal(other Term) bool

	// String is a debug rendering using raw numeric ids; it does not
	// require an Interner. Use Render for human-readable output.
	String() string
}

// Atom is a constant symbol. A 0-arity Compound with the same functor
// is a distinct term: Atom and Compound never unify with each other.
type Atom struct {
	Sym SymbolId
}

func NewAtom(sym SymbolId) Atom { return Atom{Sym: sym} }

func (a Atom) Tag() TermTag        { return TagAtom }
func (a Atom) Clone() Term         { return Atom{Sym: a.Sym} }
func (a Atom) String() string      { return fmt.Sprintf("#%d", uint16(a.Sym)) }
func (a Atom) Equal(other Term) bool {
	o, ok := other.(Atom)
	return ok && o.Sym == a.Sym
}

// Var is an unbound logic variable until a Substitution binds it.
type Var struct {
	ID VarId
}

func NewVar(id VarId) Var { return Var{ID: id} }

func (v Var) Tag() TermTag   { return TagVar }
func (v Var) Clone() Term    { return Var{ID: v.ID} }
func (v Var) String() string { return fmt.Sprintf("_%d", uint16(v.ID)) }
func (v Var) Equal(other Term) bool {
	o, ok := other.(Var)
	return ok && o.ID == v.ID
}

// Integer is a signed 64-bit constant.
type Integer struct {
	Value int64
}

func NewInteger(v int64) Integer { return Integer{Value: v} }

func (i Integer) Tag() TermTag   { return TagInteger }
func (i Integer) Clone() Term    { return Integer{Value: i.Value} }
func (i Integer) String() string { return fmt.Sprintf("%d", i.Value) }
func (i Integer) Equal(other Term) bool {
	o, ok := other.(Integer)
	return ok && o.Value == i.Value
}

// Compound applies a functor to a fixed-arity sequence of arguments.
// Arity equals len(Args); the constructor rejects more than 255 (u8).
type Compound struct {
	Functor SymbolId
	Args    []Term
}

// NewCompound builds a Compound, rejecting arities above the u8 payload
// the data model allows.
func NewCompound(functor SymbolId, args []Term) (Compound, error) {
	if len(args) > 255 {
		return Compound{}, fmt.Errorf("%w: compound arity %d exceeds u8", ErrMalformed, len(args))
	}
	cp := make([]Term, len(args))
	copy(cp, args)
	return Compound{Functor: functor, Args: cp}, nil
}

// Arity returns the compound's argument count.
func (c Compound) Arity() int { return len(c.Args) }

func (c Compound) Tag() TermTag { return TagCompound }

func (c Compound) Clone() Term {
	args := make([]Term, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.Clone()
	}
	return Compound{Functor: c.Functor, Args: args}
}

func (c Compound) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d(", uint16(c.Functor))
	for i, a := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

func (c Compound) Equal(other Term) bool {
	o, ok := other.(Compound)
	if !ok || o.Functor != c.Functor || len(o.Args) != len(c.Args) {
		return false
	}
	for i := range c.Args {
		if !c.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// CloneTerm marks its inner term as persistent-use: it is never itself
// consumed, and during unification is transparent to its inner term.
// CLONE of CLONE collapses to a single CLONE (see NewClone).
type CloneTerm struct {
	Inner Term
}

// NewClone wraps t in a CLONE marker, collapsing nested CLONEs so that
// CloneTerm{CloneTerm{x}} is never constructed.
func NewClone(t Term) Term {
	if ct, ok := t.(CloneTerm); ok {
		return ct
	}
	return CloneTerm{Inner: t}
}

func (c CloneTerm) Tag() TermTag { return TagClone }
func (c CloneTerm) Clone() Term  { return CloneTerm{Inner: c.Inner.Clone()} }
func (c CloneTerm) String() string {
	return "!" + c.Inner.String()
}
func (c CloneTerm) Equal(other Term) bool {
	o, ok := other.(CloneTerm)
	return ok && c.Inner.Equal(o.Inner)
}

// Unclone strips any number of leading CLONE wrappers and reports
// whether at least one was present.
func Unclone(t Term) (Term, bool) {
	wasCloned := false
	for {
		ct, ok := t.(CloneTerm)
		if !ok {
			return t, wasCloned
		}
		wasCloned = true
		t = ct.Inner
	}
}

// Occurs reports whether v appears anywhere within t, recursing through
// CLONE wrappers (a binding that would hide an occurrence inside a
// clone is still unsound).
func Occurs(v VarId, t Term) bool {
	switch x := t.(type) {
	case Var:
		return x.ID == v
	case Compound:
		for _, a := range x.Args {
			if Occurs(v, a) {
				return true
			}
		}
		return false
	case CloneTerm:
		return Occurs(v, x.Inner)
	default:
		return false
	}
}

// FreeVars collects the distinct variables in t, duplicates removed, in
// first-occurrence order.
func FreeVars(t Term) []VarId {
	var out []VarId
	seen := make(map[VarId]struct{})
	var walk func(Term)
	walk = func(term Term) {
		switch x := term.(type) {
		case Var:
			if _, ok := seen[x.ID]; !ok {
				seen[x.ID] = struct{}{}
				out = append(out, x.ID)
			}
		case Compound:
			for _, a := range x.Args {
				walk(a)
			}
		case CloneTerm:
			walk(x.Inner)
		}
	}
	walk(t)
	return out
}

// Render produces a human-readable form of t using in to resolve
// SymbolIds and VarId debug names. It is the printable form named in
// spec §4.B; String() above is the dependency-free fallback used for
// internal dedup keys and debug logging.
func Render(t Term, in *Interner) string {
	switch x := t.(type) {
	case Atom:
		if name, ok := in.Resolve(x.Sym); ok {
			return name
		}
		return x.String()
	case Var:
		if name, ok := in.ResolveVar(x.ID); ok {
			return "_" + name
		}
		return x.String()
	case Integer:
		return x.String()
	case Compound:
		name, ok := in.Resolve(x.Functor)
		if !ok {
			name = x.String()
			return name
		}
		var b strings.Builder
		b.WriteString(name)
		b.WriteByte('(')
		for i, a := range x.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(Render(a, in))
		}
		b.WriteByte(')')
		return b.String()
	case CloneTerm:
		return "!" + Render(x.Inner, in)
	default:
		return t.String()
	}
}

// renameMapping extends mapping with a fresh VarId for every variable in
// t not already present, then returns t with every variable rewritten
// according to mapping. A single mapping shared across a rule's Head,
// Body, and Production keeps their shared variables linked within one
// freshly-renamed instance (spec §4.B: "injective within a single rule
// instance and disjoint from VarIds in the goal").
func renameMapping(t Term, mapping map[VarId]VarId, in *Interner) (Term, error) {
	switch x := t.(type) {
	case Var:
		nv, ok := mapping[x.ID]
		if !ok {
			fresh, err := in.FreshVar("")
			if err != nil {
				return nil, err
			}
			mapping[x.ID] = fresh
			nv = fresh
		}
		return Var{ID: nv}, nil
	case Compound:
		args := make([]Term, len(x.Args))
		for i, a := range x.Args {
			r, err := renameMapping(a, mapping, in)
			if err != nil {
				return nil, err
			}
			args[i] = r
		}
		return Compound{Functor: x.Functor, Args: args}, nil
	case CloneTerm:
		r, err := renameMapping(x.Inner, mapping, in)
		if err != nil {
			return nil, err
		}
		return NewClone(r), nil
	default:
		return t.Clone(), nil
	}
}

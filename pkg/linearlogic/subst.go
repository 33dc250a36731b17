package linearlogic

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultMaxVars is the spec's recommended Substitution capacity.
const DefaultMaxVars = 256

// Substitution is an ordered mapping from VarId to Term, bounded above
// by the maxVars capacity given to NewSubstitution. A VarId appears at most once; no binding's right-hand
// side contains its own left-hand-side VarId (occurs check at
// insertion). It is not safe for concurrent use — per spec §5 a
// Substitution is owned by exactly one Engine run at a time.
type Substitution struct {
	bindings map[VarId]Term
	order    []VarId
	maxVars  int
}

// NewSubstitution creates an empty substitution bounded by maxVars. A
// maxVars <= 0 selects DefaultMaxVars.
func NewSubstitution(maxVars int) *Substitution {
	if maxVars <= 0 {
		maxVars = DefaultMaxVars
	}
	return &Substitution{
		bindings: make(map[VarId]Term),
		maxVars:  maxVars,
	}
}

// Clone returns an independent copy of s.
func (s *Substitution) Clone() *Substitution {
	ns := &Substitution{
		bindings: make(map[VarId]Term, len(s.bindings)),
		order:    append([]VarId(nil), s.order...),
		maxVars:  s.maxVars,
	}
	for k, v := range s.bindings {
		ns.bindings[k] = v
	}
	return ns
}

// Mark returns a position usable with NewBindingsSince to observe
// bindings added after this point — used by the engine to fire the
// external constraint hook exactly once per new binding (spec §4.G).
func (s *Substitution) Mark() int { return len(s.order) }

// NewBindingsSince returns the (VarId, Term) pairs added after mark, in
// insertion order.
func (s *Substitution) NewBindingsSince(mark int) []struct {
	Var  VarId
	Term Term
} {
	if mark >= len(s.order) {
		return nil
	}
	out := make([]struct {
		Var  VarId
		Term Term
	}, 0, len(s.order)-mark)
	for _, v := range s.order[mark:] {
		out = append(out, struct {
			Var  VarId
			Term Term
		}{Var: v, Term: s.bindings[v]})
	}
	return out
}

// Lookup returns the term bound to v, or (nil, false) if unbound.
func (s *Substitution) Lookup(v VarId) (Term, bool) {
	t, ok := s.bindings[v]
	return t, ok
}

// AddBinding records v -> t, failing the occurs check if t contains v,
// and failing if v is already bound (the appears-at-most-once
// invariant — this indicates the caller should have walked v through
// the substitution first).
func (s *Substitution) AddBinding(v VarId, t Term) error {
	if _, bound := s.bindings[v]; bound {
		return fmt.Errorf("%w: variable %d already bound", ErrMalformed, v)
	}
	if Occurs(v, t) {
		return fmt.Errorf("%w: variable %d occurs in %s", ErrOccursCheck, v, t.String())
	}
	if len(s.bindings) >= s.maxVars {
		return fmt.Errorf("%w: substitution at %d bindings", ErrCapacityExceeded, s.maxVars)
	}
	s.bindings[v] = t
	s.order = append(s.order, v)
	return nil
}

// Apply recursively rewrites t, chasing variable chains to a fixpoint
// (or to an unbound variable). It is the only operation authorized to
// look through CLONE: walking a variable chain that passes through a
// clone-wrapped binding still resolves fully, though the CLONE marker
// on the resolved value is preserved in the result.
func (s *Substitution) Apply(t Term) Term {
	return s.applyDepth(t, 0)
}

const maxApplyDepth = DefaultMaxVars * 4

func (s *Substitution) applyDepth(t Term, depth int) Term {
	if depth > maxApplyDepth {
		// A well-formed substitution (occurs-checked at insertion) cannot
		// cycle; this bound only guards against a malformed caller-built
		// one.
		return t
	}
	switch x := t.(type) {
	case Var:
		if bound, ok := s.bindings[x.ID]; ok {
			return s.applyDepth(bound, depth+1)
		}
		return x
	case Compound:
		args := make([]Term, len(x.Args))
		changed := false
		for i, a := range x.Args {
			args[i] = s.applyDepth(a, depth+1)
			if !changed && !args[i].Equal(a) {
				changed = true
			}
		}
		if !changed {
			return x
		}
		return Compound{Functor: x.Functor, Args: args}
	case CloneTerm:
		return NewClone(s.applyDepth(x.Inner, depth+1))
	default:
		return t
	}
}

// Compose rewrites every right-hand side of s under other, then appends
// every binding of other whose left-hand side is absent from s.
func (s *Substitution) Compose(other *Substitution) *Substitution {
	out := NewSubstitution(s.maxVars)
	for _, v := range s.order {
		out.bindings[v] = other.Apply(s.bindings[v])
		out.order = append(out.order, v)
	}
	for _, v := range other.order {
		if _, already := out.bindings[v]; already {
			continue
		}
		out.bindings[v] = other.bindings[v]
		out.order = append(out.order, v)
	}
	return out
}

// Filter projects s onto vars, applying each surviving binding to
// fixpoint.
func (s *Substitution) Filter(vars []VarId) *Substitution {
	out := NewSubstitution(s.maxVars)
	want := make(map[VarId]struct{}, len(vars))
	for _, v := range vars {
		want[v] = struct{}{}
	}
	for _, v := range s.order {
		if _, ok := want[v]; !ok {
			continue
		}
		out.bindings[v] = s.Apply(s.bindings[v])
		out.order = append(out.order, v)
	}
	return out
}

// Equal is order-insensitive structural equality after applying both
// substitutions to fixpoint.
func (s *Substitution) Equal(other *Substitution) bool {
	if len(s.bindings) != len(other.bindings) {
		return false
	}
	for v, t := range s.bindings {
		ot, ok := other.bindings[v]
		if !ok {
			return false
		}
		if !s.Apply(t).Equal(other.Apply(ot)) {
			return false
		}
	}
	return true
}

// Size returns the number of bindings in s.
func (s *Substitution) Size() int { return len(s.bindings) }

// String renders s using raw numeric ids (dependency-free; see Render
// on Term for a name-resolving form at the call site).
func (s *Substitution) String() string {
	if len(s.bindings) == 0 {
		return "{}"
	}
	ordered := append([]VarId(nil), s.order...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range ordered {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "_%d=%s", v, s.bindings[v].String())
	}
	b.WriteByte('}')
	return b.String()
}

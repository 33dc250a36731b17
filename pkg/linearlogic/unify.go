package linearlogic

// Unify is the canonical, occurs-checked unifier (Robinson's algorithm).
// It resolves each side through s, then:
//
//  1. If either side is a CLONE, recurse on its inner term (recursion
//     happens at any depth, not just the top).
//  2. Var-anything binds after an occurs check; Var-Var binds the
//     younger VarId (the larger numeric id) to the older one, giving a
//     canonical, deterministic orientation.
//  3. Atom-Atom / Integer-Integer compare by id/value.
//  4. Compound-Compound requires equal functor and arity, then unifies
//     element-wise, failing (and leaving s unchanged) on the first
//     element failure.
//  5. Anything else fails.
//
// On failure s is returned unchanged (no partial bindings survive) and
// ok is false.
//
// Unify is the entry point used for rule-production/head matching
// against a goal and for any composition that must stay occurs-checked
// (spec §9 Open Question (a)).
func Unify(s *Substitution, t1, t2 Term) (*Substitution, bool) {
	return unify(s, t1, t2, true)
}

// UnifyTerms is the relaxed variant: it strips any leading CLONE
// wrapper from either side before comparing, and performs no occurs
// check. It is used exclusively for matching a goal against a resource
// already stored in the knowledge base (direct fact match, and body
// discharge) — a KB-owned fact is well-formed by construction, so
// re-deriving an occurs check against it is wasted work, and a
// persistent resource's own CLONE marker must be transparent without
// walking back through Apply (spec §9 Open Question (a)).
func UnifyTerms(s *Substitution, goal, resource Term) (*Substitution, bool) {
	goal, _ = Unclone(s.Apply(goal))
	resource, _ = Unclone(resource)
	return unify(s, goal, resource, false)
}

func unify(s *Substitution, t1, t2 Term, occursCheck bool) (*Substitution, bool) {
	t1 = s.Apply(t1)
	t2 = s.Apply(t2)

	if ct, ok := t1.(CloneTerm); ok {
		return unify(s, ct.Inner, t2, occursCheck)
	}
	if ct, ok := t2.(CloneTerm); ok {
		return unify(s, t1, ct.Inner, occursCheck)
	}

	v1, isVar1 := t1.(Var)
	v2, isVar2 := t2.(Var)

	switch {
	case isVar1 && isVar2:
		if v1.ID == v2.ID {
			return s, true
		}
		younger, older := v1, v2
		if v2.ID > v1.ID {
			younger, older = v2, v1
		}
		return bindVar(s, younger.ID, older, occursCheck)

	case isVar1:
		return bindVar(s, v1.ID, t2, occursCheck)

	case isVar2:
		return bindVar(s, v2.ID, t1, occursCheck)
	}

	switch x1 := t1.(type) {
	case Atom:
		x2, ok := t2.(Atom)
		return s, ok && x1.Sym == x2.Sym

	case Integer:
		x2, ok := t2.(Integer)
		return s, ok && x1.Value == x2.Value

	case Compound:
		x2, ok := t2.(Compound)
		if !ok || x1.Functor != x2.Functor || len(x1.Args) != len(x2.Args) {
			return s, false
		}
		cur := s
		for i := range x1.Args {
			var ok bool
			cur, ok = unify(cur, x1.Args[i], x2.Args[i], occursCheck)
			if !ok {
				return s, false
			}
		}
		return cur, true

	default:
		return s, false
	}
}

func bindVar(s *Substitution, v VarId, t Term, occursCheck bool) (*Substitution, bool) {
	if occursCheck && Occurs(v, t) {
		return s, false
	}
	next := s.Clone()
	if err := next.AddBinding(v, t); err != nil {
		return s, false
	}
	return next, true
}

package linearlogic

import "fmt"

// Rule is a clause (Head?, Body, Production?). With a Production it is
// a linear-logic implication body ⊸ production: firing it consumes each
// matching resource satisfying Body (modulo persistence) and asserts
// the substituted Production as a new linear resource. Without a
// Production it behaves as a conventional Horn clause over the
// knowledge base.
type Rule struct {
	Head        Term // optional
	Body        []Term
	Production  Term // optional
	IsRecursive bool

	instanceCounter uint32
}

// ruleKey indexes rules by the functor/arity of their dispatch term
// (Production if present, else Head) to avoid a linear scan per goal
// (spec §9: "performance refinement, not a semantic change").
type ruleKey struct {
	functor SymbolId
	arity   int
	isAtom  bool
}

func keyFor(t Term) (ruleKey, bool) {
	switch x := t.(type) {
	case Atom:
		return ruleKey{functor: x.Sym, arity: 0, isAtom: true}, true
	case Compound:
		return ruleKey{functor: x.Functor, arity: len(x.Args)}, true
	default:
		return ruleKey{}, false
	}
}

// dispatchTerm returns the term a rule is indexed by: its Production if
// present, otherwise its Head.
func (r *Rule) dispatchTerm() Term {
	if r.Production != nil {
		return r.Production
	}
	return r.Head
}

// newRule validates and constructs a rule, computing IsRecursive by
// checking whether any body literal shares a dispatch-term functor with
// the rule's own Head/Production.
func newRule(head Term, body []Term, production Term) (*Rule, error) {
	if head == nil && production == nil {
		return nil, fmt.Errorf("%w: rule has neither head nor production", ErrMalformed)
	}
	bodyCopy := make([]Term, len(body))
	copy(bodyCopy, body)

	r := &Rule{Head: head, Body: bodyCopy, Production: production}
	r.IsRecursive = isRecursiveRule(head, bodyCopy, production)
	return r, nil
}

func isRecursiveRule(head Term, body []Term, production Term) bool {
	targets := make(map[ruleKey]struct{})
	if head != nil {
		if k, ok := keyFor(head); ok {
			targets[k] = struct{}{}
		}
	}
	if production != nil {
		if k, ok := keyFor(production); ok {
			targets[k] = struct{}{}
		}
	}
	if len(targets) == 0 {
		return false
	}
	found := false
	var walk func(Term)
	walk = func(t Term) {
		if found {
			return
		}
		if k, ok := keyFor(t); ok {
			if _, hit := targets[k]; hit {
				found = true
				return
			}
		}
		if c, ok := t.(Compound); ok {
			for _, a := range c.Args {
				walk(a)
			}
		}
		if c, ok := t.(CloneTerm); ok {
			walk(c.Inner)
		}
	}
	for _, b := range body {
		walk(b)
		if found {
			break
		}
	}
	return found
}

// RuleInstance is a rule with every variable freshly renamed for one
// firing attempt, sharing a single rename mapping across Head, Body,
// and Production so their shared variables stay linked (spec §4.B).
type RuleInstance struct {
	Source     *Rule
	InstanceID uint32
	Head       Term
	Body       []Term
	Production Term
}

func renameRule(r *Rule, in *Interner) (*RuleInstance, error) {
	instanceID := r.instanceCounter
	r.instanceCounter++

	mapping := make(map[VarId]VarId)
	inst := &RuleInstance{Source: r, InstanceID: instanceID}

	if r.Head != nil {
		h, err := renameMapping(r.Head, mapping, in)
		if err != nil {
			return nil, err
		}
		inst.Head = h
	}
	inst.Body = make([]Term, len(r.Body))
	for i, b := range r.Body {
		rb, err := renameMapping(b, mapping, in)
		if err != nil {
			return nil, err
		}
		inst.Body[i] = rb
	}
	if r.Production != nil {
		p, err := renameMapping(r.Production, mapping, in)
		if err != nil {
			return nil, err
		}
		inst.Production = p
	}
	return inst, nil
}

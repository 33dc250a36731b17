package linearlogic

import (
	"fmt"
	"sort"
	"strings"
)

// Solution is a filtered substitution restricted to a query's free
// variables, with every term resolved to fixpoint.
type Solution map[VarId]Term

// Render returns a human-readable rendering of the solution's bindings,
// sorted by VarId for determinism, using in to resolve names and
// unwrapping any CLONE marker for display (spec §4.H: "CLONE unwrapped
// for display").
func (sol Solution) Render(in *Interner) string {
	vars := make([]VarId, 0, len(sol))
	for v := range sol {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })

	var b strings.Builder
	for i, v := range vars {
		if i > 0 {
			b.WriteString(", ")
		}
		unwrapped, _ := Unclone(sol[v])
		name, ok := in.ResolveVar(v)
		if !ok {
			name = Var{ID: v}.String()
		}
		b.WriteString(name)
		b.WriteString(" = ")
		b.WriteString(Render(unwrapped, in))
	}
	return b.String()
}

// EnhancedSolutionList is the append-only, deduplicated accumulator
// Component H describes: each Add projects a substitution onto the
// query's free variables and only appends it if its canonical-term key
// has not been seen before (spec: "multiset of (VarId, canonical-term)
// pairs after normalization").
type EnhancedSolutionList struct {
	queryVars []VarId
	solutions []Solution
	seen      map[string]struct{}
}

// NewEnhancedSolutionList creates a collector restricted to queryVars
// (typically FreeVars(originalQuery)).
func NewEnhancedSolutionList(queryVars []VarId) *EnhancedSolutionList {
	return &EnhancedSolutionList{
		queryVars: append([]VarId(nil), queryVars...),
		seen:      make(map[string]struct{}),
	}
}

// Add projects s onto the collector's query variables and appends it if
// it is not a duplicate of an already-recorded solution. It reports
// whether a new solution was appended.
func (l *EnhancedSolutionList) Add(s *Substitution) bool {
	sol := make(Solution, len(l.queryVars))
	for _, v := range l.queryVars {
		t, ok := s.Lookup(v)
		if !ok {
			t = Var{ID: v}
		} else {
			t = s.Apply(t)
		}
		sol[v] = t
	}

	key := canonicalKey(sol)
	if _, ok := l.seen[key]; ok {
		return false
	}
	l.seen[key] = struct{}{}
	l.solutions = append(l.solutions, sol)
	return true
}

func canonicalKey(sol Solution) string {
	vars := make([]VarId, 0, len(sol))
	for v := range sol {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })

	var b strings.Builder
	for _, v := range vars {
		unwrapped, _ := Unclone(sol[v])
		fmt.Fprintf(&b, "|%d:%s", uint16(v), unwrapped.String())
	}
	return b.String()
}

// Solutions returns the accumulated, deduplicated solutions in
// discovery order.
func (l *EnhancedSolutionList) Solutions() []Solution { return l.solutions }

// Len returns the number of distinct solutions recorded.
func (l *EnhancedSolutionList) Len() int { return len(l.solutions) }

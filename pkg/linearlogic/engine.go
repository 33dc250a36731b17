package linearlogic

import (
	"context"
	"errors"

	"github.com/hashicorp/go-hclog"
)

// Default bounds for the goal stack and goal cache (spec §4.F, §9 Open
// Question (b): recursion detection is implemented here, not left as
// unwired policy).
const (
	DefaultMaxGoalStackDepth = 4096
	DefaultMaxGoalCache      = 8192
)

// Engine is the goal-directed resolution engine (Component F): it
// consults the KnowledgeBase, uses Unify/UnifyTerms to match goals
// against resources and rules, updates a Substitution, optionally calls
// the external constraint hook on each binding, and appends results via
// an EnhancedSolutionList.
type Engine struct {
	kb *KnowledgeBase

	constraintHook OnBind

	maxGoalStackDepth int
	maxGoalCache      int

	logger  hclog.Logger
	metrics *EngineMetrics
}

// EngineOption configures an Engine at construction.
type EngineOption func(*Engine)

// WithConstraintHook wires an external constraint store's callback.
func WithConstraintHook(hook OnBind) EngineOption {
	return func(e *Engine) {
		if hook != nil {
			e.constraintHook = hook
		}
	}
}

// WithEngineLogger attaches a named hclog.Logger to the engine.
func WithEngineLogger(l hclog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l.Named("linearlogic.engine")
		}
	}
}

// WithEngineMetrics attaches Prometheus instrumentation.
func WithEngineMetrics(m *EngineMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithGoalStackDepth overrides DefaultMaxGoalStackDepth.
func WithGoalStackDepth(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxGoalStackDepth = n
		}
	}
}

// WithGoalCacheSize overrides DefaultMaxGoalCache.
func WithGoalCacheSize(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxGoalCache = n
		}
	}
}

// NewEngine creates an Engine bound to kb.
func NewEngine(kb *KnowledgeBase, opts ...EngineOption) *Engine {
	e := &Engine{
		kb:                kb,
		constraintHook:    NoopConstraintHook,
		maxGoalStackDepth: DefaultMaxGoalStackDepth,
		maxGoalCache:      DefaultMaxGoalCache,
		logger:            nullLogger(),
		metrics:           &EngineMetrics{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// KnowledgeBase returns the knowledge base this engine operates on.
func (e *Engine) KnowledgeBase() *KnowledgeBase { return e.kb }

// run carries the per-query, non-reentrant search state: the goal stack
// used for cycle detection and the (failure-only) goal cache. See
// DESIGN.md: positive memoization is deliberately not implemented
// because a cached *success* cannot be replayed without re-deriving its
// bindings and consumption side effects — spec §4.F itself describes
// full memoization as "policy, not yet implemented fully in the
// source"; the bounded stack (required, sound) and a conservative
// failure cache are what this engine wires in.
//
// goalStack is an ancestor chain, not a record of every goal ever
// attempted: it only ever holds patterns pushed around a rule's own
// Horn-clause body expansion (proveGoal step 2). A goal reappearing
// later as an unrelated conjunct in the caller's flat goal list is not
// an ancestor of itself and must not be confused with one — see
// proveGoal's step 2 for where the push/pop actually happens.
type run struct {
	eng       *Engine
	goalStack []string
	failCache map[string]struct{}
}

// sink receives each substitution at a successful leaf (an empty goal
// list) and reports whether the search should stop exploring further
// alternatives, or an error that aborts the search outright. It
// returns an error (rather than being a bare bool) so that a sink may
// itself recurse into r.prove — see proveGoal step 2, which chains a
// rule's body onto its continuation this way. Resolve/
// ResolveWithSubstitution use a sink that always stops at the first
// solution (progressive, forward-chaining mode); ResolveAll uses one
// that keeps going until maxSolutions solutions have been collected
// (all-solutions mode), per spec §4.F.
type sink func(s *Substitution) (stop bool, err error)

// Resolve attempts to prove goals against e's knowledge base in
// progressive/forward-chaining mode (linear_resolve_query): once a rule
// fires and the remaining goals succeed, consumption and newly-asserted
// resources are kept even if exploration elsewhere would have failed —
// that commitment is exactly what "progressive" means here. ok is false
// if no derivation exists; the knowledge base is left exactly as it was
// found in that case (spec §7).
func (e *Engine) Resolve(ctx context.Context, goals []Term) (bool, error) {
	_, ok, err := e.ResolveWithSubstitution(ctx, goals, NewSubstitution(DefaultMaxVars))
	return ok, err
}

// ResolveWithSubstitution is Resolve seeded with an existing
// substitution (linear_resolve_query_with_substitution).
func (e *Engine) ResolveWithSubstitution(ctx context.Context, goals []Term, seed *Substitution) (*Substitution, bool, error) {
	r := &run{eng: e, failCache: make(map[string]struct{})}
	var result *Substitution
	found := false
	sk := sink(func(s *Substitution) (bool, error) {
		result = s
		found = true
		return true, nil
	})
	_, err := r.prove(ctx, goals, seed, sk)
	if err != nil {
		return nil, false, err
	}
	return result, found, nil
}

// ResolveAll enumerates every distinct solution (up to maxSolutions,
// or unbounded if <= 0) in all-solutions mode
// (linear_resolve_query_all_solutions / _enhanced): every alternative
// is explored from a saved checkpoint, and solutions equivalent under
// substitution equality are deduplicated by the EnhancedSolutionList.
// original is used only to determine which variables project into each
// Solution (spec §6's optional original_query).
func (e *Engine) ResolveAll(ctx context.Context, goals []Term, original Term, maxSolutions int) (*EnhancedSolutionList, error) {
	queryVars := FreeVars(original)
	if original == nil {
		for _, g := range goals {
			queryVars = append(queryVars, FreeVars(g)...)
		}
	}
	collector := NewEnhancedSolutionList(queryVars)

	r := &run{eng: e, failCache: make(map[string]struct{})}
	sk := sink(func(s *Substitution) (bool, error) {
		if collector.Add(s) {
			e.metrics.incSolutions()
		}
		if maxSolutions > 0 && collector.Len() >= maxSolutions {
			return true, nil
		}
		return false, nil
	})
	_, err := r.prove(ctx, goals, NewSubstitution(DefaultMaxVars), sk)
	if err != nil {
		return collector, err
	}
	return collector, nil
}

// prove is the per-goal procedure of spec §4.F. It returns whether the
// search should stop (sink returned true somewhere in this subtree) and
// any fatal error (CapacityExceeded/Malformed); branch failures are
// represented purely by (false, nil) and never surface to the caller.
//
// The ancestor-cycle check below only ever sees patterns that proveGoal
// step 2 pushed for a rule's own Horn-clause body expansion (see its
// comment): prove itself never pushes anything onto r.goalStack, so two
// independent conjuncts in the same flat goal list that happen to share
// a pattern — e.g. spec §8 S6's query [p, p], or S3's repeated
// say(hello) — are never confused with a self-recursive goal.
func (r *run) prove(ctx context.Context, goals []Term, s *Substitution, sk sink) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if len(goals) == 0 {
		return sk(s)
	}

	g := s.Apply(goals[0])
	rest := goals[1:]

	pattern := goalPattern(g, s)
	for _, p := range r.goalStack {
		if p == pattern {
			r.eng.logger.Debug("recursion bound: repeated goal pattern", "pattern", pattern)
			return false, nil
		}
	}
	if len(r.goalStack) >= r.eng.maxGoalStackDepth {
		r.eng.logger.Debug("recursion bound: goal stack depth exceeded", "depth", len(r.goalStack))
		return false, nil
	}
	if _, failed := r.failCache[pattern]; failed {
		return false, nil
	}

	stop, err := r.proveGoal(ctx, g, rest, s, sk, pattern)
	if err != nil {
		return false, err
	}
	if !stop {
		r.rememberFailure(pattern)
	}
	return stop, nil
}

func (r *run) rememberFailure(pattern string) {
	if len(r.failCache) >= r.eng.maxGoalCache {
		return
	}
	r.failCache[pattern] = struct{}{}
}

// proveGoal tries to establish g, then continue into rest, in the order
// spec §4.F gives: rule production match, rule head match, direct fact
// match. pattern is g's own ancestor-cycle key, computed once by prove;
// only step 2 (the only step with a genuine recursive descent into g's
// own definition) pushes it onto r.goalStack.
func (r *run) proveGoal(ctx context.Context, g Term, rest []Term, s *Substitution, sk sink, pattern string) (bool, error) {
	e := r.eng

	// Step 1: rule production match. dischargeBody is a flat scan over
	// existing resources, not a recursive call back into prove/proveGoal,
	// so firing a production rule can never re-derive g through its own
	// expansion — there is nothing here for the ancestor stack to guard
	// against. The continuation into rest is an independent sibling goal,
	// not a descendant of g, and must not be guarded by g's pattern.
	for _, rule := range e.kb.rulesForProduction(g) {
		e.metrics.incBranches()
		cp := e.kb.SaveConsumedState()

		inst, err := renameRule(rule, e.kb.interner)
		if err != nil {
			e.kb.RestoreConsumedState(cp)
			return false, err
		}

		s2, ok, err := r.unifyHooked(ctx, s, g, inst.Production)
		if err != nil {
			e.kb.RestoreConsumedState(cp)
			return false, err
		}
		if !ok {
			e.kb.RestoreConsumedState(cp)
			continue
		}

		s3, ok, err := r.dischargeBody(ctx, inst.Body, s2)
		if err != nil {
			e.kb.RestoreConsumedState(cp)
			return false, err
		}
		if !ok {
			e.kb.RestoreConsumedState(cp)
			continue
		}

		produced := s3.Apply(inst.Production)
		if _, err := e.kb.AddLinearFact(produced); err != nil {
			e.kb.RestoreConsumedState(cp)
			return false, err
		}

		stop, err := r.prove(ctx, rest, s3, sk)
		if err != nil {
			e.kb.RestoreConsumedState(cp)
			return false, err
		}
		if stop {
			return true, nil
		}
		e.kb.RestoreConsumedState(cp)
	}

	// Step 2: rule head match (Horn-clause style; only rules with no
	// Production, per spec §9 Open Question (c): production wins when
	// both are present).
	//
	// Proving inst.Body is a genuine recursive descent from g — the body
	// *is* g's own definition — so g's pattern is pushed as an ancestor
	// around exactly that descent, via a nested prove call whose sink
	// pops the ancestor entry before continuing into rest (an independent
	// sibling goal, not part of g's expansion) and restores it before
	// returning, so any further backtracking within inst.Body still sees
	// g as an ancestor. This is the only place r.goalStack is ever
	// written to.
	for _, rule := range e.kb.rulesForHead(g) {
		e.metrics.incBranches()
		cp := e.kb.SaveConsumedState()

		inst, err := renameRule(rule, e.kb.interner)
		if err != nil {
			e.kb.RestoreConsumedState(cp)
			return false, err
		}

		s2, ok, err := r.unifyHooked(ctx, s, g, inst.Head)
		if err != nil {
			e.kb.RestoreConsumedState(cp)
			return false, err
		}
		if !ok {
			e.kb.RestoreConsumedState(cp)
			continue
		}

		r.goalStack = append(r.goalStack, pattern)
		stop, err := r.prove(ctx, inst.Body, s2, func(s3 *Substitution) (bool, error) {
			r.goalStack = r.goalStack[:len(r.goalStack)-1]
			stop, err := r.prove(ctx, rest, s3, sk)
			r.goalStack = append(r.goalStack, pattern)
			return stop, err
		})
		r.goalStack = r.goalStack[:len(r.goalStack)-1]
		if err != nil {
			e.kb.RestoreConsumedState(cp)
			return false, err
		}
		if stop {
			return true, nil
		}
		e.kb.RestoreConsumedState(cp)
	}

	// Step 3: direct fact match, most-recent-first. As in step 1, there
	// is no recursive descent into g's own definition here, so the
	// continuation into rest runs unguarded by g's pattern.
	for res := e.kb.resourcesHead(); res != nil; res = res.next {
		if !res.Consumable() {
			continue
		}
		e.metrics.incBranches()
		cp := e.kb.SaveConsumedState()

		mark := s.Mark()
		s2, ok := e.kb.CanUnifyWithType(s, g, res.Fact)
		if ok {
			for _, nb := range s2.NewBindingsSince(mark) {
				if herr := e.constraintHook(ctx, nb.Var, nb.Term, s2); herr != nil {
					if isFatal(herr) {
						e.kb.RestoreConsumedState(cp)
						return false, herr
					}
					ok = false
					break
				}
			}
		}
		if !ok {
			e.kb.RestoreConsumedState(cp)
			continue
		}
		if res.Flags.Level == LevelLinear {
			e.kb.markConsumed(res)
		}

		stop, err := r.prove(ctx, rest, s2, sk)
		if err != nil {
			e.kb.RestoreConsumedState(cp)
			return false, err
		}
		if stop {
			return true, nil
		}
		e.kb.RestoreConsumedState(cp)
	}

	return false, nil
}

// dischargeBody forward-chains a rule's body literals against
// available resources only (spec §4.F "Body discharge"): it does not
// recurse into further rule firing, matching the spec's literal wording
// ("Find the first non-consumed resource unifying with b_i"). On any
// literal's failure, every provisional consumption made earlier in this
// call is rolled back via a single checkpoint taken at entry.
func (r *run) dischargeBody(ctx context.Context, body []Term, s *Substitution) (*Substitution, bool, error) {
	e := r.eng
	cp := e.kb.SaveConsumedState()
	cur := s

	for _, lit := range body {
		g := cur.Apply(lit)
		matched := false
		for res := e.kb.resourcesHead(); res != nil; res = res.next {
			if !res.Consumable() {
				continue
			}
			mark := cur.Mark()
			s2, ok := e.kb.CanUnifyWithType(cur, g, res.Fact)
			if !ok {
				continue
			}
			rejected := false
			for _, nb := range s2.NewBindingsSince(mark) {
				if err := e.constraintHook(ctx, nb.Var, nb.Term, s2); err != nil {
					if isFatal(err) {
						e.kb.RestoreConsumedState(cp)
						return s, false, err
					}
					rejected = true
					break
				}
			}
			if rejected {
				continue
			}
			if res.Flags.Level == LevelLinear {
				e.kb.markConsumed(res)
			}
			cur = s2
			matched = true
			break
		}
		if !matched {
			e.kb.RestoreConsumedState(cp)
			return s, false, nil
		}
	}
	return cur, true, nil
}

// unifyHooked calls Unify and fires the external constraint hook once
// per newly-added binding, after the substitution is extended and
// before the search resumes (spec §4.G / §9).
func (r *run) unifyHooked(ctx context.Context, s *Substitution, t1, t2 Term) (*Substitution, bool, error) {
	mark := s.Mark()
	s2, ok := Unify(s, t1, t2)
	if !ok {
		return s, false, nil
	}
	for _, nb := range s2.NewBindingsSince(mark) {
		if err := r.eng.constraintHook(ctx, nb.Var, nb.Term, s2); err != nil {
			if isFatal(err) {
				return s, false, err
			}
			return s, false, nil
		}
	}
	return s2, true, nil
}

func isFatal(err error) bool {
	return errors.Is(err, ErrCapacityExceeded) || errors.Is(err, ErrMalformed)
}

// goalPattern builds the structural-equality-after-substitution key
// used for cycle detection and the failure cache. Spec §4.F requires
// "identical variable identities... for same pattern", which the raw
// (interner-free) Term.String() already encodes since it renders Var by
// numeric id.
func goalPattern(g Term, s *Substitution) string {
	return s.Apply(g).String()
}

package linearlogic

import (
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	multierror "github.com/hashicorp/go-multierror"
)

// KnowledgeBase is the mutable container of resources, rules, and type
// metadata described in spec §3/§4.E: a linear resource list, a rule
// table indexed by dispatch key, a type/variant map, and a checkpoint
// mechanism for backtracking.
//
// A KnowledgeBase is owned exclusively by the Engine running a query
// (spec §5): no mutex guards it, by design — external drivers sharing a
// KnowledgeBase across goroutines must provide their own exclusion.
type KnowledgeBase struct {
	ID string

	interner *Interner

	resources     *LinearResource
	resourceCount int

	rules      []*Rule
	ruleIndex  map[ruleKey][]*Rule
	headIndex  map[ruleKey][]*Rule

	typeMap    map[SymbolId]SymbolId
	variantMap map[SymbolId]SymbolId

	trail []trailEntry

	autoDeallocate bool

	logger  hclog.Logger
	metrics *KBMetrics
}

type trailField uint8

const (
	trailConsumed trailField = iota
	trailDeallocated
)

type trailEntry struct {
	resource *LinearResource
	field    trailField
	prev     bool
}

// Checkpoint is an opaque token returned by SaveConsumedState, passed
// back to RestoreConsumedState to roll back to exactly that point.
// Every alternative branch the engine explores opens, restores, or
// commits exactly one Checkpoint (spec §4.F "Failure semantics").
type Checkpoint struct {
	trailLen  int
	headAtSave *LinearResource
	countAtSave int
}

// KBOption configures a KnowledgeBase at construction.
type KBOption func(*KnowledgeBase)

// WithLogger attaches a named hclog.Logger to the knowledge base.
func WithLogger(l hclog.Logger) KBOption {
	return func(kb *KnowledgeBase) {
		if l != nil {
			kb.logger = l.Named("linearlogic.kb")
		}
	}
}

// WithKBMetrics attaches Prometheus instrumentation.
func WithKBMetrics(m *KBMetrics) KBOption {
	return func(kb *KnowledgeBase) { kb.metrics = m }
}

// WithInterner shares an existing Interner (e.g. one already populated
// by an external compiler) instead of creating a fresh one.
func WithInterner(in *Interner) KBOption {
	return func(kb *KnowledgeBase) {
		if in != nil {
			kb.interner = in
		}
	}
}

// NewKnowledgeBase creates an empty knowledge base (create_kb).
func NewKnowledgeBase(opts ...KBOption) *KnowledgeBase {
	kb := &KnowledgeBase{
		ID:             uuid.NewString(),
		ruleIndex:      make(map[ruleKey][]*Rule),
		headIndex:      make(map[ruleKey][]*Rule),
		typeMap:        make(map[SymbolId]SymbolId),
		variantMap:     make(map[SymbolId]SymbolId),
		autoDeallocate: true,
		logger:         nullLogger(),
		metrics:        &KBMetrics{},
	}
	for _, opt := range opts {
		opt(kb)
	}
	if kb.interner == nil {
		kb.interner = NewInterner()
	}
	return kb
}

// Interner returns the symbol/variable interner this KB was built with.
func (kb *KnowledgeBase) Interner() *Interner { return kb.interner }

// Close releases the knowledge base (free_kb). The core has no
// off-heap resources to release explicitly; Close exists so callers
// have a single, stable lifecycle hook regardless of how a future
// implementation manages memory (spec §5's auto_deallocate toggle
// governs resource release timing within a live KB; Close is end of
// life for the KB itself).
func (kb *KnowledgeBase) Close() {
	kb.resources = nil
	kb.rules = nil
	kb.ruleIndex = nil
	kb.headIndex = nil
}

// SetAutoDeallocate toggles whether consuming a linear resource also
// deallocates it immediately (eager) versus only at KB teardown (lazy).
func (kb *KnowledgeBase) SetAutoDeallocate(v bool) { kb.autoDeallocate = v }

// --- Fact insertion -------------------------------------------------

func (kb *KnowledgeBase) addResource(fact Term, level PersistenceLevel, optional bool) (*LinearResource, error) {
	if fact == nil {
		return nil, fmt.Errorf("%w: nil fact", ErrMalformed)
	}
	r := &LinearResource{
		Fact:           fact,
		Flags:          ResourceFlags{Level: level, Optional: optional},
		MemorySize:     estimateSize(fact),
		ProvenanceID:   uuid.NewString(),
		next:           kb.resources,
	}
	kb.resources = r
	kb.resourceCount++
	kb.logger.Debug("resource asserted", "level", level.String(), "optional", optional, "provenance", r.ProvenanceID)
	kb.metrics.setResources(level, kb.countByLevel(level))
	return r, nil
}

func (kb *KnowledgeBase) countByLevel(level PersistenceLevel) int {
	n := 0
	for r := kb.resources; r != nil; r = r.next {
		if r.Flags.Level == level {
			n++
		}
	}
	return n
}

// AddLinearFact asserts a fact consumable exactly once.
func (kb *KnowledgeBase) AddLinearFact(fact Term) (*LinearResource, error) {
	return kb.addResource(fact, LevelLinear, false)
}

// AddOptionalLinearFact asserts a linear fact whose non-consumption at
// the end of a derivation is not an error.
func (kb *KnowledgeBase) AddOptionalLinearFact(fact Term) (*LinearResource, error) {
	return kb.addResource(fact, LevelLinear, true)
}

// AddExponentialFact asserts a reusable, never-consumed fact.
func (kb *KnowledgeBase) AddExponentialFact(fact Term) (*LinearResource, error) {
	return kb.addResource(fact, LevelExponential, false)
}

// AddPersistentFact asserts a never-consumed fact, stored CLONE-wrapped
// (Glossary: "equivalently, a clone-wrapped assertion") so that a
// direct fact match against it goes through the CLONE-transparent path
// the same way a rule's banged production would.
func (kb *KnowledgeBase) AddPersistentFact(fact Term) (*LinearResource, error) {
	return kb.addResource(NewClone(fact), LevelPersistent, false)
}

// AddRule inserts a rule copying head/body/production into the KB and
// indexes it by dispatch key (spec §9: a performance refinement, not a
// semantic change — lookup order within a bucket still matches
// insertion order for S6-style determinism).
func (kb *KnowledgeBase) AddRule(head Term, body []Term, production Term) (*Rule, error) {
	r, err := newRule(head, body, production)
	if err != nil {
		return nil, err
	}
	kb.rules = append(kb.rules, r)
	if k, ok := keyFor(r.dispatchTerm()); ok {
		if r.Production != nil {
			kb.ruleIndex[k] = append(kb.ruleIndex[k], r)
		} else {
			kb.headIndex[k] = append(kb.headIndex[k], r)
		}
	}
	kb.logger.Debug("rule asserted", "has_production", r.Production != nil, "has_head", r.Head != nil, "recursive", r.IsRecursive)
	kb.metrics.setRules(len(kb.rules))
	return r, nil
}

// rulesForProduction returns, in insertion order, every rule with a
// non-nil Production whose dispatch key matches goal (or every such
// rule, if goal's key can't be determined — e.g. goal is itself a bare
// variable).
func (kb *KnowledgeBase) rulesForProduction(goal Term) []*Rule {
	if k, ok := keyFor(goal); ok {
		return kb.ruleIndex[k]
	}
	var all []*Rule
	for _, r := range kb.rules {
		if r.Production != nil {
			all = append(all, r)
		}
	}
	return all
}

// rulesForHead returns, in insertion order, every rule with a nil
// Production and a non-nil Head whose dispatch key matches goal.
func (kb *KnowledgeBase) rulesForHead(goal Term) []*Rule {
	if k, ok := keyFor(goal); ok {
		return kb.headIndex[k]
	}
	var all []*Rule
	for _, r := range kb.rules {
		if r.Production == nil && r.Head != nil {
			all = append(all, r)
		}
	}
	return all
}

// resourcesHead exposes the most-recent-first resource list for the
// engine's direct-fact-match scan.
func (kb *KnowledgeBase) resourcesHead() *LinearResource { return kb.resources }

// --- Consumption bookkeeping -----------------------------------------

func (kb *KnowledgeBase) markConsumed(r *LinearResource) {
	if r.Flags.Level != LevelLinear {
		return
	}
	kb.trail = append(kb.trail, trailEntry{resource: r, field: trailConsumed, prev: r.Flags.Consumed})
	r.Flags.Consumed = true
	kb.metrics.incConsumptions()
	if kb.autoDeallocate && r.Flags.Level == LevelLinear {
		kb.trail = append(kb.trail, trailEntry{resource: r, field: trailDeallocated, prev: r.Flags.Deallocated})
		r.Flags.Deallocated = true
	}
}

// SaveConsumedState captures a point to which RestoreConsumedState can
// later roll back: every (resource, prior-consumed/deallocated) change
// since this call, plus the resource-list head (so resources appended
// after this point — rule productions — are dropped on restore).
func (kb *KnowledgeBase) SaveConsumedState() Checkpoint {
	cp := Checkpoint{trailLen: len(kb.trail), headAtSave: kb.resources, countAtSave: kb.resourceCount}
	kb.metrics.setCheckpointDepth(len(kb.trail))
	return cp
}

// RestoreConsumedState undoes every trail entry recorded since cp and
// drops every resource appended since cp was taken.
func (kb *KnowledgeBase) RestoreConsumedState(cp Checkpoint) {
	for i := len(kb.trail) - 1; i >= cp.trailLen; i-- {
		e := kb.trail[i]
		switch e.field {
		case trailConsumed:
			e.resource.Flags.Consumed = e.prev
		case trailDeallocated:
			e.resource.Flags.Deallocated = e.prev
		}
	}
	kb.trail = kb.trail[:cp.trailLen]
	kb.resources = cp.headAtSave
	kb.resourceCount = cp.countAtSave
	kb.metrics.setCheckpointDepth(len(kb.trail))
}

// --- Typing -----------------------------------------------------------

// AddTypeMapping records that term is an instance of typ.
func (kb *KnowledgeBase) AddTypeMapping(term, typ SymbolId) {
	kb.typeMap[term] = typ
}

// AddUnionMapping records that variant specializes parent in the
// variant DAG.
func (kb *KnowledgeBase) AddUnionMapping(variant, parent SymbolId) {
	kb.variantMap[variant] = parent
}

// GetTermType looks up the type mapped to name.
func (kb *KnowledgeBase) GetTermType(name SymbolId) (SymbolId, bool) {
	t, ok := kb.typeMap[name]
	return t, ok
}

// IsVariantOf is the reflexive, transitive closure of the variant DAG:
// child is a variant of parent if child == parent or some ancestor of
// child (following variantMap) equals parent.
func (kb *KnowledgeBase) IsVariantOf(child, parent SymbolId) bool {
	cur := child
	for i := 0; i < MaxSymbols; i++ { // bound: variantMap has <= MaxSymbols entries
		if cur == parent {
			return true
		}
		next, ok := kb.variantMap[cur]
		if !ok {
			return false
		}
		cur = next
	}
	return false
}

// CanUnifyWithType implements spec §4.E: try plain unification first;
// if goal is an ATOM naming a type, accept a fact whose name's type is
// that type or a descendant in the variant DAG.
func (kb *KnowledgeBase) CanUnifyWithType(s *Substitution, goal, fact Term) (*Substitution, bool) {
	if s2, ok := UnifyTerms(s, goal, fact); ok {
		return s2, true
	}
	goalAtom, ok := s.Apply(goal).(Atom)
	if !ok {
		return s, false
	}
	unwrapped, _ := Unclone(fact)
	factSym, ok := keyFor(unwrapped)
	if !ok {
		return s, false
	}
	factType, ok := kb.GetTermType(factSym.functor)
	if !ok {
		return s, false
	}
	if kb.IsVariantOf(factType, goalAtom.Sym) {
		return s, true
	}
	return s, false
}

// --- Validation helpers ------------------------------------------------

// ValidateTypeMappings checks that every union mapping's parent is
// itself a known, resolvable symbol, aggregating every violation found
// with go-multierror rather than stopping at the first one (matching
// nomad's validation idiom of reporting every problem in one pass).
func (kb *KnowledgeBase) ValidateTypeMappings() error {
	var result *multierror.Error
	for variant, parent := range kb.variantMap {
		if _, ok := kb.interner.Resolve(parent); !ok {
			if name, ok := kb.interner.Resolve(variant); ok {
				result = multierror.Append(result, fmt.Errorf("%w: union mapping for %q has unresolved parent symbol %d", ErrMalformed, name, parent))
			} else {
				result = multierror.Append(result, fmt.Errorf("%w: union mapping has unresolved parent symbol %d", ErrMalformed, parent))
			}
		}
	}
	return result.ErrorOrNil()
}

// --- Introspection ------------------------------------------------------

// PrintMemoryState writes a human-readable (not wire-stable) dump of
// resource counts by persistence level, rule counts, and checkpoint
// depth (spec §6: "debug only; stable human-readable form is not part
// of the contract").
func (kb *KnowledgeBase) PrintMemoryState(w io.Writer, label string) {
	fmt.Fprintf(w, "=== knowledge base memory state: %s (kb=%s) ===\n", label, kb.ID)
	counts := map[PersistenceLevel]int{}
	consumed, deallocated := 0, 0
	for r := kb.resources; r != nil; r = r.next {
		counts[r.Flags.Level]++
		if r.Flags.Consumed {
			consumed++
		}
		if r.Flags.Deallocated {
			deallocated++
		}
	}
	fmt.Fprintf(w, "resources: %d total (linear=%d exponential=%d persistent=%d), consumed=%d deallocated=%d\n",
		kb.resourceCount, counts[LevelLinear], counts[LevelExponential], counts[LevelPersistent], consumed, deallocated)
	fmt.Fprintf(w, "rules: %d (production-indexed=%d head-indexed=%d)\n", len(kb.rules), len(kb.ruleIndex), len(kb.headIndex))
	fmt.Fprintf(w, "checkpoint trail depth: %d\n", len(kb.trail))
}

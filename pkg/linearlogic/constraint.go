package linearlogic

import "context"

// OnBind is the external constraint hook (spec §4.G): invoked after the
// unifier extends the substitution with a new binding, before the
// search resumes, forwarding the event to an opaque constraint store.
// The store is a trusted collaborator — it may bind further variables
// through the same Engine — and the engine places no ordering
// requirement beyond "called at most once per logical binding event".
//
// A returned error that does not wrap ErrCapacityExceeded or
// ErrMalformed is treated as a local unification failure (the current
// branch fails and the engine tries the next alternative); an error
// wrapping one of those two propagates per spec §7.
type OnBind func(ctx context.Context, v VarId, t Term, env *Substitution) error

// NoopConstraintHook is the default hook: it accepts every binding,
// keeping the constraint solver genuinely external and optional.
func NoopConstraintHook(ctx context.Context, v VarId, t Term, env *Substitution) error {
	return nil
}

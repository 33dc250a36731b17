package linearlogic

import "errors"

// Error taxonomy. Besides the error of a cancelled ctx, only
// ErrCapacityExceeded and ErrMalformed are ever returned to a caller of
// Resolve/ResolveAll/Add*. The search reports every branch failure as a
// plain false result: ErrOccursCheck is returned only by
// Substitution.AddBinding, and no function in this package returns
// ErrResourceUnavailable, ErrTypeMismatch or ErrRecursionBound.
var (
	// ErrCapacityExceeded: the symbol table, variable id space, rule
	// table, or a substitution hit its bound. Fatal to the current query.
	ErrCapacityExceeded = errors.New("linearlogic: capacity exceeded")

	// ErrOccursCheck: an attempted binding X := f(..X..). Local
	// unification failure; the caller tries the next alternative.
	ErrOccursCheck = errors.New("linearlogic: occurs check failed")

	// ErrResourceUnavailable: a body literal had no matching
	// non-consumed resource. Branch failure.
	ErrResourceUnavailable = errors.New("linearlogic: no matching resource")

	// ErrTypeMismatch: CanUnifyWithType rejected a candidate. Branch
	// failure.
	ErrTypeMismatch = errors.New("linearlogic: type mismatch")

	// ErrRecursionBound: the goal stack exceeded its configured depth,
	// or a goal pattern repeated on the stack. Branch failure, treated
	// as "not provable at this depth".
	ErrRecursionBound = errors.New("linearlogic: recursion bound exceeded")

	// ErrMalformed: a null term, inconsistent arity, or a CLONE cycle.
	// Fatal; indicates an implementation or caller bug.
	ErrMalformed = errors.New("linearlogic: malformed term or rule")
)

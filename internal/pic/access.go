package pic

import "picjit/internal/shape"

// Access bundles everything a stub's guarded operation might need to read.
// Not every field applies to every Kind: GET/SET use Receiver+Name(+Value),
// NAME/XNAME/BIND use ScopeChain, GETELEM/SETELEM use Receiver+Key(+Value).
type Access struct {
	Receiver       *shape.Object
	Name           string
	Value          shape.Value
	Key            shape.Value
	ScopeChain     *shape.Object
	NextOpIsTypeof bool

	// IsSetName marks a SET originating from a SETNAME bytecode (a bare
	// identifier assignment, as opposed to obj.prop = v); such sites
	// never upgrade to add-property.
	IsSetName bool
}

// EvalFunc is a stub's (or the specialized inline path's) guarded
// operation: the Go-level stand-in for "run the generated machine code".
// It reports whether its guards matched; on a guard failure the caller
// must try the next-older stub (or fall to the slow trampoline).
type EvalFunc func(acc *Access) (result shape.Value, matched bool, err error)

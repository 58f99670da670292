// Package solver abstracts the external dependency resolver used to check
// that a candidate package set is solvable before it is committed.
package solver

import "context"

// Solver is the single-method capability the package ledger validates
// against. A nil return means the package set resolved; a non-nil error is
// the resolver's diagnostic. Implementations must not mutate any rezprod
// state; the call is purely advisory.
type Solver interface {
	Solve(ctx context.Context, packages []string) error
}

// Func adapts a plain function to the Solver interface.
type Func func(ctx context.Context, packages []string) error

// Solve calls f.
func (f Func) Solve(ctx context.Context, packages []string) error {
	return f(ctx, packages)
}

// AcceptAll returns a solver that treats every package set as solvable.
// Used when no resolver command is configured.
func AcceptAll() Solver {
	return Func(func(context.Context, []string) error { return nil })
}

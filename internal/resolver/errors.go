package resolver

import "errors"

// Sentinel errors for the package ledger and deployment manager. Callers
// match with errors.Is; wrapped messages carry the failing scope, package or
// resolver diagnostic.
var (
	// ErrInvalidScope means more than 3 scope levels were supplied.
	ErrInvalidScope = errors.New("a scope can only have up to 3 levels")

	// ErrUnknownScope means a removal referenced a scope that was never
	// created. Removals never create scopes.
	ErrUnknownScope = errors.New("unknown scope")

	// ErrUnknownPackage means no entry matches the exact
	// (scope, name, step, software) tuple.
	ErrUnknownPackage = errors.New("unknown package")

	// ErrUnresolvable means the external resolver rejected a candidate
	// package set. The wrapped message carries the resolver's diagnostic.
	ErrUnresolvable = errors.New("package set cannot be resolved")

	// ErrDeployFromProduction means deploy was invoked on a production
	// session. Promotion only ever runs staging to production.
	ErrDeployFromProduction = errors.New("cannot deploy from a production session")

	// ErrUnsavedEdits means deploy was invoked while the session still
	// holds unsaved edits.
	ErrUnsavedEdits = errors.New("session has unsaved edits")
)

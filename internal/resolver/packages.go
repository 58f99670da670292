package resolver

import (
	"context"
	"fmt"

	"github.com/runger/rezprod/internal/storage"
)

// axisFilter is one exact (step, software) combination queried per scope.
// nil means the column must be NULL.
type axisFilter struct {
	step     *string
	software *string
}

// axisFilters returns the combinations to query for a requested axis, in
// fixed priority: unnarrowed entries always apply, then step-only if a step
// was requested, then software-only, then step+software if both were.
func axisFilters(axis Axis) []axisFilter {
	filters := []axisFilter{{nil, nil}}
	if axis.Step != "" {
		filters = append(filters, axisFilter{axis.stepPtr(), nil})
	}
	if axis.Software != "" {
		filters = append(filters, axisFilter{nil, axis.softwarePtr()})
	}
	if axis.Step != "" && axis.Software != "" {
		filters = append(filters, axisFilter{axis.stepPtr(), axis.softwarePtr()})
	}
	return filters
}

// ListPackages resolves the package list for a scope: entries from broader
// scopes come first, narrower scopes and narrower axis combinations stack
// after them, and the final list is deduplicated by name keeping the first
// occurrence — so a name repeated at a narrower scope is shadowed by its
// broadest definition's position.
//
// When validate is set, the resulting list is submitted to the external
// resolver and an ErrUnresolvable is returned if it cannot be solved.
func (s *Session) ListPackages(ctx context.Context, scope Scope, axis Axis, validate bool) ([]string, error) {
	// Resolve the ancestor chain to scope ids, dropping scopes that were
	// never created and collapsing duplicates while keeping first-seen
	// order. Order is what makes the override semantics deterministic.
	var scopeIDs []int64
	seen := make(map[int64]bool)
	for _, ancestor := range scope.ancestors() {
		id, ok, err := storage.FindContextID(ctx, s.tx, ancestor.levels)
		if err != nil {
			return nil, err
		}
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		scopeIDs = append(scopeIDs, id)
	}

	filters := axisFilters(axis)

	var merged []string
	for _, id := range scopeIDs {
		for _, f := range filters {
			names, err := storage.SelectPackageNames(ctx, s.tx, id, f.step, f.software)
			if err != nil {
				return nil, err
			}
			merged = append(merged, names...)
		}
	}

	packages := dedupe(merged)

	if validate {
		if err := s.validate(ctx, packages); err != nil {
			return nil, err
		}
	}
	return packages, nil
}

// AddPackage records a package under the given scope and axis, creating the
// scope lazily. With validation enabled, the candidate list (current
// resolution plus the new name) must solve before anything is written; a
// rejected add leaves both the store and the edit buffer untouched.
// Returns the new entry's row id.
func (s *Session) AddPackage(ctx context.Context, scope Scope, name string, axis Axis, validate bool) (int64, error) {
	if validate {
		current, err := s.ListPackages(ctx, scope, axis, false)
		if err != nil {
			return 0, err
		}
		if err := s.validate(ctx, append(current, name)); err != nil {
			return 0, err
		}
	}

	scopeID, err := s.EnsureScope(ctx, scope)
	if err != nil {
		return 0, err
	}

	rowID, err := storage.InsertPackage(ctx, s.tx, scopeID, name, axis.stepPtr(), axis.softwarePtr())
	if err != nil {
		return 0, err
	}

	s.edits = append(s.edits, Edit{Scope: scope, Package: name, Axis: axis, Op: OpInstall})
	return rowID, nil
}

// RemovePackage deletes the exact (scope, name, step, software) entry. An
// unset axis matches only entries with that axis unset, never as a wildcard.
// Removal never creates scopes. With validation enabled, the remaining list
// must solve before the row is deleted; a rejected remove leaves both the
// store and the edit buffer untouched.
func (s *Session) RemovePackage(ctx context.Context, scope Scope, name string, axis Axis, validate bool) error {
	scopeID, ok, err := s.ScopeID(ctx, scope)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScope, scope.Display())
	}

	rowID, ok, err := storage.FindPackageRow(ctx, s.tx, scopeID, name, axis.stepPtr(), axis.softwarePtr())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPackage, name)
	}

	if validate {
		current, err := s.ListPackages(ctx, scope, axis, false)
		if err != nil {
			return err
		}
		if err := s.validate(ctx, removeFirst(current, name)); err != nil {
			return err
		}
	}

	if err := storage.DeletePackageRow(ctx, s.tx, rowID); err != nil {
		return err
	}

	s.edits = append(s.edits, Edit{Scope: scope, Package: name, Axis: axis, Op: OpUninstall})
	return nil
}

// dedupe removes duplicate names keeping the first occurrence.
func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	var out []string
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// removeFirst returns names without the first occurrence of name.
func removeFirst(names []string, name string) []string {
	out := make([]string, 0, len(names))
	removed := false
	for _, n := range names {
		if !removed && n == name {
			removed = true
			continue
		}
		out = append(out, n)
	}
	return out
}

package resolver

import "strings"

// Scope identifies one point in the configuration hierarchy as an ordered
// (project, category, entity) triple. Unset levels are nil; the all-nil
// triple is the studio root. Scopes are value types and always normalized to
// exactly 3 positions.
type Scope struct {
	levels [3]*string
}

// NewScope normalizes up to 3 level names into a Scope, right-padding the
// missing trailing levels. Supplying more than 3 levels is a usage error,
// not a silent truncation.
func NewScope(levels ...string) (Scope, error) {
	if len(levels) > 3 {
		return Scope{}, ErrInvalidScope
	}
	var s Scope
	for i := range levels {
		l := levels[i]
		s.levels[i] = &l
	}
	return s, nil
}

// Levels returns the non-nil level names, broadest first. Feeding the result
// back into NewScope yields an equal Scope.
func (s Scope) Levels() []string {
	var out []string
	for _, l := range s.levels {
		if l != nil {
			out = append(out, *l)
		}
	}
	return out
}

// IsStudio reports whether the scope is the all-nil studio root.
func (s Scope) IsStudio() bool {
	return s.levels[0] == nil && s.levels[1] == nil && s.levels[2] == nil
}

// String returns the non-nil levels joined by commas, the flattened form
// stored in the audit log. The studio root flattens to the empty string.
func (s Scope) String() string {
	return strings.Join(s.Levels(), ",")
}

// Display returns a human-readable name for the scope.
func (s Scope) Display() string {
	if s.IsStudio() {
		return "studio"
	}
	return s.String()
}

// ancestors returns the override chain for the scope, broadest first:
// studio root, project, project+category, then the full triple. Entries
// collapse onto each other when trailing levels are unset; the ledger
// deduplicates them by context id while preserving first-seen order.
func (s Scope) ancestors() []Scope {
	return []Scope{
		{},
		{levels: [3]*string{s.levels[0], nil, nil}},
		{levels: [3]*string{s.levels[0], s.levels[1], nil}},
		s,
	}
}

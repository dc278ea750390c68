package planner

import "fmt"

// MappingError is a fatal error: a missing mapping for a field/attribute/
// type, inconsistent join topology, or an undecodable column (§7 kind 1).
type MappingError struct {
	Path []string
	Type string
	Msg  string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("planner: mapping error at %v (%s): %s", e.Path, e.Type, e.Msg)
}

// TypeError is recoverable and attaches to the cursor path: narrowing to a
// type the mapping doesn't represent, a non-leaf treated as leaf, a leaf
// treated as a list (§7 kind 2).
type TypeError struct {
	Path []string
	Msg  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("planner: type error at %v: %s", e.Path, e.Msg)
}

// PredicateError wraps a predicate-compilation failure. Per the §9 decision,
// this implementation fails the whole plan rather than silently dropping the
// WHERE fragment.
type PredicateError struct {
	Path []string
	Type string
	Err  error
}

func (e *PredicateError) Error() string {
	return fmt.Sprintf("planner: predicate compilation failed at %v (%s): %v", e.Path, e.Type, e.Err)
}

func (e *PredicateError) Unwrap() error { return e.Err }

// PlanningBug indicates an implementation error: a non-nullable scalar whose
// only source is an outer-joined child (§7 kind 5, "FailedJoin at a leaf").
type PlanningBug struct {
	Path []string
	Msg  string
}

func (e *PlanningBug) Error() string {
	return fmt.Sprintf("planner: internal planning bug at %v: %s", e.Path, e.Msg)
}

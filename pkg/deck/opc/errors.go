package opc

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSealed is returned when a sealed package is modified.
	ErrSealed = errors.New("package is sealed")
	// ErrNotSealed is returned when an unsealed package is written.
	ErrNotSealed = errors.New("package is not sealed")
)

// ConflictError reports a second registration of a key with a different
// value. Registries never overwrite silently.
type ConflictError struct {
	Kind      string
	Key       string
	Existing  string
	Requested string
}

func (e *ConflictError) Error() string {
	if e.Existing == "" && e.Requested == "" {
		return fmt.Sprintf("%s %q already registered", e.Kind, e.Key)
	}
	return fmt.Sprintf("%s %q already registered as %q, cannot register %q", e.Kind, e.Key, e.Existing, e.Requested)
}

// InvariantError reports one broken structural rule of a package.
type InvariantError struct {
	Rule   string
	Part   string
	Detail string
}

func (e *InvariantError) Error() string {
	if e.Part != "" {
		return fmt.Sprintf("invariant %s violated by %s: %s", e.Rule, e.Part, e.Detail)
	}
	return fmt.Sprintf("invariant %s violated: %s", e.Rule, e.Detail)
}

// Rules checked by Validate.
const (
	RuleDanglingTarget     = "dangling-target"
	RuleMissingContentType = "missing-content-type"
	RuleDuplicateRelID     = "duplicate-relationship-id"
	RuleOrphanScope        = "orphan-scope"
	RuleContentTypeClash   = "content-type-mismatch"
)

// Violations collects every InvariantError found in one validation pass.
type Violations []*InvariantError

func (v Violations) Error() string {
	if len(v) == 1 {
		return v[0].Error()
	}
	parts := []string{fmt.Sprintf("%d invariant violations:", len(v))}
	for i, err := range v {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

// Unwrap exposes the individual violations to errors.As.
func (v Violations) Unwrap() []error {
	errs := make([]error, len(v))
	for i, err := range v {
		errs[i] = err
	}
	return errs
}

func (v Violations) err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

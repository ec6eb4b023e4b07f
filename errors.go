// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package bitheap

import (
	"fmt"
	"strings"
)

// ErrKind classifies failures of the schedulers and compressors.
//
// An ErrKind is itself an error, so callers may test with
//
//	errors.Is(err, bitheap.ErrInfeasible)
type ErrKind uint32

const (
	// ErrConfig reports invalid parameters detected before any search.
	ErrConfig ErrKind = 1 + iota
	// ErrInfeasible reports that no schedule exists within the stage bound
	// in free stage mode.
	ErrInfeasible
	// ErrRetryable reports infeasibility in fixed stage mode; the caller
	// may retry with more stages.
	ErrRetryable
	// ErrSolverFault reports a failure of the solver backend outside of
	// its defined status codes, or a search result failing its own check.
	ErrSolverFault
	// ErrNonConvergence reports a modulo reduction which did not reach
	// the target range within its stage budget.
	ErrNonConvergence
)

func (k ErrKind) String() string {
	switch k {
	case ErrConfig:
		return "configuration error"
	case ErrInfeasible:
		return "infeasible problem"
	case ErrRetryable:
		return "infeasible for fixed stage count"
	case ErrSolverFault:
		return "solver fault"
	case ErrNonConvergence:
		return "reduction did not converge"
	default:
		return "unknown error"
	}
}

func (k ErrKind) Error() string {
	return k.String()
}

// Error carries an ErrKind together with the state needed to diagnose it.
// Stage and Column are -1 when not applicable.
type Error struct {
	Kind   ErrKind
	Stage  int
	Column int
	Policy string
	Err    error
}

// Errorf creates an *Error of kind k with a formatted cause.
func Errorf(k ErrKind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:   k,
		Stage:  -1,
		Column: -1,
		Err:    fmt.Errorf(format, args...)}
}

// At sets the stage and column of e and returns e.
func (e *Error) At(stage, column int) *Error {
	e.Stage = stage
	e.Column = column
	return e
}

// WithPolicy sets the policy name of e and returns e.
func (e *Error) WithPolicy(p string) *Error {
	e.Policy = p
	return e
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Kind.String())
	if e.Stage >= 0 {
		fmt.Fprintf(&sb, " at stage %d", e.Stage)
	}
	if e.Column >= 0 {
		fmt.Fprintf(&sb, " column %d", e.Column)
	}
	if e.Policy != "" {
		fmt.Fprintf(&sb, " (policy %s)", e.Policy)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is e's kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrKind)
	return ok && k == e.Kind
}

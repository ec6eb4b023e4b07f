// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package ilp gives the interface between the schedulers and an integer
// linear programming backend.
//
// A Model holds bounded integer variables, linear constraints over them and
// a linear objective which is minimised.  Schedulers write their model once
// against this interface; backends (see package satip) implement it.  Every
// model is owned by exactly one solving run and must be closed when the run
// is over.
package ilp

import (
	"fmt"
	"strings"
	"time"
)

// Kind is the domain kind of a variable.
type Kind int8

const (
	Integer Kind = iota
	Binary
)

func (k Kind) String() string {
	if k == Binary {
		return "binary"
	}
	return "integer"
}

// Var identifies a variable of a Model.
type Var int

// Term is a coefficient times a variable.
type Term struct {
	Coef float64
	Var  Var
}

// Expr is a linear expression, the sum of its terms.
type Expr []Term

// Plus returns e with the term c*v appended.
func (e Expr) Plus(c float64, v Var) Expr {
	return append(e, Term{Coef: c, Var: v})
}

func (e Expr) String() string {
	if len(e) == 0 {
		return "0"
	}
	parts := make([]string, len(e))
	for i, t := range e {
		parts[i] = fmt.Sprintf("%g*x%d", t.Coef, t.Var)
	}
	return strings.Join(parts, " + ")
}

// Sense is the relation of a constraint.
type Sense int8

const (
	Leq Sense = iota
	Geq
	Eq
)

func (s Sense) String() string {
	switch s {
	case Leq:
		return "<="
	case Geq:
		return ">="
	case Eq:
		return "=="
	default:
		return "?"
	}
}

// Status is the outcome of a Solve.
type Status int8

const (
	// Optimal: the values are a proven optimum.
	Optimal Status = iota
	// Feasible: the values are feasible, optimality is not proven.
	Feasible
	// Timeout: the time limit was reached.  The values are the best
	// incumbent, if any.
	Timeout
	Infeasible
	Unbounded
	InfeasibleOrUnbounded
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Feasible:
		return "feasible"
	case Timeout:
		return "timeout"
	case Infeasible:
		return "infeasible"
	case Unbounded:
		return "unbounded"
	case InfeasibleOrUnbounded:
		return "infeasible or unbounded"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Solution is the result of a Solve.
type Solution struct {
	Status    Status
	Objective float64
	values    []int64
}

// NewSolution creates a solution with status st.  vals is nil if there is
// no assignment.
func NewSolution(st Status, obj float64, vals []int64) *Solution {
	return &Solution{Status: st, Objective: obj, values: vals}
}

// HasValues tells whether s carries an assignment.
func (s *Solution) HasValues() bool {
	return s.values != nil
}

// Value returns the value of v.  It panics if s has no assignment.
func (s *Solution) Value(v Var) int64 {
	return s.values[v]
}

// Model is an integer linear program under construction.
type Model interface {
	// AddVar adds a variable with domain [lo, hi].  Binary variables
	// have domain [0, 1] regardless of lo and hi.
	AddVar(name string, k Kind, lo, hi int64) (Var, error)

	// AddConstraint adds the constraint e s rhs.
	AddConstraint(name string, e Expr, s Sense, rhs float64) error

	// SetObjective sets the expression to minimise.
	SetObjective(e Expr) error

	// Solve solves the model within timeout.  A zero timeout means no
	// limit.  Errors are reserved for backend failures; infeasibility is
	// a Status.
	Solve(timeout time.Duration) (*Solution, error)

	// Close releases the resources of the model.
	Close() error
}

// Factory creates a fresh model for each solving run.
type Factory func() (Model, error)

// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package gen

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-air/bitheap/ilp"
)

// AnyStatus asks RandModel for a random status.
const AnyStatus ilp.Status = -1

// RandModel creates an ilp.Model which just returns st from Solve()
// within a random period of time chosen from [0..d).  If st is AnyStatus,
// a random status is chosen.  Optimal and feasible solutions carry random
// values within the variable bounds; the other statuses carry none.  If the
// period exceeds the timeout given to Solve, the status is ilp.Timeout.
//
// Constraints and the objective are only counted.
//
// This is useful for testing the handling of solver outcomes.
func RandModel(d time.Duration, st ilp.Status) ilp.Model {
	return RandModelr(d, st, rand.NewSource(33))
}

func RandModelr(d time.Duration, st ilp.Status, src rand.Source) ilp.Model {
	return &randModel{
		dur:  d,
		st:   st,
		rand: rand.New(src)}
}

// RandFactory returns a factory of RandModels, each with its own source
// seeded from the package rng.
func RandFactory(d time.Duration, st ilp.Status) ilp.Factory {
	return func() (ilp.Model, error) {
		mu.Lock()
		seed := rng.Int63()
		mu.Unlock()
		return RandModelr(d, st, rand.NewSource(seed)), nil
	}
}

type randModel struct {
	mu     sync.Mutex
	dur    time.Duration
	st     ilp.Status
	rand   *rand.Rand
	bounds [][2]int64
	ncons  int
	obj    ilp.Expr
	closed bool
}

func (r *randModel) AddVar(name string, k ilp.Kind, lo, hi int64) (ilp.Var, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return 0, fmt.Errorf("randModel: closed")
	}
	if k == ilp.Binary {
		lo, hi = 0, 1
	}
	if lo > hi {
		return 0, fmt.Errorf("randModel: %s has empty domain [%d,%d]", name, lo, hi)
	}
	r.bounds = append(r.bounds, [2]int64{lo, hi})
	return ilp.Var(len(r.bounds) - 1), nil
}

func (r *randModel) AddConstraint(name string, e ilp.Expr, s ilp.Sense, rhs float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.check(e); e != nil {
		return fmt.Errorf("randModel: constraint %s: %w", name, e)
	}
	r.ncons++
	return nil
}

func (r *randModel) SetObjective(e ilp.Expr) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.check(e); e != nil {
		return fmt.Errorf("randModel: objective: %w", e)
	}
	r.obj = e
	return nil
}

func (r *randModel) check(e ilp.Expr) error {
	if r.closed {
		return fmt.Errorf("closed")
	}
	for _, t := range e {
		if t.Var < 0 || int(t.Var) >= len(r.bounds) {
			return fmt.Errorf("unknown variable %d", t.Var)
		}
	}
	return nil
}

func (r *randModel) Solve(timeout time.Duration) (*ilp.Solution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, fmt.Errorf("randModel: closed")
	}
	w := time.Duration(0)
	if ns := r.dur.Nanoseconds(); ns > 0 {
		w = time.Duration(r.rand.Int63n(ns))
	}
	st := r.st
	if st == AnyStatus {
		st = ilp.Status(r.rand.Intn(int(ilp.InfeasibleOrUnbounded) + 1))
	}
	if timeout > 0 && w > timeout {
		w, st = timeout, ilp.Timeout
	}
	time.Sleep(w)
	if st != ilp.Optimal && st != ilp.Feasible {
		return ilp.NewSolution(st, 0, nil), nil
	}
	vals := make([]int64, len(r.bounds))
	for i, b := range r.bounds {
		vals[i] = b[0] + r.rand.Int63n(b[1]-b[0]+1)
	}
	obj := 0.0
	for _, t := range r.obj {
		obj += t.Coef * float64(vals[t.Var])
	}
	return ilp.NewSolution(st, obj, vals), nil
}

func (r *randModel) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *randModel) String() string {
	return fmt.Sprintf("*randModel[%s %d vars %d constraints]", r.dur, len(r.bounds), r.ncons)
}

// Interrupted returns a factory of models which solve with the models of f
// but report every optimal or feasible outcome as ilp.Timeout, keeping the
// assignment as the incumbent.  Other outcomes pass through.
func Interrupted(f ilp.Factory) ilp.Factory {
	return func() (ilp.Model, error) {
		m, e := f()
		if e != nil {
			return nil, e
		}
		return &interrupted{Model: m}, nil
	}
}

type interrupted struct {
	ilp.Model
	nvars int
}

func (m *interrupted) AddVar(name string, k ilp.Kind, lo, hi int64) (ilp.Var, error) {
	v, e := m.Model.AddVar(name, k, lo, hi)
	if e == nil {
		m.nvars++
	}
	return v, e
}

func (m *interrupted) Solve(timeout time.Duration) (*ilp.Solution, error) {
	sol, e := m.Model.Solve(timeout)
	if e != nil {
		return nil, e
	}
	if sol.Status != ilp.Optimal && sol.Status != ilp.Feasible {
		return sol, nil
	}
	vals := make([]int64, m.nvars)
	for i := range vals {
		vals[i] = sol.Value(ilp.Var(i))
	}
	return ilp.NewSolution(ilp.Timeout, sol.Objective, vals), nil
}

// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package gen

import (
	"testing"
	"time"

	"github.com/go-air/bitheap/ilp"
)

func TestRandModel(t *testing.T) {
	m := RandModel(time.Millisecond, ilp.Optimal)
	x, _ := m.AddVar("x", ilp.Integer, 3, 9)
	y, _ := m.AddVar("y", ilp.Binary, 5, 7)
	if e := m.AddConstraint("c", ilp.Expr{}.Plus(1, x).Plus(1, y), ilp.Leq, 4); e != nil {
		t.Fatal(e)
	}
	if e := m.SetObjective(ilp.Expr{}.Plus(2, x)); e != nil {
		t.Fatal(e)
	}
	if e := m.AddConstraint("bad", ilp.Expr{}.Plus(1, 7), ilp.Eq, 0); e == nil {
		t.Errorf("unknown variable accepted")
	}
	for i := 0; i < 10; i++ {
		start := time.Now()
		sol, e := m.Solve(0)
		if e != nil {
			t.Fatal(e)
		}
		if d := time.Since(start); d > 50*time.Millisecond {
			// the CI builders can't handle this.
			t.Logf("took too long %s\n", d)
		}
		if sol.Status != ilp.Optimal || !sol.HasValues() {
			t.Fatalf("status %s", sol.Status)
		}
		if v := sol.Value(x); v < 3 || v > 9 {
			t.Errorf("x = %d outside [3,9]", v)
		}
		if v := sol.Value(y); v < 0 || v > 1 {
			t.Errorf("binary y = %d", v)
		}
		if sol.Objective != float64(2*sol.Value(x)) {
			t.Errorf("objective %g for x = %d", sol.Objective, sol.Value(x))
		}
	}
	m.Close()
	if _, e := m.Solve(0); e == nil {
		t.Errorf("closed model solved")
	}
}

func TestRandModelTimeout(t *testing.T) {
	m := RandModel(time.Hour, AnyStatus)
	sol, e := m.Solve(time.Millisecond)
	if e != nil {
		t.Fatal(e)
	}
	if sol.Status != ilp.Timeout || sol.HasValues() {
		t.Errorf("got %s with values %t", sol.Status, sol.HasValues())
	}
}

func TestRandFactory(t *testing.T) {
	f := RandFactory(0, ilp.Infeasible)
	for i := 0; i < 3; i++ {
		m, e := f()
		if e != nil {
			t.Fatal(e)
		}
		sol, e := m.Solve(time.Second)
		if e != nil || sol.Status != ilp.Infeasible {
			t.Errorf("got %v, %v", sol, e)
		}
		m.Close()
	}
}

func TestInterrupted(t *testing.T) {
	f := Interrupted(RandFactory(0, ilp.Optimal))
	m, e := f()
	if e != nil {
		t.Fatal(e)
	}
	defer m.Close()
	x, _ := m.AddVar("x", ilp.Integer, 2, 4)
	m.SetObjective(ilp.Expr{}.Plus(1, x))
	sol, e := m.Solve(0)
	if e != nil {
		t.Fatal(e)
	}
	if sol.Status != ilp.Timeout || !sol.HasValues() {
		t.Fatalf("got %s with values %t", sol.Status, sol.HasValues())
	}
	if v := sol.Value(x); v < 2 || v > 4 || sol.Objective != float64(v) {
		t.Errorf("x = %d objective %g", v, sol.Objective)
	}

	g := Interrupted(RandFactory(0, ilp.Infeasible))
	m, _ = g()
	defer m.Close()
	m.AddVar("y", ilp.Binary, 0, 1)
	sol, e = m.Solve(0)
	if e != nil || sol.Status != ilp.Infeasible || sol.HasValues() {
		t.Errorf("got %v, %v", sol, e)
	}
}

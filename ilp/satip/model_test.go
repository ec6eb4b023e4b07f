// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package satip

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/go-air/bitheap/ilp"
)

func mustVar(t *testing.T, m *Model, name string, lo, hi int64) ilp.Var {
	t.Helper()
	v, e := m.AddVar(name, ilp.Integer, lo, hi)
	if e != nil {
		t.Fatal(e)
	}
	return v
}

func TestModelOptimal(t *testing.T) {
	m := New()
	defer m.Close()
	a := mustVar(t, m, "a", 0, 10)
	b := mustVar(t, m, "b", 0, 10)
	if e := m.AddConstraint("cover", ilp.Expr{}.Plus(2, a).Plus(3, b), ilp.Geq, 7); e != nil {
		t.Fatal(e)
	}
	if e := m.SetObjective(ilp.Expr{}.Plus(0.5, a).Plus(1, b)); e != nil {
		t.Fatal(e)
	}
	sol, e := m.Solve(0)
	if e != nil {
		t.Fatal(e)
	}
	if sol.Status != ilp.Optimal {
		t.Fatalf("status %s", sol.Status)
	}
	if sol.Objective != 2 {
		t.Errorf("objective %g, want 2", sol.Objective)
	}
	if 2*sol.Value(a)+3*sol.Value(b) < 7 {
		t.Errorf("violated: a=%d b=%d", sol.Value(a), sol.Value(b))
	}
}

// The clock jumps past the deadline after the first solve, so the bound
// search stops with the first assignment as incumbent.
func TestModelTimeoutIncumbent(t *testing.T) {
	m := New()
	defer m.Close()
	t0 := time.Now()
	calls := 0
	m.now = func() time.Time {
		calls++
		if calls <= 2 {
			return t0
		}
		return t0.Add(time.Hour)
	}
	a := mustVar(t, m, "a", 0, 10)
	b := mustVar(t, m, "b", 0, 10)
	if e := m.AddConstraint("cover", ilp.Expr{}.Plus(2, a).Plus(3, b), ilp.Geq, 7); e != nil {
		t.Fatal(e)
	}
	if e := m.SetObjective(ilp.Expr{}.Plus(0.5, a).Plus(1, b)); e != nil {
		t.Fatal(e)
	}
	sol, e := m.Solve(time.Minute)
	if e != nil {
		t.Fatal(e)
	}
	if sol.Status != ilp.Timeout || !sol.HasValues() {
		t.Fatalf("got %s with values %t", sol.Status, sol.HasValues())
	}
	va, vb := sol.Value(a), sol.Value(b)
	if 2*va+3*vb < 7 {
		t.Errorf("incumbent violates cover: a=%d b=%d", va, vb)
	}
	if want := 0.5*float64(va) + float64(vb); sol.Objective != want || sol.Objective < 2 {
		t.Errorf("objective %g for a=%d b=%d", sol.Objective, va, vb)
	}
	if calls < 3 {
		t.Errorf("bound search never probed the clock")
	}
}

func TestModelInfeasible(t *testing.T) {
	m := New()
	defer m.Close()
	x := mustVar(t, m, "x", 0, 3)
	if e := m.AddConstraint("big", ilp.Expr{}.Plus(1, x), ilp.Geq, 5); e != nil {
		t.Fatal(e)
	}
	sol, e := m.Solve(0)
	if e != nil {
		t.Fatal(e)
	}
	if sol.Status != ilp.Infeasible {
		t.Errorf("status %s, want infeasible", sol.Status)
	}
	if sol.HasValues() {
		t.Errorf("infeasible solution with values")
	}
}

func TestModelNegative(t *testing.T) {
	m := New()
	defer m.Close()
	x := mustVar(t, m, "x", -3, 3)
	y := mustVar(t, m, "y", 0, 4)
	if e := m.AddConstraint("link", ilp.Expr{}.Plus(1, x).Plus(-1, y), ilp.Eq, -2); e != nil {
		t.Fatal(e)
	}
	if e := m.SetObjective(ilp.Expr{}.Plus(1, y)); e != nil {
		t.Fatal(e)
	}
	sol, e := m.Solve(0)
	if e != nil {
		t.Fatal(e)
	}
	if sol.Status != ilp.Optimal || sol.Value(y) != 0 || sol.Value(x) != -2 {
		t.Errorf("got %s x=%d y=%d, want optimal x=-2 y=0", sol.Status, sol.Value(x), sol.Value(y))
	}
}

func TestModelMisuse(t *testing.T) {
	m := New()
	x := mustVar(t, m, "x", 0, 3)
	if _, e := m.AddVar("empty", ilp.Integer, 2, 1); e == nil {
		t.Errorf("empty domain accepted")
	}
	if e := m.AddConstraint("frac", ilp.Expr{}.Plus(0.5, x), ilp.Leq, 1); e == nil {
		t.Errorf("fractional coefficient accepted")
	}
	if e := m.AddConstraint("unknown", ilp.Expr{}.Plus(1, 7), ilp.Leq, 1); e == nil {
		t.Errorf("unknown variable accepted")
	}
	if e := m.SetObjective(ilp.Expr{}.Plus(-1, x)); e == nil {
		t.Errorf("negative objective accepted")
	}
	m.Close()
	if _, e := m.Solve(0); e == nil {
		t.Errorf("solved closed model")
	}
	if e := m.Close(); e != nil {
		t.Errorf("second close: %s", e)
	}
}

// brute enumerates every assignment of n variables in [lo, hi].
func brute(n int, lo, hi int64, ok func([]int64) bool, cost func([]int64) float64) (float64, bool) {
	xs := make([]int64, n)
	for i := range xs {
		xs[i] = lo
	}
	best, found := math.Inf(1), false
	for {
		if ok(xs) {
			if c := cost(xs); c < best {
				best = c
			}
			found = true
		}
		i := 0
		for ; i < n; i++ {
			if xs[i] < hi {
				xs[i]++
				break
			}
			xs[i] = lo
		}
		if i == n {
			return best, found
		}
	}
}

func TestModelRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	costs := []float64{0, 0.5, 1, 2}
	for trial := 0; trial < 40; trial++ {
		const n, lo, hi = 3, -1, 3
		type cons struct {
			coefs []int64
			sense ilp.Sense
			rhs   int64
		}
		var cs []cons
		for j := 0; j < 2; j++ {
			c := cons{sense: ilp.Sense(rng.Intn(3)), rhs: int64(rng.Intn(9) - 3)}
			for i := 0; i < n; i++ {
				c.coefs = append(c.coefs, int64(rng.Intn(7)-3))
			}
			cs = append(cs, c)
		}
		obj := make([]float64, n)
		for i := range obj {
			obj[i] = costs[rng.Intn(len(costs))]
		}
		ok := func(xs []int64) bool {
			for _, c := range cs {
				s := int64(0)
				for i, k := range c.coefs {
					s += k * xs[i]
				}
				switch {
				case c.sense == ilp.Leq && s > c.rhs,
					c.sense == ilp.Geq && s < c.rhs,
					c.sense == ilp.Eq && s != c.rhs:
					return false
				}
			}
			return true
		}
		cost := func(xs []int64) float64 {
			s := 0.0
			for i, x := range xs {
				s += obj[i] * float64(x)
			}
			return s
		}
		want, feasible := brute(n, lo, hi, ok, cost)

		m := New()
		vs := make([]ilp.Var, n)
		for i := range vs {
			vs[i] = mustVar(t, m, "x", lo, hi)
		}
		for _, c := range cs {
			var e ilp.Expr
			for i, k := range c.coefs {
				e = e.Plus(float64(k), vs[i])
			}
			if err := m.AddConstraint("c", e, c.sense, float64(c.rhs)); err != nil {
				t.Fatal(err)
			}
		}
		var oe ilp.Expr
		for i, c := range obj {
			oe = oe.Plus(c, vs[i])
		}
		if err := m.SetObjective(oe); err != nil {
			t.Fatal(err)
		}
		sol, err := m.Solve(0)
		m.Close()
		if err != nil {
			t.Fatal(err)
		}
		if !feasible {
			if sol.Status != ilp.Infeasible {
				t.Errorf("trial %d: status %s, want infeasible", trial, sol.Status)
			}
			continue
		}
		if sol.Status != ilp.Optimal {
			t.Errorf("trial %d: status %s, want optimal", trial, sol.Status)
			continue
		}
		if math.Abs(sol.Objective-want) > 1e-9 {
			t.Errorf("trial %d: objective %g, want %g", trial, sol.Objective, want)
		}
		xs := make([]int64, n)
		for i, v := range vs {
			xs[i] = sol.Value(v)
		}
		if !ok(xs) {
			t.Errorf("trial %d: solution %v violates constraints", trial, xs)
		}
	}
}

// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package sched

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/go-air/bitheap"
)

// bruteCost returns the least area reducing hs to height 2 within t stages
// using full (cost 1) and half (cost 0.5) adders which must cover every bit
// of a non final stage, with no output past column w-1.
func bruteCost(hs []int, t, w int, memo map[string]float64) float64 {
	mx := 0
	for _, h := range hs {
		if h > mx {
			mx = h
		}
	}
	if mx <= 2 {
		return 0
	}
	if t == 0 {
		return math.Inf(1)
	}
	key := fmt.Sprint(hs, t)
	if v, ok := memo[key]; ok {
		return v
	}
	opts := make([][][2]int, len(hs))
	for c, h := range hs {
		opts[c] = covers(h)
	}
	best := math.Inf(1)
	choice := make([][2]int, len(hs))
	var rec func(c int)
	rec = func(c int) {
		if c == len(hs) {
			next := make([]int, len(hs)+1)
			cost := 0.0
			for i, ab := range choice {
				n := ab[0] + ab[1]
				if n > 0 && i+1 >= w {
					return
				}
				cost += float64(ab[0]) + 0.5*float64(ab[1])
				next[i] += n
				next[i+1] += n
			}
			for len(next) > 0 && next[len(next)-1] == 0 {
				next = next[:len(next)-1]
			}
			if v := cost + bruteCost(next, t-1, w, memo); v < best {
				best = v
			}
			return
		}
		for _, ab := range opts[c] {
			choice[c] = ab
			rec(c + 1)
		}
	}
	rec(0)
	memo[key] = best
	return best
}

// covers lists the full/half adder counts covering h bits from which no
// adder can be removed.
func covers(h int) [][2]int {
	var res [][2]int
	for a := 0; a <= h/3+1; a++ {
		for b := 0; b <= h/2+1; b++ {
			if 3*a+2*b < h {
				continue
			}
			if a > 0 && 3*(a-1)+2*b >= h {
				continue
			}
			if b > 0 && 3*a+2*(b-1) >= h {
				continue
			}
			res = append(res, [2]int{a, b})
		}
	}
	return res
}

func randomBits(rng *rand.Rand, hs []int) [][]bool {
	cols := make([][]bool, len(hs))
	for c, h := range hs {
		for i := 0; i < h; i++ {
			cols[c] = append(cols[c], rng.Intn(2) == 1)
		}
	}
	return cols
}

// checkSchedule verifies bit conservation, terminal height and value
// preservation of sch.
func checkSchedule(t *testing.T, sch *bitheap.Schedule, covered bool) {
	t.Helper()
	infos, e := sch.Replay()
	if e != nil {
		t.Fatalf("replay: %s\n%s", e, sch)
	}
	if len(infos) != sch.Stages+1 {
		t.Fatalf("replay gave %d stages, want %d", len(infos), sch.Stages+1)
	}
	for c, h := range infos[sch.Stages].Heights {
		if h > 2 {
			t.Errorf("final column %d holds %d bits", c, h)
		}
	}
	if covered {
		for st := 0; st < sch.Stages; st++ {
			for c, h := range infos[st].Heights {
				if infos[st].Capacity[c] < h {
					t.Errorf("stage %d column %d: capacity %d below %d bits", st, c, infos[st].Capacity[c], h)
				}
			}
		}
	}
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < 50; i++ {
		in := randomBits(rng, sch.Initial)
		out, e := sch.Simulate(in)
		if e != nil {
			t.Fatalf("simulate: %s", e)
		}
		if bitheap.Value(out) != bitheap.Value(in) {
			t.Fatalf("value %d became %d\n%s", bitheap.Value(in), bitheap.Value(out), sch)
		}
		for c, bs := range out {
			if len(bs) > 2 {
				t.Errorf("simulated final column %d holds %d bits", c, len(bs))
			}
		}
	}
}

var fixture = []int{3, 5, 5, 3}

func TestSchedulerOptimal(t *testing.T) {
	cat := bitheap.FullHalfAdders()
	s, e := New(cat)
	if e != nil {
		t.Fatal(e)
	}
	stages := s.Stages(fixture)
	if stages != 3 {
		t.Fatalf("stage bound %d, want 3", stages)
	}
	sch, e := s.Schedule(fixture)
	if e != nil {
		t.Fatal(e)
	}
	w := len(fixture) + stages*(cat.MaxOutSpan()-1)
	want := bruteCost(fixture, stages, w, map[string]float64{})
	if sch.Objective != want {
		t.Errorf("objective %g, brute force %g\n%s", sch.Objective, want, sch)
	}
	if !sch.Proven {
		t.Errorf("optimum not proven")
	}
	checkSchedule(t, sch, true)
}

func TestSchedulerIdempotent(t *testing.T) {
	s, e := New(bitheap.FullHalfAdders())
	if e != nil {
		t.Fatal(e)
	}
	hs := []int{2, 3, 4, 3, 1}
	a, e := s.Schedule(hs)
	if e != nil {
		t.Fatal(e)
	}
	b, e := s.Schedule(hs)
	if e != nil {
		t.Fatal(e)
	}
	if a.Objective != b.Objective {
		t.Errorf("objectives differ: %g and %g", a.Objective, b.Objective)
	}
	checkSchedule(t, a, true)
}

func TestSchedulerTrivial(t *testing.T) {
	s, e := New(bitheap.FullHalfAdders())
	if e != nil {
		t.Fatal(e)
	}
	sch, e := s.Schedule([]int{2, 1, 2})
	if e != nil {
		t.Fatal(e)
	}
	if sch.Stages != 0 || len(sch.Placements) != 0 || sch.Objective != 0 {
		t.Errorf("trivial heap got %s", sch)
	}
}

func TestSchedulerInfeasible(t *testing.T) {
	s, e := New(bitheap.FullHalfAdders(), WithStages(1))
	if e != nil {
		t.Fatal(e)
	}
	_, e = s.Schedule(fixture)
	if !errors.Is(e, bitheap.ErrInfeasible) {
		t.Errorf("got %v, want infeasible", e)
	}
	if errors.Is(e, bitheap.ErrRetryable) {
		t.Errorf("free mode reported retryable")
	}
}

func TestSchedulerRetryable(t *testing.T) {
	s, e := New(bitheap.FullHalfAdders(), WithFixedStages(1))
	if e != nil {
		t.Fatal(e)
	}
	if s.Mode() != Fixed {
		t.Errorf("mode %s", s.Mode())
	}
	_, e = s.Schedule(fixture)
	if !errors.Is(e, bitheap.ErrRetryable) {
		t.Errorf("got %v, want retryable", e)
	}
	var be *bitheap.Error
	if !errors.As(e, &be) || be.Stage != 1 {
		t.Errorf("error %v does not carry the stage", e)
	}
}

func TestSchedulerConfig(t *testing.T) {
	if _, e := New(nil); !errors.Is(e, bitheap.ErrConfig) {
		t.Errorf("nil catalog: %v", e)
	}
	if _, e := New(bitheap.FullHalfAdders(), WithFixedStages(-1)); !errors.Is(e, bitheap.ErrConfig) {
		t.Errorf("negative fixed stages: %v", e)
	}
	s, _ := New(bitheap.FullHalfAdders())
	if _, e := s.Schedule([]int{1, -1}); !errors.Is(e, bitheap.ErrConfig) {
		t.Errorf("negative height: %v", e)
	}
}

func TestIterate(t *testing.T) {
	sch, e := Iterate(bitheap.FullHalfAdders(), fixture, 4)
	if e != nil {
		t.Fatal(e)
	}
	if sch.Stages != 3 {
		t.Errorf("stages %d, want 3", sch.Stages)
	}
	checkSchedule(t, sch, true)
	if _, e := Iterate(bitheap.FullHalfAdders(), fixture, 1); !errors.Is(e, bitheap.ErrInfeasible) {
		t.Errorf("got %v, want infeasible", e)
	}
}

func rowCatalog(t *testing.T) *bitheap.Catalog {
	t.Helper()
	part := func(p bitheap.Part) *bitheap.ChainPart {
		return &bitheap.ChainPart{Family: "row", Part: p}
	}
	cat, e := bitheap.NewCatalog(
		bitheap.Compressor{Name: "wire", Height: []int{1}, Outputs: []int{1}},
		bitheap.Compressor{Name: "low", Height: []int{3}, Outputs: []int{1}, Cost: 1, Chain: part(bitheap.PartLow)},
		bitheap.Compressor{Name: "mid", Height: []int{3}, Outputs: []int{1}, Cost: 1, Chain: part(bitheap.PartMiddle)},
		bitheap.Compressor{Name: "high", Height: []int{3}, Outputs: []int{1, 1, 1}, Cost: 2, Chain: part(bitheap.PartHigh)})
	if e != nil {
		t.Fatal(e)
	}
	return cat
}

func TestSchedulerChain(t *testing.T) {
	cat := rowCatalog(t)
	s, e := New(cat, WithFixedStages(1))
	if e != nil {
		t.Fatal(e)
	}
	sch, e := s.Schedule([]int{3, 3})
	if e != nil {
		t.Fatal(e)
	}
	if sch.Objective != 3 {
		t.Errorf("objective %g, want 3\n%s", sch.Objective, sch)
	}
	var low, high int
	for _, p := range sch.Placements {
		switch cat.At(p.Compressor).Name {
		case "low":
			low += p.Count
			if p.Column != 0 {
				t.Errorf("low part at column %d", p.Column)
			}
		case "high":
			high += p.Count
			if p.Column != 1 {
				t.Errorf("high part at column %d", p.Column)
			}
		}
	}
	if low != 1 || high != 1 {
		t.Errorf("got %d low and %d high parts, want one chain", low, high)
	}
	checkSchedule(t, sch, true)
}

func TestGreedy(t *testing.T) {
	g, e := NewGreedy(bitheap.FullHalfAdders())
	if e != nil {
		t.Fatal(e)
	}
	rng := rand.New(rand.NewSource(3))
	heaps := [][]int{fixture, {1}, {}, {8, 8, 8, 8}, {1, 2, 3, 4, 5, 6, 7, 8, 7, 6, 5, 4, 3, 2, 1}}
	for i := 0; i < 20; i++ {
		hs := make([]int, 1+rng.Intn(10))
		for c := range hs {
			hs[c] = rng.Intn(12)
		}
		heaps = append(heaps, hs)
	}
	for _, hs := range heaps {
		sch, e := g.Reduce(hs)
		if e != nil {
			t.Fatalf("%v: %s", hs, e)
		}
		if sch.Stages > bitheap.DaddaStages(maxOf(hs)) {
			t.Errorf("%v: %d stages, Dadda bound %d", hs, sch.Stages, bitheap.DaddaStages(maxOf(hs)))
		}
		checkSchedule(t, sch, false)
	}
}

func TestGreedyNoReducer(t *testing.T) {
	cat := bitheap.MustCatalog(bitheap.Compressor{Name: "wire", Height: []int{1}, Outputs: []int{1}})
	if _, e := NewGreedy(cat); !errors.Is(e, bitheap.ErrConfig) {
		t.Errorf("got %v, want configuration error", e)
	}
}

func maxOf(hs []int) int {
	m := 0
	for _, h := range hs {
		if h > m {
			m = h
		}
	}
	return m
}

// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package modred

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/go-air/bitheap"
	"github.com/go-air/bitheap/sched"
)

var policies = []Policy{Complete, MinBits, MinRange, MinRangeWeighted}

func checkResult(t *testing.T, r *Result, rng *rand.Rand, n int) {
	t.Helper()
	f := r.Final()
	if h := r.State.MaxHeight(f); h > 1 {
		t.Errorf("final height %d", h)
	}
	if sg := r.Stages[f]; sg.Lo < -r.M || sg.Hi >= r.M {
		t.Errorf("final range [%d,%d] outside [%d,%d)", sg.Lo, sg.Hi, -r.M, r.M)
	}
	for i, sg := range r.Stages {
		if sg.Lo > sg.Hi {
			t.Errorf("stage %d: empty range [%d,%d]", i, sg.Lo, sg.Hi)
		}
		if (sg.Kind == Physical) != (sg.Schedule != nil) {
			t.Errorf("stage %d: %s with schedule %v", i, sg.Kind, sg.Schedule != nil)
		}
	}
	for i := 0; i < n; i++ {
		x := uint64(rng.Int63n(int64(1) << uint(r.WIn)))
		v, res, e := r.Eval(x)
		if e != nil {
			t.Fatalf("eval %d: %s", x, e)
		}
		if v < -r.M || v >= r.M {
			t.Errorf("eval %d: value %d outside [%d,%d)", x, v, -r.M, r.M)
		}
		if want := int64(x % uint64(r.M)); res != want {
			t.Fatalf("%d mod %d: got %d want %d", x, r.M, res, want)
		}
	}
}

func TestRun(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, p := range policies {
		for w := 6; w <= 12; w++ {
			for m := int64(2); m < 20; m++ {
				s, e := New(w, m, p)
				if e != nil {
					t.Fatal(e)
				}
				r, e := s.Run()
				if e != nil {
					t.Fatalf("%s w=%d m=%d: %s", p, w, m, e)
				}
				if r.Stages[0].Kind != Input || r.Stages[0].Hi != int64(1)<<uint(w)-1 {
					t.Errorf("%s w=%d m=%d: input stage %s", p, w, m, r.Stages[0])
				}
				checkResult(t, r, rng, 120)
			}
		}
	}
}

func TestRunLargeModulus(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	for _, m := range []int64{97, 255, 1000, 65521} {
		s, e := New(24, m, MinRange)
		if e != nil {
			t.Fatal(e)
		}
		r, e := s.Run()
		if e != nil {
			t.Fatalf("m=%d: %s", m, e)
		}
		checkResult(t, r, rng, 200)
	}
}

func TestRunInRange(t *testing.T) {
	s, e := New(3, 9, MinBits)
	if e != nil {
		t.Fatal(e)
	}
	r, e := s.Run()
	if e != nil {
		t.Fatal(e)
	}
	if len(r.Stages) != 1 {
		t.Errorf("input in range took %d stages", len(r.Stages)-1)
	}
	checkResult(t, r, rand.New(rand.NewSource(1)), 8)
}

func TestRunILPReducer(t *testing.T) {
	red, e := sched.New(bitheap.FullHalfAdders())
	if e != nil {
		t.Fatal(e)
	}
	s, e := New(6, 5, MinRange, WithReducer(red))
	if e != nil {
		t.Fatal(e)
	}
	r, e := s.Run()
	if e != nil {
		t.Fatal(e)
	}
	phys := 0
	for _, sg := range r.Stages {
		if sg.Kind == Physical {
			phys++
		}
	}
	if phys == 0 {
		t.Errorf("no physical compression")
	}
	checkResult(t, r, rand.New(rand.NewSource(2)), 64)
}

func TestRunNonConvergence(t *testing.T) {
	s, e := New(12, 3, MinRange, WithMaxStages(1))
	if e != nil {
		t.Fatal(e)
	}
	_, e = s.Run()
	if !errors.Is(e, bitheap.ErrNonConvergence) {
		t.Fatalf("got %v, want non convergence", e)
	}
	var be *bitheap.Error
	if !errors.As(e, &be) || be.Policy != "minRange" {
		t.Errorf("error %v does not carry the policy", e)
	}
}

func TestConfig(t *testing.T) {
	if _, e := ParsePolicy("bogus"); !errors.Is(e, bitheap.ErrConfig) {
		t.Errorf("bogus policy: %v", e)
	}
	if _, e := NewNamed(8, 5, "bogus"); !errors.Is(e, bitheap.ErrConfig) {
		t.Errorf("bogus named policy: %v", e)
	}
	if _, e := New(0, 5, MinBits); !errors.Is(e, bitheap.ErrConfig) {
		t.Errorf("zero width: %v", e)
	}
	if _, e := New(8, 1, MinBits); !errors.Is(e, bitheap.ErrConfig) {
		t.Errorf("modulus 1: %v", e)
	}
	if _, e := New(8, 5, Policy(9)); !errors.Is(e, bitheap.ErrConfig) {
		t.Errorf("policy 9: %v", e)
	}
	if _, e := New(8, 5, MinBits, WithMaxStages(0)); !errors.Is(e, bitheap.ErrConfig) {
		t.Errorf("stage bound 0: %v", e)
	}
	_, e := New(6, 5, Complete, WithMaxCompleteBits(4))
	var be *bitheap.Error
	if !errors.As(e, &be) || !errors.Is(e, bitheap.ErrConfig) || be.Policy != "complete" {
		t.Errorf("complete bound: %v", e)
	}
	for _, p := range policies {
		q, e := ParsePolicy(p.String())
		if e != nil || q != p {
			t.Errorf("%s parsed as %s, %v", p, q, e)
		}
	}
}

func TestEvalWide(t *testing.T) {
	s, _ := New(6, 5, MinBits)
	r, e := s.Run()
	if e != nil {
		t.Fatal(e)
	}
	if _, _, e := r.Eval(64); !errors.Is(e, bitheap.ErrConfig) {
		t.Errorf("wide input: %v", e)
	}
}

func ExampleScheduler_Run() {
	s, _ := New(8, 7, MinRange)
	r, _ := s.Run()
	for _, sg := range r.Stages {
		fmt.Println(sg)
	}
	_, res, _ := r.Eval(200)
	fmt.Println(res)
	// Output:
	// input offset 0 range [0,255]
	// pseudo offset 0 range [-6,9]
	// physical offset -6 range [-6,9]
	// pseudo offset 1 range [-2,5]
	// physical offset -2 range [-2,5]
	// 4
}

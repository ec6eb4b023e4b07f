// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package bench

import (
	"context"
	"fmt"
	"io"
	"log"
	"runtime"
	"time"

	"github.com/go-air/bitheap"
	"github.com/go-air/bitheap/gen"
	"github.com/go-air/bitheap/sched"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// Inst is a scheduling instance.
type Inst struct {
	Name    string
	Heights []int
}

// Multipliers returns the partial product heaps of n by n multipliers for
// each n in sizes.
func Multipliers(sizes ...int) []Inst {
	return lo.Map(sizes, func(n int, _ int) Inst {
		return Inst{Name: fmt.Sprintf("mul%dx%d", n, n), Heights: gen.Multiplier(n, n)}
	})
}

// Squarers returns the heaps of n bit squarers for each n in sizes.
func Squarers(sizes ...int) []Inst {
	return lo.Map(sizes, func(n int, _ int) Inst {
		return Inst{Name: fmt.Sprintf("sq%d", n), Heights: gen.Squarer(n)}
	})
}

// Random returns n random heaps of w columns no higher than h.
func Random(n, w, h int) []Inst {
	return lo.Times(n, func(i int) Inst {
		return Inst{Name: fmt.Sprintf("rand%d", i), Heights: gen.RandHeap(w, h)}
	})
}

// InstRun is the result of one instance.
type InstRun struct {
	Inst   Inst
	Start  time.Time
	Dur    time.Duration
	Stages int
	Area   float64
	Proven bool
	// Error is empty if the instance was solved.
	Error string
}

// Solved tells whether ir produced a schedule.
func (ir *InstRun) Solved() bool {
	return ir.Error == ""
}

// Run is a run of a reducer over a suite.
type Run struct {
	Name    string
	Reducer sched.Reducer
	// Jobs bounds the instances run at once, GOMAXPROCS if <= 0.
	Jobs int
	// Timeout bounds the whole run, no bound if 0.  Instances not
	// started when it expires are recorded as errors.
	Timeout time.Duration
	Start   time.Time
	Dur     time.Duration
	Results []InstRun
	Log     *log.Logger
}

// NewRun creates a run of r.
func NewRun(name string, r sched.Reducer) *Run {
	return &Run{Name: name, Reducer: r}
}

// Do runs every instance of insts and records the results in order.  Do
// only fails if ctx is done before the run completes.
func (r *Run) Do(ctx context.Context, insts []Inst) error {
	if r.Log == nil {
		r.Log = log.New(io.Discard, "", 0)
	}
	jobs := r.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	r.Start = time.Now()
	r.Results = make([]InstRun, len(insts))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i := range insts {
		ir := &r.Results[i]
		ir.Inst = insts[i]
		g.Go(func() error {
			if e := ctx.Err(); e != nil {
				ir.Error = fmt.Sprintf("not run: %s", e)
				return nil
			}
			r.do(ir)
			return nil
		})
	}
	g.Wait()
	r.Dur = time.Since(r.Start)
	return ctx.Err()
}

func (r *Run) do(ir *InstRun) {
	ir.Start = time.Now()
	sch, e := r.Reducer.Reduce(ir.Inst.Heights)
	ir.Dur = time.Since(ir.Start)
	if e != nil {
		ir.Error = e.Error()
		r.Log.Printf("%s: %s (%s)\n", ir.Inst.Name, e, ir.Dur)
		return
	}
	if _, e := sch.Replay(); e != nil {
		ir.Error = fmt.Sprintf("invalid schedule: %s", e)
		return
	}
	ir.Stages, ir.Area, ir.Proven = sch.Stages, sch.Objective, sch.Proven
	r.Log.Printf("%s: %d stages area %g (%s)\n", ir.Inst.Name, ir.Stages, ir.Area, ir.Dur)
}

// Summary is the aggregate of a run.
type Summary struct {
	Insts  int
	Solved int
	Proven int
	Area   float64
	// Dur is the total solving time over solved instances.
	Dur time.Duration
}

// Summary aggregates the results of r.
func (r *Run) Summary() Summary {
	solved := lo.Filter(r.Results, func(ir InstRun, _ int) bool { return ir.Solved() })
	return Summary{
		Insts:  len(r.Results),
		Solved: len(solved),
		Proven: lo.CountBy(solved, func(ir InstRun) bool { return ir.Proven }),
		Area:   lo.SumBy(solved, func(ir InstRun) float64 { return ir.Area }),
		Dur:    lo.SumBy(solved, func(ir InstRun) time.Duration { return ir.Dur })}
}

// WriteTo lists the results of r followed by its summary.
func (r *Run) WriteTo(w io.Writer) (int64, error) {
	var n int64
	p := func(format string, args ...interface{}) error {
		m, e := fmt.Fprintf(w, format, args...)
		n += int64(m)
		return e
	}
	if e := p("run %s: %d instances in %s\n", r.Name, len(r.Results), r.Dur); e != nil {
		return n, e
	}
	for i := range r.Results {
		ir := &r.Results[i]
		var e error
		if ir.Solved() {
			e = p("%-12s %3d stages area %8g proven %-5t %s\n", ir.Inst.Name, ir.Stages, ir.Area, ir.Proven, ir.Dur)
		} else {
			e = p("%-12s error: %s\n", ir.Inst.Name, ir.Error)
		}
		if e != nil {
			return n, e
		}
	}
	s := r.Summary()
	e := p("solved %d/%d proven %d total area %g time %s\n", s.Solved, s.Insts, s.Proven, s.Area, s.Dur)
	return n, e
}

// Catalog returns the standard catalog of the family named name.
func Catalog(name string) (*bitheap.Catalog, error) {
	f, e := bitheap.ParseFamily(name)
	if e != nil {
		return nil, e
	}
	return bitheap.StandardCatalog(f)
}

// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package main

import (
	"time"

	"github.com/go-air/bitheap/bench"
	"github.com/go-air/bitheap/gen"
	"github.com/go-air/bitheap/sched"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var (
		family  string
		sizes   []int
		squares []int
		nrand   int
		seed    int64
		jobs    int
		dur     time.Duration
		gdur    time.Duration
		greedy  bool
		runName string
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "schedule a suite of heaps in parallel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, e := (&heapFlags{family: family}).catalog()
			if e != nil {
				return e
			}
			var red sched.Reducer
			if greedy {
				red, e = sched.NewGreedy(cat)
			} else {
				red, e = sched.New(cat, sched.WithTimeout(dur), sched.WithLogger(tracer()))
			}
			if e != nil {
				return e
			}
			gen.Seed(seed)
			insts := bench.Multipliers(sizes...)
			insts = append(insts, bench.Squarers(squares...)...)
			insts = append(insts, bench.Random(nrand, 12, 10)...)
			r := bench.NewRun(runName, red)
			r.Jobs, r.Timeout, r.Log = jobs, gdur, tracer()
			e = r.Do(cmd.Context(), insts)
			if _, we := r.WriteTo(cmd.OutOrStdout()); we != nil {
				return we
			}
			return e
		}}
	fs := cmd.Flags()
	fs.StringVar(&family, "family", "fa", "compressor catalog: fa, lut6, lut4 or asic")
	fs.IntSliceVar(&sizes, "mul", []int{4, 6, 8}, "multiplier sizes")
	fs.IntSliceVar(&squares, "sq", nil, "squarer sizes")
	fs.IntVar(&nrand, "rand", 4, "number of random heaps")
	fs.Int64Var(&seed, "seed", 33, "seed of the random heaps")
	fs.IntVarP(&jobs, "jobs", "j", 0, "instances run at once (default GOMAXPROCS)")
	fs.DurationVar(&dur, "dur", 5*time.Second, "max per-instance duration")
	fs.DurationVar(&gdur, "gdur", time.Hour, "max run duration")
	fs.BoolVar(&greedy, "greedy", false, "use the greedy reducer")
	fs.StringVar(&runName, "name", "run", "name of the run")
	return cmd
}

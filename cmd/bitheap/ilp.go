// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package main

import (
	"fmt"
	"log"
	"time"

	"github.com/go-air/bitheap"
	"github.com/go-air/bitheap/gen"
	"github.com/go-air/bitheap/sched"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

type heapFlags struct {
	file   string
	mul    int
	family string
}

func (f *heapFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.file, "file", "f", "", "read heights from file ('-' for stdin)")
	fs.IntVar(&f.mul, "mul", 0, "use the partial product heap of an n by n multiplier")
	fs.StringVar(&f.family, "family", "fa", "compressor catalog: fa (full and half adders), lut6, lut4 or asic")
}

func (f *heapFlags) heights(args []string) ([]int, error) {
	switch {
	case f.mul > 0:
		return gen.Multiplier(f.mul, f.mul), nil
	case f.file != "":
		vs, e := readPath(f.file)
		if e != nil {
			return nil, e
		}
		return lo.Map(vs, func(v uint64, _ int) int { return int(v) }), nil
	case len(args) > 0:
		return parseHeights(args)
	}
	return nil, fmt.Errorf("no heap given")
}

func (f *heapFlags) catalog() (*bitheap.Catalog, error) {
	if f.family == "fa" {
		return bitheap.FullHalfAdders(), nil
	}
	fam, e := bitheap.ParseFamily(f.family)
	if e != nil {
		return nil, e
	}
	return bitheap.StandardCatalog(fam)
}

func newILPCmd() *cobra.Command {
	var (
		hf      heapFlags
		stages  int
		fixed   int
		iterate int
		timeout time.Duration
		greedy  bool
	)
	cmd := &cobra.Command{
		Use:   "ilp [heights]",
		Short: "compute a minimum area compressor tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			hs, e := hf.heights(args)
			if e != nil {
				return e
			}
			cat, e := hf.catalog()
			if e != nil {
				return e
			}
			start := time.Now()
			var sch *bitheap.Schedule
			opts := []sched.Option{sched.WithTimeout(timeout), sched.WithLogger(tracer())}
			switch {
			case greedy:
				var g *sched.Greedy
				if g, e = sched.NewGreedy(cat); e == nil {
					sch, e = g.Reduce(hs)
				}
			case iterate > 0:
				sch, e = sched.Iterate(cat, hs, iterate, opts...)
			default:
				if fixed >= 0 {
					opts = append(opts, sched.WithFixedStages(fixed))
				} else if stages >= 0 {
					opts = append(opts, sched.WithStages(stages))
				}
				var s *sched.Scheduler
				if s, e = sched.New(cat, opts...); e == nil {
					sch, e = s.Schedule(hs)
				}
			}
			if e != nil {
				return e
			}
			log.Printf("scheduled %v in %s\n", hs, time.Since(start))
			fmt.Fprint(cmd.OutOrStdout(), sch)
			return nil
		}}
	hf.register(cmd)
	fs := cmd.Flags()
	fs.IntVar(&stages, "stages", -1, "stage bound (default Dadda's)")
	fs.IntVar(&fixed, "fixed", -1, "fixed stage count")
	fs.IntVar(&iterate, "iterate", 0, "try fixed stage counts up to n")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "solver timeout")
	fs.BoolVar(&greedy, "greedy", false, "use the greedy reducer")
	return cmd
}

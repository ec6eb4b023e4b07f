// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package main

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/go-air/bitheap"
	"github.com/go-air/bitheap/modred"
	"github.com/go-air/bitheap/sched"
	"github.com/spf13/cobra"
)

func newModCmd() *cobra.Command {
	var (
		policy    string
		maxStages int
		complete  int
		useILP    bool
		timeout   time.Duration
		evals     []int64
	)
	cmd := &cobra.Command{
		Use:   "mod wIn m",
		Short: "schedule the reduction of a wIn bit input modulo m",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			wIn, e := strconv.Atoi(args[0])
			if e != nil {
				return fmt.Errorf("input width: %w", e)
			}
			m, e := strconv.ParseInt(args[1], 10, 64)
			if e != nil {
				return fmt.Errorf("modulus: %w", e)
			}
			opts := []modred.Option{
				modred.WithMaxStages(maxStages),
				modred.WithMaxCompleteBits(complete),
				modred.WithLogger(tracer())}
			if useILP {
				red, e := sched.New(bitheap.FullHalfAdders(), sched.WithTimeout(timeout), sched.WithLogger(tracer()))
				if e != nil {
					return e
				}
				opts = append(opts, modred.WithReducer(red))
			}
			s, e := modred.NewNamed(wIn, m, policy, opts...)
			if e != nil {
				return e
			}
			start := time.Now()
			res, e := s.Run()
			if e != nil {
				return e
			}
			log.Printf("reduced %d bits mod %d in %d stages, %s\n", wIn, m, res.Final(), time.Since(start))
			if res.FellBack {
				log.Printf("policy %s stalled, fell back to %s\n", policy, modred.MinRange)
			}
			out := cmd.OutOrStdout()
			for i, sg := range res.Stages {
				fmt.Fprintf(out, "stage %d: %s height %d\n", i, sg, res.State.MaxHeight(i))
			}
			for _, x := range evals {
				v, r, e := res.Eval(uint64(x))
				if e != nil {
					return e
				}
				fmt.Fprintf(out, "eval %d: value %d residue %d\n", x, v, r)
			}
			return nil
		}}
	fs := cmd.Flags()
	fs.StringVar(&policy, "policy", modred.MinRange.String(), "pseudo compression policy: complete, minBits, minRange or minRangeWeighted")
	fs.IntVar(&maxStages, "max-stages", 64, "stage bound")
	fs.IntVar(&complete, "complete-bits", 16, "bits bound of the complete policy")
	fs.BoolVar(&useILP, "ilp", false, "compress physically with minimum area compressor trees")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "solver timeout per compressor tree")
	fs.Int64SliceVar(&evals, "eval", nil, "evaluate the reduction on these inputs")
	return cmd
}

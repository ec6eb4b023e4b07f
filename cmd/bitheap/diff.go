// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package main

import (
	"fmt"
	"log"
	"time"

	"github.com/go-air/bitheap/diffcomp"
	"github.com/go-air/bitheap/gen"
	"github.com/spf13/cobra"
)

func newDiffCmd() *cobra.Command {
	var (
		wIn, wOut int
		lut       int
		grouped   int
		dump      bool
	)
	cmd := &cobra.Command{
		Use:   "diff [file]",
		Short: "split a lookup table into a subsampling table and a diff table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var table []uint64
			switch {
			case grouped > 0:
				if wIn == 0 || wOut == 0 {
					return fmt.Errorf("--grouped needs --in and --out")
				}
				table = gen.Grouped(wIn, wOut, grouped, 37)
			case len(args) == 1:
				t, e := readPath(args[0])
				if e != nil {
					return e
				}
				table = t
			default:
				return fmt.Errorf("no table given")
			}
			var opts []diffcomp.Option
			if lut > 0 {
				opts = append(opts, diffcomp.WithCost(diffcomp.LUTCost(lut)))
			}
			opts = append(opts, diffcomp.WithLogger(tracer()))
			start := time.Now()
			r, e := diffcomp.Compress(table, wIn, wOut, opts...)
			if e != nil {
				return e
			}
			log.Printf("compressed %d entries in %s\n", len(table), time.Since(start))
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, r)
			if !r.Compressed {
				return nil
			}
			fmt.Fprintf(out, "s=%d wH=%d wL=%d wIn=%d\n", r.Split, r.WH, r.WL, r.WIn)
			if dump {
				fmt.Fprintln(out, "subsampling", r.Subsampling)
				fmt.Fprintln(out, "diffs", r.Diffs)
			}
			return nil
		}}
	fs := cmd.Flags()
	fs.IntVar(&wIn, "in", 0, "input width (default inferred from the table size)")
	fs.IntVar(&wOut, "out", 0, "output width (default inferred from the largest entry)")
	fs.IntVar(&lut, "lut", 0, "cost in k input LUTs instead of table bits")
	fs.IntVar(&grouped, "grouped", 0, "use the grouped test table with groups of 2^n entries")
	fs.BoolVar(&dump, "dump", false, "print both tables")
	return cmd
}

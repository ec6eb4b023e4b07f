// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package diffcomp compresses lookup tables differentially.
//
// A table T of 2^wIn words of wOut bits is split into a subsampling table
// S of 2^(wIn-s) words of wH bits and a diff table D of 2^wIn words of wL
// bits such that
//
//	T[i] == S[i>>s]<<(wOut-wH) + D[i]
//
// for every i.  When wL exceeds wOut-wH the words of S and D overlap and
// the final addition carries.  Compress searches s and wL for the least
// cost(wIn-s, wH) + cost(wIn, wL).
package diffcomp

import (
	"fmt"
	"io"
	"log"
	"math/bits"

	"github.com/go-air/bitheap"
	"github.com/samber/lo"
)

// Result is a decomposition of a table.
type Result struct {
	WIn, WOut int
	// Split is the number of low address bits dropped by the subsampling
	// table.
	Split  int
	WH, WL int
	// Shift is wOut-wH, the weight of the subsampling words.
	Shift int
	// Overlap is WL-Shift.
	Overlap     int
	Subsampling []uint64
	Diffs       []uint64
	Cost        float64
	// NaiveCost is the cost of the table itself.
	NaiveCost float64
	// Compressed is false if no split improves on the table, in which case
	// Subsampling is nil and Diffs is the table.
	Compressed bool
}

type config struct {
	cost Cost
	log  *log.Logger
}

// Option configures Compress.
type Option func(*config)

// WithCost sets the cost model, TableBits by default.
func WithCost(c Cost) Option {
	return func(cfg *config) {
		cfg.cost = c
	}
}

// WithLogger traces the search to l.
func WithLogger(l *log.Logger) Option {
	return func(cfg *config) {
		cfg.log = l
	}
}

// Compress computes the least cost decomposition of table.  If wIn is 0 it
// is inferred from len(table), if wOut is 0 it is the width of the largest
// entry.  The decomposition is checked to reconstruct table before it is
// returned.
func Compress(table []uint64, wIn, wOut int, opts ...Option) (*Result, error) {
	cfg := config{cost: TableBits, log: log.New(io.Discard, "", 0)}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.cost == nil {
		return nil, bitheap.Errorf(bitheap.ErrConfig, "no cost model")
	}
	if len(table) == 0 {
		return nil, bitheap.Errorf(bitheap.ErrConfig, "empty table")
	}
	if wIn == 0 {
		if len(table)&(len(table)-1) != 0 {
			return nil, bitheap.Errorf(bitheap.ErrConfig, "cannot infer input width of %d entries", len(table))
		}
		wIn = bits.Len(uint(len(table))) - 1
	}
	if wIn < 0 || wIn > 30 || len(table) != 1<<uint(wIn) {
		return nil, bitheap.Errorf(bitheap.ErrConfig, "%d entries for input width %d", len(table), wIn)
	}
	top := lo.Max(table)
	if wOut == 0 {
		wOut = bits.Len64(top)
	}
	if wOut < 1 || wOut > 64 || bits.Len64(top) > wOut {
		return nil, bitheap.Errorf(bitheap.ErrConfig, "output width %d for largest entry %d", wOut, top)
	}
	res := &Result{
		WIn:       wIn,
		WOut:      wOut,
		WH:        0,
		WL:        wOut,
		Shift:     wOut,
		Diffs:     append([]uint64(nil), table...),
		NaiveCost: cfg.cost(wIn, wOut)}
	res.Cost = res.NaiveCost
	p := search(table, wIn, wOut, cfg)
	if p.s == 0 {
		cfg.log.Printf("no split below cost %g\n", res.NaiveCost)
		return res, nil
	}
	res.build(table, p)
	if e := res.verify(table); e != nil {
		return nil, e
	}
	cfg.log.Printf("split %d: wH %d wL %d shift %d cost %g (table %g)\n",
		res.Split, res.WH, res.WL, res.Shift, res.Cost, res.NaiveCost)
	return res, nil
}

// plan is a candidate decomposition.
type plan struct {
	s, wL, shift int
	cost         float64
}

// search returns the best plan, with s == 0 if none beats the table.
func search(table []uint64, wIn, wOut int, cfg config) plan {
	best := plan{cost: cfg.cost(wIn, wOut)}
	mins := append([]uint64(nil), table...)
	maxs := append([]uint64(nil), table...)
	for s := 1; s < wIn; s++ {
		n := len(mins) / 2
		for g := 0; g < n; g++ {
			mins[g] = min(mins[2*g], mins[2*g+1])
			maxs[g] = max(maxs[2*g], maxs[2*g+1])
		}
		mins, maxs = mins[:n], maxs[:n]
		var spread uint64
		for g := range mins {
			spread = max(spread, maxs[g]-mins[g])
		}
		for wL := bits.Len64(spread); wL < wOut; wL++ {
			if cfg.cost(wIn, wL)+cfg.cost(wIn-s, wOut-wL) >= best.cost {
				continue
			}
			shift := fit(mins, maxs, wL)
			c := cfg.cost(wIn-s, wOut-shift) + cfg.cost(wIn, wL)
			cfg.log.Printf("split %d wL %d shift %d: cost %g\n", s, wL, shift, c)
			if c < best.cost {
				best = plan{s: s, wL: wL, shift: shift, cost: c}
			}
		}
	}
	return best
}

// fit returns the largest shift <= wL such that every group, based at its
// minimum with the low shift bits cleared, fits in wL bits.
func fit(mins, maxs []uint64, wL int) int {
	lim := uint64(1) << uint(wL)
	for shift := wL; shift > 0; shift-- {
		mask := uint64(1)<<uint(shift) - 1
		ok := true
		for g := range mins {
			if maxs[g]-mins[g]+mins[g]&mask >= lim {
				ok = false
				break
			}
		}
		if ok {
			return shift
		}
	}
	return 0
}

func (r *Result) build(table []uint64, p plan) {
	r.Split, r.WL, r.Shift = p.s, p.wL, p.shift
	r.WH = r.WOut - p.shift
	r.Overlap = p.wL - p.shift
	r.Cost = p.cost
	r.Compressed = true
	size := 1 << uint(p.s)
	r.Subsampling = make([]uint64, len(table)/size)
	for g := range r.Subsampling {
		r.Subsampling[g] = lo.Min(table[g*size:(g+1)*size]) >> uint(p.shift)
	}
	for i, v := range table {
		r.Diffs[i] = v - r.Subsampling[i>>uint(p.s)]<<uint(p.shift)
	}
}

// At returns entry i of the reconstructed table.
func (r *Result) At(i int) uint64 {
	if r.Subsampling == nil {
		return r.Diffs[i]
	}
	return r.Subsampling[i>>uint(r.Split)]<<uint(r.Shift) + r.Diffs[i]
}

// Reconstruct returns the table r decomposes.
func (r *Result) Reconstruct() []uint64 {
	res := make([]uint64, len(r.Diffs))
	for i := range res {
		res[i] = r.At(i)
	}
	return res
}

// check verifies the decomposition against table and the word widths,
// returning the first failing index.
func (r *Result) check(table []uint64) (int, bool) {
	for i, v := range table {
		if r.Diffs[i]>>uint(r.WL) != 0 || r.At(i) != v {
			return i, false
		}
	}
	for g, v := range r.Subsampling {
		if r.WH < 64 && v>>uint(r.WH) != 0 {
			return g << uint(r.Split), false
		}
	}
	return 0, true
}

// verify is check as a bitheap.ErrSolverFault naming the failing entry.
func (r *Result) verify(table []uint64) error {
	if i, ok := r.check(table); !ok {
		return bitheap.Errorf(bitheap.ErrSolverFault, "split %d does not reconstruct entry %d", r.Split, i)
	}
	return nil
}

func (r *Result) String() string {
	if !r.Compressed {
		return fmt.Sprintf("table 2^%d x %d cost %g (uncompressed)", r.WIn, r.WOut, r.Cost)
	}
	return fmt.Sprintf("table 2^%d x %d: subsampling 2^%d x %d, diffs 2^%d x %d, overlap %d, cost %g (table %g)",
		r.WIn, r.WOut, r.WIn-r.Split, r.WH, r.WIn, r.WL, r.Overlap, r.Cost, r.NaiveCost)
}

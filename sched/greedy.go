// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package sched

import (
	"github.com/samber/lo"

	"github.com/go-air/bitheap"
)

// Greedy reduces a heap stage by stage toward the Dadda heights, placing
// single column compressors column by column from the least significant
// end.  Carries landing in a column count toward its next height.  Bits not
// covered by a compressor pass to the next stage unchanged.
type Greedy struct {
	cat   *bitheap.Catalog
	comps []int
}

// NewGreedy creates a Greedy over the single column compressors of cat
// which remove bits from their column.
func NewGreedy(cat *bitheap.Catalog) (*Greedy, error) {
	if cat == nil {
		return nil, bitheap.Errorf(bitheap.ErrConfig, "greedy reducer needs a catalog")
	}
	g := &Greedy{cat: cat}
	for _, i := range cat.Fixed() {
		c := cat.At(i)
		if c.Span() == 1 && reduction(c) > 0 {
			g.comps = append(g.comps, i)
		}
	}
	if len(g.comps) == 0 {
		return nil, bitheap.Errorf(bitheap.ErrConfig, "catalog %s has no reducing single column compressor", cat)
	}
	return g, nil
}

// reduction is the number of bits c removes from its input column.
func reduction(c *bitheap.Compressor) int {
	return c.Height[0] - c.Outputs[0]
}

// Reduce implements Reducer.  The result has Proven unset.
func (g *Greedy) Reduce(heights []int) (*bitheap.Schedule, error) {
	if e := checkHeights(heights); e != nil {
		return nil, e
	}
	sch := &bitheap.Schedule{
		Catalog: g.cat,
		Initial: append([]int(nil), heights...)}
	cur := append([]int(nil), heights...)
	targets := bitheap.DaddaTargets(lo.Max(cur))
	limit := len(targets) + len(cur) + lo.Max(cur) + 8
	for len(targets) > 0 || lo.Max(cur) > 2 {
		if sch.Stages >= limit {
			return nil, bitheap.Errorf(bitheap.ErrInfeasible,
				"greedy reduction exceeds %d stages", limit).At(sch.Stages, -1)
		}
		d := 2
		if len(targets) > 0 {
			d, targets = targets[0], targets[1:]
		}
		if lo.Max(cur) <= d {
			continue
		}
		next, ps := g.stage(cur, d, sch.Stages)
		if len(ps) == 0 {
			return nil, bitheap.Errorf(bitheap.ErrInfeasible,
				"greedy reduction stalls at height %d", lo.Max(cur)).At(sch.Stages, -1)
		}
		sch.Placements = append(sch.Placements, ps...)
		sch.Stages++
		cur = next
	}
	sch.Sort()
	sch.Objective = sch.Area()
	if _, e := sch.Replay(); e != nil {
		return nil, e
	}
	return sch, nil
}

// stage reduces every column of cur to at most d bits where the catalog
// allows and returns the next heights and the placements made.
func (g *Greedy) stage(cur []int, d, st int) ([]int, []bitheap.Placement) {
	next := make([]int, len(cur))
	counts := map[[2]int]int{}
	for c := 0; c < len(next); c++ {
		avail := 0
		if c < len(cur) {
			avail = cur[c]
		}
		for avail+next[c] > d {
			i := g.pick(avail, avail+next[c]-d)
			if i < 0 {
				break
			}
			comp := g.cat.At(i)
			avail -= comp.Height[0]
			for j, o := range comp.Outputs {
				for len(next) <= c+j {
					next = append(next, 0)
				}
				next[c+j] += o
			}
			counts[[2]int{i, c}]++
		}
		next[c] += avail
	}
	var ps []bitheap.Placement
	for k, n := range counts {
		ps = append(ps, bitheap.Placement{Stage: st, Compressor: k[0], Column: k[1], Count: n})
	}
	return next, ps
}

// pick chooses the compressor removing the most bits, up to need, among
// those fitting in avail bits.  Ties go to the cheaper one.
func (g *Greedy) pick(avail, need int) int {
	best, bestScore := -1, 0
	for _, i := range g.comps {
		c := g.cat.At(i)
		if c.Height[0] > avail {
			continue
		}
		score := min(reduction(c), need)
		if score > bestScore || score == bestScore && best >= 0 && c.Cost < g.cat.At(best).Cost {
			best, bestScore = i, score
		}
	}
	return best
}

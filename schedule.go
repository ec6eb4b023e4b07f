// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package bitheap

import (
	"fmt"
	"sort"
	"strings"
)

// Placement records Count instances of compressor Compressor placed at
// column Column in stage Stage.
type Placement struct {
	Stage      int
	Compressor int
	Column     int
	Count      int
}

// Schedule is an ordered list of placements which reduces the heap
// Initial to at most two bits per column after Stages stages.
type Schedule struct {
	Catalog    *Catalog
	Initial    []int
	Stages     int
	Placements []Placement
	// Objective is the total area of the placements.
	Objective float64
	// Proven is true if the objective is known to be minimal.
	Proven bool
}

// StageInfo gives the column heights at the start of a stage and the input
// capacity placed on each column during that stage.
type StageInfo struct {
	Heights  []int
	Capacity []int
}

// Sort orders the placements by stage, column and compressor.
func (s *Schedule) Sort() {
	sort.Slice(s.Placements, func(i, j int) bool {
		a, b := &s.Placements[i], &s.Placements[j]
		if a.Stage != b.Stage {
			return a.Stage < b.Stage
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Compressor < b.Compressor
	})
}

// At returns the placements of stage st.
func (s *Schedule) At(st int) []Placement {
	var res []Placement
	for _, p := range s.Placements {
		if p.Stage == st {
			res = append(res, p)
		}
	}
	return res
}

// Area returns the total cost of the placements.
func (s *Schedule) Area() float64 {
	a := 0.0
	for _, p := range s.Placements {
		a += s.Catalog.At(p.Compressor).Cost * float64(p.Count)
	}
	return a
}

func (s *Schedule) checkPlacement(p *Placement) error {
	if p.Stage < 0 || p.Stage >= s.Stages {
		return fmt.Errorf("placement %+v outside stages [0,%d)", *p, s.Stages)
	}
	if p.Compressor < 0 || p.Compressor >= s.Catalog.Len() {
		return fmt.Errorf("placement %+v: no such compressor", *p)
	}
	if p.Column < 0 || p.Count <= 0 {
		return fmt.Errorf("placement %+v: invalid column or count", *p)
	}
	return nil
}

// Replay recomputes the column heights of every stage from the placements.
// Bits of a column not covered by compressor inputs are carried through to
// the next stage unchanged.  The result has Stages+1 entries, the last of
// which is the final stage with zero capacity.  Replay fails if a placement
// is malformed or a final column holds more than two bits.
func (s *Schedule) Replay() ([]StageInfo, error) {
	for _, h := range s.Initial {
		if h < 0 {
			return nil, Errorf(ErrConfig, "negative initial height %d", h)
		}
	}
	for i := range s.Placements {
		p := &s.Placements[i]
		if e := s.checkPlacement(p); e != nil {
			return nil, (&Error{Kind: ErrConfig, Err: e}).At(p.Stage, p.Column)
		}
	}
	cur := append([]int(nil), s.Initial...)
	res := make([]StageInfo, 0, s.Stages+1)
	for st := 0; st < s.Stages; st++ {
		capa := make([]int, len(cur))
		next := make([]int, len(cur))
		for i := range s.Placements {
			p := &s.Placements[i]
			if p.Stage != st {
				continue
			}
			c := s.Catalog.At(p.Compressor)
			for k, h := range c.Height {
				capa = addAt(capa, p.Column+k, h*p.Count)
			}
			for j, o := range c.Outputs {
				next = addAt(next, p.Column+j, o*p.Count)
			}
		}
		for c, h := range cur {
			if c < len(capa) && capa[c] < h {
				next = addAt(next, c, h-capa[c])
			}
		}
		cur = padTo(cur, len(capa))
		res = append(res, StageInfo{Heights: cur, Capacity: capa})
		cur = next
	}
	res = append(res, StageInfo{Heights: cur, Capacity: make([]int, len(cur))})
	for c, h := range cur {
		if h > 2 {
			return res, Errorf(ErrConfig, "final column holds %d bits", h).At(s.Stages, c)
		}
	}
	return res, nil
}

func addAt(xs []int, i, v int) []int {
	xs = padTo(xs, i+1)
	xs[i] += v
	return xs
}

func padTo(xs []int, n int) []int {
	for len(xs) < n {
		xs = append(xs, 0)
	}
	return xs
}

func (s *Schedule) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "schedule %v stages=%d area=%g proven=%t\n", s.Initial, s.Stages, s.Objective, s.Proven)
	for _, p := range s.Placements {
		c := s.Catalog.At(p.Compressor)
		fmt.Fprintf(&sb, "  s%d c%d %dx %s %s\n", p.Stage, p.Column, p.Count, c.Name, c)
	}
	return sb.String()
}

// DaddaStages returns the number of full adder stages needed to reduce a
// heap of height maxHeight to height 2, following the Dadda sequence
// d(1) = 2, d(j+1) = floor(3 d(j) / 2).
func DaddaStages(maxHeight int) int {
	n := 0
	for d := 2; d < maxHeight; d = d * 3 / 2 {
		n++
	}
	return n
}

// DaddaTargets returns the Dadda heights below maxHeight in decreasing
// order, ending with 2.
func DaddaTargets(maxHeight int) []int {
	var ds []int
	for d := 2; d < maxHeight; d = d * 3 / 2 {
		ds = append(ds, d)
	}
	for i, j := 0, len(ds)-1; i < j; i, j = i+1, j-1 {
		ds[i], ds[j] = ds[j], ds[i]
	}
	return ds
}

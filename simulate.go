// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package bitheap

import "fmt"

// unitPart is one compressor of a logical unit, anchored at a column.
type unitPart struct {
	comp int
	col  int
}

// Simulate evaluates the schedule on concrete bit values.  cols[c] holds
// the values of the bits initially in column c; len(cols[c]) must equal
// s.Initial[c].  Every compressor instance takes its inputs from the front
// of its columns, adds them with their weights and writes the sum to its
// outputs.  Chained parts are first grouped into whole chains.  The
// returned columns are the final stage's bits.
func (s *Schedule) Simulate(cols [][]bool) ([][]bool, error) {
	if len(cols) < len(s.Initial) {
		return nil, Errorf(ErrConfig, "simulate: %d columns for %d initial", len(cols), len(s.Initial))
	}
	cur := make([][]bool, len(cols))
	for c := range cols {
		want := 0
		if c < len(s.Initial) {
			want = s.Initial[c]
		}
		if len(cols[c]) != want {
			return nil, Errorf(ErrConfig, "simulate: column has %d bits, want %d", len(cols[c]), want).At(0, c)
		}
		cur[c] = append([]bool(nil), cols[c]...)
	}
	for st := 0; st < s.Stages; st++ {
		units, e := s.units(st)
		if e != nil {
			return nil, e
		}
		var next [][]bool
		for _, u := range units {
			v := int64(0)
			var ws []int
			base := u[0].col
			for _, p := range u {
				c := s.Catalog.At(p.comp)
				for k, h := range c.Height {
					col := p.col + k
					for n := 0; n < h; n++ {
						if col < len(cur) && len(cur[col]) > 0 {
							if cur[col][0] {
								v += int64(1) << uint(col-base)
							}
							cur[col] = cur[col][1:]
						}
					}
				}
				ws = weights(ws, c.Outputs, p.col-base)
			}
			bits, ok := decompose(v, ws)
			if !ok {
				return nil, Errorf(ErrConfig, "compressor unit %v cannot represent %d", u, v).At(st, base)
			}
			for i, w := range ws {
				next = pushAt(next, base+w, bits[i])
			}
		}
		for c, bs := range cur {
			for _, b := range bs {
				next = pushAt(next, c, b)
			}
		}
		cur = next
	}
	return cur, nil
}

func pushAt(cols [][]bool, c int, b bool) [][]bool {
	for len(cols) <= c {
		cols = append(cols, nil)
	}
	cols[c] = append(cols[c], b)
	return cols
}

// units groups the placements of stage st into logical compressors: one
// per fixed compressor instance and one per chain.
func (s *Schedule) units(st int) ([][]unitPart, error) {
	var res [][]unitPart
	type chainCounts struct {
		low, mid, high map[int]int
		max            int
	}
	fams := map[string]*chainCounts{}
	for _, p := range s.Placements {
		if p.Stage != st {
			continue
		}
		c := s.Catalog.At(p.Compressor)
		if c.Chain == nil {
			for n := 0; n < p.Count; n++ {
				res = append(res, []unitPart{{p.Compressor, p.Column}})
			}
			continue
		}
		cc := fams[c.Chain.Family]
		if cc == nil {
			cc = &chainCounts{low: map[int]int{}, mid: map[int]int{}, high: map[int]int{}}
			fams[c.Chain.Family] = cc
		}
		switch c.Chain.Part {
		case PartLow:
			cc.low[p.Column] += p.Count
		case PartMiddle:
			cc.mid[p.Column] += p.Count
		case PartHigh:
			cc.high[p.Column] += p.Count
		}
		if p.Column > cc.max {
			cc.max = p.Column
		}
	}
	for _, ch := range s.Catalog.Chains() {
		cc := fams[ch.Family]
		if cc == nil {
			continue
		}
		var open [][]unitPart
		for col := 0; col <= cc.max; col++ {
			nm, nh := cc.mid[col], cc.high[col]
			if nm+nh != len(open) {
				return nil, Errorf(ErrConfig, "chain %q: %d open chains continue into %d parts",
					ch.Family, len(open), nm+nh).At(st, col)
			}
			var still [][]unitPart
			for i, u := range open {
				if i < nm {
					still = append(still, append(u, unitPart{ch.Middle, col}))
					continue
				}
				res = append(res, append(u, unitPart{ch.High, col}))
			}
			for n := 0; n < cc.low[col]; n++ {
				still = append(still, []unitPart{{ch.Low, col}})
			}
			open = still
		}
		if len(open) != 0 {
			return nil, Errorf(ErrConfig, "chain %q: %d chains not closed", ch.Family, len(open)).At(st, cc.max)
		}
	}
	return res, nil
}

// Value returns the weighted sum of cols.
func Value(cols [][]bool) int64 {
	v := int64(0)
	for c, bs := range cols {
		for _, b := range bs {
			if b {
				v += int64(1) << uint(c)
			}
		}
	}
	return v
}

func (u unitPart) String() string {
	return fmt.Sprintf("%d@%d", u.comp, u.col)
}

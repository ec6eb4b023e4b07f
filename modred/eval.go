// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package modred

import (
	"fmt"

	"github.com/go-air/bitheap"
)

// Eval evaluates the reduction on input x, simulating every compressor
// tree bit by bit.  It returns the value v of the final stage, which lies
// in [-m, m), and the residue x mod m obtained from v.
func (r *Result) Eval(x uint64) (v, residue int64, err error) {
	if r.WIn < 64 && x>>uint(r.WIn) != 0 {
		return 0, 0, bitheap.Errorf(bitheap.ErrConfig, "input %d wider than %d bits", x, r.WIn)
	}
	rows := map[int][]bool{}
	in := make([]bool, r.WIn)
	for i := range in {
		in[i] = x&(1<<uint(i)) != 0
	}
	rows[0] = in
	val := func(t bitheap.Tag) bool {
		return rows[t.Stage][t.Column]
	}
	for i := 1; i < len(r.Stages); i++ {
		sg := &r.Stages[i]
		if sg.Kind != Physical {
			continue
		}
		cols := make([][]bool, len(sg.Schedule.Initial))
		for _, c := range r.State.Columns(i - 1) {
			for _, t := range r.State.Bits(i-1, c) {
				b := val(t)
				if t.Sign == bitheap.Minus {
					b = !b
				}
				cols[c] = append(cols[c], b)
			}
		}
		out, e := sg.Schedule.Simulate(cols)
		if e != nil {
			return 0, 0, e
		}
		s := sg.Base + bitheap.Value(out)
		if s < sg.Lo || s > sg.Hi {
			return 0, 0, fmt.Errorf("stage %d: compressed value %d outside [%d,%d]", i, s, sg.Lo, sg.Hi)
		}
		u := s - sg.Lo
		row := make([]bool, bitlen(sg.Hi-sg.Lo))
		for j := range row {
			row[j] = u&(1<<uint(j)) != 0
		}
		rows[i] = row
	}
	f := r.Final()
	v = r.Stages[f].Offset
	for _, c := range r.State.Columns(f) {
		for _, t := range r.State.Bits(f, c) {
			if val(t) {
				v += int64(t.Sign) << uint(c)
			}
		}
	}
	if v < -r.M || v >= r.M {
		return 0, 0, fmt.Errorf("final value %d outside [%d,%d)", v, -r.M, r.M)
	}
	residue = v
	if residue < 0 {
		residue += r.M
	}
	return v, residue, nil
}

// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package modred

import (
	"github.com/go-air/bitheap"
	"github.com/samber/lo"
)

// placed is a bit of a stage: its column and tag.
type placed struct {
	col int
	tag bitheap.Tag
}

// pow2mod returns 2^c mod m.
func pow2mod(c int, m int64) int64 {
	r, b := int64(1)%m, int64(2)%m
	for ; c > 0; c >>= 1 {
		if c&1 != 0 {
			r = r * b % m
		}
		b = b * b % m
	}
	return r
}

// residues returns the two representations of the weight of p modulo m.
func residues(p placed, m int64) (plus, minus int64) {
	r := pow2mod(p.col, m)
	if p.tag.Sign == bitheap.Minus {
		r = (m - r) % m
	}
	return r, r - m
}

// choice is an outcome of a pseudo compression: the residue chosen for each
// bit and the resulting offset and range.
type choice struct {
	rs     []int64
	offset int64
	lo, hi int64
}

// pickOffset chooses the representative of off modulo m which places the
// range [off+neg, off+pos] inside [-m, m) if possible, else the one with
// the least overflow, then the one of least magnitude.
func (s *Scheduler) pickOffset(off, neg, pos int64) (int64, int64, int64) {
	k := off % s.m
	if k < 0 {
		k += s.m
	}
	var bestK, bestV int64 = 0, -1
	for _, c := range [2]int64{k, k - s.m} {
		lo, hi := c+neg, c+pos
		v := int64(0)
		if lo < -s.m {
			v += -s.m - lo
		}
		if hi > s.m-1 {
			v += hi - (s.m - 1)
		}
		if bestV < 0 || v < bestV || v == bestV && abs(c) < abs(bestK) {
			bestK, bestV = c, v
		}
	}
	return bestK, bestK + neg, bestK + pos
}

func (s *Scheduler) settle(ch *choice, off int64) {
	var neg, pos int64
	for _, r := range ch.rs {
		if r < 0 {
			neg += r
		} else {
			pos += r
		}
	}
	ch.offset, ch.lo, ch.hi = s.pickOffset(off, neg, pos)
}

// shape returns the number of bits and the height the residues rs
// produce.
func shape(rs []int64, heights []int) (n, h int) {
	for i := range heights {
		heights[i] = 0
	}
	for _, r := range rs {
		a := abs(r)
		for c := 0; a != 0; c, a = c+1, a>>1 {
			if a&1 != 0 {
				n++
				heights[c]++
				if heights[c] > h {
					h = heights[c]
				}
			}
		}
	}
	return n, h
}

// pseudo rewrites stage cur as stage cur+1 by residues chosen under policy.
func (s *Scheduler) pseudo(st *bitheap.State, cur int, sg *Stage, policy Policy) (Stage, error) {
	ps := lo.FlatMap(st.Columns(cur), func(c int, _ int) []placed {
		return lo.Map(st.Bits(cur, c), func(t bitheap.Tag, _ int) placed {
			return placed{col: c, tag: t}
		})
	})
	var ch choice
	if policy == Complete {
		if len(ps) > s.cfg.maxComplete {
			return Stage{}, bitheap.Errorf(bitheap.ErrConfig, "complete search over %d bits exceeds the bound %d",
				len(ps), s.cfg.maxComplete).At(cur, -1)
		}
		ch = s.complete(ps, sg.Offset)
	} else {
		ch = s.perBit(ps, sg.Offset, policy.chooser())
	}
	for i, p := range ps {
		r := ch.rs[i]
		sign := bitheap.Plus
		if r < 0 {
			sign = bitheap.Minus
		}
		a := abs(r)
		for c := 0; a != 0; c, a = c+1, a>>1 {
			if a&1 != 0 {
				st.Add(cur+1, c, bitheap.Tag{Stage: p.tag.Stage, Column: p.tag.Column, Sign: sign})
			}
		}
	}
	return Stage{
		Kind:   Pseudo,
		Offset: ch.offset,
		Lo:     ch.lo,
		Hi:     ch.hi,
		Policy: policy}, nil
}

// perBit chooses each bit's residue independently by choose.
func (s *Scheduler) perBit(ps []placed, off int64, choose chooser) choice {
	ch := choice{rs: make([]int64, len(ps))}
	for i, p := range ps {
		plus, minus := residues(p, s.m)
		if choose(plus, minus) {
			ch.rs[i] = plus
		} else {
			ch.rs[i] = minus
		}
	}
	s.settle(&ch, off)
	return ch
}

// complete enumerates every combination of residues.  The first
// combination in range wins; otherwise the one with the fewest bits, then
// the least height, then the narrowest range.
func (s *Scheduler) complete(ps []placed, off int64) choice {
	n := len(ps)
	plus := make([]int64, n)
	minus := make([]int64, n)
	for i, p := range ps {
		plus[i], minus[i] = residues(p, s.m)
	}
	heights := make([]int, 64)
	var best choice
	bestBits, bestH := -1, 0
	cand := choice{rs: make([]int64, n)}
	for mask := uint64(0); mask < uint64(1)<<uint(n); mask++ {
		for i := 0; i < n; i++ {
			if mask&(1<<uint(i)) != 0 {
				cand.rs[i] = minus[i]
			} else {
				cand.rs[i] = plus[i]
			}
		}
		s.settle(&cand, off)
		if s.inRange(cand.lo, cand.hi) {
			return cand
		}
		nb, h := shape(cand.rs, heights)
		if bestBits >= 0 {
			if nb > bestBits || nb == bestBits && (h > bestH || h == bestH && cand.hi-cand.lo >= best.hi-best.lo) {
				continue
			}
		}
		bestBits, bestH = nb, h
		best = choice{rs: append([]int64(nil), cand.rs...), offset: cand.offset, lo: cand.lo, hi: cand.hi}
	}
	return best
}

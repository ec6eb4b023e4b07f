// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package satip

import (
	"math/bits"

	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// bv is an unsigned bit vector of circuit literals, least significant bit
// first.
type bv []z.Lit

// arith builds unsigned arithmetic over a combinational circuit.
type arith struct {
	c *logic.C
}

func bitlen(v int64) int {
	return bits.Len64(uint64(v))
}

// at returns bit i of x, false past its width.
func (a *arith) at(x bv, i int) z.Lit {
	if i < len(x) {
		return x[i]
	}
	return a.c.F
}

func (a *arith) konst(v int64, w int) bv {
	res := make(bv, w)
	for i := range res {
		if v&(1<<uint(i)) != 0 {
			res[i] = a.c.T
		} else {
			res[i] = a.c.F
		}
	}
	return res
}

func (a *arith) shl(x bv, k int) bv {
	res := make(bv, k, k+len(x))
	for i := range res {
		res[i] = a.c.F
	}
	return append(res, x...)
}

// add returns x+y truncated to w bits.
func (a *arith) add(x, y bv, w int) bv {
	c := a.c
	res := make(bv, w)
	carry := c.F
	for i := 0; i < w; i++ {
		xi, yi := a.at(x, i), a.at(y, i)
		t := c.Xor(xi, yi)
		res[i] = c.Xor(t, carry)
		carry = c.Or(c.And(xi, yi), c.And(carry, t))
	}
	return res
}

// mulConst returns k*x truncated to w bits, by shift and add.
func (a *arith) mulConst(x bv, k int64, w int) bv {
	acc := a.konst(0, w)
	for i := 0; k>>uint(i) != 0; i++ {
		if k&(1<<uint(i)) == 0 {
			continue
		}
		acc = a.add(acc, a.shl(x, i), w)
	}
	return acc
}

// leq returns a literal which is true iff x <= y.
func (a *arith) leq(x, y bv) z.Lit {
	c := a.c
	w := len(x)
	if len(y) > w {
		w = len(y)
	}
	le := c.T
	for i := 0; i < w; i++ {
		xi, yi := a.at(x, i), a.at(y, i)
		le = c.Choice(c.Xor(xi, yi), yi, le)
	}
	return le
}

// eq returns a literal which is true iff x == y.
func (a *arith) eq(x, y bv) z.Lit {
	c := a.c
	w := len(x)
	if len(y) > w {
		w = len(y)
	}
	res := c.T
	for i := 0; i < w; i++ {
		res = c.And(res, c.Xor(a.at(x, i), a.at(y, i)).Not())
	}
	return res
}

// wterm is a positive integer coefficient times a variable offset from its
// lower bound.
type wterm struct {
	k int64
	v int
}

// sum returns k0 + Σ t.k * vars[t.v] together with its largest value.
func (a *arith) sum(ts []wterm, vars []ivar, k0 int64) (bv, int64) {
	max := k0
	acc := a.konst(k0, bitlen(k0))
	for _, t := range ts {
		x := vars[t.v].bits
		if len(x) == 0 {
			continue
		}
		tmax := t.k * (int64(1)<<uint(len(x)) - 1)
		max += tmax
		acc = a.add(acc, a.mulConst(x, t.k, bitlen(tmax)), bitlen(max))
	}
	return acc, max
}

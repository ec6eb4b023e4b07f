// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package bitheap

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Part identifies the role of a chained compressor part.
type Part int8

const (
	PartLow Part = iota
	PartMiddle
	PartHigh
)

func (p Part) String() string {
	switch p {
	case PartLow:
		return "low"
	case PartMiddle:
		return "middle"
	case PartHigh:
		return "high"
	default:
		return "part?"
	}
}

// ChainPart marks a compressor as one part of a variable width
// compressor family.  A logical instance of the family is one low part at
// column c, zero or more middle parts at c+1, c+2, ..., and one high
// part closing the chain in the next column.
type ChainPart struct {
	Family string
	Part   Part
}

// Compressor describes a counter placed at a column c of a bit heap.  It
// consumes up to Height[i] bits from column c+i and produces Outputs[j]
// bits in column c+j.  Both vectors are LSB first.
type Compressor struct {
	Name    string
	Height  []int
	Outputs []int
	Cost    float64
	Chain   *ChainPart
}

// Inputs returns the total number of input bits.
func (c *Compressor) Inputs() int {
	n := 0
	for _, h := range c.Height {
		n += h
	}
	return n
}

// NumOutputs returns the total number of output bits.
func (c *Compressor) NumOutputs() int {
	n := 0
	for _, o := range c.Outputs {
		n += o
	}
	return n
}

// Span returns the number of input columns.
func (c *Compressor) Span() int {
	return len(c.Height)
}

// OutSpan returns the number of output columns.
func (c *Compressor) OutSpan() int {
	return len(c.Outputs)
}

// MaxValue returns the largest value the inputs can encode.
func (c *Compressor) MaxValue() int64 {
	v := int64(0)
	for i, h := range c.Height {
		v += int64(h) << uint(i)
	}
	return v
}

// Capacity returns the largest value the outputs can encode.
func (c *Compressor) Capacity() int64 {
	v := int64(0)
	for j, o := range c.Outputs {
		v += int64(o) << uint(j)
	}
	return v
}

// String gives the usual GPC notation, MSB first, eg "(1,5;3)".
func (c *Compressor) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i := len(c.Height) - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%d", c.Height[i])
		if i > 0 {
			sb.WriteByte(',')
		}
	}
	fmt.Fprintf(&sb, ";%d)", c.NumOutputs())
	if c.Chain != nil {
		fmt.Fprintf(&sb, "[%s/%s]", c.Chain.Family, c.Chain.Part)
	}
	return sb.String()
}

func (c *Compressor) validateShape() error {
	if len(c.Height) == 0 {
		return fmt.Errorf("compressor %q: empty height vector", c.Name)
	}
	if len(c.Outputs) == 0 {
		return fmt.Errorf("compressor %q: empty output vector", c.Name)
	}
	for i, h := range c.Height {
		if h < 0 {
			return fmt.Errorf("compressor %q: negative height %d in column %d", c.Name, h, i)
		}
	}
	for j, o := range c.Outputs {
		if o < 0 {
			return fmt.Errorf("compressor %q: negative output count %d in column %d", c.Name, o, j)
		}
	}
	if c.Inputs() == 0 {
		return fmt.Errorf("compressor %q: all zero height", c.Name)
	}
	if c.NumOutputs() == 0 {
		return fmt.Errorf("compressor %q: no outputs", c.Name)
	}
	if c.Cost < 0 || math.IsNaN(c.Cost) || math.IsInf(c.Cost, 0) {
		return fmt.Errorf("compressor %q: invalid cost %g", c.Name, c.Cost)
	}
	return nil
}

// Validate checks that c is a well formed, standalone counter: its outputs
// can represent every value its inputs may take.  Chained parts are
// validated by their catalog as a family.
func (c *Compressor) Validate() error {
	if e := c.validateShape(); e != nil {
		return e
	}
	if c.Chain != nil {
		return nil
	}
	ws := weights(nil, c.Outputs, 0)
	if !representable(ws, c.MaxValue()) {
		return fmt.Errorf("compressor %s (%q): outputs cannot represent input value %d",
			c, c.Name, c.MaxValue())
	}
	return nil
}

// weights appends to dst the output weight exponents of outs shifted by off,
// one per output bit.
func weights(dst []int, outs []int, off int) []int {
	for j, o := range outs {
		for k := 0; k < o; k++ {
			dst = append(dst, j+off)
		}
	}
	return dst
}

// representable tells whether every value in [0, max] is a sum of a
// subset of the powers of two 2^ws[i].
func representable(ws []int, max int64) bool {
	sorted := append([]int(nil), ws...)
	sort.Ints(sorted)
	reach := int64(0)
	for _, w := range sorted {
		if w > 62 {
			return false
		}
		p := int64(1) << uint(w)
		if p > reach+1 {
			return false
		}
		reach += p
	}
	return reach >= max
}

// decompose distributes v over the output bits of weights ws, greedily from
// the largest weight, and returns the bit for each entry of ws.  It
// reports false if v is not representable.
func decompose(v int64, ws []int) ([]bool, bool) {
	order := make([]int, len(ws))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return ws[order[i]] > ws[order[j]] })
	bits := make([]bool, len(ws))
	for _, i := range order {
		p := int64(1) << uint(ws[i])
		if v >= p {
			bits[i] = true
			v -= p
		}
	}
	return bits, v == 0
}

// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package bitheap

import (
	"fmt"
	"sort"
	"strings"
)

// Catalog is an ordered, immutable set of compressors.  A catalog is
// built once per target and shared read-only by scheduling runs.
type Catalog struct {
	comps  []Compressor
	chains []Chain
}

// Chain gives the catalog indices of the parts of a variable width
// compressor family.
type Chain struct {
	Family string
	Low    int
	Middle int
	High   int
}

// MaxChainCheck is the longest chain length checked by NewCatalog when
// validating a chain family.
const MaxChainCheck = 16

// NewCatalog creates a catalog from cs, validating every compressor and
// every chain family.
func NewCatalog(cs ...Compressor) (*Catalog, error) {
	if len(cs) == 0 {
		return nil, Errorf(ErrConfig, "empty compressor catalog")
	}
	cat := &Catalog{comps: make([]Compressor, len(cs))}
	for i := range cs {
		c := cs[i]
		c.Height = append([]int(nil), c.Height...)
		c.Outputs = append([]int(nil), c.Outputs...)
		if c.Chain != nil {
			cp := *c.Chain
			c.Chain = &cp
		}
		if c.Name == "" {
			c.Name = fmt.Sprintf("c%d", i)
		}
		if e := c.Validate(); e != nil {
			return nil, &Error{Kind: ErrConfig, Stage: -1, Column: -1, Err: e}
		}
		cat.comps[i] = c
	}
	if e := cat.linkChains(); e != nil {
		return nil, &Error{Kind: ErrConfig, Stage: -1, Column: -1, Err: e}
	}
	return cat, nil
}

// MustCatalog is like NewCatalog but panics on error.
func MustCatalog(cs ...Compressor) *Catalog {
	c, e := NewCatalog(cs...)
	if e != nil {
		panic(e)
	}
	return c
}

func (cat *Catalog) linkChains() error {
	fams := map[string]*Chain{}
	var names []string
	for i := range cat.comps {
		c := &cat.comps[i]
		if c.Chain == nil {
			continue
		}
		ch, ok := fams[c.Chain.Family]
		if !ok {
			ch = &Chain{Family: c.Chain.Family, Low: -1, Middle: -1, High: -1}
			fams[c.Chain.Family] = ch
			names = append(names, c.Chain.Family)
		}
		var dst *int
		switch c.Chain.Part {
		case PartLow:
			dst = &ch.Low
		case PartMiddle:
			dst = &ch.Middle
		case PartHigh:
			dst = &ch.High
		default:
			return fmt.Errorf("compressor %q: unknown chain part %d", c.Name, c.Chain.Part)
		}
		if *dst != -1 {
			return fmt.Errorf("chain %q: duplicate %s part", ch.Family, c.Chain.Part)
		}
		*dst = i
	}
	sort.Strings(names)
	for _, n := range names {
		ch := fams[n]
		if ch.Low < 0 || ch.Middle < 0 || ch.High < 0 {
			return fmt.Errorf("chain %q: needs low, middle and high parts", n)
		}
		for k := 2; k <= MaxChainCheck; k++ {
			if e := cat.checkChain(ch, k); e != nil {
				return e
			}
		}
		cat.chains = append(cat.chains, *ch)
	}
	return nil
}

// checkChain verifies that a chain of length k is a valid counter.
func (cat *Catalog) checkChain(ch *Chain, k int) error {
	var ws []int
	max := int64(0)
	for col := 0; col < k; col++ {
		idx := ch.Middle
		switch col {
		case 0:
			idx = ch.Low
		case k - 1:
			idx = ch.High
		}
		c := &cat.comps[idx]
		for i, h := range c.Height {
			max += int64(h) << uint(col+i)
		}
		ws = weights(ws, c.Outputs, col)
	}
	if !representable(ws, max) {
		return fmt.Errorf("chain %q of length %d cannot represent input value %d", ch.Family, k, max)
	}
	return nil
}

// Len returns the number of compressors.
func (cat *Catalog) Len() int {
	return len(cat.comps)
}

// At returns the i'th compressor.  The result must not be modified.
func (cat *Catalog) At(i int) *Compressor {
	return &cat.comps[i]
}

// Index returns the index of the compressor named name, or -1.
func (cat *Catalog) Index(name string) int {
	for i := range cat.comps {
		if cat.comps[i].Name == name {
			return i
		}
	}
	return -1
}

// Chains returns the chain families of cat, ordered by family name.
func (cat *Catalog) Chains() []Chain {
	return append([]Chain(nil), cat.chains...)
}

// MaxOutSpan returns the largest output span of any compressor.
func (cat *Catalog) MaxOutSpan() int {
	m := 0
	for i := range cat.comps {
		if s := cat.comps[i].OutSpan(); s > m {
			m = s
		}
	}
	return m
}

// Fixed returns the indices of the compressors which are not chain parts.
func (cat *Catalog) Fixed() []int {
	var res []int
	for i := range cat.comps {
		if cat.comps[i].Chain == nil {
			res = append(res, i)
		}
	}
	return res
}

func (cat *Catalog) String() string {
	parts := make([]string, len(cat.comps))
	for i := range cat.comps {
		c := &cat.comps[i]
		parts[i] = fmt.Sprintf("%s%s@%g", c.Name, c, c.Cost)
	}
	return strings.Join(parts, " ")
}

// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package diffcomp

// Cost gives the cost of a table with 2^index words of word bits.  Costs
// must be non negative and non decreasing in word.
type Cost func(index, word int) float64

// TableBits is the number of bits stored by the table.
func TableBits(index, word int) float64 {
	return float64(word) * float64(uint64(1)<<uint(index))
}

// LUTCost returns the number of k input lookup tables implementing the
// table, each output bit being decomposed by Shannon expansion on the
// index bits beyond k with one multiplexer per expansion.
func LUTCost(k int) Cost {
	if k < 3 {
		k = 3
	}
	return func(index, word int) float64 {
		per := 1.0
		for n := index; n > k; n-- {
			per = 2*per + 1
		}
		return per * float64(word)
	}
}

// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package gen

import "math"

// RandTable generates a table of 2^wIn uniform wOut bit words.
func RandTable(wIn, wOut int) []uint64 {
	mu.Lock()
	defer mu.Unlock()
	t := make([]uint64, 1<<uint(wIn))
	for i := range t {
		t[i] = rng.Uint64() & mask(wOut)
	}
	return t
}

// SmoothTable tabulates f over [0, 1) on 2^wIn points, scaling its values
// in [0, 1] to wOut bits.
func SmoothTable(wIn, wOut int, f func(float64) float64) []uint64 {
	n := 1 << uint(wIn)
	top := float64(mask(wOut))
	t := make([]uint64, n)
	for i := range t {
		v := f(float64(i)/float64(n)) * top
		t[i] = uint64(math.Max(0, math.Min(top, math.Floor(v))))
	}
	return t
}

// Grouped generates the table whose groups of 2^s entries are an offset
// plus the index within the group.  Group g has offset
// (g*stride mod 2^(wOut-wIn)) << wIn.  It requires wOut > wIn.
func Grouped(wIn, wOut, s int, stride uint64) []uint64 {
	t := make([]uint64, 1<<uint(wIn))
	size := 1 << uint(s)
	for i := range t {
		g := uint64(i / size)
		t[i] = (g*stride)&mask(wOut-wIn)<<uint(wIn) + uint64(i%size)
	}
	return t
}

// Adversarial generates a table whose groups of 2^s entries jump between
// the bottom and the top of the wOut bit range, with random noise of
// noise bits within each group.
func Adversarial(wIn, wOut, s, noise int) []uint64 {
	mu.Lock()
	defer mu.Unlock()
	t := make([]uint64, 1<<uint(wIn))
	size := 1 << uint(s)
	span := mask(noise)
	for i := range t {
		base := uint64(0)
		if (i/size)%2 == 1 {
			base = mask(wOut) - span
		}
		t[i] = base + rng.Uint64()&span
	}
	return t
}

func mask(w int) uint64 {
	if w >= 64 {
		return math.MaxUint64
	}
	return uint64(1)<<uint(w) - 1
}

// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package gen

import (
	"math/rand"
	"sync"
)

// make the rng seedable
var rng = rand.New(rand.NewSource(33))
var mu sync.Mutex

func Seed(s int64) {
	mu.Lock()
	defer mu.Unlock()
	rng = rand.New(rand.NewSource(s))
}

// Multiplier generates the partial product heap of an unsigned n by m bit
// multiplier: column c holds one bit a_i*b_j for every i+j == c.
func Multiplier(n, m int) []int {
	if n <= 0 || m <= 0 {
		return nil
	}
	hs := make([]int, n+m-1)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			hs[i+j]++
		}
	}
	return hs
}

// Squarer generates the heap of an n bit squarer after folding the
// symmetric products a_i*a_j + a_j*a_i into 2*a_i*a_j and a_i*a_i into
// a_i.
func Squarer(n int) []int {
	if n <= 0 {
		return nil
	}
	hs := make([]int, 2*n)
	for i := 0; i < n; i++ {
		hs[2*i]++
		for j := i + 1; j < n; j++ {
			hs[i+j+1]++
		}
	}
	for len(hs) > 0 && hs[len(hs)-1] == 0 {
		hs = hs[:len(hs)-1]
	}
	return hs
}

// RandHeap generates a heap of w columns with heights in [0, maxHeight].
func RandHeap(w, maxHeight int) []int {
	mu.Lock() // for package rng
	defer mu.Unlock()
	hs := make([]int, w)
	for c := range hs {
		hs[c] = rng.Intn(maxHeight + 1)
	}
	return hs
}

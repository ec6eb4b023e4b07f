// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package modred

import (
	"math/bits"

	"github.com/go-air/bitheap"
)

// Policy selects how a pseudo compression represents each bit's residue.
type Policy int8

const (
	// Complete tries every combination of representations.  It is
	// exponential in the number of bits and bounded by
	// WithMaxCompleteBits.
	Complete Policy = iota
	// MinBits picks, per bit, the representation with fewer set bits.
	MinBits
	// MinRange picks, per bit, the representation of least magnitude.
	MinRange
	// MinRangeWeighted picks, per bit, the representation minimising
	// set bits plus magnitude.
	MinRangeWeighted
)

var policyNames = [...]string{
	Complete:         "complete",
	MinBits:          "minBits",
	MinRange:         "minRange",
	MinRangeWeighted: "minRangeWeighted"}

func (p Policy) String() string {
	if p < 0 || int(p) >= len(policyNames) {
		return "policy?"
	}
	return policyNames[p]
}

// ParsePolicy returns the policy named name.
func ParsePolicy(name string) (Policy, error) {
	for i, n := range policyNames {
		if n == name {
			return Policy(i), nil
		}
	}
	return 0, bitheap.Errorf(bitheap.ErrConfig, "unknown pseudo compression policy %q", name).WithPolicy(name)
}

// chooser decides between the residue representations plus >= 0 and
// minus < 0 of one bit, returning true for plus.
type chooser func(plus, minus int64) bool

func popcount(v int64) int {
	if v < 0 {
		v = -v
	}
	return bits.OnesCount64(uint64(v))
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func (p Policy) chooser() chooser {
	switch p {
	case MinBits:
		return func(plus, minus int64) bool {
			return popcount(plus) <= popcount(minus)
		}
	case MinRange:
		return func(plus, minus int64) bool {
			return plus <= -minus
		}
	case MinRangeWeighted:
		return func(plus, minus int64) bool {
			return int64(popcount(plus))+plus <= int64(popcount(minus))-minus
		}
	}
	return nil
}

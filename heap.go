// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package bitheap

import (
	"fmt"
	"sort"
	"strings"
)

// Sign is the sign of a bit's weight.
type Sign int8

const (
	Plus  Sign = 1
	Minus Sign = -1
)

func (s Sign) String() string {
	if s == Minus {
		return "-"
	}
	return "+"
}

// Tag records the provenance of a bit: the bit is bit Column of the signal
// row created at stage Stage, counted with sign Sign.
type Tag struct {
	Stage  int
	Column int
	Sign   Sign
}

func (t Tag) String() string {
	return fmt.Sprintf("%sr%d[%d]", t.Sign, t.Stage, t.Column)
}

// Coord is a (stage, column) coordinate of a bit heap.
type Coord struct {
	Stage  int
	Column int
}

// State is a sparse, per stage snapshot of a bit heap: for each
// (stage, column) the list of bits present there.
type State struct {
	bits map[Coord][]Tag
}

// NewState creates an empty State.
func NewState() *State {
	return &State{bits: make(map[Coord][]Tag)}
}

// Add adds a bit tagged t at (stage, col).
func (s *State) Add(stage, col int, t Tag) {
	if col < 0 {
		panic(fmt.Sprintf("negative column %d", col))
	}
	k := Coord{stage, col}
	s.bits[k] = append(s.bits[k], t)
}

// Bits returns the bits at (stage, col).  The result must not be modified.
func (s *State) Bits(stage, col int) []Tag {
	return s.bits[Coord{stage, col}]
}

// Height returns the number of bits at (stage, col).
func (s *State) Height(stage, col int) int {
	return len(s.bits[Coord{stage, col}])
}

// Columns returns the non-empty columns of stage in increasing order.
func (s *State) Columns(stage int) []int {
	var cols []int
	for k, ts := range s.bits {
		if k.Stage == stage && len(ts) > 0 {
			cols = append(cols, k.Column)
		}
	}
	sort.Ints(cols)
	return cols
}

// Width returns one more than the highest non-empty column of stage.
func (s *State) Width(stage int) int {
	w := 0
	for k, ts := range s.bits {
		if k.Stage == stage && len(ts) > 0 && k.Column >= w {
			w = k.Column + 1
		}
	}
	return w
}

// Heights returns the dense column heights of stage.
func (s *State) Heights(stage int) []int {
	hs := make([]int, s.Width(stage))
	for k, ts := range s.bits {
		if k.Stage == stage {
			hs[k.Column] = len(ts)
		}
	}
	return hs
}

// MaxHeight returns the largest column height of stage.
func (s *State) MaxHeight(stage int) int {
	m := 0
	for k, ts := range s.bits {
		if k.Stage == stage && len(ts) > m {
			m = len(ts)
		}
	}
	return m
}

// Count returns the number of bits in stage.
func (s *State) Count(stage int) int {
	n := 0
	for k, ts := range s.bits {
		if k.Stage == stage {
			n += len(ts)
		}
	}
	return n
}

// Stages returns the stages with at least one bit, in increasing order.
func (s *State) Stages() []int {
	seen := map[int]bool{}
	var res []int
	for k, ts := range s.bits {
		if len(ts) > 0 && !seen[k.Stage] {
			seen[k.Stage] = true
			res = append(res, k.Stage)
		}
	}
	sort.Ints(res)
	return res
}

// Shape returns a canonical description of stage's column arrangement,
// listing for each column the origin column and sign of its bits.  Two
// stages with the same shape differ at most in the rows their bits read.
func (s *State) Shape(stage int) string {
	var sb strings.Builder
	for _, c := range s.Columns(stage) {
		ts := s.Bits(stage, c)
		keys := make([]string, len(ts))
		for i, t := range ts {
			keys[i] = fmt.Sprintf("%s%d", t.Sign, t.Column)
		}
		sort.Strings(keys)
		fmt.Fprintf(&sb, "%d:%s;", c, strings.Join(keys, ","))
	}
	return sb.String()
}

func (s *State) String() string {
	var sb strings.Builder
	for _, st := range s.Stages() {
		fmt.Fprintf(&sb, "stage %d:", st)
		for _, c := range s.Columns(st) {
			fmt.Fprintf(&sb, " %d%v", c, s.Bits(st, c))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package modred schedules the reduction of a bit heap modulo a constant.
//
// The heap starts as the wIn bits of an unsigned input X and is reduced
// stage by stage until its value is known to lie in [-m, m), so that one
// conditional addition of m yields X mod m.  Each stage is a set of signed
// bits, a constant offset and the range [Lo, Hi] of values the stage can
// take.
//
// A stage of height at most one whose range is too wide is pseudo
// compressed: every bit of weight w is replaced by bits encoding one of the
// two residues w mod m or w mod m - m, chosen by the Policy, and the offset
// is reduced modulo m.  The bits keep their provenance tags, only their
// columns and signs change.
//
// A stage of height two or more is physically compressed: negative bits are
// complemented, the heap is reduced by a sched.Reducer and summed by a
// final adder, and the sum minus Lo becomes a fresh row of bits with offset
// Lo.
//
// The per bit policies can stall.  After each of their pseudo compressions
// the arrangement of bits is compared with the earlier ones and on a repeat
// the run continues with MinRange.  That MinRange itself makes progress is
// an assumption, so the number of stages is bounded regardless and
// exceeding the bound is reported as bitheap.ErrNonConvergence.
package modred

import (
	"fmt"
	"io"
	"log"
	"math/bits"

	"github.com/go-air/bitheap"
	"github.com/go-air/bitheap/sched"
)

// Kind tells how a stage was produced.
type Kind int8

const (
	Input Kind = iota
	Pseudo
	Physical
)

func (k Kind) String() string {
	switch k {
	case Input:
		return "input"
	case Pseudo:
		return "pseudo"
	case Physical:
		return "physical"
	default:
		return "kind?"
	}
}

// Stage describes one stage of a reduction.  The bits of the stage are
// held in the Result's State under the stage's index.
type Stage struct {
	Kind   Kind
	Offset int64
	Lo, Hi int64
	// Policy is the policy of a pseudo compressed stage.
	Policy Policy
	// Schedule is the compressor tree reducing the previous stage, for a
	// physically compressed stage.
	Schedule *bitheap.Schedule
	// Base is the constant of the previous stage in positive form, for a
	// physically compressed stage.
	Base int64
}

// Result is a complete reduction.
type Result struct {
	M     int64
	WIn   int
	State *bitheap.State
	// Stages[0] is the input, the last stage is in range.
	Stages []Stage
	// FellBack is set if a stalled policy was replaced by MinRange.
	FellBack bool
}

// Final returns the index of the last stage.
func (r *Result) Final() int {
	return len(r.Stages) - 1
}

type config struct {
	reducer     sched.Reducer
	maxStages   int
	maxComplete int
	log         *log.Logger
}

// Option configures a Scheduler.
type Option func(*config)

// WithReducer sets the reducer used for physical compression.  The default
// is a greedy reducer over full and half adders.
func WithReducer(r sched.Reducer) Option {
	return func(c *config) {
		c.reducer = r
	}
}

// WithMaxStages bounds the number of stages, 64 by default.
func WithMaxStages(n int) Option {
	return func(c *config) {
		c.maxStages = n
	}
}

// WithMaxCompleteBits bounds the number of bits the Complete policy
// enumerates, 16 by default.
func WithMaxCompleteBits(n int) Option {
	return func(c *config) {
		c.maxComplete = n
	}
}

// WithLogger traces the stages to l.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

// Scheduler reduces wIn bit inputs modulo m.
type Scheduler struct {
	wIn    int
	m      int64
	policy Policy
	cfg    config
}

// New creates a Scheduler.  All parameters are checked before any work.
func New(wIn int, m int64, p Policy, opts ...Option) (*Scheduler, error) {
	cfg := config{
		maxStages:   64,
		maxComplete: 16,
		log:         log.New(io.Discard, "", 0)}
	for _, o := range opts {
		o(&cfg)
	}
	if p.chooser() == nil && p != Complete {
		return nil, bitheap.Errorf(bitheap.ErrConfig, "unknown policy %d", int(p))
	}
	if wIn < 1 || wIn > 48 {
		return nil, bitheap.Errorf(bitheap.ErrConfig, "input width %d outside [1,48]", wIn).WithPolicy(p.String())
	}
	if m < 2 || m > 1<<40 {
		return nil, bitheap.Errorf(bitheap.ErrConfig, "modulus %d outside [2,2^40]", m).WithPolicy(p.String())
	}
	if cfg.maxStages < 1 {
		return nil, bitheap.Errorf(bitheap.ErrConfig, "stage bound %d", cfg.maxStages)
	}
	if p == Complete && wIn > cfg.maxComplete {
		return nil, bitheap.Errorf(bitheap.ErrConfig, "complete search over %d bits exceeds the bound %d",
			wIn, cfg.maxComplete).WithPolicy(p.String())
	}
	if cfg.reducer == nil {
		g, e := sched.NewGreedy(bitheap.FullHalfAdders())
		if e != nil {
			return nil, e
		}
		cfg.reducer = g
	}
	return &Scheduler{wIn: wIn, m: m, policy: p, cfg: cfg}, nil
}

// NewNamed is like New with the policy given by name.
func NewNamed(wIn int, m int64, policy string, opts ...Option) (*Scheduler, error) {
	p, e := ParsePolicy(policy)
	if e != nil {
		return nil, e
	}
	return New(wIn, m, p, opts...)
}

func (s *Scheduler) inRange(lo, hi int64) bool {
	return lo >= -s.m && hi < s.m
}

// Run computes the reduction.
func (s *Scheduler) Run() (*Result, error) {
	st := bitheap.NewState()
	for c := 0; c < s.wIn; c++ {
		st.Add(0, c, bitheap.Tag{Stage: 0, Column: c, Sign: bitheap.Plus})
	}
	res := &Result{
		M:      s.m,
		WIn:    s.wIn,
		State:  st,
		Stages: []Stage{{Kind: Input, Lo: 0, Hi: int64(1)<<uint(s.wIn) - 1}}}
	policy := s.policy
	seen := map[string]bool{}
	for cur := 0; ; cur++ {
		sg := res.Stages[cur]
		h := st.MaxHeight(cur)
		if h <= 1 && s.inRange(sg.Lo, sg.Hi) {
			break
		}
		if cur >= s.cfg.maxStages {
			return nil, bitheap.Errorf(bitheap.ErrNonConvergence, "range [%d,%d] after %d stages",
				sg.Lo, sg.Hi, cur).At(cur, -1).WithPolicy(policy.String())
		}
		var next Stage
		var e error
		if h >= 2 {
			next, e = s.physical(st, cur, &sg)
		} else {
			next, e = s.pseudo(st, cur, &sg, policy)
		}
		if e != nil {
			if be, ok := e.(*bitheap.Error); ok && be.Policy == "" {
				be.WithPolicy(policy.String())
			}
			return nil, e
		}
		s.cfg.log.Printf("stage %d: %s %s offset %d range [%d,%d] height %d\n",
			cur+1, next.Kind, policy, next.Offset, next.Lo, next.Hi, st.MaxHeight(cur+1))
		res.Stages = append(res.Stages, next)
		if next.Kind == Pseudo && policy != MinRange {
			shape := st.Shape(cur + 1)
			if seen[shape] {
				s.cfg.log.Printf("stage %d: %s stalls, continuing with %s\n", cur+1, policy, MinRange)
				policy = MinRange
				res.FellBack = true
			}
			seen[shape] = true
		}
	}
	return res, nil
}

// physical compresses stage cur into a fresh row at stage cur+1.
func (s *Scheduler) physical(st *bitheap.State, cur int, sg *Stage) (Stage, error) {
	base := sg.Offset
	heights := make([]int, st.Width(cur))
	for _, c := range st.Columns(cur) {
		for _, t := range st.Bits(cur, c) {
			if t.Sign == bitheap.Minus {
				base -= int64(1) << uint(c)
			}
		}
		heights[c] = st.Height(cur, c)
	}
	sch, e := s.cfg.reducer.Reduce(heights)
	if e != nil {
		return Stage{}, e
	}
	w := bitlen(sg.Hi - sg.Lo)
	for i := 0; i < w; i++ {
		st.Add(cur+1, i, bitheap.Tag{Stage: cur + 1, Column: i, Sign: bitheap.Plus})
	}
	return Stage{
		Kind:     Physical,
		Offset:   sg.Lo,
		Lo:       sg.Lo,
		Hi:       sg.Hi,
		Policy:   -1,
		Schedule: sch,
		Base:     base}, nil
}

func bitlen(v int64) int {
	return bits.Len64(uint64(v))
}

func (s Stage) String() string {
	return fmt.Sprintf("%s offset %d range [%d,%d]", s.Kind, s.Offset, s.Lo, s.Hi)
}

// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package satip implements ilp.Model on top of the gini SAT solver.
//
// Every variable is a bounded integer lo + b, where b is an unsigned bit
// vector of circuit inputs.  Linear constraints become adder and comparator
// networks in a logic.C circuit whose outputs are asserted as unit clauses.
// The circuit is translated to CNF incrementally, so constraints added
// while solving (the objective bounds) reuse earlier clauses.
//
// The objective is minimised by bound search: after a first model is found,
// the solver is asked for a model with objective at most the midpoint of
// the open interval, under an assumption, until the interval is empty.
// Each call runs with the remaining time via GoSolve().Try, so a timeout
// yields the best model found so far.
//
// Objective coefficients must be non-negative; they are scaled to integers.
// Constraint coefficients and right hand sides must be integral.
package satip

import (
	"fmt"
	"io"
	"log"
	"math"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"

	"github.com/go-air/bitheap/ilp"
)

type ivar struct {
	name string
	lo   int64
	hi   int64
	bits bv
}

// Model is an ilp.Model backed by a gini solver.  A Model is not safe for
// concurrent use.
type Model struct {
	c       *logic.C
	g       *gini.Gini
	ar      arith
	vars    []ivar
	emitted int
	units   []z.Lit

	objTerms []wterm
	objConst int64
	objScale float64
	objSet   bool

	scale  float64
	closed bool
	log    *log.Logger
	now    func() time.Time
}

// Option configures a Model.
type Option func(*Model)

// WithScale fixes the factor by which objective coefficients are
// multiplied before rounding to integers.  By default the smallest power of
// ten up to 10^6 making every coefficient integral is used.
func WithScale(s float64) Option {
	return func(m *Model) {
		m.scale = s
	}
}

// WithLogger traces the bound search to l.
func WithLogger(l *log.Logger) Option {
	return func(m *Model) {
		m.log = l
	}
}

// New creates an empty model.
func New(opts ...Option) *Model {
	c := logic.NewC()
	m := &Model{
		c:       c,
		g:       gini.New(),
		ar:      arith{c: c},
		emitted: 2,
		log:     log.New(io.Discard, "", 0),
		now:     time.Now}
	for _, o := range opts {
		o(m)
	}
	m.units = append(m.units, c.T)
	return m
}

// Factory returns an ilp.Factory creating models with opts.
func Factory(opts ...Option) ilp.Factory {
	return func() (ilp.Model, error) {
		return New(opts...), nil
	}
}

func (m *Model) check() error {
	if m.closed {
		return fmt.Errorf("satip: model is closed")
	}
	return nil
}

// AddVar implements ilp.Model.
func (m *Model) AddVar(name string, k ilp.Kind, lo, hi int64) (ilp.Var, error) {
	if e := m.check(); e != nil {
		return -1, e
	}
	if k == ilp.Binary {
		lo, hi = 0, 1
	}
	if lo > hi {
		return -1, fmt.Errorf("satip: variable %s has empty domain [%d,%d]", name, lo, hi)
	}
	if hi-lo < 0 || bitlen(hi-lo) > 48 {
		return -1, fmt.Errorf("satip: variable %s domain [%d,%d] too wide", name, lo, hi)
	}
	w := bitlen(hi - lo)
	v := ivar{name: name, lo: lo, hi: hi, bits: make(bv, w)}
	for i := range v.bits {
		v.bits[i] = m.c.Lit()
	}
	if span := hi - lo; span != int64(1)<<uint(w)-1 {
		m.units = append(m.units, m.ar.leq(v.bits, m.ar.konst(span, w)))
	}
	m.vars = append(m.vars, v)
	return ilp.Var(len(m.vars) - 1), nil
}

func integral(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > 1<<52 {
		return 0, false
	}
	r := math.Round(f)
	return int64(r), math.Abs(f-r) < 1e-9
}

func (m *Model) varOf(v ilp.Var) (*ivar, error) {
	if v < 0 || int(v) >= len(m.vars) {
		return nil, fmt.Errorf("satip: unknown variable x%d", v)
	}
	return &m.vars[v], nil
}

// AddConstraint implements ilp.Model.
func (m *Model) AddConstraint(name string, e ilp.Expr, s ilp.Sense, rhs float64) error {
	if err := m.check(); err != nil {
		return err
	}
	r, ok := integral(rhs)
	if !ok {
		return fmt.Errorf("satip: constraint %s: non-integral right hand side %g", name, rhs)
	}
	var p, q []wterm
	for _, t := range e {
		k, ok := integral(t.Coef)
		if !ok {
			return fmt.Errorf("satip: constraint %s: non-integral coefficient %g", name, t.Coef)
		}
		v, err := m.varOf(t.Var)
		if err != nil {
			return fmt.Errorf("constraint %s: %w", name, err)
		}
		r -= k * v.lo
		switch {
		case k > 0:
			p = append(p, wterm{k: k, v: int(t.Var)})
		case k < 0:
			q = append(q, wterm{k: -k, v: int(t.Var)})
		}
	}
	var lc, rc int64
	if r >= 0 {
		rc = r
	} else {
		lc = -r
	}
	lhs, _ := m.ar.sum(p, m.vars, lc)
	rhsv, _ := m.ar.sum(q, m.vars, rc)
	var lit z.Lit
	switch s {
	case ilp.Leq:
		lit = m.ar.leq(lhs, rhsv)
	case ilp.Geq:
		lit = m.ar.leq(rhsv, lhs)
	case ilp.Eq:
		lit = m.ar.eq(lhs, rhsv)
	default:
		return fmt.Errorf("satip: constraint %s: unknown sense %d", name, s)
	}
	m.units = append(m.units, lit)
	return nil
}

func (m *Model) autoScale(e ilp.Expr) float64 {
	for s := 1.0; s < 1e6; s *= 10 {
		ok := true
		for _, t := range e {
			if _, i := integral(t.Coef * s); !i {
				ok = false
				break
			}
		}
		if ok {
			return s
		}
	}
	return 1e6
}

// SetObjective implements ilp.Model.  The objective is minimised.
func (m *Model) SetObjective(e ilp.Expr) error {
	if err := m.check(); err != nil {
		return err
	}
	scale := m.scale
	if scale <= 0 {
		scale = m.autoScale(e)
	}
	m.objTerms = m.objTerms[:0]
	m.objConst = 0
	for _, t := range e {
		if t.Coef < 0 || math.IsNaN(t.Coef) || math.IsInf(t.Coef, 0) {
			return fmt.Errorf("satip: objective coefficient %g of x%d not supported", t.Coef, t.Var)
		}
		v, err := m.varOf(t.Var)
		if err != nil {
			return fmt.Errorf("objective: %w", err)
		}
		k := int64(math.Round(t.Coef * scale))
		if k == 0 {
			continue
		}
		m.objConst += k * v.lo
		m.objTerms = append(m.objTerms, wterm{k: k, v: int(t.Var)})
	}
	m.objScale = scale
	m.objSet = true
	return nil
}

// flush translates the circuit built since the last flush to clauses and
// asserts the pending unit literals.
func (m *Model) flush() {
	c, g := m.c, m.g
	n := c.Len()
	for i := m.emitted; i < n; i++ {
		out := c.At(i)
		a, b := c.Ins(out)
		if a == z.LitNull {
			continue
		}
		g.Add(out.Not())
		g.Add(a)
		g.Add(0)
		g.Add(out.Not())
		g.Add(b)
		g.Add(0)
		g.Add(out)
		g.Add(a.Not())
		g.Add(b.Not())
		g.Add(0)
	}
	m.emitted = n
	for _, u := range m.units {
		g.Add(u)
		g.Add(0)
	}
	m.units = m.units[:0]
}

func (m *Model) bit(lit z.Lit) bool {
	if lit.Var() > m.g.MaxVar() {
		return !lit.IsPos()
	}
	return m.g.Value(lit)
}

// values reads the current model of the solver.
func (m *Model) values() []int64 {
	res := make([]int64, len(m.vars))
	for i := range m.vars {
		v := &m.vars[i]
		x := v.lo
		for j, lit := range v.bits {
			if m.bit(lit) {
				x += int64(1) << uint(j)
			}
		}
		res[i] = x
	}
	return res
}

// objOf returns the scaled objective of vals, without the constant part.
func (m *Model) objOf(vals []int64) int64 {
	u := int64(0)
	for _, t := range m.objTerms {
		u += t.k * (vals[t.v] - m.vars[t.v].lo)
	}
	return u
}

func (m *Model) try(assume z.Lit, deadline time.Time) int {
	m.flush()
	if assume != z.LitNull {
		m.g.Assume(assume)
	}
	if deadline.IsZero() {
		return m.g.Solve()
	}
	remaining := deadline.Sub(m.now())
	if remaining <= 0 {
		return 0
	}
	return m.g.GoSolve().Try(remaining)
}

// Solve implements ilp.Model.
func (m *Model) Solve(timeout time.Duration) (sol *ilp.Solution, err error) {
	if err := m.check(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			sol, err = nil, fmt.Errorf("satip: solver failure: %v", r)
		}
	}()
	var deadline time.Time
	if timeout > 0 {
		deadline = m.now().Add(timeout)
	}
	switch m.try(z.LitNull, deadline) {
	case -1:
		return ilp.NewSolution(ilp.Infeasible, 0, nil), nil
	case 0:
		return ilp.NewSolution(ilp.Timeout, 0, nil), nil
	}
	best := m.values()
	if !m.objSet || len(m.objTerms) == 0 {
		return ilp.NewSolution(ilp.Optimal, m.report(0), best), nil
	}
	u := m.objOf(best)
	objBits, _ := m.ar.sum(m.objTerms, m.vars, 0)
	lo, hi := int64(0), u-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		bound := m.ar.leq(objBits, m.ar.konst(mid, bitlen(mid)))
		r := m.try(bound, deadline)
		m.log.Printf("bound %d in [%d,%d]: %d\n", mid, lo, hi, r)
		switch r {
		case 1:
			best = m.values()
			u = m.objOf(best)
			hi = u - 1
		case -1:
			lo = mid + 1
		case 0:
			return ilp.NewSolution(ilp.Timeout, m.report(u), best), nil
		default:
			return nil, fmt.Errorf("satip: solver returned %d", r)
		}
	}
	return ilp.NewSolution(ilp.Optimal, m.report(u), best), nil
}

func (m *Model) report(u int64) float64 {
	if !m.objSet {
		return 0
	}
	return float64(u+m.objConst) / m.objScale
}

// Gates returns the number of nodes of the underlying circuit.
func (m *Model) Gates() int {
	return m.c.Len()
}

// Close implements ilp.Model.  Closing twice is allowed.
func (m *Model) Close() error {
	m.closed = true
	m.g = nil
	m.c = nil
	m.ar.c = nil
	m.vars = nil
	return nil
}

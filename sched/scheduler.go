// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package sched

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/go-air/bitheap"
	"github.com/go-air/bitheap/ilp"
)

// Scheduler finds minimum area schedules with an ilp backend.  A Scheduler
// holds no state between calls and may be used from several goroutines;
// every call creates and closes its own model.
type Scheduler struct {
	cat *bitheap.Catalog
	cfg config
}

// New creates a Scheduler over cat.
func New(cat *bitheap.Catalog, opts ...Option) (*Scheduler, error) {
	if cat == nil || cat.Len() == 0 {
		return nil, bitheap.Errorf(bitheap.ErrConfig, "scheduler needs a non-empty catalog")
	}
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.mode == Fixed && cfg.stages < 0 {
		return nil, bitheap.Errorf(bitheap.ErrConfig, "fixed mode with %d stages", cfg.stages)
	}
	if cfg.backend == nil {
		return nil, bitheap.Errorf(bitheap.ErrConfig, "no ilp backend")
	}
	return &Scheduler{cat: cat, cfg: cfg}, nil
}

// Mode returns the stage mode of s.
func (s *Scheduler) Mode() Mode {
	return s.cfg.mode
}

// Catalog returns the catalog of s.
func (s *Scheduler) Catalog() *bitheap.Catalog {
	return s.cat
}

// Reduce implements Reducer.
func (s *Scheduler) Reduce(heights []int) (*bitheap.Schedule, error) {
	return s.Schedule(heights)
}

// Stages returns the number of stages s formulates for heights.
func (s *Scheduler) Stages(heights []int) int {
	if s.cfg.stages >= 0 {
		return s.cfg.stages
	}
	return bitheap.DaddaStages(lo.Max(heights))
}

// Schedule computes a minimum area schedule reducing heights to at most
// two bits per column.  In free mode an infeasible problem yields
// bitheap.ErrInfeasible, in fixed mode bitheap.ErrRetryable.  Solver
// failures yield bitheap.ErrSolverFault.  If the solver times out with a
// feasible incumbent, the incumbent is returned with Proven unset.
func (s *Scheduler) Schedule(heights []int) (sch *bitheap.Schedule, err error) {
	if e := checkHeights(heights); e != nil {
		return nil, e
	}
	model, e := s.cfg.backend()
	if e != nil {
		return nil, &bitheap.Error{Kind: bitheap.ErrSolverFault, Stage: -1, Column: -1, Err: e}
	}
	defer func() {
		if e := model.Close(); e != nil && err == nil {
			sch, err = nil, &bitheap.Error{Kind: bitheap.ErrSolverFault, Stage: -1, Column: -1, Err: e}
		}
	}()
	f := newFormulation(s.cat, model, heights, s.Stages(heights))
	if e := f.build(s.cfg.mode == Fixed); e != nil {
		return nil, &bitheap.Error{Kind: bitheap.ErrSolverFault, Stage: -1, Column: -1, Err: e}
	}
	s.cfg.log.Printf("%s mode: %d stages, %d columns, %d variables, bound %d\n",
		s.cfg.mode, f.S, f.W, f.nvars, f.B)
	sol, e := model.Solve(s.cfg.timeout)
	if e != nil {
		return nil, &bitheap.Error{Kind: bitheap.ErrSolverFault, Stage: -1, Column: -1, Err: e}
	}
	s.cfg.log.Printf("solver status %s, objective %g\n", sol.Status, sol.Objective)
	switch sol.Status {
	case ilp.Optimal, ilp.Feasible:
	case ilp.Timeout:
		if !sol.HasValues() {
			return nil, bitheap.Errorf(bitheap.ErrSolverFault, "timeout after %s without a feasible schedule", s.cfg.timeout)
		}
	case ilp.Infeasible, ilp.Unbounded, ilp.InfeasibleOrUnbounded:
		if s.cfg.mode == Fixed {
			return nil, bitheap.Errorf(bitheap.ErrRetryable, "solver status %s", sol.Status).At(f.S, -1)
		}
		return nil, bitheap.Errorf(bitheap.ErrInfeasible, "solver status %s within %d stages", sol.Status, f.S)
	default:
		return nil, bitheap.Errorf(bitheap.ErrSolverFault, "unknown solver status %s", sol.Status)
	}
	sch, e = f.decode(sol)
	if e != nil {
		return nil, e
	}
	sch.Proven = sol.Status == ilp.Optimal
	return sch, nil
}

// formulation is the integer program of one scheduling run.
//
// k[s][e][c] counts compressor e at column c in stage s < S.  n[s][c] is
// the population of column c after stage s, u[s][c] the population before
// stage s; u[0] is the initial heap and u[s] is n[s-1] for s > 0.  d[s] is
// one iff s is the final stage.
type formulation struct {
	cat   *bitheap.Catalog
	m     ilp.Model
	init  []int
	S, W  int
	B     int64
	big   int64
	k     [][][]ilp.Var
	n     [][]ilp.Var
	u     [][]ilp.Var
	d     []ilp.Var
	nvars int
}

const noVar ilp.Var = -1

func newFormulation(cat *bitheap.Catalog, m ilp.Model, heights []int, stages int) *formulation {
	f := &formulation{cat: cat, m: m, init: heights, S: stages}
	span := cat.MaxOutSpan()
	if span < 1 {
		span = 1
	}
	f.W = len(heights) + stages*(span-1)
	f.B = int64(lo.Sum(heights) + stages*f.W)
	f.big = f.B * int64(1+4*stages)
	return f
}

func (f *formulation) addVar(name string, k ilp.Kind, min, max int64) (ilp.Var, error) {
	f.nvars++
	return f.m.AddVar(name, k, min, max)
}

// fits tells whether compressor e at column c keeps its inputs and outputs
// inside the W columns.
func (f *formulation) fits(e, c int) bool {
	comp := f.cat.At(e)
	return c+comp.Span() <= f.W && c+comp.OutSpan() <= f.W
}

// kv returns k[s][e][c], or noVar outside the formulation.
func (f *formulation) kv(s, e, c int) ilp.Var {
	if s < 0 || s >= f.S || c < 0 || c >= f.W {
		return noVar
	}
	return f.k[s][e][c]
}

func (f *formulation) vars() error {
	var e error
	E := f.cat.Len()
	f.k = make([][][]ilp.Var, f.S)
	f.n = make([][]ilp.Var, f.S)
	for s := 0; s < f.S; s++ {
		f.k[s] = make([][]ilp.Var, E)
		for i := 0; i < E; i++ {
			f.k[s][i] = make([]ilp.Var, f.W)
			for c := 0; c < f.W; c++ {
				f.k[s][i][c] = noVar
				if !f.fits(i, c) {
					continue
				}
				f.k[s][i][c], e = f.addVar(fmt.Sprintf("k_%d_%d_%d", s, i, c), ilp.Integer, 0, f.B)
				if e != nil {
					return e
				}
			}
		}
		f.n[s] = make([]ilp.Var, f.W)
		for c := 0; c < f.W; c++ {
			f.n[s][c], e = f.addVar(fmt.Sprintf("N_%d_%d", s, c), ilp.Integer, 0, f.B)
			if e != nil {
				return e
			}
		}
	}
	f.u = make([][]ilp.Var, f.S+1)
	f.u[0] = make([]ilp.Var, f.W)
	for c := 0; c < f.W; c++ {
		h := int64(0)
		if c < len(f.init) {
			h = int64(f.init[c])
		}
		f.u[0][c], e = f.addVar(fmt.Sprintf("U_0_%d", c), ilp.Integer, h, h)
		if e != nil {
			return e
		}
	}
	for s := 1; s <= f.S; s++ {
		f.u[s] = f.n[s-1]
	}
	f.d = make([]ilp.Var, f.S+1)
	for s := 0; s <= f.S; s++ {
		f.d[s], e = f.addVar(fmt.Sprintf("D_%d", s), ilp.Binary, 0, 1)
		if e != nil {
			return e
		}
	}
	return nil
}

func (f *formulation) build(fixed bool) error {
	if e := f.vars(); e != nil {
		return e
	}
	m := f.m
	E := f.cat.Len()
	for s := 0; s < f.S; s++ {
		for c := 0; c < f.W; c++ {
			// capacity: inputs placed on the column cover its bits
			// unless s is final.
			var capa ilp.Expr
			// production: outputs landing in the column are the next
			// population.
			var prod ilp.Expr
			for i := 0; i < E; i++ {
				comp := f.cat.At(i)
				for j, h := range comp.Height {
					if v := f.kv(s, i, c-j); v != noVar && h != 0 {
						capa = capa.Plus(float64(h), v)
					}
				}
				for j, o := range comp.Outputs {
					if v := f.kv(s, i, c-j); v != noVar && o != 0 {
						prod = prod.Plus(float64(o), v)
					}
				}
			}
			capa = capa.Plus(float64(f.big), f.d[s]).Plus(-1, f.u[s][c])
			if e := m.AddConstraint(fmt.Sprintf("cap_%d_%d", s, c), capa, ilp.Geq, 0); e != nil {
				return e
			}
			prod = prod.Plus(-1, f.n[s][c])
			if e := m.AddConstraint(fmt.Sprintf("prod_%d_%d", s, c), prod, ilp.Eq, 0); e != nil {
				return e
			}
		}
	}
	// quiescence: once s is final its columns hold at most two bits and
	// no later stage holds any.
	for s := 0; s <= f.S; s++ {
		for c := 0; c < f.W; c++ {
			q := ilp.Expr{}.Plus(1, f.u[s][c])
			for z := s + 1; z <= f.S; z++ {
				q = q.Plus(4, f.u[z][c])
			}
			q = q.Plus(float64(f.big), f.d[s])
			if e := m.AddConstraint(fmt.Sprintf("quiet_%d_%d", s, c), q, ilp.Leq, float64(f.big+2)); e != nil {
				return e
			}
		}
	}
	var one ilp.Expr
	for s := 0; s <= f.S; s++ {
		one = one.Plus(1, f.d[s])
	}
	if e := m.AddConstraint("final", one, ilp.Eq, 1); e != nil {
		return e
	}
	if fixed {
		if e := m.AddConstraint("fixed", ilp.Expr{}.Plus(1, f.d[f.S]), ilp.Eq, 1); e != nil {
			return e
		}
	}
	if e := f.chains(); e != nil {
		return e
	}
	var obj ilp.Expr
	for s := 0; s < f.S; s++ {
		for i := 0; i < E; i++ {
			cost := f.cat.At(i).Cost
			for c := 0; c < f.W; c++ {
				if v := f.k[s][i][c]; v != noVar && cost != 0 {
					obj = obj.Plus(cost, v)
				}
			}
		}
	}
	return m.SetObjective(obj)
}

// chains ties the parts of every variable width compressor family: the
// chains open at column c, low or middle parts, continue at c+1 as middle
// or high parts, and no chain continues into column 0 or past the last
// column.
func (f *formulation) chains() error {
	for _, ch := range f.cat.Chains() {
		for s := 0; s < f.S; s++ {
			for c := 0; c < f.W; c++ {
				var e ilp.Expr
				e = plusVar(e, 1, f.kv(s, ch.Low, c))
				e = plusVar(e, 1, f.kv(s, ch.Middle, c))
				e = plusVar(e, -1, f.kv(s, ch.Middle, c+1))
				e = plusVar(e, -1, f.kv(s, ch.High, c+1))
				if len(e) != 0 {
					if err := f.m.AddConstraint(fmt.Sprintf("chain_%s_%d_%d", ch.Family, s, c), e, ilp.Eq, 0); err != nil {
						return err
					}
				}
			}
			var head ilp.Expr
			head = plusVar(head, 1, f.kv(s, ch.Middle, 0))
			head = plusVar(head, 1, f.kv(s, ch.High, 0))
			if len(head) != 0 {
				if err := f.m.AddConstraint(fmt.Sprintf("chainhead_%s_%d", ch.Family, s), head, ilp.Eq, 0); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func plusVar(e ilp.Expr, c float64, v ilp.Var) ilp.Expr {
	if v == noVar {
		return e
	}
	return e.Plus(c, v)
}

// decode turns a solution into a schedule and checks it by replaying it.
func (f *formulation) decode(sol *ilp.Solution) (*bitheap.Schedule, error) {
	final := -1
	for s := 0; s <= f.S; s++ {
		if sol.Value(f.d[s]) == 1 {
			final = s
			break
		}
	}
	if final < 0 {
		return nil, bitheap.Errorf(bitheap.ErrSolverFault, "solution marks no final stage")
	}
	sch := &bitheap.Schedule{
		Catalog: f.cat,
		Initial: append([]int(nil), f.init...),
		Stages:  final}
	for s := 0; s < final; s++ {
		for i := range f.k[s] {
			for c, v := range f.k[s][i] {
				if v == noVar {
					continue
				}
				if n := sol.Value(v); n > 0 {
					sch.Placements = append(sch.Placements, bitheap.Placement{
						Stage: s, Compressor: i, Column: c, Count: int(n)})
				}
			}
		}
	}
	for sch.Stages > 0 && len(sch.At(sch.Stages-1)) == 0 {
		sch.Stages--
	}
	sch.Sort()
	sch.Objective = sch.Area()
	infos, e := sch.Replay()
	if e != nil {
		return nil, &bitheap.Error{Kind: bitheap.ErrSolverFault, Stage: -1, Column: -1,
			Err: fmt.Errorf("decoded schedule does not replay: %w", e)}
	}
	for st := 0; st < sch.Stages; st++ {
		info := infos[st]
		for c, h := range info.Heights {
			if c >= len(info.Capacity) || info.Capacity[c] < h {
				return nil, bitheap.Errorf(bitheap.ErrSolverFault,
					"decoded schedule leaves %d bits uncovered", h).At(st, c)
			}
		}
	}
	return sch, nil
}

// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package bitheap holds the data model shared by the bit heap compression
// schedulers: compressors and their catalogs, per stage bit heap states,
// placements and schedules.
//
// A bit heap is a set of columns of equally weighted bits; column c has
// weight 2^c.  A schedule places compressors (generalized parallel
// counters) on the columns of successive stages until every column holds
// at most two bits, so that a final carry propagate adder can finish the
// sum.
//
// A schedule can be checked two ways.  Replay recomputes the column
// heights of every stage from the placements, and Simulate evaluates the
// compressors on concrete bit values:
//
//	hs, e := s.Replay()         // heights per stage
//	out, e := s.Simulate(bits)  // Value(out) == Value(bits)
//
// The schedulers live in subpackages: sched (ILP and greedy reduction),
// modred (reduction modulo a constant) and diffcomp (differential table
// compression).  Failures are reported as *Error values whose kind can be
// tested with errors.Is.
package bitheap

// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package sched computes compressor schedules reducing a bit heap to at most
// two bits per column.
//
// Scheduler formulates the problem as an integer linear program over the
// stages of the reduction and solves it with an ilp backend, minimising the
// total area of the placed compressors.  Greedy applies a Dadda style
// column by column reduction without a solver.  Both implement Reducer.
//
// A Scheduler runs in one of two modes fixed at construction.  In free mode
// the number of stages is bounded by a cap (by default the Dadda bound of
// the heap) and infeasibility is fatal.  In fixed mode the final stage is
// pinned, and infeasibility reports bitheap.ErrRetryable so that an outer
// driver such as Iterate may try again with more stages.
package sched

import (
	"io"
	"log"
	"time"

	"github.com/go-air/bitheap"
	"github.com/go-air/bitheap/ilp"
	"github.com/go-air/bitheap/ilp/satip"
)

// Reducer reduces a bit heap given by its column heights.
type Reducer interface {
	Reduce(heights []int) (*bitheap.Schedule, error)
}

// Mode is the stage count mode of a Scheduler.
type Mode int8

const (
	Free Mode = iota
	Fixed
)

func (m Mode) String() string {
	if m == Fixed {
		return "fixed"
	}
	return "free"
}

type config struct {
	mode    Mode
	stages  int
	timeout time.Duration
	backend ilp.Factory
	log     *log.Logger
}

func defaultConfig() config {
	return config{
		mode:    Free,
		stages:  -1,
		backend: satip.Factory(),
		log:     log.New(io.Discard, "", 0)}
}

// Option configures a Scheduler.
type Option func(*config)

// WithStages sets the stage cap of free mode.  By default the cap is
// bitheap.DaddaStages of the heap's largest column.
func WithStages(n int) Option {
	return func(c *config) {
		c.mode = Free
		c.stages = n
	}
}

// WithFixedStages selects fixed mode, in which the final stage is exactly
// stage n.
func WithFixedStages(n int) Option {
	return func(c *config) {
		c.mode = Fixed
		c.stages = n
	}
}

// WithTimeout bounds the wall clock time of each solve.  Zero means no
// limit.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithBackend sets the ilp backend.  The default is satip.
func WithBackend(f ilp.Factory) Option {
	return func(c *config) {
		c.backend = f
	}
}

// WithLogger traces model sizes and solver outcomes to l.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}

func checkHeights(heights []int) error {
	for c, h := range heights {
		if h < 0 {
			return bitheap.Errorf(bitheap.ErrConfig, "negative height %d", h).At(0, c)
		}
	}
	return nil
}

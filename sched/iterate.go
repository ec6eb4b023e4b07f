// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package sched

import (
	"errors"

	"github.com/go-air/bitheap"
)

// Iterate schedules heights in fixed mode with 0, 1, ... maxStages stages
// and returns the first feasible schedule, so the result has the fewest
// stages possible and minimum area among schedules with that many stages.
// Options setting the stage mode are overridden.
func Iterate(cat *bitheap.Catalog, heights []int, maxStages int, opts ...Option) (*bitheap.Schedule, error) {
	if maxStages < 0 {
		return nil, bitheap.Errorf(bitheap.ErrConfig, "negative stage limit %d", maxStages)
	}
	for n := 0; n <= maxStages; n++ {
		s, e := New(cat, append(opts[:len(opts):len(opts)], WithFixedStages(n))...)
		if e != nil {
			return nil, e
		}
		sch, e := s.Schedule(heights)
		if e == nil {
			return sch, nil
		}
		if !errors.Is(e, bitheap.ErrRetryable) {
			return nil, e
		}
		s.cfg.log.Printf("%d stages infeasible\n", n)
	}
	return nil, bitheap.Errorf(bitheap.ErrInfeasible, "no schedule within %d stages", maxStages)
}

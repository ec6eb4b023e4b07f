// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package bench runs suites of independent scheduling instances,
// several at a time, and records and summarises their results.
//
// Each instance is reduced by its own call to a sched.Reducer, so the
// reducers of package sched may be shared by concurrent instances.
package bench

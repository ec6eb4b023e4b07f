// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package gen contains generators for common
// kinds of bit heaps and lookup tables.
//
// Package gen also supplies a random ILP backend, which returns
// a given status within a random period of time.
package gen

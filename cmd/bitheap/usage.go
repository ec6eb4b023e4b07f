// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package main

var usage = `bitheap schedules the arithmetic of bit heaps.

	bitheap ilp [flags] [heights | -f file]
		minimum area compressor tree by integer programming
	bitheap mod [flags] wIn m
		reduction of a wIn bit input modulo m
	bitheap diff [flags] [file]
		differential compression of a lookup table
	bitheap bench [flags]
		compressor trees of a suite of heaps, in parallel

Heights and tables are whitespace separated decimal integers, read
from the arguments, a file, or '-' for stdin.  Files ending in .gz or
.bz2 are decompressed.`

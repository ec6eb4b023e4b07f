// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package main

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

func path2Reader(p string) (io.ReadCloser, error) {
	if p == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	f, e := os.Open(p)
	if e != nil {
		return nil, e
	}
	if strings.HasSuffix(p, ".gz") {
		r, e := gzip.NewReader(f)
		if e != nil {
			f.Close()
			return nil, e
		}
		return struct {
			io.Reader
			io.Closer
		}{r, f}, nil
	}
	if strings.HasSuffix(p, ".bz2") {
		return struct {
			io.Reader
			io.Closer
		}{bzip2.NewReader(f), f}, nil
	}
	return f, nil
}

// readUints reads whitespace separated non negative integers.
func readUints(r io.Reader) ([]uint64, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	var res []uint64
	for sc.Scan() {
		v, e := strconv.ParseUint(sc.Text(), 10, 64)
		if e != nil {
			return nil, fmt.Errorf("word %d: %w", len(res)+1, e)
		}
		res = append(res, v)
	}
	return res, sc.Err()
}

func readPath(p string) ([]uint64, error) {
	r, e := path2Reader(p)
	if e != nil {
		return nil, e
	}
	defer r.Close()
	vs, e := readUints(r)
	if e != nil {
		return nil, fmt.Errorf("%s: %w", p, e)
	}
	return vs, nil
}

func parseHeights(args []string) ([]int, error) {
	hs := make([]int, len(args))
	for i, a := range args {
		h, e := strconv.Atoi(a)
		if e != nil {
			return nil, e
		}
		hs[i] = h
	}
	return hs, nil
}

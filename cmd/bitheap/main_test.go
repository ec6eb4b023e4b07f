// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRoot()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	e := root.Execute()
	return buf.String(), e
}

func TestCommands(t *testing.T) {
	for _, tc := range []struct {
		args []string
		want string
	}{
		{[]string{"ilp", "3", "5", "5", "3"}, "proven=true"},
		{[]string{"ilp", "--greedy", "--mul", "6"}, "schedule"},
		{[]string{"ilp", "--iterate", "3", "3", "5", "5", "3"}, "stages=3"},
		{[]string{"mod", "8", "7", "--eval", "200,13"}, "eval 200: value 4 residue 4"},
		{[]string{"mod", "6", "5", "--policy", "complete"}, "stage 0: input"},
		{[]string{"diff", "--grouped", "3", "--in", "8", "--out", "16"}, "s=3 wH=13 wL=3 wIn=8"},
		{[]string{"bench", "--greedy", "--mul", "4,5", "--rand", "1", "-j", "2"}, "solved 3/3"},
	} {
		out, e := run(t, tc.args...)
		if e != nil {
			t.Errorf("%v: %s", tc.args, e)
			continue
		}
		if !strings.Contains(out, tc.want) {
			t.Errorf("%v: output lacks %q:\n%s", tc.args, tc.want, out)
		}
	}
}

func TestDiffFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "table.txt")
	if e := os.WriteFile(p, []byte("0 1 2 3\n100 101 102 103\n"), 0644); e != nil {
		t.Fatal(e)
	}
	out, e := run(t, "diff", p)
	if e != nil {
		t.Fatal(e)
	}
	if !strings.Contains(out, "table 2^3 x 7") {
		t.Errorf("output:\n%s", out)
	}
}

func TestCommandErrors(t *testing.T) {
	for _, args := range [][]string{
		{"ilp"},
		{"ilp", "--family", "abacus", "3", "3"},
		{"mod", "8"},
		{"mod", "8", "7", "--policy", "bogus"},
		{"diff"},
		{"diff", "--grouped", "3"},
	} {
		if _, e := run(t, args...); e == nil {
			t.Errorf("%v succeeded", args)
		}
	}
}

// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package main

import (
	"io"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/spf13/cobra"
)

var (
	pprofAddr string
	verbose   bool
)

// tracer returns the logger handed to the libraries, silent unless
// -verbose.
func tracer() *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, log.Prefix(), log.Flags())
}

func newRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "bitheap",
		Short:         "bitheap schedules compressor trees, modulo reductions and table compressions",
		Long:          usage,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// wanna see profiling info?  no recompile necessary, no
			// performance impact when its not in use.
			if pprofAddr != "" {
				go func() {
					log.Println(http.ListenAndServe(pprofAddr, nil))
				}()
			}
		}}
	pf := root.PersistentFlags()
	pf.StringVar(&pprofAddr, "pprof", "", "address to serve http profile (eg :6060)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "trace the searches on stderr")
	root.AddCommand(newILPCmd(), newModCmd(), newDiffCmd(), newBenchCmd())
	return root
}

func main() {
	log.SetPrefix("c [bitheap] ")
	log.SetFlags(0)
	if e := newRoot().Execute(); e != nil {
		log.Printf("error: %s\n", e)
		os.Exit(1)
	}
}

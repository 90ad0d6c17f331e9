package main

import (
	"testing"
	"time"
)

func TestSolveOptionsTranslation(tst *testing.T) {
	defer func() {
		*method = "newton"
		*noCheck = false
		*noTimeout = false
		*timeoutS = 0
	}()

	opts := solveOptions()
	if !opts.HeuristicTimeout || !opts.Check || opts.Method != "newton" {
		tst.Errorf("defaults are %+v", opts)
	}

	*timeoutS = 2.5
	*noCheck = true
	*method = "simplex"
	opts = solveOptions()
	if opts.HeuristicTimeout {
		tst.Error("explicit timeout did not disable the heuristic")
	}
	if opts.Timeout != 2500*time.Millisecond {
		tst.Errorf("timeout is %v", opts.Timeout)
	}
	if opts.Check {
		tst.Error("nocheck did not disable verification")
	}
	if opts.Method != "simplex" {
		tst.Errorf("method is %q", opts.Method)
	}

	*noTimeout = true
	opts = solveOptions()
	if opts.HeuristicTimeout || opts.Timeout != 0 {
		tst.Errorf("notimeout yields %+v", opts)
	}
}

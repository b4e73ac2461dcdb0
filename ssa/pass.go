// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

import (
	"github.com/pkg/errors"
)

// Preservation tells the host which of its analyses survive a pass.
type Preservation int8

const (
	// PreserveNone: every analysis of the function must be recomputed.
	PreserveNone Preservation = iota
	// PreserveAll: the pass changed nothing the analyses depend on.
	PreserveAll
)

func (p Preservation) String() string {
	if p == PreserveAll {
		return "all"
	}
	return "none"
}

// Result is what one run of the superblock pass did to a function.
type Result struct {
	Traces      []Trace
	Superblocks []Superblock
	Clones      int // blocks added by tail duplication
	Repaired    int // uses rewritten by use repair
	Accuracy    Accuracy
	Preserved   Preservation

	// Predictions holds every branch record made during the run.
	Predictions *Predictions
}

// RunOnFunction runs superblock formation on f. It predicts every branch,
// partitions the blocks into traces, tail-duplicates the traces into
// superblocks, repairs uses in the copies, and finally measures the
// predictions against oracle.
//
// loops and dom describe f as it is on entry; nil means the function's
// own loop nest and dominator tree. A nil oracle means StaticEstimate(f),
// taken before f is changed.
//
// An error is returned if f is malformed on entry, including a use that
// its definition does not dominate; f is then unchanged.
func RunOnFunction(f *Func, loops LoopInfo, dom DominanceOracle, oracle EdgeProbabilityOracle) (*Result, error) {
	if err := checkSSA(f); err != nil {
		return nil, err
	}
	if loops == nil {
		loops = f.Loopnest()
	}
	if dom == nil {
		dom = f.Sdom()
	}
	if oracle == nil {
		oracle = StaticEstimate(f)
	}

	preds := NewPredictions(f, loops)
	preds.EvaluateFunc()

	traces, err := FormTraces(f, preds, loops, dom)
	if err != nil {
		return nil, err
	}
	if err := checkTraces(f, traces); err != nil {
		return nil, err
	}

	sbs, repaired := FormSuperblocks(f, traces, preds)
	if err := checkSSA(f); err != nil {
		return nil, errors.Wrap(err, "after superblock formation")
	}
	res := &Result{
		Traces:      traces,
		Superblocks: sbs,
		Repaired:    repaired,
		Predictions: preds,
	}
	for _, sb := range sbs {
		res.Clones += len(sb.Clones)
	}
	// Duplication moves edges off the originals and may add phis to the
	// blocks both copies reach.
	if res.Clones == 0 {
		res.Preserved = PreserveAll
	}

	res.Accuracy, err = Evaluate(f, preds, oracle)
	if err != nil {
		return nil, err
	}
	if f.Config.debug() > 0 {
		r, ok := res.Accuracy.Ratio()
		if ok {
			f.Logf("%s: %d traces, %d copies, accuracy %.3f", f.Name, len(traces), res.Clones, r)
		} else {
			f.Logf("%s: %d traces, %d copies, accuracy n/a", f.Name, len(traces), res.Clones)
		}
	}
	return res, nil
}

// Run is RunOnFunction with the function's own analyses and the static
// estimate as oracle.
func Run(f *Func) (*Result, error) {
	return RunOnFunction(f, nil, nil, nil)
}

func checkSSA(f *Func) error {
	if err := CheckFunc(f); err != nil {
		return err
	}
	return CheckDominance(f)
}

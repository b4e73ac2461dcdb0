// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

import (
	"cmp"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// A Trace is a predicted hot path: an acyclic sequence of blocks, each
// the likely successor of the previous one. A trace references its
// blocks; it does not own them.
type Trace []*Block

func (t Trace) String() string {
	var s strings.Builder
	s.WriteString("[")
	for i, b := range t {
		if i > 0 {
			s.WriteString(" ")
		}
		s.WriteString(b.String())
	}
	s.WriteString("]")
	return s.String()
}

// VisitedSet records the blocks already claimed by a trace. It belongs
// to one run of the pass over one function.
type VisitedSet []bool

// NewVisitedSet returns an empty set sized for the blocks of f.
func NewVisitedSet(f *Func) VisitedSet {
	return make(VisitedSet, f.NumBlocks())
}

func (s VisitedSet) has(b *Block) bool { return s[b.ID] }
func (s VisitedSet) add(b *Block)      { s[b.ID] = true }

// traceBuilder grows traces over one function.
type traceBuilder struct {
	f       *Func
	preds   *Predictions
	loops   LoopInfo
	dom     DominanceOracle
	visited VisitedSet
	traces  []Trace
}

// isHazard reports whether control leaves b in a way the trace can not follow.
func isHazard(b *Block) bool {
	switch b.Kind {
	case BlockRet, BlockIndirect, BlockExit:
		return true
	}
	return false
}

// growTrace grows a trace from start, following likely successors until
// it reaches a hazard, a block already in a trace, or a block dominating
// the current one (a back-edge).
func (tb *traceBuilder) growTrace(start *Block) (Trace, error) {
	t := Trace{start}
	b := start
	for {
		tb.visited.add(b)
		if isHazard(b) {
			break
		}
		var next *Block
		if len(b.Succs) == 1 {
			next = b.Succs[0].b
		} else {
			var err error
			next, err = tb.preds.MostLikelySuccessor(b)
			if err != nil {
				return nil, err
			}
		}
		if tb.visited.has(next) || tb.dom.Dominates(next, b) {
			break
		}
		t = append(t, next)
		b = next
	}
	tb.traces = append(tb.traces, t)
	if tb.f.Config.debug() > 0 {
		tb.f.Logf("%s: trace %d %s", tb.f.Name, len(tb.traces)-1, t)
	}
	return t, nil
}

// cover grows a trace from every unvisited block reachable from root by
// successor edges, in breadth-first order. If within is not nil, the walk
// stays inside that loop and does not go back through its header.
func (tb *traceBuilder) cover(root *Block, within *Loop) error {
	enqueued := make([]bool, tb.f.NumBlocks())
	queue := []*Block{root}
	enqueued[root.ID] = true
	for len(queue) > 0 {
		b := queue[0]
		queue = queue[1:]
		if !tb.visited.has(b) {
			if _, err := tb.growTrace(b); err != nil {
				return err
			}
		}
		for _, e := range b.Succs {
			s := e.b
			if enqueued[s.ID] {
				continue
			}
			if within != nil && (s == within.Header || !within.Contains(s)) {
				continue
			}
			enqueued[s.ID] = true
			queue = append(queue, s)
		}
	}
	return nil
}

// FormTraces partitions the blocks of f into traces. Loops are covered
// first, deepest first; then the rest of the function from its entry;
// then any blocks the entry does not reach. Every block of f ends up in
// exactly one trace.
func FormTraces(f *Func, preds *Predictions, loops LoopInfo, dom DominanceOracle) ([]Trace, error) {
	if loops == nil {
		loops = f.Loopnest()
	}
	if dom == nil {
		dom = f.Sdom()
	}
	tb := &traceBuilder{
		f:       f,
		preds:   preds,
		loops:   loops,
		dom:     dom,
		visited: NewVisitedSet(f),
	}

	ordered := slices.Clone(loops.Loops())
	slices.SortStableFunc(ordered, func(a, b *Loop) int {
		return cmp.Compare(b.Depth, a.Depth)
	})
	for _, l := range ordered {
		if err := tb.cover(l.Header, l); err != nil {
			return nil, err
		}
	}
	if err := tb.cover(f.Entry, nil); err != nil {
		return nil, err
	}
	for _, b := range f.Blocks {
		if !tb.visited.has(b) {
			if _, err := tb.growTrace(b); err != nil {
				return nil, err
			}
		}
	}

	if f.Config != nil && f.Config.Stats {
		longest := 0
		for _, t := range tb.traces {
			longest = max(longest, len(t))
		}
		f.LogStat("traces:", len(tb.traces), "traces", longest, "longest")
	}
	return tb.traces, nil
}

// checkTraces verifies that traces partition the blocks of f.
func checkTraces(f *Func, traces []Trace) error {
	seen := make([]bool, f.NumBlocks())
	n := 0
	for _, t := range traces {
		for _, b := range t {
			if seen[b.ID] {
				return errors.Errorf("%s: %v is in more than one trace", f.Name, b)
			}
			seen[b.ID] = true
			n++
		}
	}
	if n != len(f.Blocks) {
		return errors.Errorf("%s: traces cover %d of %d blocks", f.Name, n, len(f.Blocks))
	}
	return nil
}

// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

// This file contains the static branch prediction rules. Each rule looks
// at one block and, if it applies, proposes a direction for the block's
// branch; relate resolves proposals that concern the same condition.
//
// Rules run in priority order, so at equal priority the later rule and,
// within a rule, the later block wins.

// EvaluateBranch runs every enabled rule on b. A two-way branch that no
// rule applies to is predicted taken, so that after EvaluateBranch every
// BlockIf has a prediction.
func (p *Predictions) EvaluateBranch(b *Block) {
	cfg := p.f.Config
	if cfg.enabled(pointerHeuristic) {
		p.predictPointer(b)
	}
	if cfg.enabled(loopExitHeuristic) {
		p.predictLoopExit(b)
	}
	if cfg.enabled(opcodeHeuristic) {
		p.predictOpcode(b)
	}
	if cfg.enabled(guardHeuristic) {
		p.predictGuard(b)
	}
	if cfg.enabled(loopHeaderEdgeHeuristic) {
		p.predictLoopHeaderEdge(b)
	}
	if b.Kind == BlockIf && len(p.byBlock[b]) == 0 {
		c := p.branchCandidate(b, defaultHeuristic)
		c.dir = true
		p.relate(c)
	}
}

// EvaluateFunc evaluates every block of f, in f.Blocks order.
func (p *Predictions) EvaluateFunc() {
	for _, b := range p.f.Blocks {
		p.EvaluateBranch(b)
	}
	if p.f.Config.debug() > 2 {
		for i := range p.log {
			p.f.Logf("branch record %d: %s", i, &p.log[i])
		}
	}
}

// branchCandidate returns an undecided candidate for b's branch condition.
func (p *Predictions) branchCandidate(b *Block, h Heuristic) candidate {
	c := candidate{b: b, h: h, key: condKey{block: b}}
	if b.Kind != BlockIf {
		return c
	}
	v := b.Controls[0]
	c.op = v.Op
	if cmp := compareOf(b); cmp != nil {
		c.pred = cmp.Predicate()
		c.key = condKey{x: cmp.Args[0], y: cmp.Args[1]}
	} else {
		c.key = condKey{x: v}
	}
	return c
}

// compareOf returns the comparison b branches on, or nil.
func compareOf(b *Block) *Value {
	if b.Kind != BlockIf {
		return nil
	}
	if v := b.Controls[0]; opcodeTable[v.Op].cmp {
		return v
	}
	return nil
}

// isAddrLoad reports whether v loads through a computed address.
func isAddrLoad(v *Value) bool {
	return v.Op == OpLoad && v.Args[0].Op == OpAddr
}

// predictPointer: pointers compared for equality, with each other or
// with nil, are usually different.
func (p *Predictions) predictPointer(b *Block) {
	cmp := compareOf(b)
	if cmp == nil || cmp.Op != OpCmp {
		return
	}
	pred := cmp.Predicate()
	if pred != PredEQ && pred != PredNE {
		return
	}
	x, y := cmp.Args[0], cmp.Args[1]
	switch {
	case isAddrLoad(x) && isAddrLoad(y):
	case x.Op == OpConstNil && y.Type == TypePtr:
	case y.Op == OpConstNil && x.Type == TypePtr:
	default:
		return
	}
	c := p.branchCandidate(b, pointerHeuristic)
	c.dir = pred == PredNE
	p.relate(c)
}

// predictLoopExit: a branch to a loop header continues the loop.
func (p *Predictions) predictLoopExit(b *Block) {
	if b.Kind != BlockIf && b.Kind != BlockPlain {
		return
	}
	for i, e := range b.Succs {
		l := p.loops.LoopFor(e.b)
		if l == nil || l.Header != e.b {
			continue
		}
		c := p.branchCandidate(b, loopExitHeuristic)
		c.dir = i == 0
		p.relate(c)
		return
	}
}

// predictOpcode: comparisons of the form x < 0 or 0 > x test for an error
// and exact floating-point equality with a constant rarely holds. Other
// comparisons are predicted taken.
func (p *Predictions) predictOpcode(b *Block) {
	cmp := compareOf(b)
	if cmp == nil {
		return
	}
	x, y := cmp.Args[0], cmp.Args[1]
	dir := true
	switch pred := cmp.Predicate(); cmp.Op {
	case OpCmp:
		if pred == PredLT && y.isZeroInt() || pred == PredGT && x.isZeroInt() {
			dir = false
		}
	case OpFCmp:
		if pred == PredOEQ && (x.Op == OpConstFloat) != (y.Op == OpConstFloat) {
			dir = false
		}
	}
	c := p.branchCandidate(b, opcodeHeuristic)
	c.dir = dir
	p.relate(c)
}

// predictGuard: b compares a loaded value and one of its successors stores
// to the same location. If the stored value is the one b compared against,
// the branch is predicted not taken, otherwise taken.
func (p *Predictions) predictGuard(b *Block) {
	cmp := compareOf(b)
	if cmp == nil {
		return
	}
	x, y := cmp.Args[0], cmp.Args[1]
	var addr, other *Value
	switch {
	case x.Op == OpLoad:
		addr, other = x.Args[0], y
	case y.Op == OpLoad:
		addr, other = y.Args[0], x
	default:
		return
	}
	for _, e := range b.Succs {
		for _, v := range e.b.Values {
			if v.Op != OpStore || !sameAddr(v.Args[0], addr) {
				continue
			}
			c := p.branchCandidate(b, guardHeuristic)
			c.dir = v.Args[1] != other
			p.relate(c)
			return
		}
	}
}

// sameAddr reports whether a and b compute the same address: they are the
// same value, or the same address computation over the same operands.
func sameAddr(a, b *Value) bool {
	if a == b {
		return true
	}
	if a.Op != OpAddr || b.Op != OpAddr || a.AuxInt != b.AuxInt || a.Aux != b.Aux || len(a.Args) != len(b.Args) {
		return false
	}
	for i := range a.Args {
		if a.Args[i] != b.Args[i] {
			return false
		}
	}
	return true
}

// predictLoopHeaderEdge: a branch that can stay on a path leading to a
// loop's latch is predicted to stay on it.
func (p *Predictions) predictLoopHeaderEdge(b *Block) {
	if b.Kind != BlockIf {
		return
	}
	carried := p.loopCarriedSet()
	in0 := carried[b.Succs[0].b]
	in1 := carried[b.Succs[1].b]
	if !in0 && !in1 {
		return
	}
	c := p.branchCandidate(b, loopHeaderEdgeHeuristic)
	c.dir = in0
	p.relate(c)
}

// loopCarriedSet returns the blocks from which some loop's latch can be
// reached without passing its header: for every loop, a breadth-first walk
// over predecessors from the latch that stops at the header.
func (p *Predictions) loopCarriedSet() map[*Block]bool {
	if p.loopCarried != nil {
		return p.loopCarried
	}
	carried := make(map[*Block]bool)
	for _, l := range p.loops.Loops() {
		if l.Latch == nil || l.Latch == l.Header {
			continue
		}
		seen := map[*Block]bool{l.Header: true, l.Latch: true}
		queue := []*Block{l.Latch}
		for len(queue) > 0 {
			b := queue[0]
			queue = queue[1:]
			carried[b] = true
			for _, e := range b.Preds {
				if pb := e.b; !seen[pb] && l.Contains(pb) {
					seen[pb] = true
					queue = append(queue, pb)
				}
			}
		}
	}
	p.loopCarried = carried
	return carried
}

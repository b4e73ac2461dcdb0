// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

import (
	"fmt"
	"strings"
)

// LoopInfo describes the loop structure of a function.
type LoopInfo interface {
	// Loops returns every reducible loop, outer loops before the loops they contain.
	Loops() []*Loop
	// LoopFor returns the innermost loop containing b, or nil.
	LoopFor(b *Block) *Loop
}

// A Loop is a reducible loop of the CFG.
type Loop struct {
	Header *Block // The header node of this (reducible) loop
	Outer  *Loop  // loop containing this loop

	// Latch is a predecessor of Header inside the loop, the source of
	// the back-edge. If there are several, the first in Header.Preds order.
	Latch *Block

	Children []*Loop // loops nested directly within this loop

	// Blocks holds every block of the loop, blocks of nested loops
	// included, in SCC discovery order with Header first.
	Blocks []*Block

	// Next three fields used by the trace builder and debug output
	// aid in computation of inner-ness and list of blocks.
	nBlocks int32 // Number of blocks in this loop but not within inner loops
	Depth   int16 // Nesting depth of the loop; 1 is outermost.
	IsInner bool  // True if never discovered to contain a loop

	member []bool // block ID -> in Blocks
}

// Contains reports whether b is one of the loop's blocks.
func (l *Loop) Contains(b *Block) bool {
	return int(b.ID) < len(l.member) && l.member[b.ID]
}

func (l *Loop) String() string {
	return fmt.Sprintf("hdr:%s", l.Header)
}

func (l *Loop) LongString() string {
	i := ""
	o := ""
	if l.IsInner {
		i = ", INNER"
	}
	if l.Outer != nil {
		o = ", o=" + l.Outer.Header.String()
	}
	return fmt.Sprintf("hdr:%s, latch:%s, depth:%d%s%s", l.Header, l.Latch, l.Depth, i, o)
}

type loopnest struct {
	f              *Func
	b2l            []*Loop  // block ID -> innermost containing loop
	po             []*Block // cached postorder
	loops          []*Loop  // all loops found
	hasIrreducible bool     // true if any irreducible loops detected
}

func (ln *loopnest) Loops() []*Loop {
	return ln.loops
}

func (ln *loopnest) LoopFor(b *Block) *Loop {
	if int(b.ID) >= len(ln.b2l) {
		return nil
	}
	return ln.b2l[b.ID]
}

// loopnestfor computes loop nest information using Bourdoncle's algorithm.
//
// The algorithm:
//  1. Compute SCCs of the CFG (cached)
//  2. Each non-trivial SCC with single entry is a reducible loop; header = entry target
//  3. Remove header and recursively partition to find nested loops
//  4. Build loop tree based on containment
func loopnestfor(f *Func) *loopnest {
	po := f.postorder()
	b2l := make([]*Loop, f.NumBlocks())
	loops := make([]*Loop, 0)
	sawIrred := false

	if f.Config.debug() > 2 {
		f.Logf("loop finding (Bourdoncle) in %s", f.Name)
	}

	sccs := f.sccs()
	for i, scc := range sccs {
		if !scc.IsLoop() {
			continue
		}
		if !scc.IsReducible() {
			sawIrred = true
			continue
		}
		// Recursively process this component
		processLoop(f, &sccs[i], nil, b2l, &loops, &sawIrred)
	}

	// Compute nesting depths
	computeLoopDepths(f, loops)

	ln := &loopnest{
		f:              f,
		b2l:            b2l,
		po:             po,
		loops:          loops,
		hasIrreducible: sawIrred,
	}

	if f.Config.debug() > 1 && len(loops) > 0 {
		printLoopnest(f, b2l, loops)
	}
	if f.Config != nil && f.Config.Stats && len(loops) > 0 {
		logLoopStats(f, loops)
	}
	return ln
}

// processLoop recursively processes an SCC using Bourdoncle's decomposition.
func processLoop(f *Func, scc *SCC, outer *Loop, b2l []*Loop, loops *[]*Loop, sawIrred *bool) {
	if len(scc.Blocks) == 0 {
		return
	}

	// Determine outermost header into SCC
	header := scc.Header()
	if header == nil {
		// Irreducible or whatnot -> not processing!
		*sawIrred = true
		return
	}

	l := &Loop{
		Header:  header,
		Outer:   outer,
		IsInner: true,
		nBlocks: 1,
		member:  make([]bool, f.NumBlocks()),
	}
	l.Blocks = append(l.Blocks, header)
	for _, b := range scc.Blocks {
		l.member[b.ID] = true
		if b != header {
			l.Blocks = append(l.Blocks, b)
		}
	}
	for _, e := range header.Preds {
		if l.member[e.b.ID] {
			l.Latch = e.b
			break
		}
	}
	*loops = append(*loops, l)
	b2l[header.ID] = l

	// Mark outer as non-inner since it contains us
	if outer != nil {
		outer.IsInner = false
		outer.Children = append(outer.Children, l)
	}

	remaining := l.Blocks[1:]
	if len(remaining) == 0 {
		return
	}

	// Find nested SCCs with header removed
	subSccs := sccSubgraph(f, remaining, header)
	for i := range subSccs {
		sub := &subSccs[i]
		if sub.IsLoop() {
			if !sub.IsReducible() {
				*sawIrred = true
				// The blocks still belong to this loop.
				claim(l, sub.Blocks, b2l)
				continue
			}
			// Nested loop
			processLoop(f, sub, l, b2l, loops, sawIrred)
		} else {
			// Trivial SCC: blocks belong to current loop
			claim(l, sub.Blocks, b2l)
		}
	}
}

// claim records l as the innermost loop of blocks not yet owned by a loop.
func claim(l *Loop, blocks []*Block, b2l []*Loop) {
	for _, b := range blocks {
		if b2l[b.ID] == nil {
			b2l[b.ID] = l
			l.nBlocks++
		}
	}
}

// computeLoopDepths calculates nesting depth for all loops.
func computeLoopDepths(f *Func, loops []*Loop) {
	for _, l := range loops {
		if l.Depth != 0 {
			// Already computed because it is an ancestor of
			// a previous loop.
			continue
		}
		// Find depth by walking up the loop tree.
		d := int16(0)
		for x := l; x != nil; x = x.Outer {
			if x.Depth != 0 {
				d += x.Depth
				break
			}
			d++
		}
		// Set depth for every ancestor.
		for x := l; x != nil; x = x.Outer {
			if x.Depth != 0 {
				break
			}
			x.Depth = d
			d--
		}
	}
	// Double-check depths.
	for _, l := range loops {
		want := int16(1)
		if l.Outer != nil {
			want = l.Outer.Depth + 1
		}
		if l.Depth != want {
			f.Fatalf("bad depth calculation for loop %s: got %d want %d", l.Header, l.Depth, want)
		}
	}
}

func printLoopnest(f *Func, b2l []*Loop, loops []*Loop) {
	var s strings.Builder
	fmt.Fprintf(&s, "Loops in %s:\n", f.Name)
	for _, l := range loops {
		fmt.Fprintf(&s, "%s, b=", l.LongString())
		for _, b := range f.Blocks {
			if b2l[b.ID] == l {
				fmt.Fprintf(&s, " %s", b)
			}
		}
		s.WriteString("\n")
	}
	fmt.Fprintf(&s, "Nonloop blocks in %s:", f.Name)
	for _, b := range f.Blocks {
		if b2l[b.ID] == nil {
			fmt.Fprintf(&s, " %s", b)
		}
	}
	f.Logf("%s", s.String())
}

func logLoopStats(f *Func, loops []*Loop) {
	for _, l := range loops {
		inner := 0
		if l.IsInner {
			inner++
		}

		f.LogStat("loopstats:",
			l.Depth, "depth",
			inner, "is_inner", l.nBlocks, "n_blocks")
	}
}

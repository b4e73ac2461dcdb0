// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

// This file computes postorders and the dominator tree of a function.
//
// Dominance is only defined for blocks reachable from the entry when the
// tree is built. A block that is unreachable, or that was created after
// the tree was built (a copy made by tail duplication, say), is unknown to
// the tree: it dominates nothing but itself, and nothing dominates it.
// Callers that query a tree taken before the CFG changed rely on this.

// postorder computes a postorder traversal ordering for the
// basic blocks in f. Unreachable blocks will not appear.
func postorder(f *Func) []*Block {
	return postorderWithin(f.Entry, nil)
}

// postorderWithin returns the postorder of the blocks reachable from root
// without leaving the blocks for which within is true. A nil within
// admits every block.
func postorderWithin(root *Block, within []bool) []*Block {
	f := root.Func
	if within != nil && len(within) != f.NumBlocks() {
		f.Fatalf("postorder over %d blocks, function has %d", len(within), f.NumBlocks())
	}
	type frame struct {
		b    *Block
		next int // successor edges of b explored so far
	}
	seen := make([]bool, f.NumBlocks())
	order := make([]*Block, 0, len(f.Blocks))
	stack := make([]frame, 0, 32)
	stack = append(stack, frame{b: root})
	seen[root.ID] = true
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next < len(top.b.Succs) {
			s := top.b.Succs[top.next].b
			top.next++
			if !seen[s.ID] && (within == nil || within[s.ID]) {
				seen[s.ID] = true
				stack = append(stack, frame{b: s})
			}
			continue
		}
		order = append(order, top.b)
		stack = stack[:len(stack)-1]
	}
	return order
}

// dominators returns the immediate dominator of every block of f, indexed
// by block ID. The entry block and blocks unreachable from it map to nil.
//
// This is the iterative algorithm of Cooper, Harvey and Kennedy,
// "A Simple, Fast Dominance Algorithm".
func dominators(f *Func) []*Block {
	post := f.postorder()
	num := make([]int, f.NumBlocks())
	for i, b := range post {
		num[b.ID] = i
	}
	if num[f.Entry.ID] != len(post)-1 {
		f.Fatalf("entry block %v not last in postorder", f.Entry)
	}

	idom := make([]*Block, f.NumBlocks())
	idom[f.Entry.ID] = f.Entry // until the end, so that it counts as processed
	for changed := true; changed; {
		changed = false
		for i := len(post) - 2; i >= 0; i-- {
			b := post[i]
			var d *Block
			for _, e := range b.Preds {
				p := e.b
				switch {
				case idom[p.ID] == nil:
					// Not processed yet, or unreachable.
				case d == nil:
					d = p
				default:
					d = commonDominator(d, p, num, idom)
				}
			}
			if d != idom[b.ID] {
				idom[b.ID] = d
				changed = true
			}
		}
	}
	idom[f.Entry.ID] = nil
	return idom
}

// commonDominator walks b and c up the partial dominator tree until they
// meet. num is the postorder number of each block.
func commonDominator(b, c *Block, num []int, idom []*Block) *Block {
	for b != c {
		for num[b.ID] < num[c.ID] {
			b = idom[b.ID]
		}
		for num[c.ID] < num[b.ID] {
			c = idom[c.ID]
		}
	}
	return b
}

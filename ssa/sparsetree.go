// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

// DominanceOracle answers dominance queries over a function's blocks.
type DominanceOracle interface {
	// Dominates reports whether every path from the entry to b passes through a.
	// A block dominates itself.
	Dominates(a, b *Block) bool
}

type sparseTreeNode struct {
	child   *Block
	sibling *Block
	parent  *Block

	// Every block has 6 numbers associated with it:
	// entry-1, entry, entry+1, exit-1, and exit, exit+1.
	// entry and exit are conceptually the top of the block (phi functions)
	// entry+1 and exit-1 are conceptually the bottom of the block (ordinary defs)
	// entry-1 and exit+1 are conceptually "just before" the block (conditions flowing in)
	//
	// This simplifies life if we wish to query information about x
	// when x is both an input to and output of a block.
	entry, exit int32
}

// A SparseTree is a tree of Blocks.
// It allows rapid ancestor queries,
// such as whether one block dominates another.
type SparseTree []sparseTreeNode

// newSparseTree creates a SparseTree from a block-to-parent map (array indexed by Block.ID).
func newSparseTree(f *Func, parentOf []*Block) SparseTree {
	t := make(SparseTree, f.NumBlocks())
	for _, b := range f.Blocks {
		n := &t[b.ID]
		if p := parentOf[b.ID]; p != nil {
			n.parent = p
			n.sibling = t[p.ID].child
			t[p.ID].child = b
		}
	}
	t.numberBlock(f.Entry, 1)
	return t
}

// numberBlock numbers b given entry number n.
// It returns b's child's exit number.
func (t SparseTree) numberBlock(b *Block, n int32) int32 {
	n++ // go from -1 to 0
	t[b.ID].entry = n
	n++
	for c := t[b.ID].child; c != nil; c = t[c.ID].sibling {
		// child entry is one larger than entry+1
		n = t.numberBlock(c, n+1) // n = child exit
	}
	n += 2 // exit-1, exit
	t[b.ID].exit = n
	n++ // exit+1
	return n
}

// Parent returns the parent of x in the dominator tree, or nil if x is the
// function's entry.
func (t SparseTree) Parent(x *Block) *Block {
	return t[x.ID].parent
}

// IsAncestorEq reports whether x is an ancestor of or equal to y.
// Blocks the tree does not know about (created after it was built, or
// unreachable) are never ancestors and have no ancestors.
func (t SparseTree) IsAncestorEq(x, y *Block) bool {
	if x == y {
		return true
	}
	if int(x.ID) >= len(t) || int(y.ID) >= len(t) {
		return false
	}
	xx := &t[x.ID]
	yy := &t[y.ID]
	if xx.entry == 0 || yy.entry == 0 {
		return false
	}
	return xx.entry <= yy.entry && yy.exit <= xx.exit
}

// Dominates implements DominanceOracle.
func (t SparseTree) Dominates(a, b *Block) bool {
	return t.IsAncestorEq(a, b)
}

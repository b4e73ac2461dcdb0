// Copyright 2022 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

import "iter"

// This file implements strongly connected component (SCC) detection for
// control-flow graphs using the Kosaraju-Sharir algorithm.
//
// The loop nest (loopnest.go) is built on top of it: every non-trivial SCC
// with a single entry is a reducible loop whose header is that entry, and
// nested loops are found by removing the header and partitioning again.

// An SCC is a strongly connected component of a (sub)graph of the CFG.
type SCC struct {
	Blocks []*Block

	// entries are the blocks of the component with a predecessor
	// outside of it (or the function entry, which has none).
	entries []*Block
	// selfLoop is set for a single-block component with an edge to itself.
	selfLoop bool
}

// IsLoop reports whether the component contains a cycle.
func (s *SCC) IsLoop() bool {
	return len(s.Blocks) > 1 || s.selfLoop
}

// IsReducible reports whether the component can only be entered
// through one block.
func (s *SCC) IsReducible() bool {
	return len(s.entries) == 1
}

// Header returns the single entry block of the component, or nil
// if the component is irreducible.
func (s *SCC) Header() *Block {
	if !s.IsReducible() {
		return nil
	}
	return s.entries[0]
}

// SCCs returns the strongly connected components of f's control-flow
// graph, topologically sorted by the kernel DAG. Each SCC corresponds to a loop
// (or trivial single-block component) in f.
//
// Properties:
//   - The first SCC contains only the entry block.
//   - Unreachable blocks are excluded from the result.
//   - The topological order of the kernel DAG may not be unique.
//   - Block order within each SCC is unspecified.
//
// The iterator pattern avoids allocating the result slice when callers
// only need a single traversal.
//
// Example:
//
//	Given:  b1 → b2, b2 → [b3, b4], b3 → b2, b4 → b5
//	Result: [[b1], [b2, b3], [b4], [b5]]
//
// The second pass uses BFS with reversed edges for simplicity.
func (f *Func) SCCs() iter.Seq[[]*Block] {
	return func(yield func([]*Block) bool) {
		// First DFS pass: compute postorder on original edges.
		// The last element is the function entry block.
		po := f.postorder()

		reachable := make([]bool, f.NumBlocks())
		for _, b := range po {
			reachable[b.ID] = true
		}
		for scc := range kosaraju(f, po, reachable) {
			if !yield(scc) {
				return
			}
		}
	}
}

// kosaraju runs the second Kosaraju-Sharir pass: it walks reversed edges,
// leaders taken in reverse postorder, confined to blocks marked valid.
func kosaraju(f *Func, po []*Block, valid []bool) iter.Seq[[]*Block] {
	return func(yield func([]*Block) bool) {
		seen := make([]bool, f.NumBlocks())
		queue := make([]*Block, 0, len(po))

		for i := len(po) - 1; i >= 0; i-- {
			leader := po[i]
			if seen[leader.ID] {
				continue
			}

			// BFS to find all blocks in this SCC.
			scc := make([]*Block, 0, 4)
			queue = append(queue[:0], leader)
			seen[leader.ID] = true

			for len(queue) > 0 {
				b := queue[0]
				queue = queue[1:]
				scc = append(scc, b)

				for _, e := range b.Preds {
					pred := e.b
					if valid[pred.ID] && !seen[pred.ID] {
						seen[pred.ID] = true
						queue = append(queue, pred)
					}
				}
			}

			if !yield(scc) {
				return
			}
		}
	}
}

// sccPartition returns all SCCs as a slice for callers that need random access.
// Prefer [Func.SCCs] when iterating once.
func sccPartition(f *Func) [][]*Block {
	var result [][]*Block
	for scc := range f.SCCs() {
		result = append(result, scc)
	}
	return result
}

// computeSCCs returns the top-level components of f with their entries.
func (f *Func) computeSCCs() []SCC {
	var r []SCC
	for blocks := range f.SCCs() {
		r = append(r, newSCC(f, blocks))
	}
	return r
}

// sccSubgraph partitions the subgraph induced by blocks, which must not
// contain header, into strongly connected components. Edges into header
// are ignored, which is what breaks the enclosing loop's cycles.
func sccSubgraph(f *Func, blocks []*Block, header *Block) []SCC {
	valid := make([]bool, f.NumBlocks())
	for _, b := range blocks {
		valid[b.ID] = true
	}
	valid[header.ID] = false

	// The subgraph may have several roots, so postorder it from every
	// block not yet reached, in the given order.
	var po []*Block
	seen := make([]bool, f.NumBlocks())
	for _, root := range blocks {
		if seen[root.ID] {
			continue
		}
		for _, b := range postorderWithin(root, valid) {
			if !seen[b.ID] {
				seen[b.ID] = true
				po = append(po, b)
			}
		}
	}

	var r []SCC
	for scc := range kosaraju(f, po, valid) {
		r = append(r, newSCC(f, scc))
	}
	return r
}

func newSCC(f *Func, blocks []*Block) SCC {
	in := make(map[*Block]bool, len(blocks))
	for _, b := range blocks {
		in[b] = true
	}
	s := SCC{Blocks: blocks}
	for _, b := range blocks {
		entry := b == f.Entry
		for _, e := range b.Preds {
			if !in[e.b] {
				entry = true
			}
			if e.b == b && len(blocks) == 1 {
				s.selfLoop = true
			}
		}
		if entry {
			s.entries = append(s.entries, b)
		}
	}
	return s
}

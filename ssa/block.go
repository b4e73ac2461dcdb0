// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

import (
	"fmt"
	"slices"
	"strings"
)

// Block represents a basic block in the control flow graph of a function.
type Block struct {
	// A unique identifier for the block. The system will attempt to allocate
	// these IDs densely, but no guarantees.
	ID ID

	// The kind of block this is.
	Kind BlockKind

	// Likely direction for branches.
	// If BranchLikely, Succs[0] is the most likely branch taken.
	// If BranchUnlikely, Succs[1] is the most likely branch taken.
	// Ignored if len(Succs) < 2.
	// Fatal if not BranchUnknown and len(Succs) > 2.
	Likely BranchPrediction

	// Subsequent blocks, if any. The number and order depend on the block kind.
	Succs []Edge

	// Inverse of successors.
	// The order is significant to Phi nodes in the block.
	Preds []Edge

	// A list of values that determine how the block is exited. The number
	// and type of control values depends on the Kind of the block. For
	// instance, a BlockIf has a single boolean control value and BlockRet
	// may have the returned value as its control.
	Controls [1]*Value

	// The unordered set of Values that define the operation of this block.
	// After the scheduling pass, this list is ordered.
	Values []*Value

	// The containing function
	Func *Func

	// Origin is the block this block was duplicated from, or nil.
	Origin *Block
}

// Edge represents a CFG edge.
// Example edges for b branching to either c or d.
// (c and d have other predecessors.)
//
//	b.Succs = [{c,3}, {d,1}]
//	c.Preds = [?, ?, ?, {b,0}]
//	d.Preds = [?, {b,1}, ?]
//
// These indexes allow us to edit the CFG in constant time.
// In addition, it informs phi ops in degenerate cases like:
//
//	b:
//	   if k then c else c
//	c:
//	   v = Phi(x, y)
//
// Then the indexes tell you whether x is chosen from
// the if or else branch from b.
//
//	b.Succs = [{c,0},{c,1}]
//	c.Preds = [{b,0},{b,1}]
//
// means x is chosen if k is true.
type Edge struct {
	// block edge goes to (in a Succs list) or from (in a Preds list)
	b *Block
	// index of reverse edge.  Invariant:
	//   e := x.Succs[idx]
	//   e.b.Preds[e.i] = Edge{x,idx}
	// and similarly for predecessors.
	i int
}

func (e Edge) Block() *Block {
	return e.b
}
func (e Edge) Index() int {
	return e.i
}
func (e Edge) String() string {
	return fmt.Sprintf("{%v,%d}", e.b, e.i)
}

// BlockKind is the kind of a block's terminator.
//
//	kind          control    successors
//	----------------------------------------
//	Exit        (none)        []
//	Plain       (none)        [next]
//	If          a boolean     [then, else]
//	Ret         (optional)    []
//	Indirect    an address    [targets...]
type BlockKind int8

const (
	BlockInvalid BlockKind = iota
	BlockPlain
	BlockIf
	BlockRet
	BlockIndirect
	BlockExit
)

var blockKindNames = [...]string{
	BlockInvalid:  "Invalid",
	BlockPlain:    "Plain",
	BlockIf:       "If",
	BlockRet:      "Ret",
	BlockIndirect: "Indirect",
	BlockExit:     "Exit",
}

func (k BlockKind) String() string {
	if k < 0 || int(k) >= len(blockKindNames) {
		return fmt.Sprintf("BlockKind(%d)", int8(k))
	}
	return blockKindNames[k]
}

type BranchPrediction int8

const (
	BranchUnlikely = BranchPrediction(-1)
	BranchUnknown  = BranchPrediction(0)
	BranchLikely   = BranchPrediction(+1)
)

func (p BranchPrediction) String() string {
	switch p {
	case BranchUnlikely:
		return "unlikely"
	case BranchLikely:
		return "likely"
	}
	return "unknown"
}

// short form print
func (b *Block) String() string {
	return fmt.Sprintf("b%d", b.ID)
}

// long form print
func (b *Block) LongString() string {
	var s strings.Builder
	s.WriteString(b.Kind.String())
	if c := b.Controls[0]; c != nil {
		fmt.Fprintf(&s, " %s", c)
	}
	if len(b.Succs) > 0 {
		s.WriteString(" ->")
		for _, c := range b.Succs {
			fmt.Fprintf(&s, " %s", c.b)
		}
	}
	switch b.Likely {
	case BranchUnlikely:
		s.WriteString(" (unlikely)")
	case BranchLikely:
		s.WriteString(" (likely)")
	}
	if b.Origin != nil {
		fmt.Fprintf(&s, " [copy of %s]", b.Origin)
	}
	return s.String()
}

// NumControls returns the number of non-nil control values the
// block has.
func (b *Block) NumControls() int {
	if b.Controls[0] == nil {
		return 0
	}
	return 1
}

// ControlValues returns a slice containing the non-nil control
// values of the block.
func (b *Block) ControlValues() []*Value {
	if b.Controls[0] == nil {
		return b.Controls[:0]
	}
	return b.Controls[:1]
}

// SetControl removes all existing control values and then adds
// the control value provided.
func (b *Block) SetControl(v *Value) {
	b.ResetControls()
	b.Controls[0] = v
	if v != nil {
		v.Uses++
	}
}

// ResetControls sets the number of controls for the block to 0.
func (b *Block) ResetControls() {
	if b.Controls[0] != nil {
		b.Controls[0].Uses--
	}
	b.Controls = [1]*Value{}
}

// replaceControl exchanges the existing control value at
// index i for the provided value.
func (b *Block) replaceControl(i int, v *Value) {
	b.Controls[i].Uses--
	b.Controls[i] = v
	v.Uses++
}

// AddEdgeTo adds an edge from block b to block c.
func (b *Block) AddEdgeTo(c *Block) {
	i := len(b.Succs)
	j := len(c.Preds)
	b.Succs = append(b.Succs, Edge{c, j})
	c.Preds = append(c.Preds, Edge{b, i})
	b.Func.invalidateCFG()
}

// removePred removes the ith input edge from b.
// It is the responsibility of the caller to remove
// the corresponding successor edge, and adjust any
// phi values by calling b.removePhiArg(v, i).
func (b *Block) removePred(i int) {
	n := len(b.Preds) - 1
	if i != n {
		e := b.Preds[n]
		b.Preds[i] = e
		// Update the other end of the edge we moved.
		e.b.Succs[e.i].i = i
	}
	b.Preds[n] = Edge{}
	b.Preds = b.Preds[:n]
	b.Func.invalidateCFG()
}

// removePhiArg removes the ith arg from phi.
// It must be called after calling b.removePred(i) to
// adjust the corresponding phi value of the block:
//
// b.removePred(i)
// for _, v := range b.Values {
//
//	if v.Op != OpPhi {
//	    continue
//	}
//	b.removePhiArg(v, i)
//
// }
func (b *Block) removePhiArg(phi *Value, i int) {
	n := len(b.Preds)
	if numPhiArgs := len(phi.Args); numPhiArgs-1 != n {
		b.Fatalf("inconsistent state for %v, num predecessors: %d, num phi args: %d", phi, n, numPhiArgs)
	}
	phi.Args[i].Uses--
	phi.Args[i] = phi.Args[n]
	phi.Args[n] = nil
	phi.Args = phi.Args[:n]
}

// redirectPred moves the ith incoming edge of b so that it enters c
// instead. The phi arguments b received along that edge are appended to
// the phis of c, which must have the same phis in the same order as b.
func (b *Block) redirectPred(i int, c *Block) {
	e := b.Preds[i]
	p := e.b
	var args []*Value
	for _, v := range b.Values {
		if v.Op != OpPhi {
			continue
		}
		args = append(args, v.Args[i])
	}
	b.removePred(i)
	k := 0
	for _, v := range b.Values {
		if v.Op != OpPhi {
			continue
		}
		args[k].Uses++ // keep the argument alive across removePhiArg
		b.removePhiArg(v, i)
		k++
	}
	p.Succs[e.i] = Edge{c, len(c.Preds)}
	c.Preds = append(c.Preds, Edge{p, e.i})
	k = 0
	for _, v := range c.Values {
		if v.Op != OpPhi {
			continue
		}
		if k >= len(args) {
			c.Fatalf("redirect %v->%v: %v has more phis than %v", p, c, c, b)
		}
		v.Args = append(v.Args, args[k]) // the use was transferred above
		k++
	}
	if k != len(args) {
		c.Fatalf("redirect %v->%v: %v has fewer phis than %v", p, c, c, b)
	}
	b.Func.invalidateCFG()
}

// phiArgFrom returns the argument phi receives along the edge from pred,
// matching on the predecessor's successor index i.
func (b *Block) phiArgFrom(phi *Value, pred *Block, i int) *Value {
	for k, e := range b.Preds {
		if e.b == pred && e.i == i {
			return phi.Args[k]
		}
	}
	b.Fatalf("%v is not a predecessor of %v via edge %d", pred, b, i)
	return nil
}

// phis returns the phi values at the head of b.
func (b *Block) phis() []*Value {
	var r []*Value
	for _, v := range b.Values {
		if v.Op == OpPhi {
			r = append(r, v)
		}
	}
	return r
}

// newPhi adds a phi of type t, with no arguments, at the head of b.
func (b *Block) newPhi(t Type) *Value {
	v := b.NewValue(OpPhi, t, 0, nil)
	copy(b.Values[1:], b.Values[:len(b.Values)-1])
	b.Values[0] = v
	return v
}

// removeValue deletes v, which must have no uses, from b.
func (b *Block) removeValue(v *Value) {
	if v.Uses != 0 {
		b.Fatalf("removing %v, which still has %d uses", v, v.Uses)
	}
	i := slices.Index(b.Values, v)
	if i < 0 {
		b.Fatalf("%v is not in %v", v, b)
	}
	v.resetArgs()
	b.Values = slices.Delete(b.Values, i, i+1)
}

func (b *Block) Fatalf(msg string, args ...any) {
	b.Func.Fatalf(msg, args...)
}

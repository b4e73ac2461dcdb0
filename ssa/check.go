// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

import (
	"fmt"

	"github.com/pkg/errors"
)

// CheckFunc checks f for structural consistency: edge back-links,
// successor counts per block kind, argument arities, phi widths and
// use counts. It returns the first problem found as a *MalformedError.
func CheckFunc(f *Func) error {
	bad := func(b *Block, v *Value, msg string, args ...any) error {
		return malformed(f, b, v, msg, args...)
	}

	if f.Entry == nil {
		return bad(nil, nil, "no entry block")
	}
	if len(f.Entry.Preds) != 0 {
		return bad(f.Entry, nil, "entry block has predecessors")
	}

	blockMark := make([]bool, f.NumBlocks())
	for _, b := range f.Blocks {
		if b.ID <= 0 || int(b.ID) >= len(blockMark) {
			return bad(b, nil, "block ID out of range")
		}
		if blockMark[b.ID] {
			return bad(b, nil, "block ID used more than once")
		}
		blockMark[b.ID] = true
		if b.Func != f {
			return bad(b, nil, "block belongs to %s", b.Func.Name)
		}
	}
	if !blockMark[f.Entry.ID] || f.Entry.Func != f {
		return bad(f.Entry, nil, "entry block not in f.Blocks")
	}

	for _, b := range f.Blocks {
		for i, e := range b.Succs {
			if e.b == nil || !blockMark[e.b.ID] || e.b.Func != f {
				return bad(b, nil, "successor %d is not a block of the function", i)
			}
			if e.i < 0 || e.i >= len(e.b.Preds) {
				return bad(b, nil, "successor edge %d has bad reverse index %d", i, e.i)
			}
			if r := e.b.Preds[e.i]; r.b != b || r.i != i {
				return bad(b, nil, "edge to %v has reverse %v, want {%v,%d}", e.b, r, b, i)
			}
		}
		for i, e := range b.Preds {
			if e.b == nil || !blockMark[e.b.ID] || e.b.Func != f {
				return bad(b, nil, "predecessor %d is not a block of the function", i)
			}
			if e.i < 0 || e.i >= len(e.b.Succs) {
				return bad(b, nil, "predecessor edge %d has bad reverse index %d", i, e.i)
			}
			if r := e.b.Succs[e.i]; r.b != b || r.i != i {
				return bad(b, nil, "edge from %v has reverse %v, want {%v,%d}", e.b, r, b, i)
			}
		}

		switch b.Kind {
		case BlockExit:
			if len(b.Succs) != 0 {
				return bad(b, nil, "exit block has successors")
			}
			if b.NumControls() != 0 {
				return bad(b, nil, "exit block has a control value")
			}
		case BlockRet:
			if len(b.Succs) != 0 {
				return bad(b, nil, "ret block has successors")
			}
		case BlockPlain:
			if len(b.Succs) != 1 {
				return bad(b, nil, "plain block has %d successors, want 1", len(b.Succs))
			}
			if b.NumControls() != 0 {
				return bad(b, nil, "plain block has a control value")
			}
		case BlockIf:
			if len(b.Succs) != 2 {
				return bad(b, nil, "if block has %d successors, want 2", len(b.Succs))
			}
			if b.NumControls() != 1 {
				return bad(b, nil, "if block has no control value")
			}
			if c := b.Controls[0]; c.isVoid() {
				return bad(b, c, "if block control produces no value")
			}
		case BlockIndirect:
			if len(b.Succs) == 0 {
				return bad(b, nil, "indirect block has no successors")
			}
			if b.NumControls() != 1 {
				return bad(b, nil, "indirect block has no target address")
			}
		default:
			return bad(b, nil, "unknown block kind %s", b.Kind)
		}
		if len(b.Succs) > 2 && b.Likely != BranchUnknown {
			return bad(b, nil, "likeliness prediction %d for block with %d successors", b.Likely, len(b.Succs))
		}
	}

	valueMark := make([]bool, f.NumValues())
	uses := make([]int32, f.NumValues())
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			if v.ID <= 0 || int(v.ID) >= len(valueMark) {
				return bad(b, v, "value ID out of range")
			}
			if valueMark[v.ID] {
				return bad(b, v, "value ID used more than once")
			}
			valueMark[v.ID] = true
			if v.Block != b {
				return bad(b, v, "value claims to be in %v", v.Block)
			}
			if v.Op <= OpInvalid || v.Op >= opLast {
				return bad(b, v, "invalid opcode")
			}
			if n := opcodeTable[v.Op].argLen; n >= 0 && int(n) != len(v.Args) {
				return bad(b, v, "has %d args, want %d", len(v.Args), n)
			}
			if v.Op == OpPhi && len(v.Args) != len(b.Preds) {
				return bad(b, v, "phi has %d args, block has %d predecessors", len(v.Args), len(b.Preds))
			}
			if opcodeTable[v.Op].cmp {
				p := v.Predicate()
				if p == PredNone || p.isFloat() != (v.Op == OpFCmp) {
					return bad(b, v, "comparison has predicate %v", v.Aux)
				}
			}
			for i, a := range v.Args {
				if a == nil {
					return bad(b, v, "arg %d is nil", i)
				}
				if a.isVoid() {
					return bad(b, v, "arg %d (%v) produces no value", i, a)
				}
			}
		}
	}

	for _, b := range f.Blocks {
		for _, v := range b.Values {
			for _, a := range v.Args {
				if int(a.ID) >= len(valueMark) || !valueMark[a.ID] {
					return bad(b, v, "arg %v is not a value of the function", a)
				}
				uses[a.ID]++
			}
		}
		for _, c := range b.ControlValues() {
			if int(c.ID) >= len(valueMark) || !valueMark[c.ID] {
				return bad(b, nil, "control value %v is not a value of the function", c)
			}
			uses[c.ID]++
		}
	}
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			if v.Uses != uses[v.ID] {
				return bad(b, v, "has %d uses, but has Uses=%d", uses[v.ID], v.Uses)
			}
		}
	}
	return nil
}

// CheckDominance checks that every use in f is dominated by the value's
// definition. A phi's argument must be defined in a block that dominates
// the matching predecessor. Order within a block is not checked, and
// neither are unreachable blocks. CheckFunc must have accepted f.
func CheckDominance(f *Func) error {
	sdom := f.Sdom()
	reachable := make([]bool, f.NumBlocks())
	for _, b := range f.postorder() {
		reachable[b.ID] = true
	}
	for _, b := range f.Blocks {
		if !reachable[b.ID] {
			continue
		}
		for _, v := range b.Values {
			for i, a := range v.Args {
				at := b
				if v.Op == OpPhi {
					at = b.Preds[i].b
					if !reachable[at.ID] {
						continue
					}
				}
				if !sdom.IsAncestorEq(a.Block, at) {
					return malformed(f, b, v, "arg %d (%v) is defined in %v, which does not dominate %v", i, a, a.Block, at)
				}
			}
		}
		for _, c := range b.ControlValues() {
			if !sdom.IsAncestorEq(c.Block, b) {
				return malformed(f, b, nil, "control value %v is defined in %v, which does not dominate %v", c, c.Block, b)
			}
		}
	}
	return nil
}

func malformed(f *Func, b *Block, v *Value, msg string, args ...any) error {
	return errors.WithStack(&MalformedError{Func: f.Name, Block: b, Value: v, Msg: fmt.Sprintf(msg, args...)})
}

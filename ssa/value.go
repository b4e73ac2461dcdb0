// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

import (
	"fmt"
	"math"
	"strings"
)

// A Value represents a value in the SSA representation of the program.
// The ID and Type fields must not be modified. The remainder may be modified
// if they preserve the value of the Value (e.g. changing a (mul 2 x) to an (add x x)).
type Value struct {
	// A unique identifier for the value. For performance we allocate these IDs
	// densely starting at 1.  There is no guarantee that there won't be occasional holes, though.
	ID ID

	// The operation that computes this value. See op.go.
	Op Op

	// The type of this value.
	Type Type

	// Auxiliary info for this value. The type of this information depends on the opcode.
	AuxInt int64
	Aux    any

	// Arguments of this value
	Args []*Value

	// Containing basic block
	Block *Block

	// Count of uses of this value by other values and by block controls.
	Uses int32
}

// ID is the identifier of a Block or Value.
type ID int32

func (v *Value) String() string {
	if v == nil {
		return "nil" // should never happen, but not panicking helps with debugging
	}
	return fmt.Sprintf("v%d", v.ID)
}

// LongString returns the long form of v, e.g. "v4 = Cmp <bool> {lt} v2 v3".
func (v *Value) LongString() string {
	var s strings.Builder
	fmt.Fprintf(&s, "v%d = %s <%s>", v.ID, v.Op, v.Type)
	switch v.Op {
	case OpConstInt:
		fmt.Fprintf(&s, " [%d]", v.AuxInt)
	case OpConstFloat:
		fmt.Fprintf(&s, " [%g]", v.AuxFloat())
	}
	if v.Aux != nil {
		fmt.Fprintf(&s, " {%v}", v.Aux)
	}
	for _, a := range v.Args {
		fmt.Fprintf(&s, " %v", a)
	}
	return s.String()
}

// AuxFloat returns the floating-point constant held by an OpConstFloat.
func (v *Value) AuxFloat() float64 {
	if v.Op != OpConstFloat {
		v.Fatalf("op %s doesn't have a float aux field", v.Op)
	}
	return math.Float64frombits(uint64(v.AuxInt))
}

// Predicate returns the comparison predicate of an OpCmp or OpFCmp value,
// and PredNone for any other value.
func (v *Value) Predicate() Predicate {
	if p, ok := v.Aux.(Predicate); ok && opcodeTable[v.Op].cmp {
		return p
	}
	return PredNone
}

func (v *Value) AddArg(w *Value) {
	v.Args = append(v.Args, w)
	w.Uses++
}

func (v *Value) AddArgs(a ...*Value) {
	v.Args = append(v.Args, a...)
	for _, x := range a {
		x.Uses++
	}
}

func (v *Value) SetArg(i int, w *Value) {
	v.Args[i].Uses--
	v.Args[i] = w
	w.Uses++
}

func (v *Value) resetArgs() {
	for _, a := range v.Args {
		a.Uses--
	}
	v.Args = v.Args[:0]
}

// isVoid reports whether v produces no value that other values can consume.
func (v *Value) isVoid() bool {
	return opcodeTable[v.Op].void || v.Type == TypeVoid
}

// isZeroInt reports whether v is the integer constant 0.
func (v *Value) isZeroInt() bool {
	return v.Op == OpConstInt && v.AuxInt == 0
}

func (v *Value) Fatalf(msg string, args ...any) {
	v.Block.Func.Fatalf(msg, args...)
}

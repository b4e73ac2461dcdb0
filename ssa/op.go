// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

import "fmt"

// An Op encodes the specific operation that a Value performs.
// The set is closed; every switch over Op in this package is exhaustive.
type Op int16

const (
	OpInvalid Op = iota

	OpArg        // function parameter or other value defined outside the function
	OpConstInt   // AuxInt holds the constant
	OpConstFloat // AuxInt holds math.Float64bits of the constant
	OpConstNil   // the nil pointer
	OpPhi        // Args[i] flows in along Preds[i]
	OpLoad       // load from address Args[0]
	OpStore      // store Args[1] to address Args[0]; produces no value
	OpAddr       // address computation: base Args[0] plus indices Args[1:]
	OpCmp        // integer or pointer comparison of Args[0] and Args[1]; Aux is a Predicate
	OpFCmp       // floating-point comparison of Args[0] and Args[1]; Aux is a Predicate
	OpCall       // call; Aux is the callee name, Args are the arguments
	OpArith      // any other computation on Args; Aux names it
	OpCopy       // Args[0]

	opLast
)

type opInfo struct {
	name   string
	argLen int32 // number of arguments, if -1, then this operation has a variable number of arguments
	void   bool  // produces no value
	call   bool  // is a function call
	cmp    bool  // is a comparison
}

var opcodeTable = [...]opInfo{
	OpInvalid:    {name: "Invalid", argLen: 0},
	OpArg:        {name: "Arg", argLen: 0},
	OpConstInt:   {name: "ConstInt", argLen: 0},
	OpConstFloat: {name: "ConstFloat", argLen: 0},
	OpConstNil:   {name: "ConstNil", argLen: 0},
	OpPhi:        {name: "Phi", argLen: -1},
	OpLoad:       {name: "Load", argLen: 1},
	OpStore:      {name: "Store", argLen: 2, void: true},
	OpAddr:       {name: "Addr", argLen: -1},
	OpCmp:        {name: "Cmp", argLen: 2, cmp: true},
	OpFCmp:       {name: "FCmp", argLen: 2, cmp: true},
	OpCall:       {name: "Call", argLen: -1, call: true},
	OpArith:      {name: "Arith", argLen: -1},
	OpCopy:       {name: "Copy", argLen: 1},
}

func (o Op) String() string {
	if o < 0 || o >= opLast {
		return fmt.Sprintf("Op(%d)", int16(o))
	}
	return opcodeTable[o].name
}

// isConst reports whether o produces a compile-time constant.
func (o Op) isConst() bool {
	switch o {
	case OpConstInt, OpConstFloat, OpConstNil:
		return true
	}
	return false
}

// A Predicate is the condition tested by an OpCmp or OpFCmp value.
type Predicate int8

const (
	PredNone Predicate = iota

	// Signed integer and pointer predicates.
	PredEQ
	PredNE
	PredLT
	PredLE
	PredGT
	PredGE

	// Ordered floating-point predicates.
	PredOEQ
	PredONE
	PredOLT
	PredOLE
	PredOGT
	PredOGE
)

var predicateNames = [...]string{
	PredNone: "none",
	PredEQ:   "eq",
	PredNE:   "ne",
	PredLT:   "lt",
	PredLE:   "le",
	PredGT:   "gt",
	PredGE:   "ge",
	PredOEQ:  "oeq",
	PredONE:  "one",
	PredOLT:  "olt",
	PredOLE:  "ole",
	PredOGT:  "ogt",
	PredOGE:  "oge",
}

func (p Predicate) String() string {
	if p < 0 || int(p) >= len(predicateNames) {
		return fmt.Sprintf("Predicate(%d)", int8(p))
	}
	return predicateNames[p]
}

// isFloat reports whether p is one of the floating-point predicates.
func (p Predicate) isFloat() bool {
	return p >= PredOEQ && p <= PredOGE
}

// A Type is the coarse type of a Value. The heuristics only need to
// tell pointers, integers and floats apart, and void from non-void.
type Type int8

const (
	TypeVoid Type = iota
	TypeMem
	TypeBool
	TypeInt
	TypeFloat
	TypePtr
)

var typeNames = [...]string{
	TypeVoid:  "void",
	TypeMem:   "mem",
	TypeBool:  "bool",
	TypeInt:   "int",
	TypeFloat: "float",
	TypePtr:   "ptr",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int8(t))
	}
	return typeNames[t]
}

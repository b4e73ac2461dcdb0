// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

import (
	"fmt"
	"strings"
)

// A Func represents a Go func declaration (or function literal) and its body.
// This package compiles each Func independently.
// Funcs are single-threaded.
type Func struct {
	Config *Config // architecture-independent pass configuration
	Name   string  // e.g. NewFunc or (*Func).NumBlocks (no package prefix)

	Blocks []*Block // unordered set of all basic blocks (note: not indexable by ID)
	Entry  *Block   // the entry basic block

	bid idAlloc // block ID allocator
	vid idAlloc // value ID allocator

	cachedPostorder []*Block   // cached postorder traversal
	cachedIdom      []*Block   // cached immediate dominators
	cachedSdom      SparseTree // cached dominator tree
	cachedLoopnest  *loopnest  // cached loop nest information
	cachedSCCs      []SCC      // cached top-level strongly connected components
}

// NewFunc returns a new, empty function object.
// Caller must reset cache before calling NewFunc.
func NewFunc(name string, c *Config) *Func {
	if c == nil {
		c = &Config{}
	}
	return &Func{Name: name, Config: c}
}

// NumBlocks returns an integer larger than the id of any Block in the Func.
func (f *Func) NumBlocks() int {
	return f.bid.num()
}

// NumValues returns an integer larger than the id of any Value in the Func.
func (f *Func) NumValues() int {
	return f.vid.num()
}

// NewBlock allocates a new Block of the given kind and places it at the end of f.Blocks.
func (f *Func) NewBlock(kind BlockKind) *Block {
	b := &Block{
		ID:   f.bid.get(),
		Kind: kind,
		Func: f,
	}
	f.Blocks = append(f.Blocks, b)
	f.invalidateCFG()
	return b
}

// NewValue returns a new value in the block with no arguments.
func (b *Block) NewValue(op Op, t Type, auxint int64, aux any, args ...*Value) *Value {
	v := &Value{
		ID:     b.Func.vid.get(),
		Op:     op,
		Type:   t,
		AuxInt: auxint,
		Aux:    aux,
		Block:  b,
	}
	v.Args = make([]*Value, 0, len(args))
	v.AddArgs(args...)
	b.Values = append(b.Values, v)
	return v
}

// postorder returns the cached postorder of f, computing it if necessary.
func (f *Func) postorder() []*Block {
	if f.cachedPostorder == nil {
		f.cachedPostorder = postorder(f)
	}
	return f.cachedPostorder
}

// Idom returns a map from block ID to the immediate dominator of that block.
// f.Entry.ID maps to nil. Unreachable blocks map to nil as well.
func (f *Func) Idom() []*Block {
	if f.cachedIdom == nil {
		f.cachedIdom = dominators(f)
	}
	return f.cachedIdom
}

// Sdom returns a sparse tree representing the dominator relationships
// among the blocks of f.
func (f *Func) Sdom() SparseTree {
	if f.cachedSdom == nil {
		f.cachedSdom = newSparseTree(f, f.Idom())
	}
	return f.cachedSdom
}

// loopnest returns the loop nest information for f.
func (f *Func) loopnest() *loopnest {
	if f.cachedLoopnest == nil {
		f.cachedLoopnest = loopnestfor(f)
	}
	return f.cachedLoopnest
}

// Loopnest returns the loop structure of f as a LoopInfo.
func (f *Func) Loopnest() LoopInfo {
	return f.loopnest()
}

// sccs returns the cached SCCs for f, computing if necessary.
func (f *Func) sccs() []SCC {
	if f.cachedSCCs == nil {
		f.cachedSCCs = f.computeSCCs()
	}
	return f.cachedSCCs
}

// invalidateCFG tells f that its CFG has changed.
func (f *Func) invalidateCFG() {
	f.cachedPostorder = nil
	f.cachedIdom = nil
	f.cachedSdom = nil
	f.cachedLoopnest = nil
	f.cachedSCCs = nil
}

// Fatalf reports an internal invariant violation in the pass itself and
// panics. Problems with the input graph are reported as errors instead.
func (f *Func) Fatalf(msg string, args ...any) {
	panic(fmt.Sprintf("internal error: %s: %s", f.Name, fmt.Sprintf(msg, args...)))
}

// Logf writes debug output through the configured logger.
func (f *Func) Logf(msg string, args ...any) {
	f.Config.logger().Logf(msg, args...)
}

// Warnl reports a per-block diagnostic, as -d=ssa/<pass>/debug does in the compiler.
func (f *Func) Warnl(b *Block, msg string, args ...any) {
	f.Config.logger().Warnl(f.Name, b, fmt.Sprintf(msg, args...))
}

// LogStat writes a string key and int value as a warning in a
// tab-separated format easily handled by spreadsheets or awk.
// file names, lines, and function names are included to provide enough (?)
// context to allow item-by-item comparisons across runs.
// For example:
// awk 'BEGIN {FS="\t"} $3~/TIME/{sum+=$4} END{print "t(ns)=",sum}' t.log
func (f *Func) LogStat(key string, args ...any) {
	value := ""
	for _, a := range args {
		value += fmt.Sprintf("\t%v", a)
	}
	f.Logf("%s\t%s%s\t%s", "superblock", key, value, f.Name)
}

// String returns a multi-line dump of f, one block per paragraph.
func (f *Func) String() string {
	var s strings.Builder
	fmt.Fprintf(&s, "%s:\n", f.Name)
	for _, b := range f.Blocks {
		fmt.Fprintf(&s, "  %s: %s\n", b, b.LongString())
		for _, v := range b.Values {
			fmt.Fprintf(&s, "    %s\n", v.LongString())
		}
	}
	return s.String()
}

type idAlloc struct {
	last ID
}

// get allocates an ID and returns it. IDs are always > 0.
func (a *idAlloc) get() ID {
	x := a.last
	x++
	if x == 1<<31-1 {
		panic("too many ids for this function")
	}
	a.last = x
	return x
}

// num returns the maximum ID ever returned + 1.
func (a *idAlloc) num() int {
	return int(a.last + 1)
}

// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gossa lowers functions built by golang.org/x/tools/go/ssa into
// the control flow graphs that the superblock pass works on.
//
// The lowering keeps the block structure and every value, but only as
// much of each value as branch prediction looks at: comparisons keep
// their predicate, dereferences become loads, calls stay calls, and
// everything else becomes a generic computation named after the
// instruction.
package gossa

import (
	"fmt"
	"go/constant"
	"go/token"
	"go/types"
	"math"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/ssa"

	ir "github.com/MeredithBen/SuperblockFormationProject/ssa"
)

// ErrNoBody is returned by Build for functions without Go code, such as
// functions implemented in assembly.
var ErrNoBody = errors.New("function has no body")

// builder holds the state of lowering one function.
type builder struct {
	fn *ssa.Function
	f  *ir.Func

	blocks  []*ir.Block                   // indexed by ssa.BasicBlock.Index
	host    map[*ir.Block]*ssa.BasicBlock // inverse of blocks
	values  map[ssa.Value]*ir.Value
	effects map[ssa.Instruction]*ir.Value // instructions without a result
}

// Build lowers fn into a new function configured by cfg.
// The result has passed ir.CheckFunc.
func Build(fn *ssa.Function, cfg *ir.Config) (*ir.Func, error) {
	if len(fn.Blocks) == 0 {
		return nil, errors.Wrap(ErrNoBody, fn.String())
	}
	b := newBuilder(fn, cfg)
	if err := b.build(); err != nil {
		return nil, errors.Wrapf(err, "lowering %s", fn)
	}
	if err := ir.CheckFunc(b.f); err != nil {
		return nil, errors.Wrapf(err, "lowering %s", fn)
	}
	return b.f, nil
}

func newBuilder(fn *ssa.Function, cfg *ir.Config) *builder {
	var from *types.Package
	if fn.Pkg != nil {
		from = fn.Pkg.Pkg
	}
	return &builder{
		fn:      fn,
		f:       ir.NewFunc(fn.RelString(from), cfg),
		host:    make(map[*ir.Block]*ssa.BasicBlock),
		values:  make(map[ssa.Value]*ir.Value),
		effects: make(map[ssa.Instruction]*ir.Value),
	}
}

func (b *builder) build() error {
	for _, hb := range b.fn.Blocks {
		kind, err := blockKind(hb)
		if err != nil {
			return err
		}
		nb := b.f.NewBlock(kind)
		b.blocks = append(b.blocks, nb)
		b.host[nb] = hb
	}
	b.f.Entry = b.blocks[0]
	for i, hb := range b.fn.Blocks {
		for _, s := range hb.Succs {
			b.blocks[i].AddEdgeTo(b.blocks[s.Index])
		}
	}

	// Values are created before any of them gets its arguments, so that
	// phis and uses ahead of definitions in block order find their
	// operands.
	entry := b.f.Entry
	for _, p := range b.fn.Params {
		b.values[p] = entry.NewValue(ir.OpArg, typeOf(p.Type()), 0, p.Name())
	}
	for _, fv := range b.fn.FreeVars {
		b.values[fv] = entry.NewValue(ir.OpArg, typeOf(fv.Type()), 0, fv.Name())
	}
	for i, hb := range b.fn.Blocks {
		for _, instr := range hb.Instrs {
			b.declare(b.blocks[i], instr)
		}
	}
	for i, hb := range b.fn.Blocks {
		for _, instr := range hb.Instrs {
			b.define(b.blocks[i], instr)
		}
	}
	return nil
}

func blockKind(hb *ssa.BasicBlock) (ir.BlockKind, error) {
	if len(hb.Instrs) == 0 {
		return ir.BlockInvalid, errors.Errorf("block %d is empty", hb.Index)
	}
	switch instr := hb.Instrs[len(hb.Instrs)-1].(type) {
	case *ssa.If:
		return ir.BlockIf, nil
	case *ssa.Jump:
		return ir.BlockPlain, nil
	case *ssa.Return:
		return ir.BlockRet, nil
	case *ssa.Panic:
		return ir.BlockExit, nil
	default:
		return ir.BlockInvalid, errors.Errorf("block %d ends in %s", hb.Index, instrName(instr))
	}
}

// declare creates the value for instr without its arguments.
func (b *builder) declare(nb *ir.Block, instr ssa.Instruction) {
	var (
		op  ir.Op
		t   = ir.TypeVoid
		aux any
	)
	switch instr := instr.(type) {
	case *ssa.If, *ssa.Jump, *ssa.Return, *ssa.DebugRef:
		return
	case *ssa.Phi:
		op = ir.OpPhi
	case *ssa.BinOp:
		op, aux = compareOp(instr)
		if op == ir.OpInvalid {
			op, aux = ir.OpArith, instr.Op.String()
		}
	case *ssa.UnOp:
		switch instr.Op {
		case token.MUL:
			op = ir.OpLoad
		case token.ARROW:
			op, aux = ir.OpCall, "recv"
		default:
			op, aux = ir.OpArith, instr.Op.String()
		}
	case *ssa.FieldAddr, *ssa.IndexAddr:
		op = ir.OpAddr
	case *ssa.Store:
		op = ir.OpStore
	case *ssa.Call:
		op, aux = ir.OpCall, callee(instr.Common())
	case *ssa.Go:
		op, aux = ir.OpCall, "go "+callee(instr.Common())
	case *ssa.Defer:
		op, aux = ir.OpCall, "defer "+callee(instr.Common())
	case *ssa.Panic:
		op, aux = ir.OpCall, "panic"
	case ssa.Value:
		op, aux = ir.OpArith, instrName(instr.(ssa.Instruction))
	default:
		// Side effects without a result, such as map updates and sends.
		op, aux = ir.OpCall, instrName(instr)
	}
	if v, ok := instr.(ssa.Value); ok {
		t = typeOf(v.Type())
	}
	nv := nb.NewValue(op, t, 0, aux)
	if v, ok := instr.(ssa.Value); ok {
		b.values[v] = nv
	} else {
		b.effects[instr] = nv
	}
}

// define gives the value of instr its arguments, and sets the control
// of the block it terminates.
func (b *builder) define(nb *ir.Block, instr ssa.Instruction) {
	switch instr := instr.(type) {
	case *ssa.DebugRef, *ssa.Jump:
	case *ssa.If:
		nb.SetControl(b.lookup(instr.Cond))
	case *ssa.Return:
		switch len(instr.Results) {
		case 0:
		case 1:
			nb.SetControl(b.lookup(instr.Results[0]))
		default:
			// The block's single control stands for all results.
			tuple := nb.NewValue(ir.OpArith, ir.TypeInt, 0, "results")
			for _, r := range instr.Results {
				tuple.AddArg(b.lookup(r))
			}
			nb.SetControl(tuple)
		}
	case *ssa.Phi:
		b.definePhi(nb, instr)
	case *ssa.Call:
		b.defineCall(b.values[instr], instr.Common())
	case *ssa.Go:
		b.defineCall(b.effects[instr], instr.Common())
	case *ssa.Defer:
		b.defineCall(b.effects[instr], instr.Common())
	case *ssa.Store:
		b.effects[instr].AddArgs(b.lookup(instr.Addr), b.lookup(instr.Val))
	case *ssa.FieldAddr:
		field := b.f.Entry.NewValue(ir.OpConstInt, ir.TypeInt, int64(instr.Field), nil)
		b.values[instr].AddArgs(b.lookup(instr.X), field)
	default:
		nv := b.effects[instr]
		if v, ok := instr.(ssa.Value); ok {
			nv = b.values[v]
		}
		if nv == nil {
			return
		}
		var buf [4]*ssa.Value
		for _, op := range instr.Operands(buf[:0]) {
			if op != nil && *op != nil {
				nv.AddArg(b.lookup(*op))
			}
		}
	}
}

// definePhi adds the phi's edges in the order of nb's predecessors, which
// can differ from the host's when a block is reached twice from one
// predecessor or edges were added in another order.
func (b *builder) definePhi(nb *ir.Block, phi *ssa.Phi) {
	hb := b.host[nb]
	seen := make(map[*ssa.BasicBlock]int)
	nv := b.values[phi]
	for _, e := range nb.Preds {
		hp := b.host[e.Block()]
		n := seen[hp]
		seen[hp]++
		for j, p := range hb.Preds {
			if p != hp {
				continue
			}
			if n == 0 {
				nv.AddArg(b.lookup(phi.Edges[j]))
				break
			}
			n--
		}
	}
}

func (b *builder) defineCall(nv *ir.Value, c *ssa.CallCommon) {
	if c.IsInvoke() {
		nv.AddArg(b.lookup(c.Value))
	} else if c.StaticCallee() == nil {
		if _, ok := c.Value.(*ssa.Builtin); !ok {
			nv.AddArg(b.lookup(c.Value))
		}
	}
	for _, a := range c.Args {
		nv.AddArg(b.lookup(a))
	}
}

// lookup returns the value standing for v. Values defined outside the
// function body become arguments of the entry block.
func (b *builder) lookup(v ssa.Value) *ir.Value {
	if nv, ok := b.values[v]; ok {
		return nv
	}
	var nv *ir.Value
	if c, ok := v.(*ssa.Const); ok {
		nv = b.constant(c)
	} else {
		nv = b.f.Entry.NewValue(ir.OpArg, typeOf(v.Type()), 0, v.Name())
	}
	b.values[v] = nv
	return nv
}

func (b *builder) constant(c *ssa.Const) *ir.Value {
	entry := b.f.Entry
	t := typeOf(c.Type())
	if c.Value == nil {
		if t == ir.TypePtr {
			return entry.NewValue(ir.OpConstNil, t, 0, nil)
		}
		return entry.NewValue(ir.OpConstInt, t, 0, nil)
	}
	switch c.Value.Kind() {
	case constant.Bool:
		var n int64
		if constant.BoolVal(c.Value) {
			n = 1
		}
		return entry.NewValue(ir.OpConstInt, ir.TypeBool, n, nil)
	case constant.Int, constant.Float:
		if t == ir.TypeFloat {
			x, _ := constant.Float64Val(constant.ToFloat(c.Value))
			return entry.NewValue(ir.OpConstFloat, t, int64(math.Float64bits(x)), nil)
		}
		if c.Value.Kind() != constant.Int {
			break
		}
		if n, exact := constant.Int64Val(c.Value); exact {
			return entry.NewValue(ir.OpConstInt, t, n, nil)
		}
		// Out of int64 range: only the sign matters to the heuristics.
		n := int64(math.MaxInt64)
		if constant.Sign(c.Value) < 0 {
			n = math.MinInt64
		}
		return entry.NewValue(ir.OpConstInt, t, n, nil)
	}
	return entry.NewValue(ir.OpArg, t, 0, c.Value.ExactString())
}

var predicates = map[token.Token][2]ir.Predicate{
	token.EQL: {ir.PredEQ, ir.PredOEQ},
	token.NEQ: {ir.PredNE, ir.PredONE},
	token.LSS: {ir.PredLT, ir.PredOLT},
	token.LEQ: {ir.PredLE, ir.PredOLE},
	token.GTR: {ir.PredGT, ir.PredOGT},
	token.GEQ: {ir.PredGE, ir.PredOGE},
}

// compareOp returns the comparison and predicate for a comparing BinOp,
// and OpInvalid for any other.
func compareOp(x *ssa.BinOp) (ir.Op, ir.Predicate) {
	p, ok := predicates[x.Op]
	if !ok {
		return ir.OpInvalid, ir.PredNone
	}
	if typeOf(x.X.Type()) == ir.TypeFloat {
		return ir.OpFCmp, p[1]
	}
	return ir.OpCmp, p[0]
}

func callee(c *ssa.CallCommon) string {
	switch {
	case c.IsInvoke():
		return c.Method.Name()
	case c.StaticCallee() != nil:
		return c.StaticCallee().String()
	}
	return c.Value.Name()
}

// typeOf maps a Go type to the coarse type of a value. Types that can be
// compared with nil are pointers.
func typeOf(t types.Type) ir.Type {
	switch u := t.Underlying().(type) {
	case *types.Basic:
		switch {
		case u.Info()&types.IsBoolean != 0:
			return ir.TypeBool
		case u.Info()&types.IsFloat != 0:
			return ir.TypeFloat
		case u.Kind() == types.UnsafePointer, u.Kind() == types.UntypedNil:
			return ir.TypePtr
		}
	case *types.Pointer, *types.Slice, *types.Map, *types.Chan, *types.Signature, *types.Interface:
		return ir.TypePtr
	case *types.Tuple:
		if u.Len() == 0 {
			return ir.TypeVoid
		}
	}
	return ir.TypeInt
}

func instrName(instr ssa.Instruction) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", instr), "*ssa.")
}

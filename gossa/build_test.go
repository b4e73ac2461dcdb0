// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gossa

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"slices"
	"testing"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	ir "github.com/MeredithBen/SuperblockFormationProject/ssa"
)

const src = `package p

type T struct{ n int }

func (t *T) Inc(d int) {
	if d > 0 {
		t.n += d
	}
}

func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func Pos(x float64) bool {
	if x > 0 {
		return true
	}
	return false
}

func Deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func Must(x int) int {
	if x < 0 {
		panic("negative")
	}
	return x
}

func Sum(n int) int {
	s := 0
	for i := 0; i < n; i++ {
		s += i
	}
	return s
}

func DivMod(a, b int) (int, int) {
	return a / b, a % b
}

func Apply(xs []int) int {
	f := func(x int) int {
		if x < 0 {
			return 0
		}
		return x
	}
	s := 0
	for _, x := range xs {
		s += f(x)
	}
	return s
}

func Classify(xs []int) (neg, zero, pos int) {
	for _, x := range xs {
		switch {
		case x < 0:
			neg++
			continue
		case x == 0:
			zero++
		default:
			if x > 100 {
				break
			}
			pos++
		}
	}
	return
}

func ext(x int) int
`

func buildPackage(t *testing.T) *ssa.Package {
	t.Helper()
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "p.go", src, 0)
	if err != nil {
		t.Fatal(err)
	}
	conf := &types.Config{Importer: importer.Default()}
	pkg, _, err := ssautil.BuildPackage(conf, fset, types.NewPackage("p", ""), []*ast.File{file}, ssa.SanityCheckFunctions)
	if err != nil {
		t.Fatal(err)
	}
	return pkg
}

func buildFunc(t *testing.T, name string) *ir.Func {
	t.Helper()
	fn := buildPackage(t).Func(name)
	if fn == nil {
		t.Fatalf("no function %s", name)
	}
	f, err := Build(fn, nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	return f
}

func findValue(f *ir.Func, op ir.Op) *ir.Value {
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			if v.Op == op {
				return v
			}
		}
	}
	return nil
}

func TestBuildCompare(t *testing.T) {
	f := buildFunc(t, "Abs")
	if f.Name != "Abs" || len(f.Blocks) != 3 {
		t.Fatalf("%s has %d blocks, want 3:\n%s", f.Name, len(f.Blocks), f)
	}
	if f.Entry.Kind != ir.BlockIf {
		t.Fatalf("entry is %s, want If", f.Entry.Kind)
	}
	c := f.Entry.Controls[0]
	if c.Op != ir.OpCmp || c.Predicate() != ir.PredLT {
		t.Errorf("condition = %s, want Cmp lt", c.LongString())
	}
	if x := c.Args[0]; x.Op != ir.OpArg || x.Aux != "x" || x.Type != ir.TypeInt {
		t.Errorf("compared %s, want the parameter x", x.LongString())
	}
	if z := c.Args[1]; z.Op != ir.OpConstInt || z.AuxInt != 0 {
		t.Errorf("compared with %s, want 0", z.LongString())
	}
	neg := f.Entry.Succs[0].Block()
	if neg.Kind != ir.BlockRet || neg.Controls[0].Op != ir.OpArith || neg.Controls[0].Aux != "-" {
		t.Errorf("then branch = %s, want return -x", neg.LongString())
	}
}

func TestBuildFloatCompare(t *testing.T) {
	f := buildFunc(t, "Pos")
	c := f.Entry.Controls[0]
	if c.Op != ir.OpFCmp || c.Predicate() != ir.PredOGT {
		t.Fatalf("condition = %s, want FCmp ogt", c.LongString())
	}
	if z := c.Args[1]; z.Op != ir.OpConstFloat || z.AuxFloat() != 0 {
		t.Errorf("compared with %s, want 0.0", z.LongString())
	}
}

func TestBuildNilCheck(t *testing.T) {
	f := buildFunc(t, "Deref")
	c := f.Entry.Controls[0]
	if c.Op != ir.OpCmp || c.Predicate() != ir.PredEQ {
		t.Fatalf("condition = %s, want Cmp eq", c.LongString())
	}
	p := c.Args[0]
	if p.Type != ir.TypePtr || c.Args[1].Op != ir.OpConstNil {
		t.Errorf("condition = %s, want a pointer compared with nil", c.LongString())
	}
	load := findValue(f, ir.OpLoad)
	if load == nil || load.Args[0] != p {
		t.Errorf("no load from %v in\n%s", p, f)
	}
}

func TestBuildPanic(t *testing.T) {
	f := buildFunc(t, "Must")
	var exit *ir.Block
	for _, b := range f.Blocks {
		if b.Kind == ir.BlockExit {
			exit = b
		}
	}
	if exit == nil {
		t.Fatalf("no exit block in\n%s", f)
	}
	call := exit.Values[len(exit.Values)-1]
	if call.Op != ir.OpCall || call.Aux != "panic" || len(call.Args) != 1 {
		t.Errorf("exit block ends in %s, want the panic call", call.LongString())
	}
}

func TestBuildResults(t *testing.T) {
	f := buildFunc(t, "DivMod")
	r := f.Entry.Controls[0]
	if f.Entry.Kind != ir.BlockRet || r.Aux != "results" || len(r.Args) != 2 {
		t.Errorf("DivMod returns %s, want both results", r.LongString())
	}
}

func TestBuildLoop(t *testing.T) {
	f := buildFunc(t, "Sum")
	var h *ir.Block
	for _, b := range f.Blocks {
		if b.Kind == ir.BlockIf {
			h = b
		}
	}
	if h == nil {
		t.Fatalf("no loop condition in\n%s", f)
	}
	if l := f.Loopnest().LoopFor(h); l == nil || l.Header != h {
		t.Fatalf("%v is not a loop header", h)
	}
	phis := 0
	for _, v := range h.Values {
		if v.Op != ir.OpPhi {
			continue
		}
		phis++
		for k, e := range h.Preds {
			a := v.Args[k]
			if e.Block() == f.Entry {
				if a.Op != ir.OpConstInt || a.AuxInt != 0 {
					t.Errorf("%s: from entry %s, want 0", v.LongString(), a.LongString())
				}
			} else if a.Op != ir.OpArith || a.Aux != "+" {
				t.Errorf("%s: from %v %s, want an increment", v.LongString(), e.Block(), a.LongString())
			}
		}
	}
	if phis != 2 {
		t.Errorf("header has %d phis, want 2 (s and i)", phis)
	}

	res, err := ir.Run(f)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(res.Traces) == 0 || res.Traces[0][0] != h {
		t.Errorf("first trace %v does not start at the loop header %v", res.Traces, h)
	}
	if res.Accuracy.Branches != 1 {
		t.Errorf("evaluated %d branches, want 1", res.Accuracy.Branches)
	}
}

func TestPhiArgsFollowPreds(t *testing.T) {
	for _, name := range []string{"Sum", "Apply", "Classify"} {
		fn := buildPackage(t).Func(name)
		b := newBuilder(fn, nil)
		if err := b.build(); err != nil {
			t.Fatal(err)
		}
		if err := ir.CheckFunc(b.f); err != nil {
			t.Fatalf("%s: %+v", name, err)
		}
		for _, hb := range fn.Blocks {
			nb := b.blocks[hb.Index]
			for _, instr := range hb.Instrs {
				phi, ok := instr.(*ssa.Phi)
				if !ok {
					continue
				}
				nv := b.values[phi]
				for k, e := range nb.Preds {
					hp := b.host[e.Block()]
					if n := countPreds(hb, hp); n != 1 {
						continue
					}
					j := slices.Index(hb.Preds, hp)
					if want := b.values[phi.Edges[j]]; nv.Args[k] != want {
						t.Errorf("%s: %s arg %d = %v, want %v from %v", name, nv.LongString(), k, nv.Args[k], want, hp)
					}
				}
			}
		}
	}
}

func countPreds(hb, p *ssa.BasicBlock) int {
	n := 0
	for _, q := range hb.Preds {
		if q == p {
			n++
		}
	}
	return n
}

func TestBuildNoBody(t *testing.T) {
	fn := buildPackage(t).Func("ext")
	if _, err := Build(fn, nil); !errors.Is(err, ErrNoBody) {
		t.Errorf("Build(ext) = %v, want ErrNoBody", err)
	}
}

func TestRunPackage(t *testing.T) {
	r, err := RunPackage(buildPackage(t), nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	var names []string
	var a ir.Accuracy
	for _, fr := range r.Funcs {
		names = append(names, fr.Name)
		if err := ir.CheckFunc(fr.Func); err != nil {
			t.Errorf("%s after the pass: %v", fr.Name, err)
		} else if err := ir.CheckDominance(fr.Func); err != nil {
			t.Errorf("%s after the pass: %v", fr.Name, err)
		}
		a.Branches += fr.Result.Accuracy.Branches
		a.Hits += fr.Result.Accuracy.Hits
	}
	want := []string{"(*T).Inc", "Abs", "Apply", "Apply$1", "Classify", "Deref", "DivMod", "Must", "Pos", "Sum"}
	if !slices.Equal(names, want) {
		t.Errorf("functions = %v, want %v", names, want)
	}
	if r.Accuracy.Branches != a.Branches || r.Accuracy.Hits != a.Hits || a.Branches == 0 {
		t.Errorf("package accuracy %+v does not sum %+v", r.Accuracy, a)
	}
	if _, ok := r.Accuracy.Ratio(); !ok {
		t.Errorf("package accuracy is not defined")
	}
}

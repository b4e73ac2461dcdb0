// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

import (
	"fmt"
	"testing"
)

// buildLinearChain returns entry -> b0 -> ... -> bN-1 -> exit, where each
// block adds to a value defined three blocks earlier.
func buildLinearChain(tb testing.TB, n int) *Func {
	blocs := []bloc{Bloc("entry",
		Valu("base", OpConstInt, TypeInt, 42, nil),
		Goto("b0"))}
	for i := 0; i < n; i++ {
		next := fmt.Sprintf("b%d", i+1)
		if i == n-1 {
			next = "exit"
		}
		src := "base"
		if i >= 3 {
			src = fmt.Sprintf("v%d", i-3)
		}
		blocs = append(blocs, Bloc(fmt.Sprintf("b%d", i),
			Valu(fmt.Sprintf("v%d", i), OpArith, TypeInt, 0, "add", src, "base"),
			Goto(next)))
	}
	blocs = append(blocs, Bloc("exit", Ret(fmt.Sprintf("v%d", n-1))))
	return testConfig(tb).Fun("entry", blocs...).f
}

// buildDiamondChain creates N diamonds in a row. Each diamond's likely
// arm and join lie on the hot path, and each join is also entered from
// the unlikely arm, so the hot trace has a side entrance at every join:
//
//	d0 -> l0 -> j0 -> d1 -> l1 -> j1 -> ... -> exit
//	  \-> r0 --^  \-> r1 --^
func buildDiamondChain(tb testing.TB, n int) *Func {
	blocs := []bloc{Bloc("entry",
		Valu("x", OpArg, TypeInt, 0, nil),
		Valu("limit", OpArg, TypeInt, 0, nil),
		Valu("one", OpConstInt, TypeInt, 1, nil),
		Goto("d0"))}
	prev := "x"
	for i := 0; i < n; i++ {
		name := func(s string) string { return fmt.Sprintf("%s%d", s, i) }
		next := fmt.Sprintf("d%d", i+1)
		if i == n-1 {
			next = "exit"
		}
		blocs = append(blocs,
			Bloc(name("d"),
				Valu(name("cmp"), OpCmp, TypeBool, 0, PredLT, prev, "limit"),
				If(name("cmp"), name("l"), name("r"))),
			Bloc(name("l"),
				Valu(name("vl"), OpArith, TypeInt, 0, "add", prev, "one"),
				Goto(name("j"))),
			Bloc(name("r"),
				Valu(name("vr"), OpArith, TypeInt, 0, "sub", prev, "one"),
				Goto(name("j"))),
			Bloc(name("j"),
				Valu(name("phi"), OpPhi, TypeInt, 0, nil, name("vl"), name("vr")),
				Goto(next)))
		prev = name("phi")
	}
	blocs = append(blocs, Bloc("exit", Ret(prev)))
	return testConfig(tb).Fun("entry", blocs...).f
}

// buildSimpleLoop returns a counted loop whose body is a chain of n blocks.
// The last body block jumps back to the header.
func buildSimpleLoop(tb testing.TB, n int) *Func {
	blocs := []bloc{
		Bloc("entry",
			Valu("zero", OpConstInt, TypeInt, 0, nil),
			Valu("one", OpConstInt, TypeInt, 1, nil),
			Valu("limit", OpConstInt, TypeInt, 100, nil),
			Goto("header")),
		Bloc("header",
			Valu("i", OpPhi, TypeInt, 0, nil, "zero", "next"),
			Valu("cmp", OpCmp, TypeBool, 0, PredLT, "i", "limit"),
			If("cmp", "body0", "exit")),
	}
	acc := "i"
	for j := 0; j < n; j++ {
		vals := []any{Valu(fmt.Sprintf("t%d", j), OpArith, TypeInt, 0, "add", acc, "one")}
		acc = fmt.Sprintf("t%d", j)
		if j < n-1 {
			vals = append(vals, Goto(fmt.Sprintf("body%d", j+1)))
		} else {
			vals = append(vals,
				Valu("next", OpArith, TypeInt, 0, "add", "i", "one"),
				Goto("header"))
		}
		blocs = append(blocs, Bloc(fmt.Sprintf("body%d", j), vals...))
	}
	blocs = append(blocs, Bloc("exit", Exit()))
	return testConfig(tb).Fun("entry", blocs...).f
}

// buildNestedLoops returns depth counted loops nested inside each other.
// Loop k's header falls into loop k+1's header, or into the body for the
// innermost loop, and exits to loop k-1's latch, or to exit for the
// outermost one. The body sums every induction variable.
func buildNestedLoops(tb testing.TB, depth int) *Func {
	depth = max(depth, 1)
	entry := []any{
		Valu("one", OpConstInt, TypeInt, 1, nil),
		Valu("limit", OpConstInt, TypeInt, 10, nil),
	}
	var blocs []bloc
	for k := 1; k <= depth; k++ {
		entry = append(entry, Valu(fmt.Sprintf("init%d", k), OpConstInt, TypeInt, 0, nil))
		in, out := "body", "exit"
		if k < depth {
			in = fmt.Sprintf("h%d", k+1)
		}
		if k > 1 {
			out = fmt.Sprintf("latch%d", k-1)
		}
		iv, inc, cmp := fmt.Sprintf("i%d", k), fmt.Sprintf("inc%d", k), fmt.Sprintf("cmp%d", k)
		blocs = append(blocs,
			Bloc(fmt.Sprintf("h%d", k),
				Valu(iv, OpPhi, TypeInt, 0, nil, fmt.Sprintf("init%d", k), inc),
				Valu(cmp, OpCmp, TypeBool, 0, PredLT, iv, "limit"),
				If(cmp, in, out)),
			Bloc(fmt.Sprintf("latch%d", k),
				Valu(inc, OpArith, TypeInt, 0, "add", iv, "one"),
				Goto(fmt.Sprintf("h%d", k))))
	}
	entry = append(entry, Goto("h1"))

	var body []any
	sum := "i1"
	for k := 2; k <= depth; k++ {
		body = append(body, Valu(fmt.Sprintf("sum%d", k), OpArith, TypeInt, 0, "add", sum, fmt.Sprintf("i%d", k)))
		sum = fmt.Sprintf("sum%d", k)
	}
	body = append(body,
		Valu("result", OpArith, TypeInt, 0, "add", sum, "one"),
		Goto(fmt.Sprintf("latch%d", depth)))

	blocs = append([]bloc{Bloc("entry", entry...)}, blocs...)
	blocs = append(blocs, Bloc("body", body...), Bloc("exit", Exit()))
	return testConfig(tb).Fun("entry", blocs...).f
}

// buildIrreducibleSimple returns a two-block cycle B <-> C that the entry
// can enter at either block.
func buildIrreducibleSimple(tb testing.TB) *Func {
	return testConfig(tb).Fun("entry",
		Bloc("entry",
			Valu("v0", OpConstInt, TypeInt, 0, nil),
			Valu("v1", OpConstInt, TypeInt, 1, nil),
			Valu("p", OpArg, TypeBool, 0, nil),
			If("p", "B", "C")),
		Bloc("B",
			Valu("xb", OpPhi, TypeInt, 0, nil, "v0", "vc"),
			Valu("vb", OpArith, TypeInt, 0, "add", "xb", "v1"),
			Valu("cb", OpCmp, TypeBool, 0, PredLT, "vb", "v1"),
			If("cb", "C", "exit")),
		Bloc("C",
			Valu("xc", OpPhi, TypeInt, 0, nil, "v1", "vb"),
			Valu("vc", OpArith, TypeInt, 0, "add", "xc", "v1"),
			Valu("cc", OpCmp, TypeBool, 0, PredLT, "vc", "v1"),
			If("cc", "B", "exit")),
		Bloc("exit", Exit())).f
}

// buildIrreducibleLoop returns a cycle N1 -> N2 -> ... -> Nn -> N1 that the
// entry can enter at N1 or N2. Every node may leave to exit.
func buildIrreducibleLoop(tb testing.TB, n int) *Func {
	n = max(n, 2)
	blocs := []bloc{Bloc("entry",
		Valu("zero", OpConstInt, TypeInt, 0, nil),
		Valu("one", OpConstInt, TypeInt, 1, nil),
		Valu("limit", OpConstInt, TypeInt, 100, nil),
		Valu("p", OpArg, TypeBool, 0, nil),
		If("p", "N1", "N2"))}
	for i := 1; i <= n; i++ {
		v, cmp := fmt.Sprintf("v%d", i), fmt.Sprintf("cmp%d", i)
		next := fmt.Sprintf("N%d", i%n+1)
		in := fmt.Sprintf("v%d", i-1)
		var vals []any
		// N1 and N2 are also entered from the entry block.
		if i <= 2 {
			in = fmt.Sprintf("x%d", i)
			init, back := "zero", fmt.Sprintf("v%d", n)
			if i == 2 {
				init, back = "one", "v1"
			}
			vals = append(vals, Valu(in, OpPhi, TypeInt, 0, nil, init, back))
		}
		vals = append(vals,
			Valu(v, OpArith, TypeInt, 0, "add", in, "one"),
			Valu(cmp, OpCmp, TypeBool, 0, PredLT, v, "limit"),
			If(cmp, next, "exit"))
		blocs = append(blocs, Bloc(fmt.Sprintf("N%d", i), vals...))
	}
	blocs = append(blocs, Bloc("exit", Exit()))
	return testConfig(tb).Fun("entry", blocs...).f
}

var passBuilders = []struct {
	name  string
	build func(testing.TB) *Func
}{
	{"Acyclic_500", func(tb testing.TB) *Func { return buildLinearChain(tb, 500) }},
	{"Diamonds_10", func(tb testing.TB) *Func { return buildDiamondChain(tb, 10) }},
	{"Diamonds_100", func(tb testing.TB) *Func { return buildDiamondChain(tb, 100) }},
	{"Loop_10", func(tb testing.TB) *Func { return buildSimpleLoop(tb, 10) }},
	{"Loop_100", func(tb testing.TB) *Func { return buildSimpleLoop(tb, 100) }},
	{"Nested_3", func(tb testing.TB) *Func { return buildNestedLoops(tb, 3) }},
	{"Nested_10", func(tb testing.TB) *Func { return buildNestedLoops(tb, 10) }},
	{"Irreducible_Simple", buildIrreducibleSimple},
	{"Irreducible_Loop10", func(tb testing.TB) *Func { return buildIrreducibleLoop(tb, 10) }},
}

// TestPassOnBuilders runs the whole pass over every builder and checks
// the properties that must hold for any input.
func TestPassOnBuilders(t *testing.T) {
	for _, bb := range passBuilders {
		t.Run(bb.name, func(t *testing.T) {
			f := bb.build(t)
			mustCheck(t, f)
			n := len(f.Blocks)

			res, err := Run(f)
			if err != nil {
				t.Fatalf("%+v", err)
			}
			mustCheckSSA(t, f)

			covered := 0
			for _, tr := range res.Traces {
				covered += len(tr)
			}
			if covered != n {
				t.Errorf("traces cover %d of %d blocks", covered, n)
			}
			if len(f.Blocks) != n+res.Clones {
				t.Errorf("function has %d blocks, want %d + %d clones", len(f.Blocks), n, res.Clones)
			}
			if (res.Clones == 0) != (res.Preserved == PreserveAll) {
				t.Errorf("%d clones, but Preserved = %v", res.Clones, res.Preserved)
			}
			checkSingleEntry(t, res.Superblocks)
			for _, sb := range res.Superblocks {
				checkCopiesRepaired(t, sb)
			}
			if r, ok := res.Accuracy.Ratio(); ok && (r < 0 || r > 1) {
				t.Errorf("accuracy %v out of range", r)
			}
		})
	}
}

func TestDiamondChainDuplicatesHotPath(t *testing.T) {
	f := buildDiamondChain(t, 4)
	res, err := Run(f)
	if err != nil {
		t.Fatal(err)
	}
	// The hot trace is entry d0 l0 j0 d1 l1 j1 ... exit; it is entered
	// from r0 at j0, so everything from j0 on is copied once.
	hot := res.Superblocks[0]
	if got, want := len(hot.Trace), 3*4+2; got != want {
		t.Fatalf("hot trace %s has %d blocks, want %d", hot.Trace, got, want)
	}
	if got, want := len(hot.Clones), len(hot.Trace)-3; got != want {
		t.Errorf("copied %d blocks, want %d", got, want)
	}
	if res.Clones != len(hot.Clones) {
		t.Errorf("other traces were duplicated too: %d clones", res.Clones)
	}
}

func BenchmarkSuperblock(b *testing.B) {
	for _, bb := range passBuilders {
		b.Run(bb.name, func(b *testing.B) {
			benchmarkPass(b, bb.build)
		})
	}
}

func BenchmarkTraces(b *testing.B) {
	for _, bb := range passBuilders {
		b.Run(bb.name, func(b *testing.B) {
			f := bb.build(b)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				p := NewPredictions(f, nil)
				p.EvaluateFunc()
				if _, err := FormTraces(f, p, nil, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func benchmarkPass(b *testing.B, build func(testing.TB) *Func) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		f := build(b)
		b.StartTimer()
		if _, err := Run(f); err != nil {
			b.Fatal(err)
		}
	}
}

// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gossa

import (
	"go/types"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/tools/go/ssa"

	ir "github.com/MeredithBen/SuperblockFormationProject/ssa"
)

// A FuncReport is the outcome of the pass on one function of a package.
type FuncReport struct {
	Name   string
	Func   *ir.Func
	Result *ir.Result
}

// A Report is the outcome of the pass on a package.
type Report struct {
	Funcs []FuncReport // sorted by name

	// Accuracy sums the accuracy of all functions.
	Accuracy ir.Accuracy
}

// RunPackage lowers every function declared in pkg, including methods and
// function literals, and runs the superblock pass on each.
// Functions without a body are skipped.
func RunPackage(pkg *ssa.Package, cfg *ir.Config) (*Report, error) {
	r := &Report{}
	for _, fn := range packageFuncs(pkg) {
		f, err := Build(fn, cfg)
		if errors.Is(err, ErrNoBody) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res, err := ir.Run(f)
		if err != nil {
			return nil, errors.Wrapf(err, "running on %s", f.Name)
		}
		r.Funcs = append(r.Funcs, FuncReport{Name: f.Name, Func: f, Result: res})
		r.Accuracy.Correct += res.Accuracy.Correct
		r.Accuracy.Total += res.Accuracy.Total
		r.Accuracy.Branches += res.Accuracy.Branches
		r.Accuracy.Hits += res.Accuracy.Hits
	}
	sort.Slice(r.Funcs, func(i, j int) bool { return r.Funcs[i].Name < r.Funcs[j].Name })
	return r, nil
}

// packageFuncs returns the source functions of pkg. Synthetic functions
// such as the package initializer and wrappers are left out.
func packageFuncs(pkg *ssa.Package) []*ssa.Function {
	var fns []*ssa.Function
	seen := make(map[*ssa.Function]bool)
	var add func(fn *ssa.Function)
	add = func(fn *ssa.Function) {
		if fn == nil || seen[fn] || fn.Synthetic != "" {
			return
		}
		seen[fn] = true
		fns = append(fns, fn)
		for _, anon := range fn.AnonFuncs {
			add(anon)
		}
	}
	for _, m := range pkg.Members {
		switch m := m.(type) {
		case *ssa.Function:
			add(m)
		case *ssa.Type:
			named, ok := m.Type().(*types.Named)
			if !ok {
				continue
			}
			for i := 0; i < named.NumMethods(); i++ {
				add(pkg.Prog.FuncValue(named.Method(i)))
			}
		}
	}
	return fns
}

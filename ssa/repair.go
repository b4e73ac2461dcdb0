// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

// A useRewrite replaces argument i of v (or, if v is nil, the control of
// block b) with to. from is the value the use referred to before.
type useRewrite struct {
	v        *Value
	b        *Block
	i        int
	from, to *Value
}

func (w useRewrite) current() *Value {
	if w.v == nil {
		return w.b.Controls[0]
	}
	return w.v.Args[w.i]
}

// repairUses restores SSA form after tailDuplicate made clones of one
// trace. Every value of a duplicated block then has two definitions, the
// original and its copy, and each use of the original must refer to the
// one that reaches it. Inside the copies that is always the copy. Where
// control from both copies meets, in the blocks the duplicated region
// exits to, repairUses adds a phi that selects between the two.
//
// The i-th value of a copy matches the i-th value of its origin, so
// repairUses must run on the clones of one trace before anything else
// changes their blocks. All rewrites are collected before any is applied.
// repairUses returns the number of uses that now refer to another value.
func repairUses(clones []*Block) int {
	if len(clones) == 0 {
		return 0
	}
	f := clones[0].Func
	r := &reachingDefs{
		copyOf: make(map[*Value]*Value),
		in:     make(map[*Value]map[*Block]*Value),
	}
	for _, c := range clones {
		o := c.Origin
		if len(o.Values) != len(c.Values) {
			f.Fatalf("copy %v of %v has %d values, want %d", c, o, len(c.Values), len(o.Values))
		}
		for i, v := range o.Values {
			if !v.isVoid() {
				r.copyOf[v] = c.Values[i]
			}
		}
	}

	// Find the uses first; placing phis adds values to blocks.
	var uses []useRewrite
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			for i, a := range v.Args {
				if r.copyOf[a] != nil {
					uses = append(uses, useRewrite{v: v, b: b, i: i, from: a})
				}
			}
		}
		if ctl := b.Controls[0]; ctl != nil && r.copyOf[ctl] != nil {
			uses = append(uses, useRewrite{b: b, from: ctl})
		}
	}

	var work []useRewrite
	for _, u := range uses {
		if u.v != nil && u.v.Op == OpPhi {
			u.to = r.at(u.from, u.b.Preds[u.i].b)
		} else {
			u.to = r.at(u.from, u.b)
		}
		if u.to != u.from {
			work = append(work, u)
		}
	}
	for _, w := range work {
		if w.v == nil {
			w.b.replaceControl(0, w.to)
			continue
		}
		w.v.SetArg(w.i, w.to)
	}
	added := r.removeTrivialPhis(f)

	n := 0
	for _, w := range work {
		if w.current() != w.from {
			n++
		}
	}
	if f.Config.debug() > 1 {
		f.Logf("%s: repaired %d uses in %d copies, %d new phis", f.Name, n, len(clones), added)
	}
	return n
}

// reachingDefs finds, for each duplicated value, which of its two
// definitions reaches a point of the function.
type reachingDefs struct {
	copyOf map[*Value]*Value

	// in[v][b] is the definition of v live on entry to b.
	in     map[*Value]map[*Block]*Value
	placed []*Value // phis added, in order
}

// def returns the definition of v made in b, if any.
func (r *reachingDefs) def(v *Value, b *Block) *Value {
	if b == v.Block {
		return v
	}
	if c := r.copyOf[v]; b == c.Block {
		return c
	}
	return nil
}

// at returns the definition of v live at the end of b, which is also the
// one a non-phi use in b sees.
func (r *reachingDefs) at(v *Value, b *Block) *Value {
	if d := r.def(v, b); d != nil {
		return d
	}
	return r.atEntry(v, b)
}

// atEntry returns the definition of v live on entry to b. It follows
// chains of single predecessors, and places a phi at the first block with
// more than one.
func (r *reachingDefs) atEntry(v *Value, b *Block) *Value {
	in := r.in[v]
	if in == nil {
		in = make(map[*Block]*Value)
		r.in[v] = in
	}
	var chain []*Block
	onChain := make(map[*Block]bool)
	var d *Value
	for d == nil {
		if x, ok := in[b]; ok {
			d = x
			break
		}
		if onChain[b] {
			// A cycle of single predecessors is unreachable.
			d = v
			break
		}
		switch len(b.Preds) {
		case 0:
			// The entry block, or unreachable: neither copy flows in.
			d = v
		case 1:
			chain = append(chain, b)
			onChain[b] = true
			b = b.Preds[0].b
			d = r.def(v, b)
		default:
			d = r.placePhi(v, b, in)
		}
	}
	for _, c := range chain {
		in[c] = d
	}
	return d
}

// placePhi adds a phi for v at the head of b, whose arguments are the
// definitions live at the end of b's predecessors.
func (r *reachingDefs) placePhi(v *Value, b *Block, in map[*Block]*Value) *Value {
	phi := b.newPhi(v.Type)
	in[b] = phi
	r.placed = append(r.placed, phi)
	for _, e := range b.Preds {
		phi.AddArg(r.at(v, e.b))
	}
	return phi
}

// removeTrivialPhis deletes the placed phis that select a single value,
// replacing their uses with that value, until none is left. It returns the
// number of phis that remain.
func (r *reachingDefs) removeTrivialPhis(f *Func) int {
	for changed := true; changed; {
		changed = false
		for i, phi := range r.placed {
			if phi == nil {
				continue
			}
			same := trivialPhiValue(phi)
			if same == nil {
				continue
			}
			replaceUses(f, phi, same)
			phi.Block.removeValue(phi)
			r.placed[i] = nil
			changed = true
		}
	}
	n := 0
	for _, phi := range r.placed {
		if phi != nil {
			n++
		}
	}
	return n
}

// trivialPhiValue returns the only value other than phi itself that phi
// selects, or nil if there are several.
func trivialPhiValue(phi *Value) *Value {
	var same *Value
	for _, a := range phi.Args {
		if a == phi || a == same {
			continue
		}
		if same != nil {
			return nil
		}
		same = a
	}
	return same
}

// replaceUses makes every use of old in f a use of nv.
func replaceUses(f *Func, old, nv *Value) {
	for _, b := range f.Blocks {
		for _, v := range b.Values {
			for i, a := range v.Args {
				if a == old {
					v.SetArg(i, nv)
				}
			}
		}
		if b.Controls[0] == old {
			b.replaceControl(0, nv)
		}
	}
}

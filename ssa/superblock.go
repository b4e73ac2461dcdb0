// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

// tailDuplicate turns trace t into a superblock: a path that can only be
// entered at its first block. It finds the first block of t, after the
// entry, with a predecessor outside t (a side entrance) and copies it and
// every later block of t. The copies are chained to each other the way the
// originals were, and their remaining successor edges leave to the same
// blocks the originals' edges do. Edges from the part of t before the
// copies then move to the copies, so the hot path runs through them and
// nothing outside t reaches them. The originals keep the side entrances.
//
// For example, given the trace [a b c] and a side entrance x -> b:
//
//	a -> b -> c        a -> b' -> c'
//	x ---^        =>   x -> b  -> c
//
// tailDuplicate returns the copies in trace order, or nil if t had no
// side entrance. Values in the copies still refer to the originals'
// values; repairUses fixes that.
func tailDuplicate(t Trace) []*Block {
	if len(t) < 2 {
		return nil
	}
	f := t[0].Func
	pos := make(map[*Block]int, len(t))
	for i, b := range t {
		pos[b] = i
	}

	start := -1
	for i := 1; i < len(t) && start < 0; i++ {
		for _, e := range t[i].Preds {
			if _, ok := pos[e.b]; !ok {
				start = i
				break
			}
		}
	}
	if start < 0 {
		return nil
	}
	// A block of the tail that branches back into the trace before start
	// would, as an original left off the hot path, become a side entrance.
	// Duplicate from there.
	for changed := true; changed; {
		changed = false
		for _, b := range t[start:] {
			for _, e := range b.Succs {
				if i, ok := pos[e.b]; ok && i > 0 && i < start {
					start = i
					changed = true
				}
			}
		}
	}

	tail := t[start:]
	clones := make([]*Block, len(tail))
	for k, b := range tail {
		clones[k] = cloneBlock(b)
	}
	cloneOf := func(b *Block) *Block {
		if i, ok := pos[b]; ok && i >= start {
			return clones[i-start]
		}
		return nil
	}

	// Wire the successors of the copies. An edge into the copied part of
	// the trace goes to the copy; any other edge goes where the original's
	// edge goes, and the target's phis take the same argument for it.
	for k, b := range tail {
		c := clones[k]
		for i, e := range b.Succs {
			s := e.b
			if cs := cloneOf(s); cs != nil {
				c.AddEdgeTo(cs)
				for j, phi := range s.phis() {
					cs.phis()[j].AddArg(s.phiArgFrom(phi, b, i))
				}
				continue
			}
			c.AddEdgeTo(s)
			for _, phi := range s.phis() {
				phi.AddArg(s.phiArgFrom(phi, b, i))
			}
		}
	}

	// Move the edges from the hot prefix. redirectPred reorders b.Preds,
	// so rescan after every move.
	for k, b := range tail {
		c := clones[k]
		for moved := true; moved; {
			moved = false
			for i, e := range b.Preds {
				if j, ok := pos[e.b]; ok && j < start {
					b.redirectPred(i, c)
					moved = true
					break
				}
			}
		}
	}

	if f.Config.debug() > 0 {
		f.Logf("%s: trace %s: duplicated from %v as %v", f.Name, t, tail[0], Trace(clones))
	}
	return clones
}

// cloneBlock returns a copy of b with fresh block and value IDs and no
// edges. Values of the copy have the same op, type, aux and arguments as
// the originals; phis start with no arguments.
func cloneBlock(b *Block) *Block {
	f := b.Func
	c := f.NewBlock(b.Kind)
	c.Likely = b.Likely
	c.Origin = b
	for _, v := range b.Values {
		if v.Op == OpPhi {
			c.NewValue(v.Op, v.Type, v.AuxInt, v.Aux)
			continue
		}
		c.NewValue(v.Op, v.Type, v.AuxInt, v.Aux, v.Args...)
	}
	if ctl := b.Controls[0]; ctl != nil {
		c.SetControl(ctl)
	}
	return c
}

// A Superblock is a trace after tail duplication, with the copies made
// to remove its side entrances.
type Superblock struct {
	Trace  Trace
	Clones []*Block
}

// Blocks returns the path of the superblock: the trace up to its first
// duplicated block, followed by the copies.
func (sb Superblock) Blocks() Trace {
	n := len(sb.Trace) - len(sb.Clones)
	r := make(Trace, 0, len(sb.Trace))
	r = append(r, sb.Trace[:n]...)
	return append(r, sb.Clones...)
}

// FormSuperblocks tail-duplicates every trace, in order, repairing the
// uses of each trace's copies before the next trace is duplicated. Copies
// inherit the branch predictions of their originals.
func FormSuperblocks(f *Func, traces []Trace, preds *Predictions) ([]Superblock, int) {
	var sbs []Superblock
	dup, clones, repaired := 0, 0, 0
	for _, t := range traces {
		c := tailDuplicate(t)
		repaired += repairUses(c)
		sbs = append(sbs, Superblock{Trace: t, Clones: c})
		if len(c) > 0 {
			dup++
			clones += len(c)
		}
		if preds != nil {
			for _, b := range c {
				preds.alias(b, b.Origin)
			}
		}
	}
	if f.Config != nil && f.Config.Stats {
		f.LogStat("superblocks:", dup, "duplicated", clones, "clones", repaired, "rewrites")
	}
	return sbs, repaired
}

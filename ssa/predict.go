// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

import (
	"fmt"

	"github.com/pkg/errors"
)

// A Heuristic is one of the static branch prediction rules. Its value is
// its priority: when two rules disagree about the same condition, the
// higher one wins, and at equal priority the later evaluation wins.
type Heuristic int8

const (
	defaultHeuristic        Heuristic = iota // no rule fired; predict taken
	pointerHeuristic                         // pointers are rarely equal or nil
	loopExitHeuristic                        // branches to a loop header iterate
	opcodeHeuristic                          // x < 0 and float equality are rare
	guardHeuristic                           // a guarded store of the compared value
	loopHeaderEdgeHeuristic                  // edges that stay on a loop-carried path

	numHeuristics
)

var heuristicNames = [numHeuristics]string{
	defaultHeuristic:        "default",
	pointerHeuristic:        "pointer",
	loopExitHeuristic:       "loopexit",
	opcodeHeuristic:         "opcode",
	guardHeuristic:          "guard",
	loopHeaderEdgeHeuristic: "loopheader",
}

func (h Heuristic) String() string {
	if h < 0 || h >= numHeuristics {
		return fmt.Sprintf("Heuristic(%d)", int8(h))
	}
	return heuristicNames[h]
}

func heuristicByName(name string) (Heuristic, bool) {
	for h, n := range heuristicNames {
		if n == name {
			return Heuristic(h), true
		}
	}
	return 0, false
}

// A condKey identifies a runtime condition: the ordered pair of values a
// branch compares. Branches with no compared operands use the control
// value alone, and branches with no control value get a key of their own.
type condKey struct {
	x, y  *Value
	block *Block
}

func (k condKey) String() string {
	if k.block != nil {
		return fmt.Sprintf("(%v)", k.block)
	}
	return fmt.Sprintf("(%v, %v)", k.x, k.y)
}

// A BranchRecord is one prediction made for one block.
type BranchRecord struct {
	Block     *Block
	Op        Op        // opcode of the compared condition, OpInvalid if none
	Pred      Predicate // predicate of the compared condition
	Heuristic Heuristic // rule that produced the record
	Priority  Heuristic // priority of the rule in force for the condition when recorded
	Dir       bool      // true: Succs[0] is likely; false: Succs[1]

	key condKey
}

func (r *BranchRecord) String() string {
	return fmt.Sprintf("%v %s %v %v prio=%v dir=%v", r.Block, r.Heuristic, r.key, r.Pred, r.Priority, r.Dir)
}

// A condGroup holds the prediction in force for one condition.
type condGroup struct {
	prio Heuristic
	pred Predicate
	dir  bool
}

// resolve returns the direction of the group as seen by a branch
// that tests the condition with predicate pred.
func (g *condGroup) resolve(pred Predicate) bool {
	if pred == g.pred {
		return g.dir
	}
	return !g.dir
}

// Predictions is the heuristic engine's memory for one function: an
// append-only log of branch records, indexed by block, and one mutable
// group per compared condition. It must not be shared between functions.
type Predictions struct {
	f       *Func
	loops   LoopInfo
	groups  map[condKey]*condGroup
	log     []BranchRecord
	byBlock map[*Block][]int

	// loopCarried is the set of blocks found by walking predecessors
	// from each latch back to its header. Built on first use.
	loopCarried map[*Block]bool
}

// NewPredictions returns an empty prediction context for f.
func NewPredictions(f *Func, loops LoopInfo) *Predictions {
	if loops == nil {
		loops = f.Loopnest()
	}
	return &Predictions{
		f:       f,
		loops:   loops,
		groups:  make(map[condKey]*condGroup),
		byBlock: make(map[*Block][]int),
	}
}

// candidate is a prediction made by one heuristic, before conflict resolution.
type candidate struct {
	b    *Block
	h    Heuristic
	op   Op
	pred Predicate
	key  condKey
	dir  bool
}

// relate merges c into the group of branches testing the same condition.
// A candidate of strictly lower priority than the group takes the group's
// direction; otherwise it replaces the group's prediction. Either way a
// record is appended for c's block.
func (p *Predictions) relate(c candidate) {
	rec := BranchRecord{Block: c.b, Op: c.op, Pred: c.pred, Heuristic: c.h, key: c.key}
	seq := len(p.log)
	g := p.groups[c.key]
	switch {
	case g != nil && c.h < g.prio:
		rec.Priority = g.prio
		rec.Dir = g.resolve(c.pred)
		if p.f.Config.debug() > 0 {
			p.f.Warnl(c.b, "Branch prediction rule %s overruled by %s on %v", c.h, g.prio, c.key)
		}
	default:
		if g == nil {
			g = &condGroup{}
			p.groups[c.key] = g
		}
		g.prio = c.h
		g.pred = c.pred
		g.dir = c.dir
		rec.Priority = c.h
		rec.Dir = c.dir
		if p.f.Config.debug() > 0 {
			p.f.Warnl(c.b, "Branch prediction rule %s on %v: %s", c.h, c.key, directionString(c.dir))
		}
	}
	p.log = append(p.log, rec)
	p.byBlock[c.b] = append(p.byBlock[c.b], seq)
}

func directionString(dir bool) string {
	if dir {
		return "taken"
	}
	return "not taken"
}

// Record returns the prediction in force for b: among b's records, the one
// whose condition carries the highest priority, the newest on a tie. The
// record's Priority and Dir reflect the condition's current group, so a
// later, stronger prediction for the same condition made on another block
// is visible here.
func (p *Predictions) Record(b *Block) (BranchRecord, bool) {
	var best BranchRecord
	found := false
	for _, i := range p.byBlock[b] {
		r := p.log[i]
		g := p.groups[r.key]
		r.Priority = g.prio
		r.Dir = g.resolve(r.Pred)
		if !found || r.Priority >= best.Priority {
			best = r
			found = true
		}
	}
	return best, found
}

// Records returns every record, in the order they were made.
func (p *Predictions) Records() []BranchRecord {
	return p.log
}

// MostLikelySuccessor returns the successor of b the engine predicts.
// It returns a *NoPredictionError if b was never evaluated.
func (p *Predictions) MostLikelySuccessor(b *Block) (*Block, error) {
	i, err := p.likelyIndex(b)
	if err != nil {
		return nil, err
	}
	return b.Succs[i].b, nil
}

// likelyIndex is MostLikelySuccessor as a successor index.
func (p *Predictions) likelyIndex(b *Block) (int, error) {
	r, ok := p.Record(b)
	if !ok {
		return 0, errors.WithStack(&NoPredictionError{Func: p.f.Name, Block: b})
	}
	i := 1
	if r.Dir {
		i = 0
	}
	if i >= len(b.Succs) {
		return 0, errors.Errorf("%s: prediction for %v names successor %d, block has %d", p.f.Name, b, i, len(b.Succs))
	}
	return i, nil
}

// alias makes clone share the records of orig, as if it had been
// evaluated with the same outcome.
func (p *Predictions) alias(clone, orig *Block) {
	for _, i := range p.byBlock[orig] {
		r := p.log[i]
		r.Block = clone
		p.byBlock[clone] = append(p.byBlock[clone], len(p.log))
		p.log = append(p.log, r)
	}
}

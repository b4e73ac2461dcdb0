// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

// This file implements a static edge-probability estimate, used as the
// accuracy oracle when no profile is available. It applies the branch
// likeliness rules of the Go compiler: stay in loops; otherwise prefer
// the successor that is further from an exit, a return or a call.

func min8(a, b int8) int8 {
	if a < b {
		return a
	}
	return b
}

func max8(a, b int8) int8 {
	if a > b {
		return a
	}
	return b
}

const (
	blDEFAULT = 0
	blMin     = blDEFAULT
	blCALL    = 1
	blRET     = 2
	blEXIT    = 3
)

var bllikelies = [4]string{"default", "call", "ret", "exit"}

// Weights, out of likelyDen, of the predicted and the other successor.
const (
	likelyNum   = 4
	unlikelyNum = 1
	likelyDen   = likelyNum + unlikelyNum
)

func describePredictionAgrees(b *Block, prediction BranchPrediction) string {
	s := ""
	if prediction == b.Likely {
		s = " (agrees with previous)"
	} else if b.Likely != BranchUnknown {
		s = " (disagrees with previous, ignored)"
	}
	return s
}

func describeBranchPrediction(f *Func, b *Block, likely, not int8, prediction BranchPrediction) {
	f.Warnl(b, "Branch prediction rule %s < %s%s",
		bllikelies[likely-blMin], bllikelies[not-blMin], describePredictionAgrees(b, prediction))
}

// staticEstimate is an EdgeProbabilityOracle derived from Block.Likely
// as it stood when the estimate was made. Blocks created later (clones)
// are looked up through their Origin.
type staticEstimate struct {
	likely map[*Block]BranchPrediction
}

// StaticEstimate predicts the branches of f with the compiler's static
// likeliness rules, records the verdicts in Block.Likely (without
// overriding a prediction already present), and returns an oracle that
// gives the predicted successor of a two-way branch a 4/5 probability.
// Branches with no verdict split evenly.
func StaticEstimate(f *Func) EdgeProbabilityOracle {
	likelyadjust(f)
	est := &staticEstimate{likely: make(map[*Block]BranchPrediction, len(f.Blocks))}
	for _, b := range f.Blocks {
		est.likely[b] = b.Likely
	}
	return est
}

func (est *staticEstimate) EdgeProbability(b *Block, i int) Probability {
	for b.Origin != nil {
		if _, ok := est.likely[b]; ok {
			break
		}
		b = b.Origin
	}
	n := len(b.Succs)
	switch {
	case n == 0:
		return Prob(0, 1)
	case n != 2:
		return Prob(1, uint64(n))
	}
	switch est.likely[b] {
	case BranchLikely:
		if i == 0 {
			return Prob(likelyNum, likelyDen)
		}
		return Prob(unlikelyNum, likelyDen)
	case BranchUnlikely:
		if i == 1 {
			return Prob(likelyNum, likelyDen)
		}
		return Prob(unlikelyNum, likelyDen)
	}
	return Prob(1, 2)
}

func likelyadjust(f *Func) {
	// The values assigned to certain and local only matter
	// in their rank order.  0 is default, more positive
	// is less likely. It's possible to assign a negative
	// unlikeliness (though not currently the case).
	certain := make([]int8, f.NumBlocks()) // In the long run, all outcomes are at least this bad. Mainly for Exit
	local := make([]int8, f.NumBlocks())   // for our immediate predecessors.

	po := f.postorder()
	nest := f.loopnest()
	b2l := nest.b2l
	debug := f.Config.debug()

	for _, b := range po {
		switch b.Kind {
		case BlockExit:
			// Very unlikely.
			local[b.ID] = blEXIT
			certain[b.ID] = blEXIT

			// Ret, it depends.
		case BlockRet:
			local[b.ID] = blRET
			certain[b.ID] = blRET

		default:
			if len(b.Succs) == 1 {
				certain[b.ID] = certain[b.Succs[0].b.ID]
			} else if len(b.Succs) == 2 {
				// If successor is an unvisited backedge, it's in loop and we don't care.
				// Its default unlikely is also zero which is consistent with favoring loop edges.
				// Notice that this can act like a "reset" on unlikeliness at loops; the
				// default "everything returns" unlikeliness is erased by min with the
				// backedge likeliness; however a loop with calls on every path will be
				// tagged with call cost. Net effect is that loop entry is favored.
				b0 := b.Succs[0].b.ID
				b1 := b.Succs[1].b.ID
				certain[b.ID] = min8(certain[b0], certain[b1])

				l := b2l[b.ID]
				l0 := b2l[b0]
				l1 := b2l[b1]

				prediction := b.Likely
				// Weak loop heuristic -- both source and at least one dest are in loops,
				// and there is a difference in the destinations.
				// TODO what is best arrangement for nested loops?
				if l != nil && l0 != l1 {
					noprediction := false
					switch {
					// prefer not to exit loops
					case l1 == nil:
						prediction = BranchLikely
					case l0 == nil:
						prediction = BranchUnlikely

						// prefer to stay in loop, not exit to outer.
					case l == l0:
						prediction = BranchLikely
					case l == l1:
						prediction = BranchUnlikely
					default:
						noprediction = true
					}
					if debug > 0 && !noprediction {
						f.Warnl(b, "Branch prediction rule stay in loop%s",
							describePredictionAgrees(b, prediction))
					}

				} else {
					// Lacking loop structure, fall back on heuristics.
					if certain[b1] > certain[b0] {
						prediction = BranchLikely
						if debug > 0 {
							describeBranchPrediction(f, b, certain[b0], certain[b1], prediction)
						}
					} else if certain[b0] > certain[b1] {
						prediction = BranchUnlikely
						if debug > 0 {
							describeBranchPrediction(f, b, certain[b1], certain[b0], prediction)
						}
					} else if local[b1] > local[b0] {
						prediction = BranchLikely
						if debug > 0 {
							describeBranchPrediction(f, b, local[b0], local[b1], prediction)
						}
					} else if local[b0] > local[b1] {
						prediction = BranchUnlikely
						if debug > 0 {
							describeBranchPrediction(f, b, local[b1], local[b0], prediction)
						}
					}
				}
				if b.Likely != prediction {
					if b.Likely == BranchUnknown {
						b.Likely = prediction
					}
				}
			}
			// Look for calls in the block.  If there is one, make this block unlikely.
			for _, v := range b.Values {
				if opcodeTable[v.Op].call {
					local[b.ID] = blCALL
					if len(b.Succs) > 0 {
						certain[b.ID] = max8(blCALL, certain[b.Succs[0].b.ID])
					}
				}
			}
		}
		if debug > 2 {
			f.Warnl(b, "BP: Block %s, local=%s, certain=%s", b, bllikelies[local[b.ID]-blMin], bllikelies[certain[b.ID]-blMin])
		}
	}
}

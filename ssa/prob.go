// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

import (
	"fmt"
	"math/bits"
)

// A Probability is a rational number in [0,1].
type Probability struct {
	Num, Den uint64
}

// Prob returns num/den.
func Prob(num, den uint64) Probability {
	return Probability{Num: num, Den: den}
}

// Float64 returns p as a float, 0 for a zero denominator.
func (p Probability) Float64() float64 {
	if p.Den == 0 {
		return 0
	}
	return float64(p.Num) / float64(p.Den)
}

// Less reports whether p < q, comparing the fractions exactly.
func (p Probability) Less(q Probability) bool {
	if p.Den == 0 || q.Den == 0 {
		return p.Float64() < q.Float64()
	}
	// Cross-multiply in 128 bits.
	lhsHi, lhsLo := bits.Mul64(p.Num, q.Den)
	rhsHi, rhsLo := bits.Mul64(q.Num, p.Den)
	return lhsHi < rhsHi || lhsHi == rhsHi && lhsLo < rhsLo
}

func (p Probability) String() string {
	return fmt.Sprintf("%d/%d", p.Num, p.Den)
}

// An EdgeProbabilityOracle supplies the probability that control leaving
// block b follows its ith successor edge, from a profile or an estimate.
type EdgeProbabilityOracle interface {
	EdgeProbability(b *Block, i int) Probability
}

// A ProbabilityTable is an EdgeProbabilityOracle backed by explicit
// per-block successor probabilities, typically read from a profile.
// Blocks without an entry split their probability evenly.
type ProbabilityTable map[*Block][]Probability

// Set records the successor probabilities of b, in b.Succs order.
func (t ProbabilityTable) Set(b *Block, probs ...Probability) {
	t[b] = probs
}

func (t ProbabilityTable) EdgeProbability(b *Block, i int) Probability {
	if probs, ok := t[b]; ok && i < len(probs) {
		return probs[i]
	}
	if n := len(b.Succs); n > 0 {
		return Prob(1, uint64(n))
	}
	return Prob(0, 1)
}

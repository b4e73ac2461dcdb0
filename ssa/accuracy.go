// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

// Accuracy is the probability-weighted agreement between the engine's
// predictions and an edge-probability oracle over one function.
//
// For each two-way branch, Total grows by the probability of the
// successor the oracle favors. Correct grows by the same amount if the
// engine picked that successor, and by the probability of the engine's
// pick otherwise.
type Accuracy struct {
	Correct, Total float64

	Branches int // two-way branches evaluated
	Hits     int // branches where the engine picked the oracle's favorite
}

// Ratio returns Correct/Total. ok is false if the function had no
// two-way branch, in which case the ratio is not defined.
func (a Accuracy) Ratio() (r float64, ok bool) {
	if a.Total == 0 {
		return 0, false
	}
	return a.Correct / a.Total, true
}

// Err returns ErrNotApplicable if Ratio is not defined, and nil otherwise.
func (a Accuracy) Err() error {
	if a.Total == 0 {
		return ErrNotApplicable
	}
	return nil
}

// Evaluate measures preds against oracle over the two-way branches of f.
// Copies made by tail duplication are skipped: they repeat their origin's
// prediction and would count it twice. Predictions are compared by
// successor index, so edges redirected to copies compare like the
// original edges. On equal oracle probabilities the first successor is
// taken as favored.
func Evaluate(f *Func, preds *Predictions, oracle EdgeProbabilityOracle) (Accuracy, error) {
	var a Accuracy
	for _, b := range f.Blocks {
		if b.Kind != BlockIf || b.Origin != nil {
			continue
		}
		p0 := oracle.EdgeProbability(b, 0)
		p1 := oracle.EdgeProbability(b, 1)
		best, bestP := 0, p0
		if p0.Less(p1) {
			best, bestP = 1, p1
		}
		picked, err := preds.likelyIndex(b)
		if err != nil {
			return a, err
		}
		a.Branches++
		a.Total += bestP.Float64()
		if picked == best {
			a.Hits++
			a.Correct += bestP.Float64()
		} else {
			a.Correct += oracle.EdgeProbability(b, picked).Float64()
		}
		if f.Config.debug() > 1 {
			f.Warnl(b, "accuracy: predicted %d, oracle favors %d (%v)", picked, best, bestP)
		}
	}
	if f.Config != nil && f.Config.Stats {
		r, _ := a.Ratio()
		f.LogStat("accuracy:", a.Hits, "hits", a.Branches, "branches", r, "ratio")
	}
	return a, nil
}

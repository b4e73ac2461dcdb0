// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotApplicable is returned by Accuracy.Err when a function has no
// two-way branch and so no accuracy can be computed.
var ErrNotApplicable = errors.New("accuracy not applicable: no two-way branches")

// A NoPredictionError reports a query for the likely successor of a block
// the heuristic engine never evaluated.
type NoPredictionError struct {
	Func  string
	Block *Block
}

func (e *NoPredictionError) Error() string {
	return fmt.Sprintf("%s: no branch prediction recorded for %v", e.Func, e.Block)
}

// A MalformedError reports a structural problem in the input graph.
type MalformedError struct {
	Func  string
	Block *Block // may be nil
	Value *Value // may be nil
	Msg   string
}

func (e *MalformedError) Error() string {
	switch {
	case e.Value != nil:
		return fmt.Sprintf("%s: malformed value %s in %v: %s", e.Func, e.Value.LongString(), e.Block, e.Msg)
	case e.Block != nil:
		return fmt.Sprintf("%s: malformed block %v: %s", e.Func, e.Block, e.Msg)
	}
	return fmt.Sprintf("%s: malformed function: %s", e.Func, e.Msg)
}

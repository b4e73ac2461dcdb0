// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ssa

import (
	"slices"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	c, err := LoadConfig(strings.NewReader("debug: 2\nstats: true\ndisable: [guard, pointer]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Debug != 2 || !c.Stats || !slices.Equal(c.Disabled, []string{"guard", "pointer"}) {
		t.Errorf("LoadConfig = %+v", c)
	}
	if c.enabled(guardHeuristic) || c.enabled(pointerHeuristic) || !c.enabled(opcodeHeuristic) {
		t.Errorf("enabled rules do not match disable list %v", c.Disabled)
	}
}

func TestLoadConfigEmpty(t *testing.T) {
	c, err := LoadConfig(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if c.Debug != 0 || c.Stats || len(c.Disabled) != 0 {
		t.Errorf("empty config decoded as %+v", c)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	for _, in := range []string{
		"debug: -1\n",
		"disable: [nosuchrule]\n",
		"verbose: true\n",
		"debug: [1]\n",
	} {
		if _, err := LoadConfig(strings.NewReader(in)); err == nil {
			t.Errorf("LoadConfig(%q) succeeded, want error", in)
		}
	}
}

func TestParseDebug(t *testing.T) {
	var c Config
	if err := c.ParseDebug("ssa/superblock/debug=3,superblock/stats, disable=loopexit"); err != nil {
		t.Fatal(err)
	}
	if c.Debug != 3 || !c.Stats || !slices.Equal(c.Disabled, []string{"loopexit"}) {
		t.Errorf("ParseDebug result = %+v", c)
	}
	if err := c.ParseDebug("debug,stats=0"); err != nil {
		t.Fatal(err)
	}
	if c.Debug != 1 || c.Stats {
		t.Errorf("debug,stats=0 gave debug=%d stats=%v", c.Debug, c.Stats)
	}

	for _, bad := range []string{"debug=x", "disable", "disable=nosuchrule", "frobnicate"} {
		var c Config
		if err := c.ParseDebug(bad); err == nil {
			t.Errorf("ParseDebug(%q) succeeded, want error", bad)
		}
	}
}

func TestNilConfigDefaults(t *testing.T) {
	var c *Config
	if c.debug() != 0 {
		t.Errorf("nil config has debug level %d", c.debug())
	}
	for h := Heuristic(0); h < numHeuristics; h++ {
		if !c.enabled(h) {
			t.Errorf("nil config disables %s", h)
		}
		if got, ok := heuristicByName(h.String()); !ok || got != h {
			t.Errorf("heuristicByName(%q) = %v, %v", h.String(), got, ok)
		}
	}
}
